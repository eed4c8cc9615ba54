package organization

import "errors"

var (
	ErrOrganizationNotFound  = errors.New("organization not found")
	ErrMemberNotFound        = errors.New("member not found")
	ErrManagerAccessRequired = errors.New("manager access required")
)
