package organization

import "context"

// OrganizationRepository supplies organization configuration.
type OrganizationRepository interface {
	GetByID(ctx context.Context, id string) (Organization, error)
	List(ctx context.Context) ([]Organization, error)
}

// MemberRepository supplies the roster used to enumerate expected user-days.
type MemberRepository interface {
	ListByOrg(ctx context.Context, orgID string) ([]Member, error)
	GetByUserID(ctx context.Context, orgID string, userID string) (Member, error)
}
