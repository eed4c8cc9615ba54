package organization

// Role is carried in the access token and gates manager-only endpoints.
type Role string

const (
	RoleOwner    Role = "owner"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleOwner, RoleManager, RoleEmployee:
		return true
	}
	return false
}

// CanManage reports whether the role may read organization KPIs and approve timesheets.
func (r Role) CanManage() bool {
	return r == RoleManager || r == RoleOwner
}
