package authdomain

// Role is the platform-wide role carried in a token. Admins may run
// evaluations; members may only wager and read.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// IsValid reports whether r is one of the roles a token may carry.
func (r Role) IsValid() bool {
	return r == RoleMember || r == RoleAdmin
}

func (r Role) String() string {
	return string(r)
}
