package domain

// Roles forwarded by the authenticating gateway.
const (
	RoleCustomer = "customer"
	RoleSeller   = "seller"
	RoleStaff    = "staff"
)

// Principal is the acting user as verified by the upstream gateway. The
// user/role directory itself is an external collaborator; only the identity
// and role reach this service.
type Principal struct {
	UserID string
	Role   string
}

// IsStaff reports whether the principal may act on any order line. This
// covers the superuser-or-seller-group predicate of the user directory.
func (p Principal) IsStaff() bool {
	return p.Role == RoleStaff
}
