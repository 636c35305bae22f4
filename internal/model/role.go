package model

// Role identifies which side of the pass an observer works: front of
// house or back of house. Roles gate nothing except the reset action,
// which requires a known role on the request.
type Role string

const (
	RoleFOH Role = "FOH"
	RoleBOH Role = "BOH"
)

// Valid reports whether r names one of the two known roles.
func (r Role) Valid() bool {
	return r == RoleFOH || r == RoleBOH
}
