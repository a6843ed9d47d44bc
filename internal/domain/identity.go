package domain

// RoleKind is the role label the remote platform attaches to an identity.
type RoleKind string

const (
	// RoleOwner owns one or more locations.
	RoleOwner RoleKind = "owner"
	// RoleAdmin administers the platform.
	RoleAdmin RoleKind = "admin"
	// RoleManager manages a location on behalf of its owner.
	RoleManager RoleKind = "manager"
	// RoleEmployee works at a location.
	RoleEmployee RoleKind = "employee"
)

// Valid reports whether r is one of the known role kinds.
func (r RoleKind) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleManager, RoleEmployee:
		return true
	default:
		return false
	}
}

// Identity is the authenticated user of the current session.
// It lives in memory only; the credential token is the only durable trace of it.
type Identity struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Role     RoleKind `json:"role"`
}

// Employee is a member of a location as listed by the remote platform.
type Employee struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Role     RoleKind `json:"role"`
	Active   bool     `json:"active"`
}
