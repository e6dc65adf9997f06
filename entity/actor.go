package entity

type Role string

const (
	RoleSeller  Role = "seller"
	RoleScanner Role = "scanner"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSeller, RoleScanner, RoleAdmin:
		return true
	}
	return false
}

// Actor is an already authenticated caller. The core trusts that the role was
// checked before any lifecycle operation is invoked.
type Actor struct {
	ID   string
	Role Role
}
