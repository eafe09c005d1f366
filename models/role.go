package models

// Role is carried in staff tokens issued by the external auth service.
type Role string

const (
	RoleManager Role = "manager"
	RoleKitchen Role = "kitchen"
)

func (r Role) IsValid() bool {
	return r == RoleManager || r == RoleKitchen
}
