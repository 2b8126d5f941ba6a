package models

// Role represents user roles in the system
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
	RoleViewer Role = "viewer"
)

// Actions checked by the permission middleware.
const (
	ActionViewMaintenance   = "view_maintenance"
	ActionCreateMaintenance = "create_maintenance"
	ActionUpdateMaintenance = "update_maintenance"
	ActionDeleteMaintenance = "delete_maintenance"
	ActionManageVehicles    = "manage_vehicles"
)

// Claims represents JWT claims
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Exp      int64  `json:"exp"`
}

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleOwner, RoleViewer:
		return true
	default:
		return false
	}
}

// HasPermission checks if the role may perform a specific action
func (r Role) HasPermission(action string) bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleOwner:
		return action == ActionViewMaintenance || action == ActionCreateMaintenance ||
			action == ActionUpdateMaintenance || action == ActionDeleteMaintenance ||
			action == ActionManageVehicles
	case RoleViewer:
		return action == ActionViewMaintenance
	default:
		return false
	}
}
