package model

// Role represents user roles in the system
type Role struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Code        string      `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // ADMIN, STAFF
	Name        string      `gorm:"type:varchar(100)" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Privileges  []Privilege `gorm:"many2many:role_privileges;" json:"privileges,omitempty"`
}

const (
	RoleAdmin = "ADMIN"
	RoleStaff = "STAFF"
)

var DefaultRoles = []Role{
	{
		Code:        RoleAdmin,
		Name:        "Administrator",
		Description: "Inventory, replenishment and audit access",
	},
	{
		Code:        RoleStaff,
		Name:        "Staff",
		Description: "Point of sale access",
	},
}

// staffPrivileges is the subset of DefaultPrivileges granted to STAFF.
var staffPrivileges = map[string]bool{
	PrivOrderCreate: true,
	PrivProductView: true,
	PrivStockView:   true,
	PrivRFIDScan:    true,
}

// PrivilegesFor returns the default privilege set of a role code.
func PrivilegesFor(roleCode string, all []Privilege) []Privilege {
	if roleCode == RoleAdmin {
		return all
	}
	out := make([]Privilege, 0, len(staffPrivileges))
	for _, p := range all {
		if staffPrivileges[p.Code] {
			out = append(out, p)
		}
	}
	return out
}
