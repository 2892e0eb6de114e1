package enums

import "fmt"

// SalesRepRole scopes what a directory member may do.
type SalesRepRole string

const (
	RoleSales   SalesRepRole = "sales"
	RolePricing SalesRepRole = "pricing"
	RoleManager SalesRepRole = "manager"
)

var validSalesRepRoles = []SalesRepRole{RoleSales, RolePricing, RoleManager}

func (r SalesRepRole) IsValid() bool {
	for _, candidate := range validSalesRepRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseSalesRepRole converts raw input into SalesRepRole.
func ParseSalesRepRole(value string) (SalesRepRole, error) {
	for _, candidate := range validSalesRepRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sales rep role %q", value)
}
