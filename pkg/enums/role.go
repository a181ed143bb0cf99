package enums

import (
	"fmt"
	"strings"
)

// Role is the coarse-grained permission tag that decides which dashboard a user
// lands on. It is not a security boundary by itself; every request is
// authorized server-side regardless of the role the client claims.
type Role string

const (
	RoleAdmin         Role = "admin"
	RoleEVMStaff      Role = "evm_staff"
	RoleDealerManager Role = "dealer_manager"
	RoleDealerStaff   Role = "dealer_staff"
)

var validRoles = []Role{
	RoleAdmin,
	RoleEVMStaff,
	RoleDealerManager,
	RoleDealerStaff,
}

// landingRoutes maps every role to an explicit dashboard root. Keeping the
// table total means no role depends on route-order fallthrough.
var landingRoutes = map[Role]string{
	RoleAdmin:         "/admin/users",
	RoleEVMStaff:      "/evmstaff/dashboard",
	RoleDealerManager: "/dealermanager/dashboard",
	RoleDealerStaff:   "/dealerstaff/dashboard",
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// DashboardPath returns the landing route for the role, or empty for an
// unknown role.
func (r Role) DashboardPath() string {
	return landingRoutes[r]
}

// DealerScoped reports whether the role operates inside a single dealer and
// therefore requires a dealer affiliation on its claims.
func (r Role) DealerScoped() bool {
	return r == RoleDealerManager || r == RoleDealerStaff
}

// ParseRole converts raw input into a Role. Matching is case-insensitive: role
// claims arrive from several backends with inconsistent casing.
func ParseRole(value string) (Role, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validRoles {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}

// Roles returns the full enumeration, in declaration order.
func Roles() []Role {
	return append([]Role(nil), validRoles...)
}
