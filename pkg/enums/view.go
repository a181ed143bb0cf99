package enums

// View names the client surfaces the session controller can resolve to.
type View string

const (
	ViewLogin         View = "login"
	ViewDetail        View = "detail"
	ViewCatalog       View = "catalog"
	ViewResetPassword View = "reset-password"

	ViewDashboardAdmin         View = "dashboard-admin"
	ViewDashboardEVMStaff      View = "dashboard-evm_staff"
	ViewDashboardDealerManager View = "dashboard-dealer_manager"
	ViewDashboardDealerStaff   View = "dashboard-dealer_staff"
)

var dashboardViews = map[Role]View{
	RoleAdmin:         ViewDashboardAdmin,
	RoleEVMStaff:      ViewDashboardEVMStaff,
	RoleDealerManager: ViewDashboardDealerManager,
	RoleDealerStaff:   ViewDashboardDealerStaff,
}

// DashboardView returns the dashboard view for a role, or the login view for
// an unknown role so callers degrade to the unauthenticated surface.
func DashboardView(role Role) View {
	if view, ok := dashboardViews[role]; ok {
		return view
	}
	return ViewLogin
}

// IsValid reports whether the value is a known View.
func (v View) IsValid() bool {
	switch v {
	case ViewLogin, ViewDetail, ViewCatalog, ViewResetPassword,
		ViewDashboardAdmin, ViewDashboardEVMStaff,
		ViewDashboardDealerManager, ViewDashboardDealerStaff:
		return true
	}
	return false
}
