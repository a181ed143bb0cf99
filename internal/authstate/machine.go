package authstate

import (
	"strings"

	"github.com/evdms-platform/evdms-backend/pkg/auth"
	"github.com/evdms-platform/evdms-backend/pkg/auth/session"
	"github.com/evdms-platform/evdms-backend/pkg/enums"
)

// Phase is the coarse authentication status of a client session.
type Phase string

const (
	PhaseChecking             Phase = "checking"
	PhaseAnonymous            Phase = "anonymous"
	PhaseAuthenticated        Phase = "authenticated"
	PhaseResetPasswordPending Phase = "reset_password_pending"
)

// State is the resolved client session: who is signed in, where they are, and
// the UI-only collections tied to the session. It is a value type mutated only
// through Reduce.
type State struct {
	Phase             Phase
	User              auth.Identity
	View              enums.View
	SelectedVehicleID string
	Favorites         []string
	Compare           []string
}

// Initial returns the state every client starts in before resolution.
func Initial() State {
	return State{Phase: PhaseChecking, View: enums.ViewLogin}
}

// Action is a marker for reducer inputs.
type Action interface{ isAction() }

// LoginSucceeded lands the user on their role's dashboard.
type LoginSucceeded struct {
	User auth.Identity
}

// LoggedOut returns the client to the anonymous login surface.
type LoggedOut struct{}

// Navigated moves to a named view without touching authentication.
type Navigated struct {
	View enums.View
}

// NavigatedToDetail opens a vehicle detail view and remembers the selection.
type NavigatedToDetail struct {
	VehicleID string
}

// NavigatedToCatalog opens the catalog and drops any vehicle selection.
type NavigatedToCatalog struct{}

// NavigatedToResetPassword opens the reset form.
type NavigatedToResetPassword struct{}

// PreferencesLoaded replaces both UI collections, typically after bootstrap.
type PreferencesLoaded struct {
	Favorites []string
	Compare   []string
}

// FavoriteToggled adds the vehicle to favorites, or removes it when present.
type FavoriteToggled struct {
	VehicleID string
}

// CompareToggled adds the vehicle to the compare list, or removes it when
// present.
type CompareToggled struct {
	VehicleID string
}

func (LoginSucceeded) isAction()           {}
func (LoggedOut) isAction()                {}
func (Navigated) isAction()                {}
func (NavigatedToDetail) isAction()        {}
func (NavigatedToCatalog) isAction()       {}
func (NavigatedToResetPassword) isAction() {}
func (PreferencesLoaded) isAction()        {}
func (FavoriteToggled) isAction()          {}
func (CompareToggled) isAction()           {}

// Reduce applies one action to the state and returns the next state. It is a
// total function: unknown actions and nonsense inputs return the state
// unchanged rather than panicking.
func Reduce(s State, a Action) State {
	switch act := a.(type) {
	case LoginSucceeded:
		if !act.User.Valid() {
			return s
		}
		s.Phase = PhaseAuthenticated
		s.User = act.User
		s.View = enums.DashboardView(act.User.Role)
		s.SelectedVehicleID = ""
		return s

	case LoggedOut:
		return State{Phase: PhaseAnonymous, View: enums.ViewLogin}

	case Navigated:
		if !act.View.IsValid() {
			return s
		}
		s.View = act.View
		return s

	case NavigatedToDetail:
		if strings.TrimSpace(act.VehicleID) == "" {
			return s
		}
		s.View = enums.ViewDetail
		s.SelectedVehicleID = act.VehicleID
		return s

	case NavigatedToCatalog:
		s.View = enums.ViewCatalog
		s.SelectedVehicleID = ""
		return s

	case NavigatedToResetPassword:
		s.View = enums.ViewResetPassword
		return s

	case PreferencesLoaded:
		s.Favorites = append([]string(nil), act.Favorites...)
		s.Compare = append([]string(nil), act.Compare...)
		return s

	case FavoriteToggled:
		if strings.TrimSpace(act.VehicleID) == "" {
			return s
		}
		s.Favorites = toggle(s.Favorites, act.VehicleID)
		return s

	case CompareToggled:
		if strings.TrimSpace(act.VehicleID) == "" {
			return s
		}
		s.Compare = toggle(s.Compare, act.VehicleID)
		return s
	}
	return s
}

// Resolve decides the post-bootstrap state. The reset deep link wins over any
// stored session: a user following a reset email must land on the reset form
// even while signed in. A live session restores the previous view rather than
// redirecting to the dashboard. Everything else is anonymous.
func Resolve(resetToken string, snap session.Snapshot, currentView enums.View) State {
	if strings.TrimSpace(resetToken) != "" {
		return State{Phase: PhaseResetPasswordPending, View: enums.ViewResetPassword}
	}

	if snap.Valid() {
		view := currentView
		if !view.IsValid() || view == enums.ViewLogin || view == enums.ViewResetPassword {
			view = enums.DashboardView(snap.Role)
		}
		return State{
			Phase: PhaseAuthenticated,
			User: auth.Identity{
				ID:       snap.UserID,
				FullName: snap.FullName,
				Role:     snap.Role,
				DealerID: snap.DealerID,
			},
			View: view,
		}
	}

	return State{Phase: PhaseAnonymous, View: enums.ViewLogin}
}

func toggle(list []string, id string) []string {
	for i, existing := range list {
		if existing == id {
			next := append([]string(nil), list[:i]...)
			return append(next, list[i+1:]...)
		}
	}
	next := append([]string(nil), list...)
	return append(next, id)
}
