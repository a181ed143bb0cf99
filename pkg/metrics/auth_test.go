package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestAuthMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAuthMetrics(reg)

	m.IncLogin("admin")
	m.IncLogin("admin")
	m.IncLoginFailure("invalid_credentials")
	m.IncLogout()
	m.IncRevocation()
	m.IncBootstrap("anonymous")

	if got := testutil.ToFloat64(m.logins.WithLabelValues("admin")); got != 2 {
		t.Fatalf("expected 2 admin logins, got %v", got)
	}
	if got := testutil.ToFloat64(m.loginFailures.WithLabelValues("invalid_credentials")); got != 1 {
		t.Fatalf("expected 1 failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.activeSessions); got != 1 {
		t.Fatalf("expected 1 active session (2 logins - 1 revocation), got %v", got)
	}
}

func TestActiveSessionsFollowsRevocations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAuthMetrics(reg)

	// Three sessions, then a password reset revokes them all. Each revoke is
	// announced on the events channel, so the gauge returns to zero.
	m.IncLogin("dealer_manager")
	m.IncLogin("dealer_staff")
	m.IncLogin("dealer_staff")
	m.IncRevocation()
	m.IncRevocation()
	m.IncRevocation()

	if got := testutil.ToFloat64(m.activeSessions); got != 0 {
		t.Fatalf("expected gauge back at 0 after revoking all, got %v", got)
	}

	// An explicit logout counts on its own counter only; the matching
	// broadcast carries the decrement.
	m.IncLogin("admin")
	m.IncLogout()
	if got := testutil.ToFloat64(m.activeSessions); got != 1 {
		t.Fatalf("expected logout counter not to touch the gauge, got %v", got)
	}
	m.IncRevocation()
	if got := testutil.ToFloat64(m.activeSessions); got != 0 {
		t.Fatalf("expected broadcast to drop the gauge, got %v", got)
	}
}

func TestAuthMetricsNilSafe(t *testing.T) {
	var m *AuthMetrics
	m.IncLogin("admin")
	m.IncLogout()

	empty := NewAuthMetrics(nil)
	empty.IncLogin("admin")
	empty.IncLoginFailure("")
	empty.IncRevocation()
	empty.IncBootstrap("")
}
