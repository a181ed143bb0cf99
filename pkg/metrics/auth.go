package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// AuthMetrics records the session lifecycle counters exposed on /metrics.
type AuthMetrics struct {
	logins         *prometheus.CounterVec
	loginFailures  *prometheus.CounterVec
	logouts        prometheus.Counter
	revocations    prometheus.Counter
	bootstraps     *prometheus.CounterVec
	activeSessions prometheus.Gauge
}

// NewAuthMetrics registers the auth metrics on the provided registerer. A nil
// registerer yields a no-op instance, which keeps tests quiet.
func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	if reg == nil {
		return &AuthMetrics{}
	}
	logins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_logins_total",
		Help: "Successful logins by role.",
	}, []string{"role"})
	loginFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_login_failures_total",
		Help: "Failed login attempts by reason.",
	}, []string{"reason"})
	logouts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_logouts_total",
		Help: "Explicit logouts.",
	})
	revocations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_session_revocations_total",
		Help: "Logout broadcasts observed on the session events channel.",
	})
	bootstraps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_bootstraps_total",
		Help: "Session bootstrap resolutions by resulting phase.",
	}, []string{"phase"})
	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "auth_active_sessions",
		Help: "Approximate live sessions: logins minus observed revocations. Sessions that lapse by TTL are not subtracted.",
	})
	reg.MustRegister(logins, loginFailures, logouts, revocations, bootstraps, activeSessions)
	return &AuthMetrics{
		logins:         logins,
		loginFailures:  loginFailures,
		logouts:        logouts,
		revocations:    revocations,
		bootstraps:     bootstraps,
		activeSessions: activeSessions,
	}
}

// IncLogin counts a successful login for the role.
func (m *AuthMetrics) IncLogin(role string) {
	if m == nil || m.logins == nil {
		return
	}
	m.logins.WithLabelValues(normalizeLabel(role)).Inc()
	if m.activeSessions != nil {
		m.activeSessions.Inc()
	}
}

// IncLoginFailure counts a failed login attempt.
func (m *AuthMetrics) IncLoginFailure(reason string) {
	if m == nil || m.loginFailures == nil {
		return
	}
	m.loginFailures.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncLogout counts an explicit logout. The active-sessions gauge is left to
// IncRevocation since the revoke also lands on the events channel.
func (m *AuthMetrics) IncLogout() {
	if m == nil || m.logouts == nil {
		return
	}
	m.logouts.Inc()
}

// IncRevocation counts a logout broadcast observed by the listener. Every
// revoked session is announced there, so this is where the gauge drops.
func (m *AuthMetrics) IncRevocation() {
	if m == nil || m.revocations == nil {
		return
	}
	m.revocations.Inc()
	if m.activeSessions != nil {
		m.activeSessions.Dec()
	}
}

// IncBootstrap counts a bootstrap resolution for the resulting phase.
func (m *AuthMetrics) IncBootstrap(phase string) {
	if m == nil || m.bootstraps == nil {
		return
	}
	m.bootstraps.WithLabelValues(normalizeLabel(phase)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
