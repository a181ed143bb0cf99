package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/evdms-platform/evdms-backend/api/controllers"
	"github.com/evdms-platform/evdms-backend/api/middleware"
	"github.com/evdms-platform/evdms-backend/internal/auth"
	"github.com/evdms-platform/evdms-backend/internal/dealers"
	"github.com/evdms-platform/evdms-backend/internal/passwordreset"
	"github.com/evdms-platform/evdms-backend/internal/preferences"
	"github.com/evdms-platform/evdms-backend/internal/users"
	"github.com/evdms-platform/evdms-backend/pkg/auth/session"
	"github.com/evdms-platform/evdms-backend/pkg/config"
	"github.com/evdms-platform/evdms-backend/pkg/enums"
	"github.com/evdms-platform/evdms-backend/pkg/logger"
	"github.com/evdms-platform/evdms-backend/pkg/metrics"
	redisclient "github.com/evdms-platform/evdms-backend/pkg/redis"
)

// Pinger is the readiness surface backing stores expose.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Params carries every dependency the router wires into handlers. Handlers
// receive their collaborators here rather than reaching for globals.
type Params struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           Pinger
	Redis        *redisclient.Client
	Sessions     session.SnapshotReader
	AuthService  auth.Service
	ResetService *passwordreset.Service
	Preferences  *preferences.Service
	UsersRepo    *users.Repository
	DealersRepo  *dealers.Repository
	Metrics      *metrics.AuthMetrics
	Registry     *prometheus.Registry
}

// NewRouter assembles the full HTTP surface. Every role group is guarded the
// same way: Auth first, then an exact role match. There are no unguarded
// role-scoped routes.
func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger
	timeout := cfg.Auth.CallTimeout

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.RateLimit.LoginWindow,
		cfg.RateLimit.LoginIPLimit,
		cfg.RateLimit.LoginEmailLimit,
	)
	resetPolicy := middleware.NewAuthRateLimitPolicy(
		"reset",
		cfg.Reset.IssueWindow,
		cfg.Reset.IssuePerEmail*2,
		cfg.Reset.IssuePerEmail,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).
			Post("/login", controllers.AuthLogin(p.AuthService, timeout, logg))
		r.Post("/logout", controllers.AuthLogout(p.AuthService, timeout, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.AuthService, timeout, logg))

		r.Route("/password-reset", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(resetPolicy, p.Redis, logg)).
				Post("/request", controllers.PasswordResetRequest(p.ResetService, cfg.App.IsDev(), timeout, logg))
			r.Post("/confirm", controllers.PasswordResetConfirm(p.ResetService, timeout, logg))
		})
	})

	r.Post("/api/v1/session/bootstrap",
		controllers.SessionBootstrap(p.Sessions, p.Preferences, p.Metrics, timeout, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))

		r.Route("/preferences", func(r chi.Router) {
			r.Get("/favorites", controllers.GetFavorites(p.Preferences, logg))
			r.Put("/favorites", controllers.PutFavorites(p.Preferences, logg))
			r.Get("/compare", controllers.GetCompare(p.Preferences, logg))
			r.Put("/compare", controllers.PutCompare(p.Preferences, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRoles(logg, enums.RoleAdmin))
			r.Get("/users", controllers.AdminUsers(p.UsersRepo, logg))
		})

		r.Route("/evmstaff", func(r chi.Router) {
			r.Use(middleware.RequireRoles(logg, enums.RoleEVMStaff))
			r.Get("/dashboard", controllers.EVMStaffDashboard(p.DealersRepo, logg))
		})

		r.Route("/dealermanager", func(r chi.Router) {
			r.Use(middleware.RequireRoles(logg, enums.RoleDealerManager))
			r.Get("/dashboard", controllers.DealerDashboard(p.DealersRepo, p.UsersRepo, logg))
		})

		r.Route("/dealerstaff", func(r chi.Router) {
			r.Use(middleware.RequireRoles(logg, enums.RoleDealerStaff))
			r.Get("/dashboard", controllers.DealerDashboard(p.DealersRepo, p.UsersRepo, logg))
		})
	})

	return r
}
