package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/evdms-platform/evdms-backend/api/responses"
	"github.com/evdms-platform/evdms-backend/api/validators"
	"github.com/evdms-platform/evdms-backend/internal/authstate"
	pkgAuth "github.com/evdms-platform/evdms-backend/pkg/auth"
	"github.com/evdms-platform/evdms-backend/pkg/auth/session"
	"github.com/evdms-platform/evdms-backend/pkg/enums"
	"github.com/evdms-platform/evdms-backend/pkg/logger"
	"github.com/evdms-platform/evdms-backend/pkg/metrics"
	"github.com/google/uuid"
)

type preferencesReader interface {
	Favorites(ctx context.Context, userID uuid.UUID) ([]string, error)
	Compare(ctx context.Context, userID uuid.UUID) ([]string, error)
}

type bootstrapRequest struct {
	ResetToken  string `json:"reset_token"`
	Token       string `json:"token"`
	CurrentView string `json:"current_view"`
}

type bootstrapResponse struct {
	Phase        string            `json:"phase"`
	User         *pkgAuth.Identity `json:"user,omitempty"`
	View         string            `json:"view"`
	LandingRoute string            `json:"landing_route,omitempty"`
	Favorites    []string          `json:"favorites"`
	Compare      []string          `json:"compare"`
}

// SessionBootstrap resolves the client's starting state in one round trip:
// reset deep link first, then the stored session, else anonymous. The session
// store is the authority; the client's token only names which session to look
// up. Infrastructure failures degrade to anonymous rather than erroring, so a
// redis blip logs a user out instead of breaking the page.
func SessionBootstrap(sessions session.SnapshotReader, prefs preferencesReader, m *metrics.AuthMetrics, timeout time.Duration, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body bootstrapRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx, cancel := withCallTimeout(r.Context(), timeout)
		defer cancel()

		body.ResetToken = validators.SanitizeString(body.ResetToken, 512)
		body.CurrentView = validators.SanitizeString(body.CurrentView, 64)

		snap := session.Snapshot{}
		if body.ResetToken == "" && body.Token != "" && sessions != nil {
			sid := pkgAuth.SessionIDUnverified(body.Token)
			if sid != "" {
				found, err := sessions.Lookup(ctx, sid)
				switch {
				case err == nil:
					snap = found
				case errors.Is(err, session.ErrNoSession):
					// expired or revoked, resolve anonymous
				default:
					if logg != nil {
						logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "session lookup degraded to anonymous")
					}
				}
			}
		}

		state := authstate.Resolve(body.ResetToken, snap, enums.View(body.CurrentView))

		resp := bootstrapResponse{
			Phase:     string(state.Phase),
			View:      string(state.View),
			Favorites: []string{},
			Compare:   []string{},
		}
		if state.Phase == authstate.PhaseAuthenticated {
			user := state.User
			resp.User = &user
			resp.LandingRoute = user.Role.DashboardPath()
			if prefs != nil {
				if favorites, err := prefs.Favorites(ctx, user.ID); err == nil {
					resp.Favorites = favorites
				}
				if compare, err := prefs.Compare(ctx, user.ID); err == nil {
					resp.Compare = compare
				}
			}
		}

		m.IncBootstrap(resp.Phase)
		responses.WriteSuccess(w, resp)
	}
}
