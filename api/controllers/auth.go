package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/evdms-platform/evdms-backend/api/responses"
	"github.com/evdms-platform/evdms-backend/api/validators"
	"github.com/evdms-platform/evdms-backend/internal/auth"
	pkgerrors "github.com/evdms-platform/evdms-backend/pkg/errors"
	"github.com/evdms-platform/evdms-backend/pkg/logger"
)

// withCallTimeout bounds a blocking auth operation. A hung redis or database
// turns into a 504 instead of a request that never returns.
func withCallTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func mapTimeout(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return pkgerrors.Wrap(pkgerrors.CodeTimeout, err, "auth call timed out")
	}
	return err
}

// AuthLogin wires the login endpoint into the HTTP layer.
func AuthLogin(svc auth.Service, timeout time.Duration, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx, cancel := withCallTimeout(r.Context(), timeout)
		defer cancel()

		result, err := svc.Login(ctx, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, mapTimeout(err))
			return
		}

		w.Header().Set("X-EVDMS-Token", result.AccessToken)
		responses.WriteSuccess(w, result)
	}
}

// AuthLogout revokes the session tied to the presented access token. An
// expired token still logs out; only a token that fails signature checks is
// rejected.
func AuthLogout(svc auth.Service, timeout time.Duration, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		token, err := validators.BearerToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		ctx, cancel := withCallTimeout(r.Context(), timeout)
		defer cancel()

		if err := svc.Logout(ctx, token); err != nil {
			if pkgerrors.Is(err, pkgerrors.CodeUnauthorized) {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			// Best effort: the client is logging out either way. A store
			// failure is logged, the session TTL will finish the job.
			if logg != nil {
				logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "logout revoke incomplete")
			}
		}

		responses.WriteSuccessMessage(w, "logged out")
	}
}

// AuthRefresh rotates the refresh token and issues a new access token.
func AuthRefresh(svc auth.Service, timeout time.Duration, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.RefreshRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token, err := validators.BearerToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		ctx, cancel := withCallTimeout(r.Context(), timeout)
		defer cancel()

		result, err := svc.Refresh(ctx, body, token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, mapTimeout(err))
			return
		}

		w.Header().Set("X-EVDMS-Token", result.AccessToken)
		responses.WriteSuccess(w, result)
	}
}
