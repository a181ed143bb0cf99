package middleware

import (
	"context"
	"net/http"

	"github.com/evdms-platform/evdms-backend/api/responses"
	"github.com/evdms-platform/evdms-backend/api/validators"
	pkgAuth "github.com/evdms-platform/evdms-backend/pkg/auth"
	"github.com/evdms-platform/evdms-backend/pkg/auth/session"
	"github.com/evdms-platform/evdms-backend/pkg/config"
	pkgerrors "github.com/evdms-platform/evdms-backend/pkg/errors"
	"github.com/evdms-platform/evdms-backend/pkg/logger"
)

// Auth validates a bearer token, checks the session is still live, and seeds
// the request context with the claims. A verified token whose session has
// been revoked is rejected: the JWT alone is never enough.
func Auth(cfg config.JWTConfig, sessions session.SnapshotReader, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := validators.BearerToken(r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if claims.ID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			identity := claims.Identity()
			if !identity.Valid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token"))
				return
			}

			if sessions != nil {
				ok, err := sessions.HasSession(r.Context(), claims.ID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
					return
				}
			}

			ctx := context.WithValue(r.Context(), ctxUserID, identity.ID.String())
			ctx = context.WithValue(ctx, ctxRole, identity.Role.String())
			ctx = context.WithValue(ctx, ctxSession, claims.ID)
			if identity.DealerID != nil {
				ctx = context.WithValue(ctx, ctxDealerID, identity.DealerID.String())
			}

			if logg != nil {
				fields := map[string]any{
					"user_id":    identity.ID.String(),
					"actor_role": identity.Role.String(),
				}
				if identity.DealerID != nil {
					fields["dealer_id"] = identity.DealerID.String()
				}
				ctx = logg.WithFields(ctx, fields)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
