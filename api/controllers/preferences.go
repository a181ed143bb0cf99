package controllers

import (
	"context"
	"net/http"

	"github.com/evdms-platform/evdms-backend/api/middleware"
	"github.com/evdms-platform/evdms-backend/api/responses"
	"github.com/evdms-platform/evdms-backend/api/validators"
	pkgerrors "github.com/evdms-platform/evdms-backend/pkg/errors"
	"github.com/evdms-platform/evdms-backend/pkg/logger"
	"github.com/google/uuid"
)

type preferencesService interface {
	Favorites(ctx context.Context, userID uuid.UUID) ([]string, error)
	SetFavorites(ctx context.Context, userID uuid.UUID, vehicleIDs []string) error
	Compare(ctx context.Context, userID uuid.UUID) ([]string, error)
	SetCompare(ctx context.Context, userID uuid.UUID, vehicleIDs []string) error
}

// An empty list is a valid replacement: it clears the collection.
type vehicleListBody struct {
	VehicleIDs []string `json:"vehicle_ids"`
}

func actorID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid actor")
	}
	return id, nil
}

// GetFavorites returns the caller's favorite vehicle ids.
func GetFavorites(svc preferencesService, logg *logger.Logger) http.HandlerFunc {
	return listHandler(svc, logg, func(svc preferencesService, ctx context.Context, id uuid.UUID) ([]string, error) {
		return svc.Favorites(ctx, id)
	})
}

// PutFavorites replaces the caller's favorites list.
func PutFavorites(svc preferencesService, logg *logger.Logger) http.HandlerFunc {
	return replaceHandler(svc, logg, func(svc preferencesService, ctx context.Context, id uuid.UUID, ids []string) error {
		return svc.SetFavorites(ctx, id, ids)
	})
}

// GetCompare returns the caller's compare list.
func GetCompare(svc preferencesService, logg *logger.Logger) http.HandlerFunc {
	return listHandler(svc, logg, func(svc preferencesService, ctx context.Context, id uuid.UUID) ([]string, error) {
		return svc.Compare(ctx, id)
	})
}

// PutCompare replaces the caller's compare list.
func PutCompare(svc preferencesService, logg *logger.Logger) http.HandlerFunc {
	return replaceHandler(svc, logg, func(svc preferencesService, ctx context.Context, id uuid.UUID, ids []string) error {
		return svc.SetCompare(ctx, id, ids)
	})
}

func listHandler(svc preferencesService, logg *logger.Logger, read func(preferencesService, context.Context, uuid.UUID) ([]string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "preferences service unavailable"))
			return
		}
		id, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := read(svc, r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read preferences"))
			return
		}
		responses.WriteSuccess(w, map[string][]string{"vehicle_ids": list})
	}
}

func replaceHandler(svc preferencesService, logg *logger.Logger, write func(preferencesService, context.Context, uuid.UUID, []string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "preferences service unavailable"))
			return
		}
		id, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body vehicleListBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := write(svc, r.Context(), id, body.VehicleIDs); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "update preferences"))
			return
		}
		responses.WriteSuccess(w, map[string][]string{"vehicle_ids": body.VehicleIDs})
	}
}
