package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/evdms-platform/evdms-backend/api/middleware"
	"github.com/evdms-platform/evdms-backend/api/responses"
	"github.com/evdms-platform/evdms-backend/internal/dealers"
	"github.com/evdms-platform/evdms-backend/internal/users"
	"github.com/evdms-platform/evdms-backend/pkg/db/models"
	pkgerrors "github.com/evdms-platform/evdms-backend/pkg/errors"
	"github.com/evdms-platform/evdms-backend/pkg/logger"
	"github.com/evdms-platform/evdms-backend/pkg/pagination"
	"github.com/google/uuid"
)

type userLister interface {
	ListAll(ctx context.Context, params pagination.Params) (*users.ListResult, error)
	ListByDealer(ctx context.Context, dealerID uuid.UUID) ([]models.User, error)
}

type dealerReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Dealer, error)
	ListActive(ctx context.Context) ([]models.Dealer, error)
}

// AdminUsers lists every account for the admin console's landing surface.
func AdminUsers(repo userLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users repository unavailable"))
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		page, err := repo.ListAll(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "list users"))
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// EVMStaffDashboard summarizes the dealer network for EVM staff.
func EVMStaffDashboard(reader dealerReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reader == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dealers repository unavailable"))
			return
		}
		active, err := reader.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list dealers"))
			return
		}
		out := make([]*dealers.DealerDTO, 0, len(active))
		for i := range active {
			out = append(out, dealers.FromModel(&active[i]))
		}
		responses.WriteSuccess(w, map[string]any{
			"active_dealers": len(out),
			"dealers":        out,
		})
	}
}

// DealerDashboard summarizes the caller's own dealer. The dealer id comes
// from the verified claims, never from the request, so dealer staff cannot
// read another dealer's data by changing a parameter.
func DealerDashboard(reader dealerReader, staff userLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reader == nil || staff == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dealer repositories unavailable"))
			return
		}

		raw := middleware.DealerIDFromContext(r.Context())
		dealerID, err := uuid.Parse(raw)
		if raw == "" || err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "no dealer affiliation"))
			return
		}

		dealer, err := reader.FindByID(r.Context(), dealerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "dealer not found"))
			return
		}
		members, err := staff.ListByDealer(r.Context(), dealerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list dealer staff"))
			return
		}

		out := make([]*users.UserDTO, 0, len(members))
		for i := range members {
			out = append(out, users.FromModel(&members[i]))
		}
		responses.WriteSuccess(w, map[string]any{
			"dealer": dealers.FromModel(dealer),
			"staff":  out,
		})
	}
}
