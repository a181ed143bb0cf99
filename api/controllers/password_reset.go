package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/evdms-platform/evdms-backend/api/responses"
	"github.com/evdms-platform/evdms-backend/api/validators"
	pkgerrors "github.com/evdms-platform/evdms-backend/pkg/errors"
	"github.com/evdms-platform/evdms-backend/pkg/logger"
)

type resetService interface {
	Request(ctx context.Context, email string) (string, error)
	Confirm(ctx context.Context, token, newPassword string) error
}

type resetRequestBody struct {
	Email string `json:"email" validate:"required,email"`
}

type resetConfirmBody struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

const resetRequestedMessage = "if the address is registered, a reset link has been sent"

// PasswordResetRequest issues a reset token. The response is identical for
// known and unknown addresses. In dev the token is returned in the payload so
// the flow can be exercised without a mail pipeline.
func PasswordResetRequest(svc resetService, exposeToken bool, timeout time.Duration, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reset service unavailable"))
			return
		}

		var body resetRequestBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx, cancel := withCallTimeout(r.Context(), timeout)
		defer cancel()

		token, err := svc.Request(ctx, body.Email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, mapTimeout(err))
			return
		}

		if exposeToken && token != "" {
			responses.WriteSuccess(w, map[string]string{
				"message": resetRequestedMessage,
				"token":   token,
			})
			return
		}
		responses.WriteSuccessMessage(w, resetRequestedMessage)
	}
}

// PasswordResetConfirm consumes the token and sets the new password.
func PasswordResetConfirm(svc resetService, timeout time.Duration, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reset service unavailable"))
			return
		}

		var body resetConfirmBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx, cancel := withCallTimeout(r.Context(), timeout)
		defer cancel()

		if err := svc.Confirm(ctx, body.Token, body.NewPassword); err != nil {
			responses.WriteError(r.Context(), logg, w, mapTimeout(err))
			return
		}
		responses.WriteSuccessMessage(w, "password updated")
	}
}
