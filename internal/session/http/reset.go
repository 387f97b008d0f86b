package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/harborcrest/passage/internal/session/service"
	"github.com/harborcrest/passage/pkg/authsdk"
	"github.com/harborcrest/passage/pkg/httpx"
	"github.com/harborcrest/passage/pkg/slogx"
)

// PasswordResetHandler serves the two halves of the reset flow:
// POST /v1/password-reset/request and POST /v1/password-reset/complete.
type PasswordResetHandler struct {
	ResetService *service.ResetService

	// Deliver hands the minted reset credential to an out-of-band channel.
	// nil drops the credential after minting.
	Deliver func(ctx context.Context, identifier, token string) error
}

type resetRequestBody struct {
	Identifier string `json:"identifier"`
}

type resetCompleteBody struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (h *PasswordResetHandler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var body resetRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	identifier := strings.TrimSpace(body.Identifier)
	if identifier == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	token, err := h.ResetService.RequestReset(ctx, identifier)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			authsdk.ErrUserNotFound.WriteError(w)
		default:
			log.Error("reset request failed", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	if h.Deliver != nil {
		if err := h.Deliver(ctx, identifier, token); err != nil {
			log.Error("reset credential delivery failed", "err", err)
			authsdk.ErrServerError.WriteError(w)
			return
		}
	}

	httpx.WriteJSON(w, http.StatusOK, struct{}{})
}

func (h *PasswordResetHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var body resetCompleteBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if body.Token == "" || body.NewPassword == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	err := h.ResetService.CompleteReset(ctx, body.Token, body.NewPassword)
	if err != nil {
		switch {
		// A vanished subject reads the same as a bad token from outside;
		// the distinction stays in the logs.
		case errors.Is(err, service.ErrInvalidReset),
			errors.Is(err, service.ErrSubjectMismatch):
			authsdk.ErrInvalidResetToken.WriteError(w)
		default:
			log.Error("reset completion failed", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, struct{}{})
}
