package http

import (
	"net/http"
	"strings"

	"github.com/harborcrest/passage/internal/session/service"
	"github.com/harborcrest/passage/pkg/authsdk"
	"github.com/harborcrest/passage/pkg/httpx"
	"github.com/harborcrest/passage/pkg/slogx"
)

// RevokeHandler serves POST /v1/revoke following RFC 7009: revocation always
// answers 200, including for unknown or already-revoked tokens, so callers
// cannot probe which credentials exist.
type RevokeHandler struct {
	TokenService *service.TokenService
}

func (h *RevokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		authsdk.ErrInvalidContentType.WriteError(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		authsdk.ErrInvalidFormBody.WriteError(w)
		return
	}

	token := r.Form.Get("token")
	if token == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.TokenService.RevokeRefreshToken(ctx, token); err != nil {
		// Unknown tokens are a no-op at the store, so an error here is
		// operational. Keep the uniform 200 and leave the trace in the logs.
		log.Warn("revoke failed", "err", err)
	}

	httpx.WriteJSON(w, http.StatusOK, struct{}{})
}
