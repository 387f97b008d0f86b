package http

import (
	"net/http"

	"github.com/harborcrest/passage/pkg/authsdk"
	"github.com/harborcrest/passage/pkg/httpx"
)

// SessionHandler serves GET /v1/session: it echoes the identity carried by
// the verified bearer credential. Sits behind AuthnMiddleware.
type SessionHandler struct{}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.Identity{
		SubjectID: claims.Subject,
		Email:     claims.Email,
		Username:  claims.Username,
		Role:      claims.Role,
	})
}
