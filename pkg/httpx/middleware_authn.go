package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/harborcrest/passage/pkg/jwtx"
	"github.com/harborcrest/passage/pkg/slogx"
)

// AuthnMiddleware rejects requests without a valid bearer access credential
// and injects the verified claims into the request context.
func AuthnMiddleware(codec *jwtx.Codec) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				writeBearerError(w, "missing bearer token")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			claims, err := codec.Verify(raw, jwtx.KindAccess, time.Now())
			if err != nil {
				switch {
				case errors.Is(err, jwtx.ErrExpired):
					writeBearerError(w, "token expired")
				case errors.Is(err, jwtx.ErrWrongKind):
					writeBearerError(w, "token not valid for this use")
				default:
					writeBearerError(w, "token verification failed")
					log.Warn("jwt verify failed", "err", err)
				}
				return
			}

			ctx = contextWithAuth(ctx, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func contextWithAuth(ctx context.Context, c jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxKeySubjectID, c.Subject)
	ctx = context.WithValue(ctx, CtxKeyClaims, c)
	return ctx
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	w.WriteHeader(http.StatusUnauthorized)
}
