package httpx

import (
	"context"

	"github.com/harborcrest/passage/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeySubjectID ctxKey = "subject_id"
	CtxKeyClaims    ctxKey = "claims"
)

// SubjectFromContext returns the authenticated subject ID, or "" when the
// request did not pass through AuthnMiddleware.
func SubjectFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeySubjectID).(string); ok {
		return v
	}
	return ""
}

// ClaimsFromContext returns the verified claims attached by AuthnMiddleware.
func ClaimsFromContext(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(CtxKeyClaims).(jwtx.Claims)
	return c, ok
}
