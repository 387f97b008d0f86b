package http

import (
	"net/http"
	"time"

	"github.com/harborcrest/passage/internal/session/store"
	"github.com/harborcrest/passage/pkg/authsdk"
	"github.com/harborcrest/passage/pkg/httpx"
)

// ReadyzHandler reports whether the service can actually serve: a failing
// database check degrades the status to 503.
func ReadyzHandler(startTime time.Time, version string, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &authsdk.HealthChecks{
			Database: "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		response := authsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		}
		httpx.WriteJSON(w, statusCode, response)
	}
}
