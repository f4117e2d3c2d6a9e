package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/budgetwise/pkg/httpx"
)

// HealthResponse is the body of /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the state of each dependency checked by /readyz.
type HealthChecks struct {
	Database string `json:"database"`
	Session  string `json:"session"`
}

// LivezHandler answers 200 while the process is serving.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler answers 503 until the database is reachable and the
// session has handled its first identity event.
func ReadyzHandler(startTime time.Time, version string, db Pinger, src StateSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &HealthChecks{Database: "ok", Session: "ok"}
		status, code := "ok", http.StatusOK

		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				checks.Database = "error: " + err.Error()
				status, code = "degraded", http.StatusServiceUnavailable
			}
		}

		if src.State().Loading {
			checks.Session = "loading"
			status, code = "degraded", http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
