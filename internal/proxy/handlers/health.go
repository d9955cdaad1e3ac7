package handlers

import (
	"net/http"

	"github.com/taikhoandev/driveshare/internal/version"
)

// HealthHandler reports liveness plus the build metadata baked in at link
// time.
// GET /healthz
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":     "ok",
			"version":    version.Version,
			"commit":     version.Commit,
			"build_time": version.BuildTime,
		})
	}
}
