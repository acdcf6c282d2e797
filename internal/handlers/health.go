package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// VersionInfo is returned by /versions
type VersionInfo struct {
	Version   string   `json:"version"`
	GoVersion string   `json:"go_version"`
	Endpoints []string `json:"endpoints"`
}

// HandleWelcome handles GET /
func (h *Handler) HandleWelcome(c *gin.Context) {
	h.writeJSON(c, http.StatusOK, "Welcome to the facility location service.", nil)
}

// HandlePing handles GET /ping
func (h *Handler) HandlePing(c *gin.Context) {
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.HealthCheck(ctx); err != nil {
			logger := requestLogger(c)
			logger.Error().Err(err).Msg("run history health check failed")
			h.writeError(c, http.StatusServiceUnavailable, "run history unavailable")
			return
		}
	}
	h.writeJSON(c, http.StatusOK, "pong", nil)
}

// HandleVersions handles GET /versions
func (h *Handler) HandleVersions(c *gin.Context) {
	h.writeJSON(c, http.StatusOK, "versions", VersionInfo{
		Version:   h.Version,
		GoVersion: runtime.Version(),
		Endpoints: []string{
			"/",
			"/ping",
			"/versions",
			"/online_facility_location",
			"/offline_facility_location",
			"/api/v1/runs",
			"/metrics",
		},
	})
}
