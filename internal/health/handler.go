// Package health provides health check endpoint handler.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/festy23/gitlab_enricher/internal/database/database"
	"github.com/festy23/gitlab_enricher/internal/gitlabapi"
)

// Checker verifies the GitLab instance is reachable.
type Checker interface {
	SanityCheck(ctx context.Context) error
}

// Handler handles health check requests.
type Handler struct {
	gitlab Checker
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New creates a new health handler instance. db is nil when the ledger is
// disabled.
func New(gitlab Checker, db *gorm.DB, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		gitlab: gitlab,
		db:     db,
		logger: logger,
	}
}

// Response represents health check response.
type Response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Check handles GET /health request.
func (h *Handler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	resp := Response{Status: "ok", Checks: map[string]string{}}

	if err := h.gitlab.SanityCheck(ctx); err != nil {
		gitlabapi.LogRequestError(h.logger, err, "sanity_check", false)
		resp.Status = "unhealthy"
		resp.Checks["gitlab"] = "unavailable"
	} else {
		resp.Checks["gitlab"] = "ok"
	}

	if h.db != nil {
		if err := database.HealthCheck(ctx, h.db); err != nil {
			h.logger.Warnw("health check failed", "check", "ledger", "error", err)
			resp.Status = "unhealthy"
			resp.Checks["ledger"] = "unavailable"
		} else {
			resp.Checks["ledger"] = "ok"
		}
	}

	if resp.Status != "ok" {
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}
