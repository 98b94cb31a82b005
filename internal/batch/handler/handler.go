// Package handler exposes batch runs over HTTP.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/gitlab_enricher/internal/apierror"
	"github.com/festy23/gitlab_enricher/internal/batch"
)

// Runner starts a batch run.
type Runner interface {
	Run(ctx context.Context) (*batch.Summary, error)
}

// Handler handles HTTP requests for batch runs.
type Handler struct {
	runner Runner
	logger *zap.SugaredLogger
}

// New creates a new batch handler instance.
func New(runner Runner, logger *zap.SugaredLogger) *Handler {
	return &Handler{runner: runner, logger: logger}
}

// StartRun handles POST /runs request. The run is synchronous.
// @Summary Run one enrichment pass over the configured groups
// @Tags Runs
// @Produce json
// @Success 200 {object} batch.Summary
// @Failure 409 {object} apierror.Response
// @Failure 500 {object} apierror.Response
// @Router /runs [post] //nolint:godot // Swagger annotation should not end with period
func (h *Handler) StartRun(c *gin.Context) {
	summary, err := h.runner.Run(c.Request.Context())
	if err != nil {
		if errors.Is(err, batch.ErrRunInProgress) {
			apierror.Write(c, http.StatusConflict, apierror.CodeRunInProgress, err.Error())
			return
		}
		h.logger.Errorw("batch run failed", "error", err)
		apierror.Write(c, http.StatusInternalServerError, apierror.CodeInternal, "batch run failed")
		return
	}

	c.JSON(http.StatusOK, summary)
}
