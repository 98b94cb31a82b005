// Package handler provides HTTP handlers for outcome statistics.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/gitlab_enricher/internal/apierror"
	"github.com/festy23/gitlab_enricher/internal/outcome/service"
)

// Handler handles HTTP requests for outcome statistics.
type Handler struct {
	service service.Service
	logger  *zap.SugaredLogger
}

// New creates a new outcome handler instance.
func New(svc service.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// GetOutcomeStatistics handles GET /statistics/outcomes request.
// @Summary Get enrichment outcome counts
// @Tags Statistics
// @Produce json
// @Param run_id query string false "Restrict to one batch run"
// @Success 200 {object} model.StatisticsResponse
// @Failure 500 {object} apierror.Response
// @Router /statistics/outcomes [get] //nolint:godot // Swagger annotation should not end with period
func (h *Handler) GetOutcomeStatistics(c *gin.Context) {
	runID := c.Query("run_id")

	resp, err := h.service.GetStatistics(c.Request.Context(), runID)
	if err != nil {
		h.logger.Errorw("error getting outcome statistics", "run_id", runID, "error", err)
		apierror.Write(c, http.StatusInternalServerError, apierror.CodeInternal, "internal server error")
		return
	}

	c.JSON(http.StatusOK, resp)
}
