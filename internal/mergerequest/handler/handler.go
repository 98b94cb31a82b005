// Package handler provides HTTP handlers for merge request enrichment.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/gitlab_enricher/internal/apierror"
	"github.com/festy23/gitlab_enricher/internal/gitlabapi"
	"github.com/festy23/gitlab_enricher/internal/mergerequest/model"
	"github.com/festy23/gitlab_enricher/internal/mergerequest/service"
)

// Handler handles HTTP requests for merge request endpoints.
type Handler struct {
	service service.Service
	logger  *zap.SugaredLogger
}

// New creates a new merge request handler instance.
func New(svc service.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// GetMergeRequest handles GET /projects/:project_id/merge_requests/:merge_request_id.
// @Summary Enrich one merge request
// @Tags MergeRequests
// @Produce json
// @Param project_id path int true "Target project ID"
// @Param merge_request_id path int true "Merge request IID"
// @Success 200 {object} model.MergeRequest
// @Failure 400 {object} apierror.Response
// @Failure 404 {object} apierror.Response
// @Failure 502 {object} apierror.Response
// @Router /projects/{project_id}/merge_requests/{merge_request_id} [get] //nolint:godot // Swagger annotation should not end with period
func (h *Handler) GetMergeRequest(c *gin.Context) {
	projectID, ok := positiveParam(c, "project_id")
	if !ok {
		return
	}
	mrIID, ok := positiveParam(c, "merge_request_id")
	if !ok {
		return
	}

	mr, err := h.service.EnrichByID(c.Request.Context(), projectID, mrIID)
	if err != nil {
		h.handleError(c, err, projectID, mrIID)
		return
	}

	c.JSON(http.StatusOK, mr)
}

func (h *Handler) handleError(c *gin.Context, err error, projectID, mrIID int) {
	switch {
	case errors.Is(err, model.ErrMissingSourceProject):
		h.logger.Warnw("source project missing", "project_id", projectID, "merge_request_iid", mrIID, "error", err)
		apierror.Write(c, http.StatusNotFound, apierror.CodeSourceProjectMissing, "source project of the merge request no longer exists")
	case errors.Is(err, gitlabapi.ErrNotFound):
		apierror.Write(c, http.StatusNotFound, apierror.CodeNotFound, "merge request not found")
	case errors.Is(err, model.ErrInvalidMergeRequest):
		h.logger.Warnw("invalid merge request", "project_id", projectID, "merge_request_iid", mrIID, "error", err)
		apierror.Write(c, http.StatusUnprocessableEntity, apierror.CodeInvalidMergeRequest, err.Error())
	case gitlabapi.IsRecoverable(err):
		gitlabapi.LogRequestError(h.logger, err, "enriching merge request", true,
			"project_id", projectID, "merge_request_iid", mrIID)
		apierror.Write(c, http.StatusBadGateway, apierror.CodeUpstream, "gitlab request failed")
	default:
		h.logger.Errorw("error enriching merge request", "project_id", projectID, "merge_request_iid", mrIID, "error", err)
		apierror.Write(c, http.StatusInternalServerError, apierror.CodeInternal, "internal server error")
	}
}

func positiveParam(c *gin.Context, name string) (int, bool) {
	value, err := strconv.Atoi(c.Param(name))
	if err != nil || value <= 0 {
		apierror.Write(c, http.StatusBadRequest, apierror.CodeInvalidRequest, name+" must be a positive integer")
		return 0, false
	}
	return value, true
}
