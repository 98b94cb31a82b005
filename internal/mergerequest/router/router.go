// Package router provides merge request module routes registration.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/gitlab_enricher/internal/mergerequest/handler"
	"github.com/festy23/gitlab_enricher/internal/mergerequest/service"
)

// RegisterRoutes registers merge request module routes.
func RegisterRoutes(r *gin.Engine, svc service.Service, logger *zap.SugaredLogger) {
	h := handler.New(svc, logger)

	r.GET("/projects/:project_id/merge_requests/:merge_request_id", h.GetMergeRequest)
}
