// Package router provides batch run routes registration.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/gitlab_enricher/internal/batch/handler"
)

// RegisterRoutes registers batch run routes.
func RegisterRoutes(r *gin.Engine, runner handler.Runner, logger *zap.SugaredLogger) {
	h := handler.New(runner, logger)

	r.POST("/runs", h.StartRun)
}
