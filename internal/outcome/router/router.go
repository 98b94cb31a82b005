// Package router provides outcome ledger routes registration.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/gitlab_enricher/internal/outcome/handler"
	"github.com/festy23/gitlab_enricher/internal/outcome/service"
)

// RegisterRoutes registers outcome ledger routes.
func RegisterRoutes(r *gin.Engine, svc service.Service, logger *zap.SugaredLogger) {
	h := handler.New(svc, logger)

	r.GET("/statistics/outcomes", h.GetOutcomeStatistics)
}
