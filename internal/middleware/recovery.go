package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/gitlab_enricher/internal/apierror"
)

// Recovery returns a middleware that turns panics into 500 responses.
func Recovery(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Errorw("panic recovered",
					"error", err,
					"route", c.FullPath(),
					"method", c.Request.Method,
					"request_id", c.GetString(requestIDKey),
					"stack", string(debug.Stack()),
				)

				apierror.Abort(c, http.StatusInternalServerError, apierror.CodeInternal, "internal server error")
			}
		}()

		c.Next()
	}
}
