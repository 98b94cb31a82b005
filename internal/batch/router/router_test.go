package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/festy23/gitlab_enricher/internal/batch"
	"github.com/festy23/gitlab_enricher/internal/config"
)

func TestRegisterRoutes(t *testing.T) {
	logger := zap.NewNop().Sugar()
	runner := batch.NewRunner(nil, nil, batch.DiscardSink{}, nil, config.EnrichmentConfig{}, logger)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterRoutes(router, runner, logger)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/runs", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"merge_requests":0`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/runs", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
