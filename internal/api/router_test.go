package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Conceptual-Machines/magda-jam/internal/config"
	"github.com/Conceptual-Machines/magda-jam/internal/llm"
	"github.com/Conceptual-Machines/magda-jam/internal/metrics"
	"github.com/Conceptual-Machines/magda-jam/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubInterpreter struct{}

func (stubInterpreter) Name() string { return "stub" }

func (stubInterpreter) Interpret(context.Context, string, models.InterpretOptions) (*llm.Interpretation, error) {
	return &llm.Interpretation{Provider: "stub"}, nil
}

func TestSetupRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{CORSAllowedOrigins: []string{"*"}}
	router := SetupRouter(cfg, Dependencies{
		Interpreter: stubInterpreter{},
		Metrics:     metrics.NewRecorder(nil),
	}, "test")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{name: "health", method: http.MethodGet, path: "/api/health", status: http.StatusOK},
		{name: "metrics", method: http.MethodGet, path: "/api/metrics", status: http.StatusOK},
		{name: "interpret", method: http.MethodPost, path: "/api/interpret", body: `{"transcript":"jazz","isFirstCommand":true}`, status: http.StatusOK},
		{name: "interpret first", method: http.MethodPost, path: "/api/interpret/first", body: `{"transcript":"jazz"}`, status: http.StatusOK},
		{name: "interpret modify", method: http.MethodPost, path: "/api/interpret/modify", body: `{"transcript":"faster","currentBpm":120}`, status: http.StatusOK},
		{name: "history disabled", method: http.MethodGet, path: "/api/history", status: http.StatusServiceUnavailable},
		{name: "proxy not mounted", method: http.MethodGet, path: "/ws/lyria", status: http.StatusNotFound},
		{name: "unknown", method: http.MethodGet, path: "/nope", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}
