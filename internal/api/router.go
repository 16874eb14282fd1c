package api

import (
	"github.com/Conceptual-Machines/magda-jam/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/magda-jam/internal/api/middleware"
	"github.com/Conceptual-Machines/magda-jam/internal/config"
	"github.com/Conceptual-Machines/magda-jam/internal/llm"
	"github.com/Conceptual-Machines/magda-jam/internal/metrics"
	"github.com/Conceptual-Machines/magda-jam/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Dependencies are the services the HTTP surface is built on. DB and History
// are nil when no database is configured.
type Dependencies struct {
	Interpreter llm.Interpreter
	Upstream    handlers.UpstreamEndpoint
	Metrics     *metrics.Recorder
	DB          *gorm.DB
	History     *services.HistoryService
}

func SetupRouter(cfg *config.Config, deps Dependencies, version string) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	var requests apimiddleware.RequestRecorder
	if deps.Metrics != nil {
		requests = deps.Metrics
	}
	router.Use(apimiddleware.RequestTracking(requests))
	router.Use(apimiddleware.SessionTracking())

	router.Use(apimiddleware.CORS(cfg.CORSAllowedOrigins))

	// Health check
	healthHandler := handlers.NewHealthHandler(deps.DB)
	router.GET("/api/health", healthHandler.HealthCheck)

	var recorder handlers.CommandRecorder
	var reader handlers.HistoryReader
	if deps.History != nil {
		recorder, reader = deps.History, deps.History
	}

	// Metrics endpoint
	metricsHandler := handlers.NewMetricsHandler(version, deps.Interpreter.Name(), reader)
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	interpret := router.Group("/api/interpret")
	{
		interpretHandler := handlers.NewInterpretHandler(deps.Interpreter, recorder)
		interpret.POST("", interpretHandler.Interpret)
		interpret.POST("/first", interpretHandler.InterpretFirst)
		interpret.POST("/modify", interpretHandler.InterpretModify)
	}

	history := router.Group("/api/history")
	{
		historyHandler := handlers.NewHistoryHandler(reader)
		history.GET("", historyHandler.List)
		history.GET("/stats", historyHandler.Stats)
	}

	// Realtime music proxy; the API key stays on the server
	if deps.Upstream != nil {
		var proxyMetrics handlers.ProxyRecorder
		if deps.Metrics != nil {
			proxyMetrics = deps.Metrics
		}
		router.GET("/ws/lyria", handlers.NewLyriaProxyHandler(deps.Upstream, proxyMetrics).Proxy)
	}

	router.NoRoute(handlers.NotFound)

	return router
}
