package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/Conceptual-Machines/magda-jam/internal/logger"
	"github.com/Conceptual-Machines/magda-jam/internal/services"
	"github.com/gin-gonic/gin"
)

const (
	bytesPerMB          = 1 << 20
	uptimePrecision     = 10 * time.Millisecond
	metricsStatsTimeout = 2 * time.Second
)

// MetricsHandler reports process health and command throughput
type MetricsHandler struct {
	started     time.Time
	version     string
	interpreter string
	history     HistoryReader
}

// NewMetricsHandler creates the metrics endpoint. history may be nil when
// command history is disabled.
func NewMetricsHandler(version, interpreter string, history HistoryReader) *MetricsHandler {
	return &MetricsHandler{
		started:     time.Now(),
		version:     version,
		interpreter: interpreter,
		history:     history,
	}
}

type MetricsResponse struct {
	Status        string          `json:"status"`
	Version       string          `json:"version"`
	Interpreter   string          `json:"interpreter"`
	Uptime        string          `json:"uptime"`
	UptimeSeconds float64         `json:"uptime_seconds"`
	StartedAt     string          `json:"started_at"`
	Timestamp     string          `json:"timestamp"`
	Runtime       RuntimeMetrics  `json:"runtime"`
	Commands      CommandsMetrics `json:"commands"`
}

type RuntimeMetrics struct {
	GoVersion    string `json:"go_version"`
	Goroutines   int    `json:"goroutines"`
	HeapAllocMB  uint64 `json:"heap_alloc_mb"`
	TotalAllocMB uint64 `json:"total_alloc_mb"`
	GCCycles     uint32 `json:"gc_cycles"`
}

// CommandsMetrics summarises recorded interpretations. Stats is nil when
// history is disabled or could not be read.
type CommandsMetrics struct {
	History bool                   `json:"history"`
	Stats   *services.HistoryStats `json:"stats,omitempty"`
}

// GetMetrics handles GET /api/metrics
func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	now := time.Now()
	uptime := now.Sub(h.started)

	c.JSON(http.StatusOK, MetricsResponse{
		Status:        "healthy",
		Version:       h.version,
		Interpreter:   h.interpreter,
		Uptime:        uptime.Round(uptimePrecision).String(),
		UptimeSeconds: uptime.Seconds(),
		StartedAt:     h.started.UTC().Format(time.RFC3339),
		Timestamp:     now.UTC().Format(time.RFC3339),
		Runtime: RuntimeMetrics{
			GoVersion:    runtime.Version(),
			Goroutines:   runtime.NumGoroutine(),
			HeapAllocMB:  mem.HeapAlloc / bytesPerMB,
			TotalAllocMB: mem.TotalAlloc / bytesPerMB,
			GCCycles:     mem.NumGC,
		},
		Commands: h.commands(c),
	})
}

func (h *MetricsHandler) commands(c *gin.Context) CommandsMetrics {
	if h.history == nil {
		return CommandsMetrics{}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), metricsStatsTimeout)
	defer cancel()

	// an empty session id aggregates every session
	stats, err := h.history.Stats(ctx, "")
	if err != nil {
		logger.Warn("Failed to load command stats for metrics", withError(logger.WithContext(c), err))
		return CommandsMetrics{History: true}
	}
	return CommandsMetrics{History: true, Stats: stats}
}
