package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const healthMessage = "MAGDA Jam API is running"

type HealthHandler struct {
	db *gorm.DB
}

// NewHealthHandler creates a health handler. db may be nil when history is disabled.
func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// HealthCheck returns the health status of the API
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	body := gin.H{
		"status":    "ok",
		"message":   healthMessage,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	}

	if h.db != nil {
		body["database"] = h.databaseStatus(c.Request.Context())
	}

	c.JSON(http.StatusOK, body)
}

func (h *HealthHandler) databaseStatus(ctx context.Context) string {
	sqlDB, err := h.db.DB()
	if err != nil {
		return "unavailable"
	}
	ctx, cancel := context.WithTimeout(ctx, healthDBTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return "unreachable"
	}
	return "connected"
}
