package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Conceptual-Machines/magda-jam/internal/logger"
	"github.com/Conceptual-Machines/magda-jam/internal/models"
	"github.com/Conceptual-Machines/magda-jam/internal/services"
	"github.com/gin-gonic/gin"
)

// HistoryReader lists and aggregates recorded commands
type HistoryReader interface {
	Recent(ctx context.Context, sessionID string, limit int) ([]models.CommandRecord, error)
	Stats(ctx context.Context, sessionID string) (*services.HistoryStats, error)
}

type HistoryHandler struct {
	history HistoryReader
}

// NewHistoryHandler creates the history endpoints. history may be nil, in
// which case every request answers 503.
func NewHistoryHandler(history HistoryReader) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// List handles GET /api/history?session_id=&limit=
func (h *HistoryHandler) List(c *gin.Context) {
	if !h.available(c) {
		return
	}

	limit := services.DefaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			badRequest(c, "limit must be a positive integer")
			return
		}
		limit = min(parsed, services.MaxHistoryLimit)
	}

	sessionID := h.sessionID(c)
	records, err := h.history.Recent(c.Request.Context(), sessionID, limit)
	if err != nil {
		h.fail(c, "Failed to load command history", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"session_id": sessionID,
		"commands":   records,
		"count":      len(records),
	})
}

// Stats handles GET /api/history/stats?session_id=
func (h *HistoryHandler) Stats(c *gin.Context) {
	if !h.available(c) {
		return
	}

	sessionID := h.sessionID(c)
	stats, err := h.history.Stats(c.Request.Context(), sessionID)
	if err != nil {
		h.fail(c, "Failed to load command stats", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"session_id": sessionID,
		"stats":      stats,
	})
}

func (h *HistoryHandler) available(c *gin.Context) bool {
	if h.history != nil {
		return true
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"success": false,
		"error":   errUnavailable,
		"message": "command history is disabled (DATABASE_URL not set)",
	})
	return false
}

// sessionID prefers the query parameter over the X-Session-ID header
func (h *HistoryHandler) sessionID(c *gin.Context) string {
	if id := c.Query("session_id"); id != "" {
		return id
	}
	return c.GetString("session_id")
}

func (h *HistoryHandler) fail(c *gin.Context, message string, err error) {
	logger.Error(message, err, logger.WithContext(c))
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   errInternal,
		"message": message,
	})
}
