package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Conceptual-Machines/magda-jam/internal/llm"
	"github.com/Conceptual-Machines/magda-jam/internal/models"
	"gorm.io/gorm"
)

const (
	// DefaultHistoryLimit is used when no limit is given
	DefaultHistoryLimit = 20
	// MaxHistoryLimit caps a single history page
	MaxHistoryLimit = 200
)

// HistoryService persists interpreted commands
type HistoryService struct {
	db *gorm.DB
}

func NewHistoryService(db *gorm.DB) *HistoryService {
	return &HistoryService{db: db}
}

// Record stores one command
func (s *HistoryService) Record(ctx context.Context, record *models.CommandRecord) error {
	return s.db.WithContext(ctx).Create(record).Error
}

// NewCommandRecord builds the history entry for one interpretation attempt
func NewCommandRecord(sessionID, transcript string, opts models.InterpretOptions, out *llm.Interpretation, d time.Duration, err error) *models.CommandRecord {
	rec := &models.CommandRecord{
		SessionID:      sessionID,
		Transcript:     transcript,
		IsFirstCommand: opts.IsFirstCommand,
		DurationMS:     int(d.Milliseconds()),
	}
	if out != nil {
		rec.Provider = out.Provider
		rec.ActionType = out.Result.ActionType
		rec.RequiresReset = out.Result.RequiresReset
		rec.BPM = out.Result.Config.BPM
		if encoded, jsonErr := json.Marshal(out.Result.WeightedPrompts); jsonErr == nil {
			rec.Prompts = string(encoded)
		}
	}
	if err != nil {
		rec.Error = err.Error()
	}
	return rec
}

// Recent returns the newest commands first. An empty sessionID lists every session.
func (s *HistoryService) Recent(ctx context.Context, sessionID string, limit int) ([]models.CommandRecord, error) {
	query := s.recentQuery(ctx, sessionID, limit)

	var records []models.CommandRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (s *HistoryService) recentQuery(ctx context.Context, sessionID string, limit int) *gorm.DB {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	limit = min(limit, MaxHistoryLimit)

	query := s.db.WithContext(ctx).Model(&models.CommandRecord{})
	if sessionID != "" {
		query = query.Where("session_id = ?", sessionID)
	}
	return query.Order("created_at DESC").Limit(limit)
}

// Stats aggregates the history of one session, or of all sessions
func (s *HistoryService) Stats(ctx context.Context, sessionID string) (*HistoryStats, error) {
	var stats HistoryStats

	query := s.db.WithContext(ctx).Model(&models.CommandRecord{})
	if sessionID != "" {
		query = query.Where("session_id = ?", sessionID)
	}

	if err := query.Select(
		"COUNT(*) as total_commands",
		"COALESCE(SUM(CASE WHEN requires_reset THEN 1 ELSE 0 END), 0) as resets",
		"COALESCE(SUM(CASE WHEN error <> '' THEN 1 ELSE 0 END), 0) as failures",
		"COALESCE(AVG(duration_ms), 0) as avg_duration_ms",
	).Scan(&stats).Error; err != nil {
		return nil, err
	}

	return &stats, nil
}

type HistoryStats struct {
	TotalCommands int64   `json:"total_commands"`
	Resets        int64   `json:"resets"`
	Failures      int64   `json:"failures"`
	AvgDurationMS float64 `json:"avg_duration_ms"`
}
