package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CommandRecord is one interpreted command kept in the session history
type CommandRecord struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
	SessionID      string    `gorm:"not null;index" json:"session_id"`
	Transcript     string    `gorm:"type:text;not null" json:"transcript"`
	IsFirstCommand bool      `gorm:"default:false" json:"is_first_command"`
	ActionType     string    `gorm:"index" json:"action_type"`
	RequiresReset  bool      `gorm:"default:false" json:"requires_reset"`
	Prompts        string    `gorm:"type:text" json:"prompts"` // JSON-encoded []WeightedPrompt
	BPM            *int      `json:"bpm,omitempty"`
	Provider       string    `json:"provider"`
	DurationMS     int       `gorm:"not null" json:"duration_ms"`
	Error          string    `gorm:"type:text" json:"error,omitempty"`
}

// BeforeCreate assigns a random id when none is set
func (r *CommandRecord) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
