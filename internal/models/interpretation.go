package models

// Action types reported by the interpreter for modification commands
const (
	ActionTempo            = "tempo"
	ActionAddInstrument    = "add_instrument"
	ActionChangeMood       = "change_mood"
	ActionAdjustDensity    = "adjust_density"
	ActionAdjustBrightness = "adjust_brightness"
	ActionStart            = "start"
)

// InterpretationResult is the structured update produced from one transcript
type InterpretationResult struct {
	WeightedPrompts []WeightedPrompt `json:"weighted_prompts"`
	Config          MusicConfig      `json:"config"`
	RequiresReset   bool             `json:"requires_reset"`
	ActionType      string           `json:"action_type,omitempty"`
	Explanation     string           `json:"explanation,omitempty"`
}

// InterpretOptions carries the musical state a transcript is interpreted against
type InterpretOptions struct {
	IsFirstCommand bool         `json:"isFirstCommand"`
	CurrentBPM     *int         `json:"currentBpm,omitempty"`
	CurrentPrompts []string     `json:"currentPrompts,omitempty"`
	CurrentConfig  *MusicConfig `json:"currentConfig,omitempty"`
}
