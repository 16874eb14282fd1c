package llm

import "github.com/Conceptual-Machines/magda-jam/internal/models"

// interpretationSchema returns the JSON schema for structured interpretation output.
// Strict mode requires additionalProperties: false and every property listed in
// required, so optional config fields are nullable instead of omitted.
func interpretationSchema() map[string]any {
	nullable := func(kind string, extra map[string]any) map[string]any {
		s := map[string]any{"type": []string{kind, "null"}}
		for k, v := range extra {
			s[k] = v
		}
		return s
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"weighted_prompts": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"text":   map[string]any{"type": "string"},
						"weight": map[string]any{"type": "number", "minimum": models.MinPromptWeight, "maximum": models.MaxPromptWeight},
					},
					"required":             []string{"text", "weight"},
					"additionalProperties": false,
				},
			},
			"config": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"bpm":         nullable("integer", map[string]any{"minimum": models.MinBPM, "maximum": models.MaxBPM}),
					"density":     nullable("number", map[string]any{"minimum": 0, "maximum": 1}),
					"brightness":  nullable("number", map[string]any{"minimum": 0, "maximum": 1}),
					"temperature": nullable("number", map[string]any{"minimum": 0, "maximum": models.MaxTemperature}),
				},
				"required":             []string{"bpm", "density", "brightness", "temperature"},
				"additionalProperties": false,
			},
			"requires_reset": map[string]any{"type": "boolean"},
			"action_type": map[string]any{
				"type": "string",
				"enum": []string{
					models.ActionStart,
					models.ActionTempo,
					models.ActionAddInstrument,
					models.ActionChangeMood,
					models.ActionAdjustDensity,
					models.ActionAdjustBrightness,
				},
			},
		},
		"required":             []string{"weighted_prompts", "config", "requires_reset", "action_type"},
		"additionalProperties": false,
	}
}
