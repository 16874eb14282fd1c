package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/magda-jam/internal/models"
)

// parseResult decodes model output into an interpretation, tolerating
// markdown fences and prose around the JSON object.
func parseResult(text string) (models.InterpretationResult, error) {
	var result models.InterpretationResult

	cleaned := stripCodeFence(text)
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		start, end := strings.Index(cleaned, "{"), strings.LastIndex(cleaned, "}")
		if start < 0 || end <= start {
			return result, fmt.Errorf("%w: %v", ErrParseResult, err)
		}
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), &result); err != nil {
			return result, fmt.Errorf("%w: %v", ErrParseResult, err)
		}
	}

	result.WeightedPrompts = normalizePrompts(result.WeightedPrompts)
	if result.Config.BPM != nil {
		bpm := max(models.MinBPM, min(models.MaxBPM, *result.Config.BPM))
		result.Config.BPM = &bpm
	}
	return result, nil
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	parts := strings.Split(text, "```")
	text = parts[1]
	text = strings.TrimPrefix(text, "json")
	return strings.TrimSpace(text)
}

// normalizePrompts drops empty texts and clamps weights. A missing weight
// decodes as 0 and becomes the default.
func normalizePrompts(in []models.WeightedPrompt) []models.WeightedPrompt {
	out := make([]models.WeightedPrompt, 0, len(in))
	for _, p := range in {
		text := strings.TrimSpace(p.Text)
		if text == "" {
			continue
		}
		weight := p.Weight
		if weight == 0 {
			weight = models.DefaultPromptWeight
		}
		prompt, err := models.NewWeightedPrompt(text, weight)
		if err != nil {
			continue
		}
		out = append(out, prompt)
	}
	return out
}
