package llm

import (
	"fmt"
	"math"

	"github.com/Conceptual-Machines/magda-jam/internal/models"
	"github.com/Conceptual-Machines/magda-jam/internal/music"
)

// Music tool names exposed to function-calling models
const (
	toolInstrumentPrompt = "get_instrument_prompt"
	toolGenrePrompt      = "get_genre_prompt"
	toolMoodPrompt       = "get_mood_prompt"
	toolBPMChange        = "calculate_bpm_change"
	toolDensityChange    = "calculate_density_change"
	toolBrightnessChange = "calculate_brightness_change"
	toolWeightedPrompt   = "create_weighted_prompt"
)

type paramKind int

const (
	paramString paramKind = iota
	paramNumber
)

type toolParam struct {
	name        string
	kind        paramKind
	description string
	required    bool
	nullable    bool
}

type musicTool struct {
	name        string
	description string
	params      []toolParam
	call        func(args map[string]any) map[string]any
}

var musicTools = []musicTool{
	{
		name:        toolInstrumentPrompt,
		description: "Get the music prompt text for a specific instrument (guitar, drums, synth, bass, etc.)",
		params: []toolParam{
			{name: "instrument_name", kind: paramString, required: true, description: "Name of the instrument (e.g., 'guitar', 'drums', 'synth')"},
		},
		call: func(args map[string]any) map[string]any {
			return map[string]any{"text": music.InstrumentPrompt(argString(args, "instrument_name"))}
		},
	},
	{
		name:        toolGenrePrompt,
		description: "Get the music prompt text for a genre (techno, jazz, hip hop, etc.)",
		params: []toolParam{
			{name: "genre_name", kind: paramString, required: true, description: "Name of the genre (e.g., 'techno', 'jazz', 'hip hop')"},
		},
		call: func(args map[string]any) map[string]any {
			return map[string]any{"text": music.GenrePrompt(argString(args, "genre_name"))}
		},
	},
	{
		name:        toolMoodPrompt,
		description: "Get the music prompt text for a mood or feeling (chill, dark, energetic, etc.)",
		params: []toolParam{
			{name: "mood_description", kind: paramString, required: true, description: "Description of the mood (e.g., 'chill', 'dark', 'energetic')"},
		},
		call: func(args map[string]any) map[string]any {
			return map[string]any{"text": music.MoodPrompt(argString(args, "mood_description"))}
		},
	},
	{
		name:        toolBPMChange,
		description: "Calculate a new BPM from a modification request (faster, slower, double time, etc.)",
		params: []toolParam{
			{name: "current_bpm", kind: paramNumber, required: true, description: "Current BPM value (60-200)"},
			{name: "modification", kind: paramString, required: true, description: "Description of change (e.g., 'faster', 'slower', 'double time')"},
		},
		call: func(args map[string]any) map[string]any {
			current, ok := argNumber(args, "current_bpm")
			if !ok {
				return map[string]any{"error": "current_bpm is required"}
			}
			bpm := music.CalculateBPMChange(int(math.Round(current)), argString(args, "modification"))
			return map[string]any{"bpm": bpm}
		},
	},
	{
		name:        toolDensityChange,
		description: "Calculate a new density value (how busy or sparse the music is, 0.0-1.0)",
		params: []toolParam{
			{name: "current_density", kind: paramNumber, nullable: true, description: "Current density value (0.0-1.0), or null if not set"},
			{name: "modification", kind: paramString, required: true, description: "Description of change (e.g., 'busier', 'more minimal')"},
		},
		call: func(args map[string]any) map[string]any {
			density := music.CalculateDensityChange(argOptional(args, "current_density"), argString(args, "modification"))
			return map[string]any{"density": density}
		},
	},
	{
		name:        toolBrightnessChange,
		description: "Calculate a new brightness value (tonal quality, 0.0 dark to 1.0 bright)",
		params: []toolParam{
			{name: "current_brightness", kind: paramNumber, nullable: true, description: "Current brightness value (0.0-1.0), or null if not set"},
			{name: "modification", kind: paramString, required: true, description: "Description of change (e.g., 'brighter', 'darker')"},
		},
		call: func(args map[string]any) map[string]any {
			brightness := music.CalculateBrightnessChange(argOptional(args, "current_brightness"), argString(args, "modification"))
			return map[string]any{"brightness": brightness}
		},
	},
	{
		name:        toolWeightedPrompt,
		description: "Create a properly formatted weighted prompt (weight cannot be 0)",
		params: []toolParam{
			{name: "text", kind: paramString, required: true, description: "The prompt text"},
			{name: "weight", kind: paramNumber, description: "The weight value (0.1-3.0, default 1.0, cannot be 0)"},
		},
		call: func(args map[string]any) map[string]any {
			weight, ok := argNumber(args, "weight")
			if !ok {
				weight = models.DefaultPromptWeight
			}
			prompt, err := models.NewWeightedPrompt(argString(args, "text"), weight)
			if err != nil {
				return map[string]any{"error": err.Error()}
			}
			return map[string]any{"text": prompt.Text, "weight": prompt.Weight}
		},
	},
}

// callTool runs a music tool by name. Unknown tools and bad arguments are
// reported back to the model as an error field rather than failing the call.
func callTool(name string, args map[string]any) map[string]any {
	for _, t := range musicTools {
		if t.name == name {
			return t.call(args)
		}
	}
	return map[string]any{"error": fmt.Sprintf("unknown function: %s", name)}
}

func argString(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func argNumber(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func argOptional(args map[string]any, key string) *float64 {
	if v, ok := argNumber(args, key); ok {
		return &v
	}
	return nil
}
