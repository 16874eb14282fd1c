package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/magda-jam/internal/models"
	"github.com/Conceptual-Machines/magda-jam/internal/music"
	"github.com/Conceptual-Machines/magda-jam/internal/prompt"
)

var prompts = prompt.NewPromptLoader()

const toolSteps = "Use the available functions to get prompt texts and compute new values " +
	"(get_genre_prompt, get_mood_prompt, get_instrument_prompt, create_weighted_prompt, " +
	"calculate_bpm_change, calculate_density_change, calculate_brightness_change)"

const hintSteps = "Use the reference values under \"Catalog\" below for prompt texts and computed values"

// systemPrompt returns the instructions for opts. Function-calling models get
// tool steps; the rest get the catalog resolved against the transcript.
func systemPrompt(transcript string, opts models.InterpretOptions, withTools bool) string {
	steps := toolSteps
	if !withTools {
		steps = hintSteps
	}

	var text string
	if opts.IsFirstCommand {
		text = fmt.Sprintf(prompts.FirstCommand(), steps)
	} else {
		bpm := "not set"
		if opts.CurrentBPM != nil {
			bpm = fmt.Sprintf("%d", *opts.CurrentBPM)
		}
		current := opts.CurrentPrompts
		if current == nil {
			current = []string{}
		}
		encoded, _ := json.Marshal(current)
		text = fmt.Sprintf(prompts.ModifyCommand(), bpm, encoded, steps)
	}

	if withTools {
		return text
	}
	return text + "\n" + catalogHints(transcript, opts)
}

func userPrompt(transcript string) string {
	return fmt.Sprintf("User said: %q\n\nInterpret this and return the music parameters.", transcript)
}

// catalogHints pre-resolves the catalog lookups and calculators a
// function-calling model would have made for this transcript.
func catalogHints(transcript string, opts models.InterpretOptions) string {
	lower := strings.ToLower(transcript)

	var b strings.Builder
	b.WriteString("Catalog:\n")
	for _, section := range []struct {
		label  string
		keys   []string
		lookup func(string) string
	}{
		{"Genre", music.ListGenres(), music.GenrePrompt},
		{"Mood", music.ListMoods(), music.MoodPrompt},
		{"Instrument", music.ListInstruments(), music.InstrumentPrompt},
	} {
		for _, key := range section.keys {
			if strings.Contains(lower, key) {
				fmt.Fprintf(&b, "- %s %q: %q\n", section.label, key, section.lookup(key))
			}
		}
	}

	if !opts.IsFirstCommand {
		if opts.CurrentBPM != nil {
			if bpm := music.CalculateBPMChange(*opts.CurrentBPM, lower); bpm != *opts.CurrentBPM {
				fmt.Fprintf(&b, "- Tempo change: bpm %d\n", bpm)
			}
		}
		var density, brightness *float64
		if opts.CurrentConfig != nil {
			density, brightness = opts.CurrentConfig.Density, opts.CurrentConfig.Brightness
		}
		fmt.Fprintf(&b, "- Density if changed: %.2f\n", music.CalculateDensityChange(density, lower))
		fmt.Fprintf(&b, "- Brightness if changed: %.2f\n", music.CalculateBrightnessChange(brightness, lower))
	}
	return b.String()
}
