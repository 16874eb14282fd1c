package models

import (
	"errors"
	"fmt"
)

// Prompt weight bounds
const (
	MinPromptWeight     = 0.1
	MaxPromptWeight     = 3.0
	DefaultPromptWeight = 1.0
)

// Config bounds
const (
	MinBPM         = 60
	MaxBPM         = 200
	MaxTemperature = 3.0
	MaxGuidance    = 6.0
	MinTopK        = 1
	MaxTopK        = 1000
	MaxSeed        = 1<<31 - 1

	DefaultTemperature = 1.1
	DefaultGuidance    = 4.0
)

// ErrZeroWeight is returned when a prompt is constructed with weight 0
var ErrZeroWeight = errors.New("weight cannot be 0, use a value between 0.1 and 3.0")

// WeightedPrompt is a text description paired with its influence on the generated stream
type WeightedPrompt struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

// NewWeightedPrompt builds a prompt, rejecting a zero weight and clamping the rest
// into [MinPromptWeight, MaxPromptWeight].
func NewWeightedPrompt(text string, weight float64) (WeightedPrompt, error) {
	if weight == 0 {
		return WeightedPrompt{}, ErrZeroWeight
	}
	return WeightedPrompt{
		Text:   text,
		Weight: max(MinPromptWeight, min(MaxPromptWeight, weight)),
	}, nil
}

// PromptTexts returns the text of each prompt in order
func PromptTexts(prompts []WeightedPrompt) []string {
	texts := make([]string, 0, len(prompts))
	for _, p := range prompts {
		texts = append(texts, p.Text)
	}
	return texts
}

// GenerationMode selects what the music model optimises for
type GenerationMode string

const (
	GenerationModeQuality      GenerationMode = "QUALITY"
	GenerationModeDiversity    GenerationMode = "DIVERSITY"
	GenerationModeVocalization GenerationMode = "VOCALIZATION"
)

// Valid reports whether m is a known generation mode
func (m GenerationMode) Valid() bool {
	switch m {
	case GenerationModeQuality, GenerationModeDiversity, GenerationModeVocalization:
		return true
	}
	return false
}

// MusicConfig is a sparse patch of generation parameters.
// A nil field means "leave unchanged".
type MusicConfig struct {
	BPM                 *int            `json:"bpm,omitempty"`
	Density             *float64        `json:"density,omitempty"`
	Brightness          *float64        `json:"brightness,omitempty"`
	Temperature         *float64        `json:"temperature,omitempty"`
	Guidance            *float64        `json:"guidance,omitempty"`
	Scale               *Scale          `json:"scale,omitempty"`
	MuteBass            *bool           `json:"mute_bass,omitempty"`
	MuteDrums           *bool           `json:"mute_drums,omitempty"`
	OnlyBassAndDrums    *bool           `json:"only_bass_and_drums,omitempty"`
	MusicGenerationMode *GenerationMode `json:"music_generation_mode,omitempty"`
	TopK                *int            `json:"top_k,omitempty"`
	Seed                *int            `json:"seed,omitempty"`
}

// Merge returns c with every field present in patch overwritten
func (c MusicConfig) Merge(patch MusicConfig) MusicConfig {
	merged := c
	if patch.BPM != nil {
		merged.BPM = patch.BPM
	}
	if patch.Density != nil {
		merged.Density = patch.Density
	}
	if patch.Brightness != nil {
		merged.Brightness = patch.Brightness
	}
	if patch.Temperature != nil {
		merged.Temperature = patch.Temperature
	}
	if patch.Guidance != nil {
		merged.Guidance = patch.Guidance
	}
	if patch.Scale != nil {
		merged.Scale = patch.Scale
	}
	if patch.MuteBass != nil {
		merged.MuteBass = patch.MuteBass
	}
	if patch.MuteDrums != nil {
		merged.MuteDrums = patch.MuteDrums
	}
	if patch.OnlyBassAndDrums != nil {
		merged.OnlyBassAndDrums = patch.OnlyBassAndDrums
	}
	if patch.MusicGenerationMode != nil {
		merged.MusicGenerationMode = patch.MusicGenerationMode
	}
	if patch.TopK != nil {
		merged.TopK = patch.TopK
	}
	if patch.Seed != nil {
		merged.Seed = patch.Seed
	}
	return merged
}

// IsEmpty reports whether no field is set
func (c MusicConfig) IsEmpty() bool {
	return c == MusicConfig{}
}

// Validate checks every set field against its documented range
func (c MusicConfig) Validate() error {
	if c.BPM != nil && (*c.BPM < MinBPM || *c.BPM > MaxBPM) {
		return fmt.Errorf("bpm %d out of range [%d, %d]", *c.BPM, MinBPM, MaxBPM)
	}
	if err := checkUnit("density", c.Density); err != nil {
		return err
	}
	if err := checkUnit("brightness", c.Brightness); err != nil {
		return err
	}
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > MaxTemperature) {
		return fmt.Errorf("temperature %.2f out of range [0, %.1f]", *c.Temperature, MaxTemperature)
	}
	if c.Guidance != nil && (*c.Guidance < 0 || *c.Guidance > MaxGuidance) {
		return fmt.Errorf("guidance %.2f out of range [0, %.1f]", *c.Guidance, MaxGuidance)
	}
	if c.Scale != nil && !c.Scale.Valid() {
		return fmt.Errorf("unknown scale %q", *c.Scale)
	}
	if c.MusicGenerationMode != nil && !c.MusicGenerationMode.Valid() {
		return fmt.Errorf("unknown music generation mode %q", *c.MusicGenerationMode)
	}
	if c.TopK != nil && (*c.TopK < MinTopK || *c.TopK > MaxTopK) {
		return fmt.Errorf("top_k %d out of range [%d, %d]", *c.TopK, MinTopK, MaxTopK)
	}
	if c.Seed != nil && (*c.Seed < 0 || *c.Seed > MaxSeed) {
		return fmt.Errorf("seed %d out of range [0, %d]", *c.Seed, MaxSeed)
	}
	return nil
}

func checkUnit(name string, v *float64) error {
	if v != nil && (*v < 0 || *v > 1) {
		return fmt.Errorf("%s %.2f out of range [0, 1]", name, *v)
	}
	return nil
}

// Ptr returns a pointer to v, for building config patches inline
func Ptr[T any](v T) *T {
	return &v
}
