package music

import (
	"fmt"
	"sort"
	"strings"
)

// InstrumentPrompt returns the prompt text for an instrument name
func InstrumentPrompt(name string) string {
	if text, ok := lookup(instruments, name); ok {
		return text
	}
	return fmt.Sprintf("%s with expressive character", name)
}

// GenrePrompt returns the prompt text for a genre name
func GenrePrompt(name string) string {
	if text, ok := lookup(genres, name); ok {
		return text
	}
	return fmt.Sprintf("%s style with authentic character", name)
}

// MoodPrompt returns the prompt text for a mood or feeling
func MoodPrompt(mood string) string {
	if text, ok := lookup(moods, mood); ok {
		return text
	}
	return fmt.Sprintf("%s atmosphere with emotional depth", mood)
}

// lookup tries an exact key match, then the first key that contains the
// name or is contained by it.
func lookup(table []entry, name string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return "", false
	}

	for _, e := range table {
		if e.key == normalized {
			return e.text, true
		}
	}
	for _, e := range table {
		if strings.Contains(e.key, normalized) || strings.Contains(normalized, e.key) {
			return e.text, true
		}
	}
	return "", false
}

// ListInstruments returns every instrument key, sorted
func ListInstruments() []string { return keys(instruments) }

// ListGenres returns every genre key, sorted
func ListGenres() []string { return keys(genres) }

// ListMoods returns every mood key, sorted
func ListMoods() []string { return keys(moods) }

func keys(table []entry) []string {
	out := make([]string, 0, len(table))
	for _, e := range table {
		out = append(out, e.key)
	}
	sort.Strings(out)
	return out
}
