package cmd

import (
	"fmt"
	"time"

	"github.com/Conceptual-Machines/magda-jam/internal/conductor"
	"github.com/Conceptual-Machines/magda-jam/internal/lyria"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	stateStyles = map[lyria.PlaybackState]lipgloss.Style{
		lyria.StatePlaying: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		lyria.StateLoading: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		lyria.StatePaused:  lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		lyria.StateStopped: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}

	stateIcons = map[lyria.PlaybackState]string{
		lyria.StatePlaying: "▶",
		lyria.StateLoading: "…",
		lyria.StatePaused:  "⏸",
		lyria.StateStopped: "■",
	}
)

func renderState(s lyria.PlaybackState) string {
	style, ok := stateStyles[s]
	if !ok {
		style = dimStyle
	}
	return style.Render(stateIcons[s] + " " + string(s))
}

// renderEvent formats a session event for the terminal. Time updates are
// too frequent to print and render as "".
func renderEvent(e lyria.Event) string {
	switch e.Type {
	case lyria.EventStateChanged:
		return renderState(e.State)
	case lyria.EventError:
		return errorStyle.Render("✗ " + e.Message)
	case lyria.EventFiltered:
		return warnStyle.Render(fmt.Sprintf("⚠ prompt %q was filtered: %s", e.Text, e.Reason))
	}
	return ""
}

func renderOutcome(o *conductor.Outcome) string {
	line := fmt.Sprintf("%s %d BPM  %s", titleStyle.Render(string(o.Mode)), o.BPM, promptList(o.Prompts))
	if o.Interpretation != nil && o.Interpretation.Result.Explanation != "" {
		line += "\n" + dimStyle.Render("  "+o.Interpretation.Result.Explanation)
	}
	return line
}

func renderStatus(state lyria.PlaybackState, elapsed time.Duration, snap conductor.Snapshot) string {
	return fmt.Sprintf("%s  %s  %d BPM  %s\n%s",
		renderState(state),
		elapsed.Truncate(time.Second),
		snap.BPM,
		promptList(snap.Prompts),
		dimStyle.Render("session "+snap.SessionID),
	)
}
