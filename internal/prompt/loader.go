package prompt

import (
	"strings"

	"github.com/Conceptual-Machines/magda-jam/pkg/embedded"
)

// Loader serves the interpreter system prompts compiled into the binary.
// Both are fmt templates.
type Loader struct {
	first  string
	modify string
}

func NewPromptLoader() *Loader {
	return &Loader{
		first:  strings.TrimSpace(string(embedded.FirstCommandTxt)) + "\n",
		modify: strings.TrimSpace(string(embedded.ModifyCommandTxt)) + "\n",
	}
}

// FirstCommand is the template for starting music. Its one verb takes the
// instructions for resolving prompt texts.
func (l *Loader) FirstCommand() string {
	return l.first
}

// ModifyCommand is the template for changing music that is already playing.
// Its verbs take the current BPM, the JSON list of active prompt texts and
// the resolving instructions, in that order.
func (l *Loader) ModifyCommand() string {
	return l.modify
}
