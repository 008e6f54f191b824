package format

import (
	"fmt"
	"strings"
)

// Command is formatting action bound to toolbar button.
type Command struct {
	Name string
	// Tag is toggled around selection, empty for alignment commands.
	Tag   string
	Style Style
	Align string
}

var commands = map[string]Command{
	"bold":      {Name: "bold", Tag: "strong"},
	"italic":    {Name: "italic", Tag: "em"},
	"underline": {Name: "underline", Tag: "u"},
	"strike":    {Name: "strike", Tag: "s"},
	"code":      {Name: "code", Tag: "code"},
	"sub":       {Name: "sub", Tag: "sub"},
	"sup":       {Name: "sup", Tag: "sup"},
	"mark":      {Name: "mark", Tag: "mark"},

	"align-left":    {Name: "align-left", Align: "left"},
	"align-center":  {Name: "align-center", Align: "center"},
	"align-right":   {Name: "align-right", Align: "right"},
	"align-justify": {Name: "align-justify", Align: "justify"},
}

// LookupCommand returns command by name.
func LookupCommand(name string) (Command, error) {
	c, ok := commands[strings.ToLower(name)]
	if !ok {
		return Command{}, fmt.Errorf("unknown formatting command %q", name)
	}
	return c, nil
}

// Apply runs command, returns false when it had no effect.
func (e *Engine) Apply(c Command) bool {
	if c.Align != "" {
		return e.SetAlignment(c.Align)
	}
	return e.ToggleWrap(c.Tag, c.Style)
}
