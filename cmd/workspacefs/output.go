package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// styles colors command output. Every color is disabled when output is not
// a terminal, unless forced.
type styles struct {
	dir      *color.Color
	selected *color.Color
	summary  *color.Color
}

// newStyles builds styles for mode: "auto", "always" or "never".
func newStyles(mode string, out io.Writer) (styles, error) {
	s := styles{
		dir:      color.New(color.FgBlue, color.Bold),
		selected: color.New(color.FgGreen),
		summary:  color.New(color.Faint),
	}

	var enabled bool
	switch mode {
	case "", "auto":
		f, ok := out.(*os.File)
		enabled = ok && f == os.Stdout && !color.NoColor
	case "always":
		enabled = true
	case "never":
		enabled = false
	default:
		return styles{}, fmt.Errorf("%w: -color must be auto, always or never, got %q", errUsage, mode)
	}

	for _, c := range []*color.Color{s.dir, s.selected, s.summary} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return s, nil
}
