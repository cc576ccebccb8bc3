package buildlog

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

// Console writes events to a terminal, one line each, prefixed with the
// emitting element's name. Events below Threshold are dropped.
type Console struct {
	mu        sync.Mutex
	w         io.Writer
	threshold Level
	colors    map[Level]*color.Color
}

// NewConsole creates a Console sink. When plain is true no colour codes are
// written regardless of the terminal.
func NewConsole(w io.Writer, threshold Level, plain bool) *Console {
	c := &Console{
		w:         w,
		threshold: threshold,
		colors: map[Level]*color.Color{
			Debug:   color.New(color.FgHiBlack),
			Verbose: color.New(color.FgHiBlack),
			Info:    color.New(color.Reset),
			Warning: color.New(color.FgYellow),
			Error:   color.New(color.FgRed, color.Bold),
		},
	}
	for _, col := range c.colors {
		if plain {
			col.DisableColor()
		} else {
			col.EnableColor()
		}
	}
	return c
}

func (c *Console) Emit(e Event) {
	if e.Level < c.threshold {
		return
	}
	line := e.Message
	if e.Element != "" {
		line = fmt.Sprintf("[%s] %s", e.Element, e.Message)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	col, ok := c.colors[e.Level]
	if !ok {
		fmt.Fprintln(c.w, line)
		return
	}
	col.Fprintln(c.w, line)
}
