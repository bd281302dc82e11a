package display

import (
	"context"
	"fmt"
	"io"
)

const (
	ansiGreen = "\033[32m"
	ansiRed   = "\033[31m"
	ansiReset = "\033[0m"
)

// Terminal draws views as single lines on a writer, one line per change.
type Terminal struct {
	w     io.Writer
	color bool
}

func NewTerminal(w io.Writer, color bool) *Terminal {
	return &Terminal{w: w, color: color}
}

// Draw writes one line for v.
func (t *Terminal) Draw(v View) error {
	var line string
	if v.Healthy {
		line = "[♥] " + v.Message
		if t.color {
			line = ansiGreen + line + ansiReset
		}
	} else {
		line = "[x] " + v.Message
		if t.color {
			line = ansiRed + line + ansiReset
		}
	}
	_, err := fmt.Fprintln(t.w, line)
	return err
}

// Run draws initial, then redraws on every token received from updates until
// ctx is done or updates is closed.
func (t *Terminal) Run(ctx context.Context, initial string, updates <-chan string) error {
	if err := t.Draw(Render(initial)); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case tok, ok := <-updates:
			if !ok {
				return nil
			}
			if err := t.Draw(Render(tok)); err != nil {
				return err
			}
		}
	}
}
