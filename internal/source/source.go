package source

import (
	"context"
	"strings"
	"unicode/utf8"
)

// MaxTokenBytes caps the size of a liveness token read from any source.
const MaxTokenBytes = 4096

// Source is a heartbeat query. Heartbeat returns a non-empty liveness token
// when the monitored process is alive, or an empty string when it has no
// signal this cycle. A returned error is a transport-level failure; callers
// treat it the same as an empty token.
// Implementations must be safe for concurrent use: overlapping calls happen
// whenever a call outlives the sampling interval.
type Source interface {
	Heartbeat(ctx context.Context) (string, error)
	// Describe returns a human-readable description of the source.
	Describe() string
}

// Func adapts a plain function to the Source interface.
type Func func(ctx context.Context) (string, error)

func (f Func) Heartbeat(ctx context.Context) (string, error) { return f(ctx) }
func (f Func) Describe() string                               { return "func" }

// normalizeToken trims surrounding whitespace and caps the token length
// without splitting a UTF-8 sequence.
func normalizeToken(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > MaxTokenBytes {
		n := MaxTokenBytes
		for n > 0 && !utf8.RuneStart(s[n]) {
			n--
		}
		s = s[:n]
	}
	return s
}
