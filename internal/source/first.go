package source

import (
	"context"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// First queries sources in order and returns the first non-empty token.
// Errors are collected and returned only when no source produced a token.
type First []Source

func (f First) Heartbeat(ctx context.Context) (string, error) {
	var result error
	for _, s := range f {
		tok, err := s.Heartbeat(ctx)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		if tok != "" {
			return tok, nil
		}
	}
	return "", result
}

func (f First) Describe() string {
	parts := make([]string, 0, len(f))
	for _, s := range f {
		parts = append(parts, s.Describe())
	}
	return "first(" + strings.Join(parts, ", ") + ")"
}
