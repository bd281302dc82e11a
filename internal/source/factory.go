package source

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/loykin/pulsr/internal/env"
)

// Source types accepted in configuration.
const (
	TypeCommand = "command"
	TypeHTTP    = "http"
	TypePIDFile = "pidfile"
)

// Spec describes a heartbeat source declared in configuration.
// Fallbacks are tried in order when the primary source has no token.
type Spec struct {
	Type      string   `mapstructure:"type"`
	Command   string   `mapstructure:"command"`
	URL       string   `mapstructure:"url"`
	Path      string   `mapstructure:"path"`
	Env       []string `mapstructure:"env"`
	Fallbacks []Spec   `mapstructure:"fallbacks"`
}

// Validate checks type-specific required fields.
func (s Spec) Validate() error {
	switch strings.ToLower(strings.TrimSpace(s.Type)) {
	case TypeCommand:
		if strings.TrimSpace(s.Command) == "" {
			return fmt.Errorf("source command requires command")
		}
	case TypeHTTP:
		if s.URL == "" {
			return fmt.Errorf("source http requires url")
		}
	case TypePIDFile:
		if s.Path == "" {
			return fmt.Errorf("source pidfile requires path")
		}
	case "":
		return fmt.Errorf("source type is required")
	default:
		return fmt.Errorf("unknown source type %q", s.Type)
	}
	for i, fb := range s.Fallbacks {
		if err := fb.Validate(); err != nil {
			return fmt.Errorf("fallback %d: %w", i, err)
		}
	}
	return nil
}

// New builds a Source from spec, expanding ${VAR} placeholders with vars.
// A nil vars expands against the OS environment.
func New(spec Spec, vars *env.Env, client *http.Client) (Source, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if vars == nil {
		vars = env.FromOS()
	}
	primary, err := build(spec, vars, client)
	if err != nil {
		return nil, err
	}
	if len(spec.Fallbacks) == 0 {
		return primary, nil
	}
	chain := First{primary}
	for _, fb := range spec.Fallbacks {
		s, err := build(fb, vars, client)
		if err != nil {
			return nil, err
		}
		chain = append(chain, s)
	}
	return chain, nil
}

func build(spec Spec, vars *env.Env, client *http.Client) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(spec.Type)) {
	case TypeCommand:
		// config vars reach the command even without a per-source env list
		return Command{Command: vars.Expand(spec.Command), Env: vars.Merge(spec.Env)}, nil
	case TypeHTTP:
		raw := vars.Expand(spec.URL)
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid source url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("invalid source url %q: scheme must be http or https", raw)
		}
		return HTTP{URL: u.String(), Client: client}, nil
	case TypePIDFile:
		return PIDFile{Path: vars.Expand(spec.Path)}, nil
	}
	return nil, fmt.Errorf("unknown source type %q", spec.Type)
}
