package source

import (
	"testing"

	"github.com/loykin/pulsr/internal/env"
)

func TestSpecValidate(t *testing.T) {
	bad := []Spec{
		{},
		{Type: "bluetooth"},
		{Type: "command"},
		{Type: "http"},
		{Type: "pidfile"},
		{Type: "command", Command: "hb", Fallbacks: []Spec{{Type: "http"}}},
	}
	for _, s := range bad {
		if err := s.Validate(); err == nil {
			t.Fatalf("expected validation error for %+v", s)
		}
	}
	if err := (Spec{Type: "HTTP", URL: "http://x"}).Validate(); err != nil {
		t.Fatalf("type should be case-insensitive: %v", err)
	}
}

func TestNewExpandsVars(t *testing.T) {
	vars := env.New().WithSet("HB_HOST", "127.0.0.1")

	s, err := New(Spec{Type: "http", URL: "http://${HB_HOST}:8080/heartbeat"}, vars, nil)
	if err != nil {
		t.Fatalf("new http: %v", err)
	}
	h, ok := s.(HTTP)
	if !ok || h.URL != "http://127.0.0.1:8080/heartbeat" {
		t.Fatalf("unexpected source %#v", s)
	}

	s, err = New(Spec{Type: "command", Command: "hb --host ${HB_HOST}", Env: []string{"X=${HB_HOST}"}}, vars, nil)
	if err != nil {
		t.Fatalf("new command: %v", err)
	}
	c := s.(Command)
	if c.Command != "hb --host 127.0.0.1" {
		t.Fatalf("command not expanded: %q", c.Command)
	}
	found := false
	for _, kv := range c.Env {
		if kv == "X=127.0.0.1" {
			found = true
		}
	}
	if !found {
		t.Fatalf("env not merged/expanded: %v", c.Env)
	}

	s, err = New(Spec{Type: "pidfile", Path: "/run/${HB_HOST}.pid"}, vars, nil)
	if err != nil || s.(PIDFile).Path != "/run/127.0.0.1.pid" {
		t.Fatalf("pidfile not expanded: %#v %v", s, err)
	}
}

func TestNewRejectsBadURL(t *testing.T) {
	if _, err := New(Spec{Type: "http", URL: "ftp://x/hb"}, env.New(), nil); err == nil {
		t.Fatalf("expected scheme error")
	}
	if _, err := New(Spec{Type: "http", URL: "http://[::1"}, env.New(), nil); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestNewWithFallbacks(t *testing.T) {
	s, err := New(Spec{
		Type:      "http",
		URL:       "http://localhost/hb",
		Fallbacks: []Spec{{Type: "pidfile", Path: "/tmp/r.pid"}},
	}, env.New(), nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	chain, ok := s.(First)
	if !ok || len(chain) != 2 {
		t.Fatalf("expected 2-element chain, got %#v", s)
	}
}
