package pulsr

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func waitUntil(timeout, step time.Duration, fn func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return true
		}
		time.Sleep(step)
	}
	return fn()
}

func TestFacadeMonitorLifecycle(t *testing.T) {
	m := New(SourceFunc(func(context.Context) (string, error) { return "OK-123", nil }), WithLogger(quiet()))
	h, err := m.Start(10 * time.Millisecond)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := m.Start(10 * time.Millisecond); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	if !waitUntil(2*time.Second, 5*time.Millisecond, func() bool { return m.Current() == "OK-123" }) {
		t.Fatalf("monitor never became healthy")
	}
	if v := Render(m.Current()); !v.Healthy || v.Message != "OK-123" {
		t.Fatalf("unexpected view %+v", v)
	}
	_ = h.Close()
	if m.Running() || Render(m.Current()).Message != Unreachable {
		t.Fatalf("closed monitor should be stopped and unreachable")
	}
}

func TestFacadeFromConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "pulsr.toml")
	body := "env = [\"PID_DIR=" + dir + "\"]\n" +
		"[monitor]\ninterval = \"20ms\"\n" +
		"[source]\ntype = \"pidfile\"\npath = \"${PID_DIR}/missing.pid\"\n" +
		"[[source.fallbacks]]\ntype = \"command\"\ncommand = \"echo fallback-ok\"\n"
	if err := os.WriteFile(cfgPath, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadConfig(cfgPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	m, err := NewFromConfig(c, quiet())
	if err != nil {
		t.Fatalf("from config: %v", err)
	}
	h, err := m.Start(c.Monitor.Interval)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer h.Close()
	if !waitUntil(3*time.Second, 10*time.Millisecond, func() bool { return m.Current() == "fallback-ok" }) {
		t.Fatalf("expected fallback token, got %q", m.Current())
	}
}

func TestFacadeInvalidInterval(t *testing.T) {
	m := New(SourceFunc(func(context.Context) (string, error) { return "", nil }), WithLogger(quiet()))
	if _, err := m.Start(-time.Millisecond); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
}
