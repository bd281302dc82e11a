package source

import (
	"context"
	"runtime"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires Unix-like environment")
	}
}

func TestBuildShellAwareCommand(t *testing.T) {
	requireUnix(t)
	ctx := context.Background()
	// simple no metachar -> direct exec
	c := buildShellAwareCommand(ctx, "echo hello")
	if len(c.Args) == 0 || c.Args[0] != "echo" {
		t.Fatalf("expected direct exec echo, got %#v", c.Args)
	}
	// with shell meta -> sh -c
	c = buildShellAwareCommand(ctx, "echo hi | cat")
	if len(c.Args) < 2 || c.Args[0] != "/bin/sh" || c.Args[1] != "-c" {
		t.Fatalf("expected /bin/sh -c, got %#v", c.Args)
	}
}

func TestCommandHeartbeat(t *testing.T) {
	requireUnix(t)
	ctx := context.Background()

	tok, err := Command{Command: "echo OK-123"}.Heartbeat(ctx)
	if err != nil || tok != "OK-123" {
		t.Fatalf("expected OK-123, got %q err=%v", tok, err)
	}

	// surrounding whitespace and newlines are trimmed
	tok, err = Command{Command: "printf '  72 bpm \n'"}.Heartbeat(ctx)
	if err != nil || tok != "72 bpm" {
		t.Fatalf("expected trimmed token, got %q err=%v", tok, err)
	}

	// non-zero exit -> no token, no error
	tok, err = Command{Command: "sh -c 'echo partial; exit 3'"}.Heartbeat(ctx)
	if err != nil || tok != "" {
		t.Fatalf("non-zero exit expected empty,nil got %q %v", tok, err)
	}

	// missing binary -> error
	tok, err = Command{Command: "__definitely_not_exists__"}.Heartbeat(ctx)
	if err == nil || tok != "" {
		t.Fatalf("expected error for missing binary, got %q %v", tok, err)
	}

	// empty command -> error
	if _, err := (Command{Command: "  "}).Heartbeat(ctx); err == nil {
		t.Fatalf("expected error for empty command")
	}
}

func TestCommandHeartbeatEnv(t *testing.T) {
	requireUnix(t)
	c := Command{Command: "echo $HB_TOKEN", Env: []string{"HB_TOKEN=from-env"}}
	tok, err := c.Heartbeat(context.Background())
	if err != nil || tok != "from-env" {
		t.Fatalf("expected token from env, got %q err=%v", tok, err)
	}
}

func TestCommandHeartbeatContextCancel(t *testing.T) {
	requireUnix(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	tok, err := Command{Command: "sleep 5"}.Heartbeat(ctx)
	if err == nil || tok != "" {
		t.Fatalf("expected context error, got %q %v", tok, err)
	}
	if time.Since(start) > 3*time.Second {
		t.Fatalf("command was not killed on context deadline")
	}
}

func TestCommandHeartbeatDeadlineKillsShellChildren(t *testing.T) {
	requireUnix(t)
	const deadline = 100 * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), deadline)
	defer cancel()
	start := time.Now()
	tok, err := Command{Command: "sleep 3; echo late"}.Heartbeat(ctx)
	elapsed := time.Since(start)
	if err == nil || tok != "" {
		t.Fatalf("expected context error, got %q %v", tok, err)
	}
	if elapsed > 2*deadline+waitDelay+200*time.Millisecond {
		t.Fatalf("shell command outlived its deadline: %v", elapsed)
	}
}

func TestCommandDescribe(t *testing.T) {
	if d := (Command{Command: "hb"}).Describe(); d != "cmd:hb" {
		t.Fatalf("Describe mismatch: %q", d)
	}
}

func TestNormalizeTokenKeepsRunesWhole(t *testing.T) {
	in := "x" + strings.Repeat("é", (MaxTokenBytes+10)/2)
	got := normalizeToken(in)
	if !utf8.ValidString(got) {
		t.Fatalf("truncated token is not valid UTF-8")
	}
	if len(got) > MaxTokenBytes || len(got) < MaxTokenBytes-1 {
		t.Fatalf("unexpected length %d", len(got))
	}
}

func TestNormalizeTokenCaps(t *testing.T) {
	long := strings.Repeat("x", MaxTokenBytes+10)
	if got := normalizeToken(long); len(got) != MaxTokenBytes {
		t.Fatalf("expected capped token, got len %d", len(got))
	}
}
