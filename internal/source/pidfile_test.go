package source

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestPIDFileHeartbeat(t *testing.T) {
	dir := t.TempDir()
	pidfile := filepath.Join(dir, "receiver.pid")
	p := PIDFile{Path: pidfile}
	ctx := context.Background()

	// not exists -> empty,nil
	tok, err := p.Heartbeat(ctx)
	if err != nil || tok != "" {
		t.Fatalf("expected empty,nil for missing file, got %q %v", tok, err)
	}

	// invalid content -> error
	if err := os.WriteFile(pidfile, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Heartbeat(ctx); err == nil {
		t.Fatalf("expected error for invalid pid")
	}

	// pid 0 -> empty,nil
	if err := os.WriteFile(pidfile, []byte("0"), 0o644); err != nil {
		t.Fatal(err)
	}
	tok, err = p.Heartbeat(ctx)
	if err != nil || tok != "" {
		t.Fatalf("expected empty,nil for pid 0, got %q %v", tok, err)
	}

	// current process with an unrelated trailing line -> alive
	pid := os.Getpid()
	content := strconv.Itoa(pid) + "\nsupervisor=pulsr\n"
	if err := os.WriteFile(pidfile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	tok, err = p.Heartbeat(ctx)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if want := "pid " + strconv.Itoa(pid); tok != want {
		t.Fatalf("expected %q, got %q", want, tok)
	}
	if p.Describe() != "pidfile:"+pidfile {
		t.Fatalf("Describe mismatch: %q", p.Describe())
	}
}

func TestPIDFileStartTime(t *testing.T) {
	pid := os.Getpid()
	start := procStartUnix(context.Background(), pid)
	if start == 0 {
		t.Skip("process start time unavailable on this platform")
	}
	pidfile := filepath.Join(t.TempDir(), "receiver.pid")
	p := PIDFile{Path: pidfile}
	write := func(meta string) {
		t.Helper()
		body := strconv.Itoa(pid) + "\n{\"name\":\"receiver\"}\n" + meta + "\n"
		if err := os.WriteFile(pidfile, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	write(`{"start_unix":` + strconv.FormatInt(start, 10) + `}`)
	if tok, err := p.Heartbeat(context.Background()); err != nil || tok == "" {
		t.Fatalf("matching start time should be alive, got %q %v", tok, err)
	}

	// A different recorded start means the pid now belongs to someone else.
	write(`{"start_unix":` + strconv.FormatInt(start-3600, 10) + `}`)
	if tok, err := p.Heartbeat(context.Background()); err != nil || tok != "" {
		t.Fatalf("reused pid should be no signal, got %q %v", tok, err)
	}
}

func TestParsePIDFile(t *testing.T) {
	cases := []struct {
		in        string
		want      int
		wantStart int64
		wantErr   bool
	}{
		{"123", 123, 0, false},
		{" 42 \r\nmeta", 42, 0, false},
		{"7\n{\"cmd\":\"x\"}\n{\"start_unix\":1700000000}", 7, 1700000000, false},
		{"7\n{\"start_unix\":0}", 7, 0, false},
		{"\n", 0, 0, true},
		{"", 0, 0, true},
		{"x1", 0, 0, true},
		{"99999999999", 0, 0, true},
	}
	for _, c := range cases {
		got, start, err := parsePIDFile([]byte(c.in))
		if (err != nil) != c.wantErr || (!c.wantErr && (got != c.want || start != c.wantStart)) {
			t.Fatalf("parsePIDFile(%q) = %d, %d, %v", c.in, got, start, err)
		}
	}
}

// FuzzParsePID ensures arbitrary pid file contents never panic.
func FuzzParsePID(f *testing.F) {
	f.Add([]byte("123\n"))
	f.Add([]byte("not-a-number"))
	f.Add([]byte("\n\n"))

	f.Fuzz(func(t *testing.T, data []byte) {
		dir := t.TempDir()
		pf := filepath.Join(dir, "pid.pid")
		_ = os.WriteFile(pf, data, 0o644)
		_, _ = PIDFile{Path: pf}.Heartbeat(context.Background())
	})
}
