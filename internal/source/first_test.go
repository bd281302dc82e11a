package source

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hashicorp/go-multierror"
)

func static(tok string, err error) Func {
	return func(context.Context) (string, error) { return tok, err }
}

func TestFirstReturnsFirstToken(t *testing.T) {
	f := First{static("", nil), static("", errors.New("boom")), static("B", nil), static("C", nil)}
	tok, err := f.Heartbeat(context.Background())
	if err != nil || tok != "B" {
		t.Fatalf("expected B,nil got %q %v", tok, err)
	}
}

func TestFirstAggregatesErrors(t *testing.T) {
	f := First{static("", errors.New("one")), static("", nil), static("", errors.New("two"))}
	tok, err := f.Heartbeat(context.Background())
	if tok != "" || err == nil {
		t.Fatalf("expected aggregated error, got %q %v", tok, err)
	}
	var merr *multierror.Error
	if !errors.As(err, &merr) || len(merr.Errors) != 2 {
		t.Fatalf("expected 2 wrapped errors, got %v", err)
	}
}

func TestFirstAllEmpty(t *testing.T) {
	tok, err := First{static("", nil)}.Heartbeat(context.Background())
	if tok != "" || err != nil {
		t.Fatalf("expected empty,nil got %q %v", tok, err)
	}
}

func TestFirstDescribe(t *testing.T) {
	d := First{Command{Command: "hb"}, HTTP{URL: "http://x"}}.Describe()
	if !strings.HasPrefix(d, "first(") || !strings.Contains(d, "cmd:hb") || !strings.Contains(d, "http:http://x") {
		t.Fatalf("unexpected describe %q", d)
	}
}
