package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPHeartbeat(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK-123\n"))
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/down", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "receiver offline", http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/big", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", MaxTokenBytes*3)))
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()

	tok, err := HTTP{URL: srv.URL + "/ok"}.Heartbeat(ctx)
	if err != nil || tok != "OK-123" {
		t.Fatalf("expected OK-123, got %q err=%v", tok, err)
	}

	tok, err = HTTP{URL: srv.URL + "/empty"}.Heartbeat(ctx)
	if err != nil || tok != "" {
		t.Fatalf("expected empty,nil got %q %v", tok, err)
	}

	tok, err = HTTP{URL: srv.URL + "/down"}.Heartbeat(ctx)
	if err == nil || tok != "" {
		t.Fatalf("expected error for 503, got %q %v", tok, err)
	}
	if !strings.Contains(err.Error(), "503") {
		t.Fatalf("error should mention status: %v", err)
	}

	tok, err = HTTP{URL: srv.URL + "/big", Client: srv.Client()}.Heartbeat(ctx)
	if err != nil || len(tok) != MaxTokenBytes {
		t.Fatalf("expected capped body, got len=%d err=%v", len(tok), err)
	}

	cctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	tok, err = HTTP{URL: srv.URL + "/slow"}.Heartbeat(cctx)
	if err == nil || tok != "" {
		t.Fatalf("expected deadline error, got %q %v", tok, err)
	}
}

func TestHTTPHeartbeatUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	tok, err := HTTP{URL: url}.Heartbeat(context.Background())
	if err == nil || tok != "" {
		t.Fatalf("expected transport error, got %q %v", tok, err)
	}
}

func TestHTTPDescribe(t *testing.T) {
	if d := (HTTP{URL: "http://x/hb"}).Describe(); d != "http:http://x/hb" {
		t.Fatalf("Describe mismatch: %q", d)
	}
}
