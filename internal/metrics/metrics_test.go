package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegisterIdempotentAndCountersWork(t *testing.T) {
	reg := prometheus.NewRegistry()
	regOK.Store(false)
	if err := Register(reg); err != nil {
		t.Fatalf("first register: %v", err)
	}
	// idempotent: calling again should be no-op
	if err := Register(reg); err != nil {
		t.Fatalf("second register: %v", err)
	}

	IncTick()
	IncTick()
	ObserveSample(ResultOK, 0.01)
	ObserveSample(ResultError, 0.5)
	IncDiscarded(DiscardStale)
	SetHealthy(true)
	AddInFlight(1)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	wantNames := map[string]bool{
		"pulsr_monitor_ticks_total":             false,
		"pulsr_monitor_samples_total":           false,
		"pulsr_monitor_discarded_total":         false,
		"pulsr_monitor_sample_duration_seconds": false,
		"pulsr_monitor_healthy":                 false,
		"pulsr_monitor_in_flight":               false,
	}
	for _, mf := range mfs {
		n := mf.GetName()
		if _, ok := wantNames[n]; ok {
			wantNames[n] = true
			if len(mf.GetMetric()) == 0 {
				t.Fatalf("metric %s has no samples", n)
			}
		}
		if n == "pulsr_monitor_healthy" && mf.GetMetric()[0].GetGauge().GetValue() != 1 {
			t.Fatalf("healthy gauge should be 1")
		}
	}
	for n, ok := range wantNames {
		if !ok {
			t.Fatalf("expected to find metric %s", n)
		}
	}
}

func TestRegisterAlreadyRegisteredIsIgnored(t *testing.T) {
	reg := prometheus.NewRegistry()
	// Pre-register one collector so Register sees AlreadyRegisteredError.
	if err := reg.Register(ticks); err != nil {
		t.Fatalf("pre-register: %v", err)
	}
	regOK.Store(false)
	if err := Register(reg); err != nil {
		t.Fatalf("register should tolerate already registered collectors: %v", err)
	}
}

func TestHandlerForServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	regOK.Store(false)
	if err := Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	IncTick()

	srv := httptest.NewServer(HandlerFor(reg))
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	b, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(b), "pulsr_monitor_ticks_total") {
		t.Fatalf("metrics output missing ticks counter: %s", b)
	}
}
