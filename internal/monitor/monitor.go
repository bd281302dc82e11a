package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/loykin/pulsr/internal/metrics"
	"github.com/loykin/pulsr/internal/source"
	"github.com/loykin/pulsr/internal/state"
)

// DefaultInterval is used when Start is called with a zero interval.
const DefaultInterval = 1000 * time.Millisecond

var (
	ErrAlreadyRunning  = errors.New("monitor already running")
	ErrInvalidInterval = errors.New("monitor interval must be > 0")
)

// Monitor samples a heartbeat source on a recurring timer and keeps the most
// recent liveness token as observable state.
//
// Every tick issues one sampling call in its own goroutine; the timer never
// waits for earlier calls. Each call carries a sequence number and a
// completion is applied only if it is newer than the last applied one, so a
// slow call can never overwrite the result of a call started after it.
// Completions that arrive after Stop, or that belong to an earlier run, are
// discarded.
type Monitor struct {
	src       source.Source
	log       *slog.Logger
	timeout   time.Duration
	newTicker func(time.Duration) Ticker

	cell state.Cell

	mu      sync.Mutex
	running bool
	gen     uint64 // current run; bumped by every Start
	seq     uint64 // last issued tick sequence number
	applied uint64 // sequence number of the last applied completion
	cancel  context.CancelFunc
	done    chan struct{}

	inflight sync.WaitGroup
}

// Sample is the outcome of one sampling call.
type Sample struct {
	Seq      uint64
	Token    string
	Err      error
	Started  time.Time
	Finished time.Time
}

// New creates a stopped monitor for src.
func New(src source.Source, opts ...Option) *Monitor {
	m := &Monitor{
		src:       src,
		log:       slog.Default(),
		newTicker: NewRealTicker,
	}
	for _, o := range opts {
		o(m)
	}
	m.log = m.log.With("source", src.Describe())
	return m
}

// Start begins sampling every interval; zero selects DefaultInterval. The
// first sampling call happens one interval after Start, not immediately.
// MonitorState starts out empty for every run.
//
// Starting a running monitor returns ErrAlreadyRunning and leaves the current
// run and its timer untouched.
func (m *Monitor) Start(interval time.Duration) (*Handle, error) {
	if interval == 0 {
		interval = DefaultInterval
	}
	if interval < 0 {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidInterval, interval)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil, ErrAlreadyRunning
	}
	m.gen++
	m.running = true
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	m.cell.Set("")
	metrics.SetHealthy(false)

	go m.loop(ctx, m.gen, m.newTicker(interval), m.done)
	m.log.Info("monitor started", "interval", interval)
	return &Handle{m: m, gen: m.gen}, nil
}

// Stop cancels the timer and any in-flight calls' contexts, and clears the
// state. It is idempotent. In-flight calls are not awaited; their results
// are dropped. After Stop returns no further sampling call is issued.
func (m *Monitor) Stop() {
	m.mu.Lock()
	gen := m.gen
	m.mu.Unlock()
	m.stopRun(gen)
}

func (m *Monitor) stopRun(gen uint64) {
	m.mu.Lock()
	if !m.running || m.gen != gen {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.cancel()
	done := m.done
	m.cell.Set("")
	metrics.SetHealthy(false)
	m.mu.Unlock()

	<-done
	m.log.Info("monitor stopped")
}

// Close stops the monitor and closes all subscriptions. Use it when the
// owning surface is torn down for good.
func (m *Monitor) Close() {
	m.Stop()
	m.cell.Close()
}

// Current returns the current liveness token; empty means unreachable.
func (m *Monitor) Current() string { return m.cell.Get() }

// Subscribe returns a channel receiving the token each time it changes,
// and a function that cancels the subscription.
func (m *Monitor) Subscribe() (<-chan string, func()) { return m.cell.Subscribe() }

// Running reports whether the timer is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// waitInFlight blocks until every sampling call started so far has
// completed. No tick may start concurrently: call it after Stop, or with a
// ticker that only fires on demand.
func (m *Monitor) waitInFlight() { m.inflight.Wait() }

func (m *Monitor) loop(ctx context.Context, gen uint64, t Ticker, done chan struct{}) {
	defer close(done)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			m.tick(ctx, gen)
		}
	}
}

// tick issues one asynchronous sampling call.
func (m *Monitor) tick(ctx context.Context, gen uint64) {
	m.mu.Lock()
	if !m.running || m.gen != gen {
		m.mu.Unlock()
		return
	}
	m.seq++
	seq := m.seq
	m.inflight.Add(1)
	m.mu.Unlock()

	metrics.IncTick()
	metrics.AddInFlight(1)
	go func() {
		defer m.inflight.Done()
		defer metrics.AddInFlight(-1)
		m.complete(gen, m.sample(ctx, seq))
	}()
}

// sample runs the source once. Errors, empty results and panics all fold
// into an empty token.
func (m *Monitor) sample(ctx context.Context, seq uint64) (s Sample) {
	s = Sample{Seq: seq, Started: time.Now()}
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			s.Token = ""
			s.Err = fmt.Errorf("heartbeat source panicked: %v", r)
		}
		s.Finished = time.Now()
		m.observe(s)
	}()

	tok, err := m.src.Heartbeat(ctx)
	if err != nil {
		tok = ""
	}
	s.Token, s.Err = tok, err
	return s
}

func (m *Monitor) observe(s Sample) {
	result := metrics.ResultOK
	switch {
	case s.Err != nil:
		result = metrics.ResultError
		m.log.Warn("heartbeat sample failed", "seq", s.Seq, "error", s.Err)
	case s.Token == "":
		result = metrics.ResultEmpty
	}
	d := s.Finished.Sub(s.Started)
	metrics.ObserveSample(result, d.Seconds())
	m.log.Debug("heartbeat sampled", "seq", s.Seq, "result", result, "duration", d)
}

// complete applies s to the state unless it is stale or its run has ended.
func (m *Monitor) complete(gen uint64, s Sample) {
	m.mu.Lock()
	if !m.running || m.gen != gen {
		m.mu.Unlock()
		metrics.IncDiscarded(metrics.DiscardStopped)
		m.log.Debug("discarding sample after stop", "seq", s.Seq)
		return
	}
	if applied := m.applied; s.Seq <= applied {
		m.mu.Unlock()
		metrics.IncDiscarded(metrics.DiscardStale)
		m.log.Debug("discarding stale sample", "seq", s.Seq, "applied", applied)
		return
	}
	m.applied = s.Seq
	wasHealthy := m.cell.Get() != ""
	healthy := s.Token != ""
	changed := m.cell.Set(s.Token)
	if changed {
		metrics.SetHealthy(healthy)
	}
	m.mu.Unlock()

	if changed && healthy != wasHealthy {
		if healthy {
			m.log.Info("receiver reachable", "token", s.Token)
		} else {
			m.log.Info("receiver unreachable")
		}
	}
}
