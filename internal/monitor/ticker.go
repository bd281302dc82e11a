package monitor

import "time"

// Ticker is the recurring timer driving a run. It matches the subset of
// *time.Ticker the monitor uses so tests can drive ticks by hand.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// NewRealTicker wraps time.NewTicker. The first tick fires one full interval
// after creation.
func NewRealTicker(d time.Duration) Ticker { return realTicker{t: time.NewTicker(d)} }
