package monitor

import (
	"log/slog"
	"time"
)

// Option configures a Monitor.
type Option func(*Monitor)

// WithLogger sets the logger; nil keeps slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) {
		if l != nil {
			m.log = l
		}
	}
}

// WithTimeout bounds each sampling call. Zero means calls are bounded only by
// the run: they are cancelled when the monitor stops.
func WithTimeout(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithTicker replaces the timer factory.
func WithTicker(f func(time.Duration) Ticker) Option {
	return func(m *Monitor) {
		if f != nil {
			m.newTicker = f
		}
	}
}
