package monitor

import "sync"

// Handle is the scheduled-task handle returned by Start. Closing it stops
// the run it was created for; closing a handle from an earlier run never
// stops a later one.
//
//	h, err := m.Start(time.Second)
//	if err != nil { ... }
//	defer h.Close()
type Handle struct {
	m    *Monitor
	gen  uint64
	once sync.Once
}

// Close stops the associated run. It is idempotent.
func (h *Handle) Close() error {
	h.once.Do(func() { h.m.stopRun(h.gen) })
	return nil
}
