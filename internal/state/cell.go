package state

import "sync"

// Cell holds the last observed liveness token and fans changes out to
// subscribers. The zero value is an empty, usable cell.
//
// Subscribers receive values through a channel with capacity 1 that always
// holds the most recent unread value: a slow reader may miss intermediate
// values but never the latest one.
type Cell struct {
	mu     sync.RWMutex
	val    string
	nextID int
	subs   map[int]chan string
	closed bool
}

// Get returns the current value without blocking on writers for long.
func (c *Cell) Get() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.val
}

// Set stores v and notifies subscribers. It reports whether the value changed;
// setting the same value again is not a change and notifies nobody.
func (c *Cell) Set(v string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.val == v {
		return false
	}
	c.val = v
	for _, ch := range c.subs {
		publish(ch, v)
	}
	return true
}

// Subscribe registers a change listener. The returned cancel function removes
// the subscription and closes the channel; it is safe to call more than once.
// Subscribing to a closed cell yields an already closed channel.
func (c *Cell) Subscribe() (<-chan string, func()) {
	ch := make(chan string, 1)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	if c.subs == nil {
		c.subs = make(map[int]chan string)
	}
	id := c.nextID
	c.nextID++
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

// Close drops all subscriptions, closing their channels. Later Set calls
// still update the value but notify nobody.
func (c *Cell) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}

// publish replaces any unread value in ch with v. Callers hold c.mu, so
// there is exactly one sender and the send never blocks.
func publish(ch chan string, v string) {
	select {
	case <-ch:
	default:
	}
	ch <- v
}
