package state

import (
	"sync"
	"testing"
)

func TestCellZeroValue(t *testing.T) {
	var c Cell
	if got := c.Get(); got != "" {
		t.Fatalf("zero cell should be empty, got %q", got)
	}
}

func TestCellSetReportsChange(t *testing.T) {
	var c Cell
	if !c.Set("OK-1") {
		t.Fatalf("first set should report change")
	}
	if c.Set("OK-1") {
		t.Fatalf("same value should not report change")
	}
	if !c.Set("") {
		t.Fatalf("clearing should report change")
	}
	if c.Get() != "" {
		t.Fatalf("expected empty after clear, got %q", c.Get())
	}
}

func TestCellSubscribeReceivesLatest(t *testing.T) {
	var c Cell
	ch, cancel := c.Subscribe()
	defer cancel()

	c.Set("a")
	c.Set("b")
	c.Set("c")

	// Capacity-1 channel keeps only the most recent unread value.
	if got := <-ch; got != "c" {
		t.Fatalf("expected latest value c, got %q", got)
	}
	select {
	case v := <-ch:
		t.Fatalf("unexpected extra notification %q", v)
	default:
	}
}

func TestCellNoNotificationWithoutChange(t *testing.T) {
	var c Cell
	c.Set("x")
	ch, cancel := c.Subscribe()
	defer cancel()
	c.Set("x")
	select {
	case v := <-ch:
		t.Fatalf("unexpected notification %q", v)
	default:
	}
}

func TestCellCancelClosesChannel(t *testing.T) {
	var c Cell
	ch, cancel := c.Subscribe()
	cancel()
	cancel() // idempotent
	if _, ok := <-ch; ok {
		t.Fatalf("channel should be closed after cancel")
	}
	// Set after cancel must not panic on the closed channel.
	c.Set("after")
}

func TestCellClose(t *testing.T) {
	var c Cell
	a, cancelA := c.Subscribe()
	b, _ := c.Subscribe()
	c.Close()
	c.Close()
	if _, ok := <-a; ok {
		t.Fatalf("a should be closed")
	}
	if _, ok := <-b; ok {
		t.Fatalf("b should be closed")
	}
	cancelA() // cancel after Close is a no-op

	late, _ := c.Subscribe()
	if _, ok := <-late; ok {
		t.Fatalf("subscription on closed cell should be closed")
	}
	if !c.Set("v") || c.Get() != "v" {
		t.Fatalf("closed cell should still hold values")
	}
}

func TestCellConcurrentSetGet(t *testing.T) {
	var c Cell
	ch, cancel := c.Subscribe()
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if (i+j)%2 == 0 {
					c.Set("even")
				} else {
					c.Set("odd")
				}
				_ = c.Get()
			}
		}(i)
	}
	wg.Wait()
	c.Set("final")
	// Drain: the last notification must be the final value.
	var last string
	for {
		select {
		case v := <-ch:
			last = v
			continue
		default:
		}
		break
	}
	if last != "final" {
		t.Fatalf("expected final notification, got %q", last)
	}
}
