package clock

import (
	"testing"
	"time"
)

func TestManualAdvanceFiresDueCallbacksInOrder(t *testing.T) {
	c := NewManual()
	var fired []string

	c.AfterFunc(2*time.Second, func() { fired = append(fired, "b") })
	c.AfterFunc(time.Second, func() { fired = append(fired, "a") })
	c.AfterFunc(5*time.Second, func() { fired = append(fired, "c") })

	c.Advance(2 * time.Second)

	if len(fired) != 2 || fired[0] != "a" || fired[1] != "b" {
		t.Fatalf("fired = %v, want [a b]", fired)
	}
	if c.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", c.Pending())
	}
	if c.Elapsed() != 2*time.Second {
		t.Fatalf("elapsed = %s, want 2s", c.Elapsed())
	}
}

func TestManualStopPreventsCallback(t *testing.T) {
	c := NewManual()
	called := false

	timer := c.AfterFunc(time.Second, func() { called = true })
	if !timer.Stop() {
		t.Fatalf("expected first Stop to report true")
	}
	if timer.Stop() {
		t.Fatalf("expected second Stop to report false")
	}

	c.Advance(time.Minute)
	if called {
		t.Fatalf("stopped callback fired")
	}
}

func TestManualRearmedCallbacksFireWithinWindow(t *testing.T) {
	c := NewManual()
	ticks := 0

	var tick func()
	tick = func() {
		ticks++
		c.AfterFunc(time.Second, tick)
	}
	c.AfterFunc(time.Second, tick)

	c.Advance(3 * time.Second)
	if ticks != 3 {
		t.Fatalf("ticks = %d, want 3", ticks)
	}
	if c.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", c.Pending())
	}
}

func TestStopAfterFireReportsFalse(t *testing.T) {
	c := NewManual()
	timer := c.AfterFunc(0, func() {})
	c.Advance(0)
	if timer.Stop() {
		t.Fatalf("expected Stop after fire to report false")
	}
}
