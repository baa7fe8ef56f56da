package trace

import (
	"fmt"
	"io"
	"sync"
)

// RingTracer keeps the most recent events in memory. It is what the error
// trace level records into: nothing is written until a compilation halts,
// then the tail is dumped next to the diagnostics.
type RingTracer struct {
	mu      sync.Mutex
	buf     []Event
	next    int // позиция следующей записи
	n       int
	dropped uint64
	level   Level
}

func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = 4096
	}
	return &RingTracer{buf: make([]Event, capacity), level: level}
}

func (t *RingTracer) Emit(ev *Event) {
	if !t.level.ShouldEmit(ev.Scope) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.n == len(t.buf) {
		t.dropped++
	} else {
		t.n++
	}
	t.buf[t.next] = *ev
	t.next = (t.next + 1) % len(t.buf)
}

// Snapshot returns the stored events oldest first.
func (t *RingTracer) Snapshot() []Event {
	return t.Tail(0)
}

// Tail returns the newest n stored events oldest first; n <= 0 means all.
func (t *RingTracer) Tail(n int) []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n <= 0 || n > t.n {
		n = t.n
	}
	out := make([]Event, n)
	start := t.next - n
	if start < 0 {
		start += len(t.buf)
	}
	for i := range out {
		out[i] = t.buf[(start+i)%len(t.buf)]
	}
	return out
}

// Dropped counts events overwritten since the tracer was created.
func (t *RingTracer) Dropped() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dropped
}

// Dump writes the newest limit events (all when limit <= 0). A header line
// says how many older events are not shown.
func (t *RingTracer) Dump(w io.Writer, format Format, limit int) error {
	events := t.Tail(limit)
	t.mu.Lock()
	hidden := t.dropped + uint64(t.n-len(events)) //nolint:gosec // n >= len(events)
	t.mu.Unlock()
	if hidden > 0 && format == FormatText {
		if _, err := fmt.Fprintf(w, "... %d earlier events not shown\n", hidden); err != nil {
			return err
		}
	}
	for i := range events {
		if _, err := w.Write(FormatEvent(&events[i], format)); err != nil {
			return err
		}
	}
	return nil
}

func (t *RingTracer) Flush() error  { return nil }
func (t *RingTracer) Close() error  { return nil }
func (t *RingTracer) Level() Level  { return t.level }
func (t *RingTracer) Enabled() bool { return t.level > LevelOff }
