package trace

import (
	"bytes"
	"context"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"
)

var seq, spanIDs atomic.Uint64

// NextSeq returns the next global event sequence number.
func NextSeq() uint64 { return seq.Add(1) }

// NextSpanID returns a fresh span ID; zero is never handed out.
func NextSpanID() uint64 { return spanIDs.Add(1) }

// goid reads the goroutine id from the "goroutine N [running]:" header.
func goid() uint64 {
	var buf [64]byte
	head, ok := bytes.CutPrefix(buf[:runtime.Stack(buf[:], false)], []byte("goroutine "))
	if !ok {
		return 0
	}
	num, _, _ := bytes.Cut(head, []byte(" "))
	id, err := strconv.ParseUint(string(num), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// Span is an open begin/end pair. A span from a disabled tracer, or from a
// scope the level filters out, is inert: End and WithExtra do nothing and
// ID is zero.
type Span struct {
	t      Tracer
	id     uint64
	parent uint64
	gid    uint64
	scope  Scope
	name   string
	start  time.Time
	extra  map[string]string
}

// Begin emits SpanBegin under parent (0 for a root) and returns the span.
func Begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return &Span{t: Nop}
	}
	s := &Span{
		t:      t,
		id:     NextSpanID(),
		parent: parent,
		gid:    goid(),
		scope:  scope,
		name:   name,
		start:  time.Now(),
	}
	t.Emit(s.event(KindSpanBegin, s.start, ""))
	return s
}

// Start opens a span with the tracer and parent carried by ctx and returns a
// context in which it is the parent.
func Start(ctx context.Context, scope Scope, name string) (context.Context, *Span) {
	s := Begin(FromContext(ctx), scope, name, CurrentSpan(ctx).SpanID)
	return WithSpan(ctx, s), s
}

func (s *Span) live() bool {
	return s != nil && s.t != nil && s.t.Enabled()
}

func (s *Span) event(kind Kind, at time.Time, detail string) *Event {
	ev := &Event{
		Time:     at,
		Seq:      NextSeq(),
		Kind:     kind,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parent,
		GID:      s.gid,
		Name:     s.name,
		Detail:   detail,
	}
	if kind == KindSpanEnd {
		ev.Extra = s.extra
	}
	return ev
}

// End emits SpanEnd with detail and returns the span's duration.
func (s *Span) End(detail string) time.Duration {
	if !s.live() {
		return 0
	}
	now := time.Now()
	s.t.Emit(s.event(KindSpanEnd, now, detail))
	return now.Sub(s.start)
}

// WithExtra attaches key=value to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if !s.live() {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string, 2)
	}
	s.extra[key] = value
	return s
}

// Module tags the span with the module being analysed.
func (s *Span) Module(name string) *Span {
	return s.WithExtra("module", name)
}

// ID returns the span ID, zero for inert spans.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}
