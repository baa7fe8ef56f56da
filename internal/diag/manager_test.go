package diag

import (
	"sync"
	"testing"

	"viper/internal/source"
)

func span(start uint32) source.Span {
	return source.Span{File: 1, Start: start, End: start + 1}
}

func TestManagerDeadPathErrorSurfacesWithoutHalting(t *testing.T) {
	m := NewManager(NewContext())
	d := NewError(InfConflict, span(3), "int vs str")
	d.Reachability = DeadPath
	m.Record(d)

	out := m.Flush()
	if len(out) != 1 || out[0].Code != InfConflict {
		t.Fatalf("expected the dead-path error to surface, got %+v", out)
	}
	if m.Halted() {
		t.Fatalf("dead-path error must not halt")
	}
}

func TestManagerLiveErrorHalts(t *testing.T) {
	m := NewManager(nil)
	m.Record(New(SevWarning, CastInserted, span(1), "int -> float"))
	if m.Flush(); m.Halted() {
		t.Fatalf("warnings never halt")
	}
	m.Record(NewError(ProjImportCycle, source.NoSpan, "cycle"))
	m.Flush()
	if !m.Halted() {
		t.Fatalf("live error should halt")
	}
}

func TestManagerReportingToggleKeepsLog(t *testing.T) {
	ctx := NewContext()
	m := NewManager(ctx)
	m.SetReportingEnabled(false)
	if ctx.ReportingEnabled() {
		t.Fatalf("manager toggle should reach the shared context")
	}
	m.Record(NewError(InfConflict, span(1), "a"))
	m.Record(New(SevWarning, CastInserted, span(2), "b"))

	if out := m.Flush(); len(out) != 0 {
		t.Fatalf("reporting disabled, got %d surfaced", len(out))
	}
	if m.Halted() {
		t.Fatalf("nothing surfaced, nothing halts")
	}
	if got := len(m.Log()); got != 2 {
		t.Fatalf("log should keep both diagnostics, got %d", got)
	}

	ctx.SetReportingEnabled(true)
	out := m.Flush()
	if len(out) != 2 {
		t.Fatalf("re-enabled flush should surface pending items, got %d", len(out))
	}
	if !m.Halted() {
		t.Fatalf("surfaced live error should halt")
	}
	if again := m.Flush(); len(again) != 0 {
		t.Fatalf("second flush should be empty, got %d", len(again))
	}
}

func TestManagerWarningPolicy(t *testing.T) {
	ctx := NewContext()
	ctx.SetWarningsAsErrors(true)
	m := NewManager(ctx)
	m.Record(New(SevWarning, CastInserted, span(1), "w"))
	out := m.Flush()
	if len(out) != 1 || out[0].Severity != SevError || !m.Halted() {
		t.Fatalf("warning should be promoted and halt: %+v", out)
	}
	if m.Log()[0].Severity != SevWarning {
		t.Fatalf("log must keep the original severity")
	}

	ctx2 := NewContext()
	ctx2.SetHideWarnings(true)
	m2 := NewManager(ctx2)
	m2.Record(New(SevWarning, CastInserted, span(1), "w"))
	if out := m2.Flush(); len(out) != 0 {
		t.Fatalf("hidden warnings surfaced: %+v", out)
	}
}

func TestManagerConcurrentRecord(t *testing.T) {
	m := NewManager(nil)
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Record(New(SevInfo, InfInfo, span(uint32(i)), "x"))
		}(i)
	}
	wg.Wait()
	if got := len(m.Flush()); got != 16 {
		t.Fatalf("expected 16, got %d", got)
	}
}

func TestCodeKinds(t *testing.T) {
	cases := map[Code]Kind{
		SemaShadowSymbol:  KindShadowing,
		InfConflict:       KindInference,
		InfUnresolved:     KindInference,
		CastInserted:      KindCast,
		ProjImportCycle:   KindCycle,
		ProjMissingModule: KindOther,
	}
	for code, want := range cases {
		if got := code.Kind(); got != want {
			t.Fatalf("%s: kind %s, want %s", code.ID(), got, want)
		}
	}
	if InfConflict.ID() != "INF4001" || CastInserted.ID() != "CST5001" {
		t.Fatalf("unexpected ids %s %s", InfConflict.ID(), CastInserted.ID())
	}
}
