package observ

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// slowest is how many modules Summary lists under a stage.
const slowest = 3

// Stage is one timed step of a compilation: loading, graph building, a
// topological layer, recording.
type Stage struct {
	Name    string
	Start   time.Time
	Dur     time.Duration
	Note    string
	Modules []ModuleTime // модули, проанализированные внутри шага
}

type ModuleTime struct {
	Module string
	Dur    time.Duration
}

// Timer collects stage timings. A layer analyses its modules in parallel,
// so Module may be called from several goroutines for the same stage.
// A nil *Timer is valid and records nothing.
type Timer struct {
	mu     sync.Mutex
	stages []Stage
}

func NewTimer() *Timer { return &Timer{} }

// Begin opens a stage and returns its handle, -1 for a nil timer.
func (t *Timer) Begin(name string) int {
	if t == nil {
		return -1
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stages = append(t.stages, Stage{Name: name, Start: time.Now()})
	return len(t.stages) - 1
}

// End closes stage idx with a short note ("12 modules").
func (t *Timer) End(idx int, note string) {
	t.with(idx, func(s *Stage) {
		s.Dur = time.Since(s.Start)
		s.Note = note
	})
}

// Module records how long module took inside stage idx.
func (t *Timer) Module(idx int, module string, d time.Duration) {
	t.with(idx, func(s *Stage) {
		s.Modules = append(s.Modules, ModuleTime{Module: module, Dur: d})
	})
}

func (t *Timer) with(idx int, fn func(*Stage)) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx < 0 || idx >= len(t.stages) {
		return
	}
	fn(&t.stages[idx])
}

// Summary renders the stages as a table; under each layer the slowest
// modules are listed.
func (t *Timer) Summary() string {
	report := t.Report()
	var sb strings.Builder
	sb.WriteString("timings:\n")
	for _, s := range report.Stages {
		fmt.Fprintf(&sb, "  %-20s %7.2f ms", s.Name, s.DurationMS)
		if s.Note != "" {
			sb.WriteString("  // " + s.Note)
		}
		sb.WriteByte('\n')
		for _, m := range s.Slowest {
			fmt.Fprintf(&sb, "    %-18s %7.2f ms\n", m.Module, m.DurationMS)
		}
	}
	fmt.Fprintf(&sb, "  %-20s %7.2f ms\n", "total", report.TotalMS)
	return sb.String()
}

type StageReport struct {
	Name       string         `json:"name" yaml:"name"`
	DurationMS float64        `json:"duration_ms" yaml:"duration_ms"`
	Note       string         `json:"note,omitempty" yaml:"note,omitempty"`
	Slowest    []ModuleReport `json:"slowest,omitempty" yaml:"slowest,omitempty"`
}

type ModuleReport struct {
	Module     string  `json:"module" yaml:"module"`
	DurationMS float64 `json:"duration_ms" yaml:"duration_ms"`
}

type Report struct {
	TotalMS float64       `json:"total_ms" yaml:"total_ms"`
	Stages  []StageReport `json:"stages" yaml:"stages"`
}

// Report snapshots the stages. Total is wall time from the first start to
// the last end; stages of a parallel layer overlap and are not summed.
func (t *Timer) Report() Report {
	if t == nil {
		return Report{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.stages) == 0 {
		return Report{}
	}
	report := Report{Stages: make([]StageReport, len(t.stages))}
	first, last := t.stages[0].Start, time.Time{}
	for i, s := range t.stages {
		if s.Start.Before(first) {
			first = s.Start
		}
		if end := s.Start.Add(s.Dur); end.After(last) {
			last = end
		}
		mods := slices.Clone(s.Modules)
		slices.SortStableFunc(mods, func(a, b ModuleTime) int {
			if c := cmp.Compare(b.Dur, a.Dur); c != 0 {
				return c
			}
			return strings.Compare(a.Module, b.Module)
		})
		sr := StageReport{Name: s.Name, DurationMS: millis(s.Dur), Note: s.Note}
		for _, m := range mods[:min(len(mods), slowest)] {
			sr.Slowest = append(sr.Slowest, ModuleReport{Module: m.Module, DurationMS: millis(m.Dur)})
		}
		report.Stages[i] = sr
	}
	report.TotalMS = millis(last.Sub(first))
	return report
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
