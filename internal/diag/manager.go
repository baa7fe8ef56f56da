package diag

import (
	"sync"
)

// Context is the explicit surfacing configuration handed to a Manager.
// Toggling it never drops recorded diagnostics.
type Context struct {
	mu               sync.RWMutex
	reporting        bool
	warningsAsErrors bool
	hideWarnings     bool
	max              int
}

// NewContext returns a context with reporting enabled and no limit.
func NewContext() *Context {
	return &Context{reporting: true}
}

func (c *Context) SetReportingEnabled(on bool) {
	c.mu.Lock()
	c.reporting = on
	c.mu.Unlock()
}

func (c *Context) ReportingEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reporting
}

// SetWarningsAsErrors promotes surfaced warnings to errors.
func (c *Context) SetWarningsAsErrors(on bool) {
	c.mu.Lock()
	c.warningsAsErrors = on
	c.mu.Unlock()
}

// SetHideWarnings keeps warnings out of Flush; they stay in the log.
func (c *Context) SetHideWarnings(on bool) {
	c.mu.Lock()
	c.hideWarnings = on
	c.mu.Unlock()
}

// SetMax limits how many diagnostics a single flush surfaces; 0 means no limit.
func (c *Context) SetMax(n int) {
	c.mu.Lock()
	c.max = n
	c.mu.Unlock()
}

type contextSnapshot struct {
	reporting        bool
	warningsAsErrors bool
	hideWarnings     bool
	max              int
}

func (c *Context) snapshot() contextSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return contextSnapshot{
		reporting:        c.reporting,
		warningsAsErrors: c.warningsAsErrors,
		hideWarnings:     c.hideWarnings,
		max:              c.max,
	}
}

// Manager collects diagnostics from every phase and decides what surfaces.
// Record is safe for concurrent use.
type Manager struct {
	mu      sync.Mutex
	ctx     *Context
	log     []Diagnostic
	pending []int // индексы в log, ещё не выданные через Flush
	halted  bool
}

func NewManager(ctx *Context) *Manager {
	if ctx == nil {
		ctx = NewContext()
	}
	return &Manager{ctx: ctx}
}

// Context returns the injected surfacing configuration.
func (m *Manager) Context() *Context {
	return m.ctx
}

// Record appends d to the audit log. Collection ignores the reporting toggle.
func (m *Manager) Record(d Diagnostic) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, len(m.log))
	m.log = append(m.log, d)
}

// Report lets the manager act as a Reporter.
func (m *Manager) Report(d Diagnostic) {
	m.Record(d)
}

func (m *Manager) RecordAll(items []Diagnostic) {
	for _, d := range items {
		m.Record(d)
	}
}

func (m *Manager) SetReportingEnabled(on bool) {
	m.ctx.SetReportingEnabled(on)
}

// Flush surfaces the diagnostics recorded since the last surfacing flush.
// With reporting disabled nothing is surfaced and the pending items wait for
// a later flush. A surfaced live-path error halts execution.
func (m *Manager) Flush() []Diagnostic {
	cfg := m.ctx.snapshot()
	m.mu.Lock()
	defer m.mu.Unlock()
	if !cfg.reporting || len(m.pending) == 0 {
		return nil
	}
	out := make([]Diagnostic, 0, len(m.pending))
	for _, idx := range m.pending {
		d := m.log[idx]
		if d.Severity == SevWarning {
			if cfg.hideWarnings {
				continue
			}
			if cfg.warningsAsErrors {
				d.Severity = SevError
			}
		}
		out = append(out, d)
	}
	m.pending = m.pending[:0]
	SortDiagnostics(out)
	for _, d := range out {
		if d.Blocking() {
			m.halted = true
		}
	}
	if cfg.max > 0 && len(out) > cfg.max {
		out = out[:cfg.max]
	}
	return out
}

// Halted reports whether any flush so far surfaced a blocking diagnostic.
func (m *Manager) Halted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.halted
}

// Log returns a copy of every recorded diagnostic in record order.
func (m *Manager) Log() []Diagnostic {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Diagnostic, len(m.log))
	copy(out, m.log)
	return out
}
