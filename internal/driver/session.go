// Package driver runs a compilation: it plans the import graph, analyses
// modules layer by layer and funnels every finding into one diagnostic
// manager.
package driver

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"viper/internal/diag"
	"viper/internal/iface"
	"viper/internal/types"
)

// Session is one compilation. The interner, interface registry and
// diagnostic manager live exactly as long as the session.
type Session struct {
	id   uuid.UUID
	opts Options
	in   *types.Interner
	reg  *iface.Registry
	dctx *diag.Context
	mgr  *diag.Manager

	mu      sync.Mutex
	modules map[string]*Module
	entry   string
	plan    *Plan
}

func NewSession(opts Options) *Session {
	in := types.NewInterner()
	dctx := diag.NewContext()
	dctx.SetReportingEnabled(opts.Reporting)
	dctx.SetWarningsAsErrors(opts.WarningsAsErrors)
	dctx.SetHideWarnings(opts.HideWarnings)
	dctx.SetMax(opts.MaxDiagnostics)
	return &Session{
		id:      uuid.New(),
		opts:    opts,
		in:      in,
		reg:     iface.NewRegistry(in),
		dctx:    dctx,
		mgr:     diag.NewManager(dctx),
		modules: make(map[string]*Module),
	}
}

// ID is the session UUID stamped into traces and bundles.
func (s *Session) ID() string { return s.id.String() }

func (s *Session) Options() Options { return s.opts }

func (s *Session) Interner() *types.Interner { return s.in }

func (s *Session) InterfaceRegistry() *iface.Registry { return s.reg }

// Entry is the module analysed as the program entry.
func (s *Session) Entry() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entry
}

// Plan returns the import graph of the last compilation.
func (s *Session) Plan() *Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plan
}

// SetReportingEnabled toggles what Diagnostics surfaces. Recording goes on
// regardless.
func (s *Session) SetReportingEnabled(on bool) {
	s.mgr.SetReportingEnabled(on)
}

// Record adds diagnostics found outside Compile, such as load failures.
func (s *Session) Record(items ...diag.Diagnostic) {
	s.mgr.RecordAll(items)
}

// Diagnostics flushes the diagnostic manager.
func (s *Session) Diagnostics() []diag.Diagnostic {
	return s.mgr.Flush()
}

// Halted reports whether a flush surfaced a live-path error.
func (s *Session) Halted() bool {
	return s.mgr.Halted()
}

// Log is the complete audit trail, surfaced or not.
func (s *Session) Log() []diag.Diagnostic {
	return s.mgr.Log()
}

func (s *Session) Module(name string) (*Module, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.modules[name]
	return m, ok
}

// Modules returns every compiled module sorted by name.
func (s *Session) Modules() []*Module {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Module, 0, len(s.modules))
	for _, m := range s.modules {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AnnotatedTree returns the cast-resolved tree of module.
func (s *Session) AnnotatedTree(module string) (*AnnotatedTree, bool) {
	m, ok := s.Module(module)
	if !ok || m.Tree == nil {
		return nil, false
	}
	return m.Tree, true
}

// Classes returns the sealed classes module declares.
func (s *Session) Classes(module string) []types.ClassRef {
	if t, ok := s.AnnotatedTree(module); ok {
		return t.Classes
	}
	return nil
}
