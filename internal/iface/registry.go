package iface

import (
	"slices"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"viper/internal/types"
)

// Interface is one registered structural method set.
type Interface struct {
	ID           types.TypeID
	Name         string
	Key          string
	Methods      []types.MethodSig
	Ordinal      int
	Implementors []string // квалифицированные имена классов
	Origin       string
}

// Registry is the session-wide set of synthesized interfaces. Identity is
// the canonical signature key, so structurally equal sets from unrelated
// classes share one entry. Safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	in      *types.Interner
	byID    map[types.TypeID]*Interface
	order   []*Interface
	names   map[string]bool
	classes []types.ClassRef
}

func NewRegistry(in *types.Interner) *Registry {
	return &Registry{
		in:    in,
		byID:  make(map[types.TypeID]*Interface),
		names: make(map[string]bool),
	}
}

// Register adds the interface type t unless it is known and reports
// whether it was new. Empty method sets are never registered.
func (r *Registry) Register(t types.TypeID, origin string) (Interface, bool) {
	info, ok := r.in.InterfaceInfo(t)
	if !ok || len(info.Methods) == 0 {
		return Interface{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byID[t]; ok {
		return cloneEntry(existing), false
	}
	name := r.uniqueName(types.MethodNames(info.Methods))
	r.in.NameInterface(t, name)
	entry := &Interface{
		ID:      t,
		Name:    name,
		Key:     info.Key,
		Methods: append([]types.MethodSig(nil), info.Methods...),
		Ordinal: len(r.order),
		Origin:  origin,
	}
	entry.Implementors = r.implementorsLocked(t)
	r.byID[t] = entry
	r.order = append(r.order, entry)
	return cloneEntry(entry), true
}

func (r *Registry) uniqueName(methods []string) string {
	var b strings.Builder
	b.WriteByte('I')
	for _, m := range methods {
		b.WriteString(camel(m))
	}
	base := b.String()
	name := base
	for n := 2; r.names[name]; n++ {
		name = base + strconv.Itoa(n)
	}
	r.names[name] = true
	return name
}

// camel turns snake_case into CamelCase.
func camel(s string) string {
	var b strings.Builder
	upper := true
	for _, r := range s {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Lookup returns the registered entry of t.
func (r *Registry) Lookup(t types.TypeID) (Interface, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[t]
	if !ok {
		return Interface{}, false
	}
	return cloneEntry(e), true
}

// Interfaces returns all entries in ordinal order.
func (r *Registry) Interfaces() []Interface {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Interface, len(r.order))
	for i, e := range r.order {
		out[i] = cloneEntry(e)
	}
	return out
}

// IDs returns the interface types in ordinal order.
func (r *Registry) IDs() []types.TypeID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.TypeID, len(r.order))
	for i, e := range r.order {
		out[i] = e.ID
	}
	return out
}

// Candidates lists the interfaces that provide every one of names, lowest
// ordinal first.
func (r *Registry) Candidates(names []string) []Interface {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Interface
	for _, e := range r.order {
		have := types.MethodNames(e.Methods)
		all := true
		for _, n := range names {
			if !slices.Contains(have, n) {
				all = false
				break
			}
		}
		if all {
			out = append(out, cloneEntry(e))
		}
	}
	return out
}

// AddClasses makes sealed classes known and recomputes implementors.
func (r *Registry) AddClasses(refs ...types.ClassRef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ref := range refs {
		if !slices.Contains(r.classes, ref) {
			r.classes = append(r.classes, ref)
		}
	}
	for _, e := range r.order {
		e.Implementors = r.implementorsLocked(e.ID)
	}
}

func (r *Registry) implementorsLocked(t types.TypeID) []string {
	var out []string
	for _, ref := range r.classes {
		info := r.in.ClassInfo(ref)
		if info == nil {
			continue
		}
		if r.in.Satisfies(r.in.SelfType(ref), t) {
			out = append(out, info.QualifiedName())
		}
	}
	return out
}

func cloneEntry(e *Interface) Interface {
	cp := *e
	cp.Methods = append([]types.MethodSig(nil), e.Methods...)
	cp.Implementors = append([]string(nil), e.Implementors...)
	return cp
}
