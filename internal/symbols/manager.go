package symbols

import (
	"fmt"

	"fortio.org/safecast"

	"viper/internal/ast"
	"viper/internal/source"
	"viper/internal/types"
)

// Manager owns all scopes and bindings of one module.
// Not safe for concurrent use: a module is analysed by a single goroutine.
type Manager struct {
	scopes   []Scope    // index 0 reserved for NoScopeID
	bindings []*Binding // index 0 reserved for NoBindingID
	stack    []ScopeID
	none     types.TypeID
}

// NewManager creates an empty manager. none is the NoneType every new
// binding starts with.
func NewManager(none types.TypeID) *Manager {
	return &Manager{
		scopes:   make([]Scope, 1, 16),
		bindings: make([]*Binding, 1, 64),
		none:     none,
	}
}

// EnterScope opens a child of the current scope and makes it current.
func (m *Manager) EnterScope(kind ScopeKind, owner ast.ItemID, span source.Span) ScopeID {
	value, err := safecast.Conv[uint32](len(m.scopes))
	if err != nil {
		panic(fmt.Errorf("scopes arena overflow: %w", err))
	}
	id := ScopeID(value)
	parent := m.Current()
	m.scopes = append(m.scopes, Scope{
		Kind:      kind,
		Parent:    parent,
		Owner:     owner,
		Span:      span,
		NameIndex: make(map[string]BindingID),
	})
	if p := m.Scope(parent); p != nil {
		p.Children = append(p.Children, id)
	}
	m.stack = append(m.stack, id)
	return id
}

// ExitScope pops the current scope.
func (m *Manager) ExitScope() {
	if len(m.stack) > 0 {
		m.stack = m.stack[:len(m.stack)-1]
	}
}

// Current returns the innermost open scope.
func (m *Manager) Current() ScopeID {
	if len(m.stack) == 0 {
		return NoScopeID
	}
	return m.stack[len(m.stack)-1]
}

func (m *Manager) Scope(id ScopeID) *Scope {
	if !id.IsValid() || int(id) >= len(m.scopes) {
		return nil
	}
	return &m.scopes[id]
}

func (m *Manager) Binding(id BindingID) *Binding {
	if !id.IsValid() || int(id) >= len(m.bindings) {
		return nil
	}
	return m.bindings[id]
}

// Bindings returns every binding in declaration order.
func (m *Manager) Bindings() []*Binding {
	return m.bindings[1:]
}

// Declare binds name in scope. Narrow scopes are transparent: the binding
// lands in the nearest enclosing non-narrow scope. The shadowing check walks
// outward from scope and stops after the first function, class or module
// scope, so outer functions and the module may hold the same name.
func (m *Manager) Declare(name string, scope ScopeID, span source.Span, kind BindingKind) (*Binding, error) {
	if prev := m.findShadowed(name, scope); prev != nil {
		return nil, &ShadowingError{Name: name, Span: span, Previous: prev}
	}
	target := scope
	for s := m.Scope(target); s != nil && s.Kind == ScopeNarrow; s = m.Scope(target) {
		target = s.Parent
	}
	return m.insert(name, target, span, kind), nil
}

// DeclareHere is Declare in the current scope.
func (m *Manager) DeclareHere(name string, span source.Span, kind BindingKind) (*Binding, error) {
	return m.Declare(name, m.Current(), span, kind)
}

// Overlay binds name in the current narrow scope without a shadowing check.
// It is how a match arm narrows a binding for the arm only.
func (m *Manager) Overlay(name string, span source.Span, of *Binding) *Binding {
	b := m.insert(name, m.Current(), span, BindVar)
	b.Narrowed = true
	if of != nil {
		b.Of = of.ID
	}
	return b
}

func (m *Manager) insert(name string, scope ScopeID, span source.Span, kind BindingKind) *Binding {
	value, err := safecast.Conv[uint32](len(m.bindings))
	if err != nil {
		panic(fmt.Errorf("bindings arena overflow: %w", err))
	}
	b := &Binding{
		ID:    BindingID(value),
		Name:  name,
		Scope: scope,
		Span:  span,
		Kind:  kind,
		typ:   m.none,
	}
	m.bindings = append(m.bindings, b)
	if s := m.Scope(scope); s != nil {
		s.NameIndex[name] = b.ID
		s.Bindings = append(s.Bindings, b.ID)
	}
	return b
}

func (m *Manager) findShadowed(name string, scope ScopeID) *Binding {
	for s := m.Scope(scope); s != nil; s = m.Scope(s.Parent) {
		if id, ok := s.NameIndex[name]; ok {
			return m.Binding(id)
		}
		if s.Kind.Boundary() {
			return nil
		}
	}
	return nil
}

// Lookup walks outward from scope until name is found. Class scopes are only
// searched when the walk starts in them, so method bodies do not see class
// members as bare names.
func (m *Manager) Lookup(name string, scope ScopeID) (*Binding, bool) {
	for s, first := m.Scope(scope), true; s != nil; s, first = m.Scope(s.Parent), false {
		if s.Kind == ScopeClass && !first {
			continue
		}
		if id, ok := s.NameIndex[name]; ok {
			return m.Binding(id), true
		}
	}
	return nil, false
}

// LookupLocal is Lookup limited to the function-level chain of scope.
func (m *Manager) LookupLocal(name string, scope ScopeID) (*Binding, bool) {
	for s := m.Scope(scope); s != nil; s = m.Scope(s.Parent) {
		if id, ok := s.NameIndex[name]; ok {
			return m.Binding(id), true
		}
		if s.Kind.Boundary() {
			break
		}
	}
	return nil, false
}

// FunctionOf returns the nearest function or module scope enclosing scope.
func (m *Manager) FunctionOf(scope ScopeID) ScopeID {
	id := scope
	for s := m.Scope(id); s != nil; s = m.Scope(id) {
		if s.Kind == ScopeFunction || s.Kind == ScopeModule {
			return id
		}
		id = s.Parent
	}
	return NoScopeID
}
