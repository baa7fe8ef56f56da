package symbols

import (
	"viper/internal/ast"
	"viper/internal/source"
)

// ScopeKind enumerates supported scope categories. Blocks of if, while, for
// and match never get a scope of their own; Narrow is only the overlay that
// carries a match arm's narrowed bindings.
type ScopeKind uint8

const (
	ScopeInvalid ScopeKind = iota
	ScopeModule
	ScopeClass
	ScopeFunction
	ScopeNarrow
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeModule:
		return "module"
	case ScopeClass:
		return "class"
	case ScopeFunction:
		return "function"
	case ScopeNarrow:
		return "narrow"
	default:
		return "invalid"
	}
}

// Boundary reports whether shadowing checks stop at this scope.
func (k ScopeKind) Boundary() bool {
	return k == ScopeModule || k == ScopeClass || k == ScopeFunction
}

// Scope is an ordered set of bindings with a link to its parent.
type Scope struct {
	Kind      ScopeKind
	Parent    ScopeID
	Owner     ast.ItemID // функция или класс; 0 для модуля
	Span      source.Span
	NameIndex map[string]BindingID
	Bindings  []BindingID
	Children  []ScopeID
}
