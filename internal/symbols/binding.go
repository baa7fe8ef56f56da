package symbols

import (
	"errors"

	"viper/internal/ast"
	"viper/internal/source"
	"viper/internal/types"
)

// ErrTypeReassigned is returned when a fixed binding type would change.
var ErrTypeReassigned = errors.New("type of binding cannot be reassigned")

type BindingKind uint8

const (
	BindVar BindingKind = iota + 1
	BindParam
	BindFunc
	BindClass
	BindModule  // import m [as a]
	BindBuiltin // print, len, range...
)

func (k BindingKind) String() string {
	switch k {
	case BindVar:
		return "var"
	case BindParam:
		return "param"
	case BindFunc:
		return "func"
	case BindClass:
		return "class"
	case BindModule:
		return "module"
	case BindBuiltin:
		return "builtin"
	}
	return "binding"
}

// Binding is a named slot. Its type starts as NoneType and is fixed once.
type Binding struct {
	ID    BindingID
	Name  string
	Scope ScopeID
	Span  source.Span
	Kind  BindingKind

	// Var is the inference variable standing for the binding's type while
	// constraints are solved.
	Var    types.TypeID
	Class  types.ClassRef // BindClass
	Item   ast.ItemID     // BindFunc, BindClass declared in this module
	Module string         // BindModule, and the origin of imported names

	// Narrowed is set on match-arm overlays; Of is the binding they narrow.
	Narrowed bool
	Of       BindingID

	typ   types.TypeID
	fixed bool
}

// Type returns the binding's current type (NoneType until fixed).
func (b *Binding) Type() types.TypeID { return b.typ }

// Fixed reports whether the type has been finalised.
func (b *Binding) Fixed() bool { return b.fixed }

// SetType finalises the binding type. Setting the same type again is a
// no-op; a different type after fixing returns ErrTypeReassigned.
func (b *Binding) SetType(t types.TypeID) error {
	if b.fixed {
		if b.typ == t {
			return nil
		}
		return ErrTypeReassigned
	}
	b.typ = t
	b.fixed = true
	return nil
}
