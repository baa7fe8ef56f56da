package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNone
	KindAny
	KindBool
	KindInt
	KindFloat
	KindStr
	KindClass
	KindInterface
	KindFn
	KindVar   // inference variable
	KindParam // rigid class type parameter
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindNone:
		return "None"
	case KindAny:
		return "Any"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStr:
		return "str"
	case KindClass:
		return "class"
	case KindInterface:
		return "interface"
	case KindFn:
		return "fn"
	case KindVar:
		return "var"
	case KindParam:
		return "param"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Primitive reports whether the kind is one of int, float, bool, str.
func (k Kind) Primitive() bool {
	return k >= KindBool && k <= KindStr
}

// Type is a compact descriptor. Payload indexes the side table of the kind
// (class instances, interfaces, functions, params) or numbers a variable.
type Type struct {
	Kind    Kind
	Payload uint32
}

// ClassRef identifies a declared class. Zero is "no class".
type ClassRef uint32

const NoClassRef ClassRef = 0

// MethodSig is one entry of a structural method set.
type MethodSig struct {
	Name string
	Fn   TypeID
}

// IsPublic reports whether a member name takes part in structural typing.
// Dunder and underscore-prefixed names are private.
func IsPublic(name string) bool {
	return name != "" && name[0] != '_'
}
