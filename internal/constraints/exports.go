package constraints

import (
	"viper/internal/ast"
	"viper/internal/source"
	"viper/internal/symbols"
	"viper/internal/types"
)

// Export is one top-level name a finished module offers to importers.
type Export struct {
	Name  string
	Kind  symbols.BindingKind
	Type  types.TypeID
	Class types.ClassRef
	Item  ast.ItemID
	Span  source.Span
}

// Exports is the frozen surface of a module after inference.
type Exports struct {
	Module string
	Names  map[string]Export
}

func (e *Exports) Lookup(name string) (Export, bool) {
	if e == nil {
		return Export{}, false
	}
	x, ok := e.Names[name]
	return x, ok
}
