package constraints

import (
	"fmt"

	"viper/internal/diag"
	"viper/internal/symbols"
	"viper/internal/types"
)

// Finalize fixes the type of every binding through apply and freezes the
// module's top-level names into Exports. Builtins and module aliases are
// not exported.
func (r *Result) Finalize(in *types.Interner, module string, apply func(types.TypeID) types.TypeID) (*Exports, []Finding) {
	var findings []Finding
	for _, b := range r.Scopes.Bindings() {
		if b.Var == types.NoTypeID {
			continue
		}
		if err := b.SetType(apply(b.Var)); err != nil {
			d := diag.NewError(diag.SemaTypeReassigned, b.Span, fmt.Sprintf("%q: %v", b.Name, err))
			d.Module = module
			findings = append(findings, Finding{Diag: d})
		}
	}

	ex := &Exports{Module: module, Names: make(map[string]Export)}
	root := r.Scopes.Scope(r.Root)
	if root == nil {
		return ex, findings
	}
	for _, id := range root.Bindings {
		b := r.Scopes.Binding(id)
		if b == nil || b.Narrowed {
			continue
		}
		x := Export{Name: b.Name, Kind: b.Kind, Class: b.Class, Item: b.Item, Span: b.Span}
		switch b.Kind {
		case symbols.BindModule, symbols.BindBuiltin:
			continue
		case symbols.BindClass:
			if info := in.ClassInfo(b.Class); info != nil && len(info.Params) == 0 {
				x.Type = in.Class(b.Class)
			}
		default:
			x.Type = b.Type()
		}
		ex.Names[b.Name] = x
	}
	return ex, findings
}
