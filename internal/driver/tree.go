package driver

import (
	"sort"

	"viper/internal/ast"
	"viper/internal/constraints"
	"viper/internal/diag"
	"viper/internal/project"
	"viper/internal/reach"
	"viper/internal/source"
	"viper/internal/types"
)

// Signature is the solved type of a function or method.
type Signature struct {
	Item       ast.ItemID
	Name       string
	Class      types.ClassRef // NoClassRef for plain functions
	Params     []types.TypeID // без self
	ParamNames []string
	Result     types.TypeID // what a call evaluates to
	Type       types.TypeID
	Async      bool
	Generator  bool
	Origin     string // base class the method was copied from
}

// Coercion is one inserted cast node.
type Coercion struct {
	Expr ast.ExprID
	Span source.Span
	From types.TypeID
	To   types.TypeID
	Rule string
}

// AnnotatedTree is a module's tree after cast resolution together with the
// solved type of every expression.
type AnnotatedTree struct {
	Module    string
	Builder   *ast.Builder
	File      ast.FileID
	ExprTypes map[ast.ExprID]types.TypeID
	Funcs     map[ast.ItemID]*Signature
	Classes   []types.ClassRef
	Coercions []Coercion
	Live      *reach.Liveness
}

// TypeOf returns the solved type of e, or NoTypeID.
func (t *AnnotatedTree) TypeOf(e ast.ExprID) types.TypeID {
	if t == nil {
		return types.NoTypeID
	}
	return t.ExprTypes[e]
}

// Signatures returns the function signatures ordered by item.
func (t *AnnotatedTree) Signatures() []*Signature {
	out := make([]*Signature, 0, len(t.Funcs))
	for _, sig := range t.Funcs {
		out = append(out, sig)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Item < out[j].Item })
	return out
}

// Module is the per-module outcome of a compilation.
type Module struct {
	Name    string
	Meta    project.ModuleMeta
	Library bool
	// Skipped modules were not analysed: they sit on an import cycle or a
	// dependency failed.
	Skipped bool
	Broken  bool
	Tree    *AnnotatedTree
	Exports *constraints.Exports
	Diags   []diag.Diagnostic
}

func signatures(in *types.Interner, b *ast.Builder, funcs map[ast.ItemID]*constraints.FuncInfo, apply func(types.TypeID) types.TypeID) map[ast.ItemID]*Signature {
	out := make(map[ast.ItemID]*Signature, len(funcs))
	for item, fi := range funcs {
		sig := &Signature{
			Item:       item,
			Name:       fi.Name,
			Class:      fi.Class,
			ParamNames: fi.ParamNames,
			Type:       apply(fi.Type),
			Async:      fi.Async,
			Generator:  fi.Generator,
		}
		for _, p := range fi.Params {
			sig.Params = append(sig.Params, apply(p))
		}
		if info, ok := in.FnInfo(sig.Type); ok {
			sig.Result = info.Result
		}
		if it := b.Item(item); it != nil {
			sig.Origin = it.Origin
		}
		out[item] = sig
	}
	return out
}

// coercions scans the expression arena for inserted cast nodes.
func coercions(b *ast.Builder, exprTypes map[ast.ExprID]types.TypeID) []Coercion {
	var out []Coercion
	for i, e := range b.Exprs.Slice() {
		if e.Kind != ast.ExprCoerce {
			continue
		}
		id := ast.ExprID(i + 1) //nolint:gosec // индекс арены уже прошёл safecast при выделении
		out = append(out, Coercion{Expr: id, Span: e.Span, From: exprTypes[e.X], To: e.CoerceTo, Rule: e.CoerceRule})
	}
	return out
}
