package casts

import (
	"testing"

	"viper/internal/ast"
	"viper/internal/constraints"
	"viper/internal/diag"
	"viper/internal/source"
	"viper/internal/types"
)

func at(i uint32) source.Span {
	return source.Span{File: 1, Start: i, End: i + 1}
}

func TestFindRules(t *testing.T) {
	in := types.NewInterner()
	bi := in.Builtins()

	if r, ok := Find(in, bi.Int, bi.Float); !ok || r != RuleWiden {
		t.Fatalf("int -> float = %v %v, want widen", r, ok)
	}
	if _, ok := Find(in, bi.Float, bi.Int); ok {
		t.Fatalf("float -> int must not be implicit")
	}
	if _, ok := Find(in, bi.Str, bi.Str); ok {
		t.Fatalf("identical types need no rule")
	}

	strFn := in.Fn(nil, bi.Str, false)
	speaker := in.Interface([]types.MethodSig{{Name: "speak", Fn: strFn}})
	dog := in.DeclareClass("Dog", "m", at(1), nil)
	in.AddMethod(dog, types.Member{Name: "speak", Type: strFn})
	if r, ok := Find(in, in.Class(dog), speaker); !ok || r != RuleUpcast {
		t.Fatalf("Dog -> {speak} = %v %v, want upcast", r, ok)
	}

	animal := in.DeclareClass("Animal", "m", at(2), nil)
	puppy := in.DeclareClass("Puppy", "m", at(3), nil)
	in.SetBases(puppy, []string{"Animal"}, []types.ClassRef{animal})
	if r, ok := Find(in, in.Class(puppy), in.Class(animal)); !ok || r != RuleImplements {
		t.Fatalf("Puppy -> Animal = %v %v, want implements", r, ok)
	}
	if _, ok := Find(in, in.Class(animal), in.Class(puppy)); ok {
		t.Fatalf("downcast must not be implicit")
	}
}

func TestResolverWrapsOncePerSite(t *testing.T) {
	in := types.NewInterner()
	bi := in.Builtins()
	b := ast.NewBuilder(ast.Hints{})
	one := b.Int(at(5), "1")
	call := b.Call(at(0), b.Ident(at(0), "f"), one)

	ob := constraints.CastObligation{From: bi.Int, To: bi.Float, Expr: one, Span: at(5)}
	exprTypes := map[ast.ExprID]types.TypeID{one: bi.Int}
	r := NewResolver(b, in, "m")
	out := r.Resolve([]constraints.CastObligation{ob, ob}, nil, exprTypes)

	if len(out) != 1 || out[0].Code != diag.CastInserted || out[0].Severity != diag.SevWarning {
		t.Fatalf("diagnostics = %+v, want one CST5001 warning", out)
	}
	wrapped := b.Expr(b.Expr(call).Args[0])
	if wrapped.Kind != ast.ExprCoerce || wrapped.CoerceTo != bi.Float || wrapped.CoerceRule != "widen" {
		t.Fatalf("argument not wrapped: %+v", wrapped)
	}
	if b.Expr(wrapped.X).Kind != ast.ExprInt {
		t.Fatalf("coercion lost its operand")
	}
	if exprTypes[one] != bi.Float || exprTypes[wrapped.X] != bi.Int {
		t.Fatalf("expression types not updated")
	}
}

func TestResolverReturnsPendingErrorWithoutRule(t *testing.T) {
	in := types.NewInterner()
	bi := in.Builtins()
	b := ast.NewBuilder(ast.Hints{})
	s := b.Str(at(3), `"x"`)

	pending := diag.NewError(diag.InfConflict, at(3), "cannot assign str to int")
	ob := constraints.CastObligation{From: bi.Str, To: bi.Int, Expr: s, Span: at(3), Pending: pending}
	dead := func(constraints.Origin) diag.Reachability { return diag.DeadPath }
	out := NewResolver(b, in, "m").Resolve([]constraints.CastObligation{ob}, dead, nil)

	if len(out) != 1 || out[0].Code != diag.InfConflict || out[0].Reachability != diag.DeadPath {
		t.Fatalf("diagnostics = %+v", out)
	}
	if b.Expr(s).Kind != ast.ExprStr {
		t.Fatalf("no coercion may be inserted without a rule")
	}
}
