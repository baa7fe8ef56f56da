package constraints

import (
	"testing"

	"viper/internal/ast"
	"viper/internal/diag"
	"viper/internal/source"
	"viper/internal/types"
)

func at(i uint32) source.Span {
	return source.Span{File: 1, Start: i, End: i + 1}
}

func module(b *ast.Builder, stmts ...ast.StmtID) ast.FileID {
	f := b.NewFile(at(0), "m")
	for _, s := range stmts {
		b.PushStmt(f, s)
	}
	return f
}

func codes(res *Result) []diag.Code {
	var out []diag.Code
	for _, f := range res.Findings {
		out = append(out, f.Diag.Code)
	}
	return out
}

func TestRedeclarationInSameFunctionIsShadowing(t *testing.T) {
	b := ast.NewBuilder(ast.Hints{})
	first := b.Decl(at(10), "x", at(10), b.TypeName(at(11), "int"), b.Int(at(12), "1"))
	second := b.Decl(at(20), "x", at(20), b.TypeName(at(21), "str"), b.Str(at(22), `"a"`))
	inner := b.If(at(18), b.BoolLit(at(19), true), []ast.StmtID{second}, nil)
	fn := b.Func(at(1), "f", at(5), nil, ast.NoTypeExprID, []ast.StmtID{first, inner}, false)
	file := module(b, b.Def(at(1), fn))

	res := Collect(b, file, types.NewInterner(), Options{Module: "m"})
	got := codes(res)
	if len(got) != 1 || got[0] != diag.SemaShadowSymbol {
		t.Fatalf("findings = %v, want one SEM3004", got)
	}
	d := res.Findings[0].Diag
	if d.Primary != at(20) || len(d.Notes) != 1 || d.Notes[0].Span != at(10) {
		t.Fatalf("shadowing diagnostic points to the wrong places: %+v", d)
	}
	if res.Findings[0].Origin.Fn != fn {
		t.Fatalf("finding origin = %v, want %v", res.Findings[0].Origin.Fn, fn)
	}
}

func TestNestedFunctionMayReuseOuterName(t *testing.T) {
	b := ast.NewBuilder(ast.Hints{})
	innerAssign := b.Assign(at(30), b.Ident(at(30), "x"), b.Int(at(31), "2"))
	g := b.Func(at(25), "g", at(26), nil, ast.NoTypeExprID, []ast.StmtID{innerAssign}, false)
	outerAssign := b.Assign(at(10), b.Ident(at(10), "x"), b.Int(at(11), "1"))
	f := b.Func(at(1), "f", at(5), nil, ast.NoTypeExprID, []ast.StmtID{outerAssign, b.Def(at(25), g)}, false)
	top := b.Assign(at(50), b.Ident(at(50), "x"), b.Int(at(51), "0"))
	file := module(b, top, b.Def(at(1), f))

	res := Collect(b, file, types.NewInterner(), Options{Module: "m"})
	if got := codes(res); len(got) != 0 {
		t.Fatalf("unexpected findings %v", got)
	}
	if len(res.Funcs) != 2 {
		t.Fatalf("funcs = %d, want 2", len(res.Funcs))
	}
	if res.Graph.Funcs[g].Parent != f {
		t.Fatalf("nested def parent = %v, want %v", res.Graph.Funcs[g].Parent, f)
	}
}

func TestReadBeforeAssignmentIsNone(t *testing.T) {
	b := ast.NewBuilder(ast.Hints{})
	read := b.Ident(at(10), "y")
	use := b.ExprStmt(at(10), b.Call(at(9), b.Ident(at(9), "print"), read))
	assign := b.Assign(at(20), b.Ident(at(20), "y"), b.Int(at(21), "1"))
	later := b.Ident(at(30), "y")
	fn := b.Func(at(1), "f", at(5), nil, ast.NoTypeExprID, []ast.StmtID{use, assign, b.ExprStmt(at(30), later)}, false)
	file := module(b, b.Def(at(1), fn))

	in := types.NewInterner()
	res := Collect(b, file, in, Options{Module: "m"})
	if got := res.Set.ExprTypes[read]; got != in.Builtins().None {
		t.Fatalf("read before assignment = %s, want None", in.Format(got))
	}
	if got := res.Set.ExprTypes[later]; in.KindOf(got) != types.KindVar {
		t.Fatalf("read after assignment = %s, want the binding variable", in.Format(got))
	}
}

func TestUnresolvedNameIsReported(t *testing.T) {
	b := ast.NewBuilder(ast.Hints{})
	file := module(b, b.ExprStmt(at(1), b.Ident(at(1), "nope")))

	res := Collect(b, file, types.NewInterner(), Options{Module: "m"})
	if got := codes(res); len(got) != 1 || got[0] != diag.SemaUnresolvedSymbol {
		t.Fatalf("findings = %v, want SEM3005", got)
	}
}

func TestMethodCallAddsConstraintAndEdge(t *testing.T) {
	b := ast.NewBuilder(ast.Hints{})
	self := ast.Param{Name: "self", Span: at(3)}
	ret := b.Return(at(6), b.Str(at(7), `"woof"`))
	speak := b.Method(at(2), "speak", at(2), []ast.Param{self}, ast.NoTypeExprID, []ast.StmtID{ret}, false)
	dog := b.Class(at(1), "Dog", at(1), nil, nil, []ast.StmtID{b.Def(at(2), speak)})

	a := ast.Param{Name: "a", Span: at(11)}
	call := b.Call(at(13), b.Member(at(13), b.Ident(at(13), "a"), "speak"))
	talk := b.Func(at(10), "talk", at(10), []ast.Param{a}, ast.NoTypeExprID, []ast.StmtID{b.Return(at(12), call)}, false)
	file := module(b, b.Def(at(1), dog), b.Def(at(10), talk))

	in := types.NewInterner()
	res := Collect(b, file, in, Options{Module: "m"})
	if got := codes(res); len(got) != 0 {
		t.Fatalf("unexpected findings %v", got)
	}
	if res.Set.Count(Method) != 1 {
		t.Fatalf("method constraints = %d, want 1", res.Set.Count(Method))
	}
	if edges := res.Graph.Methods[talk]; len(edges) != 1 || edges[0].Method != "speak" {
		t.Fatalf("method edges = %+v", edges)
	}
	if len(res.Classes) != 1 {
		t.Fatalf("classes = %d, want 1", len(res.Classes))
	}
	info := in.ClassInfo(res.Classes[0])
	if _, ok := info.Method("speak"); !ok {
		t.Fatalf("speak not registered on Dog")
	}
}

func TestSelfAssignmentsBecomeFields(t *testing.T) {
	b := ast.NewBuilder(ast.Hints{})
	self := ast.Param{Name: "self", Span: at(3)}
	set := b.Assign(at(5), b.Member(at(5), b.Ident(at(5), "self"), "name"), b.Str(at(6), `"rex"`))
	initM := b.Method(at(2), "__init__", at(2), []ast.Param{self}, ast.NoTypeExprID, []ast.StmtID{set}, false)
	dog := b.Class(at(1), "Dog", at(1), nil, nil, []ast.StmtID{b.Def(at(2), initM)})
	file := module(b, b.Def(at(1), dog))

	in := types.NewInterner()
	res := Collect(b, file, in, Options{Module: "m"})
	if _, ok := in.ClassInfo(res.Classes[0]).Field("name"); !ok {
		t.Fatalf("self.name did not become a field")
	}
	if res.Graph.Inits[dog] != initM {
		t.Fatalf("__init__ not indexed for reachability")
	}
}

func TestBuiltinArity(t *testing.T) {
	b := ast.NewBuilder(ast.Hints{})
	call := b.Call(at(1), b.Ident(at(1), "range"))
	file := module(b, b.ExprStmt(at(1), call))

	res := Collect(b, file, types.NewInterner(), Options{Module: "m"})
	if got := codes(res); len(got) != 1 || got[0] != diag.InfArity {
		t.Fatalf("findings = %v, want INF4007", got)
	}
}

func TestUserDefinitionMayReuseBuiltinName(t *testing.T) {
	b := ast.NewBuilder(ast.Hints{})
	fn := b.Func(at(1), "len", at(1), nil, ast.NoTypeExprID, []ast.StmtID{b.Pass(at(2))}, false)
	file := module(b, b.Def(at(1), fn))

	res := Collect(b, file, types.NewInterner(), Options{Module: "m"})
	if got := codes(res); len(got) != 0 {
		t.Fatalf("unexpected findings %v", got)
	}
}
