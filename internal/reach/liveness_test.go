package reach

import (
	"testing"

	"viper/internal/ast"
	"viper/internal/diag"
	"viper/internal/source"
)

func at(i uint32) source.Span {
	return source.Span{File: 1, Start: i, End: i + 1}
}

func TestCallGraphReachability(t *testing.T) {
	b := ast.NewBuilder(ast.Hints{})
	used := b.Func(at(0), "used", at(0), nil, ast.NoTypeExprID, []ast.StmtID{b.Pass(at(1))}, false)
	unused := b.Func(at(2), "_unused", at(2), nil, ast.NoTypeExprID, []ast.StmtID{b.Pass(at(3))}, false)
	call := b.ExprStmt(at(4), b.Call(at(4), b.Ident(at(4), "used")))
	file := b.NewFile(at(0), "main")
	for _, s := range []ast.StmtID{b.Def(at(0), used), b.Def(at(2), unused), call} {
		b.PushStmt(file, s)
	}

	g := NewGraph()
	g.AddFunc(Func{Item: used, Name: "used"})
	g.AddFunc(Func{Item: unused, Name: "_unused"})
	g.AddCall(ast.NoItemID, used, call)

	l := Analyze(b, file, g, false)
	if !l.Live(used) || l.Live(unused) {
		t.Fatalf("expected only `used` to be live")
	}
	if got := l.Reachability(unused, ast.NoStmtID); got != diag.DeadPath {
		t.Fatalf("unreached function must be dead-path, got %s", got)
	}
}

func TestStraightLineDeadCode(t *testing.T) {
	b := ast.NewBuilder(ast.Hints{})
	ret := b.Return(at(1), b.None(at(1)))
	after := b.ExprStmt(at(2), b.Call(at(2), b.Ident(at(2), "helper")))
	guarded := b.Pass(at(4))
	iff := b.If(at(3), b.BoolLit(at(3), false), []ast.StmtID{guarded}, nil)
	fn := b.Func(at(0), "main", at(0), nil, ast.NoTypeExprID, []ast.StmtID{iff, ret, after}, false)
	helper := b.Func(at(5), "helper", at(5), nil, ast.NoTypeExprID, []ast.StmtID{b.Pass(at(6))}, false)
	file := b.NewFile(at(0), "main")
	b.PushStmt(file, b.Def(at(0), fn))
	b.PushStmt(file, b.Def(at(5), helper))
	top := b.ExprStmt(at(7), b.Call(at(7), b.Ident(at(7), "main")))
	b.PushStmt(file, top)

	g := NewGraph()
	g.AddFunc(Func{Item: fn, Name: "main"})
	g.AddFunc(Func{Item: helper, Name: "helper"})
	g.AddCall(ast.NoItemID, fn, top)
	g.AddCall(fn, helper, after)

	l := Analyze(b, file, g, false)
	if !l.Dead(after) || !l.Dead(guarded) || l.Dead(ret) {
		t.Fatalf("dead statement classification is wrong")
	}
	if l.Live(helper) {
		t.Fatalf("calls from dead statements must not make callees live")
	}
	if got := l.Reachability(fn, ret); got != diag.LivePath {
		t.Fatalf("return should be live, got %s", got)
	}
}

func TestLibraryRootsAndMethods(t *testing.T) {
	b := ast.NewBuilder(ast.Hints{})
	speak := b.Method(at(0), "speak", at(0), []ast.Param{{Name: "self"}}, ast.NoTypeExprID, nil, false)
	init := b.Method(at(1), "__init__", at(1), []ast.Param{{Name: "self"}}, ast.NoTypeExprID, nil, false)
	class := b.Class(at(2), "Dog", at(2), nil, nil, []ast.StmtID{b.Def(at(0), speak), b.Def(at(1), init)})
	api := b.Func(at(3), "api", at(3), nil, ast.NoTypeExprID, nil, false)
	file := b.NewFile(at(0), "zoo")
	b.PushStmt(file, b.Def(at(2), class))
	b.PushStmt(file, b.Def(at(3), api))

	g := NewGraph()
	g.AddFunc(Func{Item: speak, Name: "speak", Class: class, ClassName: "Dog"})
	g.AddFunc(Func{Item: init, Name: "__init__", Class: class, ClassName: "Dog"})
	g.AddFunc(Func{Item: api, Name: "api"})

	if l := Analyze(b, file, g, false); l.Live(api) || l.Live(speak) {
		t.Fatalf("entry modules only root their top-level code")
	}
	l := Analyze(b, file, g, true)
	if !l.Live(api) || !l.Live(speak) || l.Live(init) {
		t.Fatalf("library roots: api=%v speak=%v init=%v", l.Live(api), l.Live(speak), l.Live(init))
	}

	g.AddConstruct(ast.NoItemID, class, ast.StmtID(99))
	if l := Analyze(b, file, g, false); !l.Live(init) {
		t.Fatalf("constructing a class must reach __init__")
	}
}
