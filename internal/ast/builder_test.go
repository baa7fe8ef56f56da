package ast

import (
	"testing"

	"viper/internal/source"
)

func at(i uint32) source.Span {
	return source.Span{File: 1, Start: i, End: i + 1}
}

func TestBuilderIDsAreOneBased(t *testing.T) {
	b := NewBuilder(Hints{})
	if b.Expr(NoExprID) != nil {
		t.Fatalf("zero id must not resolve")
	}
	x := b.Ident(at(0), "x")
	if x != 1 {
		t.Fatalf("first expr id = %d", x)
	}
	if b.Expr(x).Name != "x" {
		t.Fatalf("ident lost its name")
	}
}

func TestCloneItemFromIsDeep(t *testing.T) {
	src := NewBuilder(Hints{})
	self := Param{Name: "self", Span: at(1)}
	ret := src.Return(at(3), src.Str(at(4), `"woof"`))
	speak := src.Method(at(0), "speak", at(1), []Param{self}, src.TypeName(at(2), "str"), []StmtID{ret}, false)

	dst := NewBuilder(Hints{})
	dst.Ident(at(9), "pad")
	clone := dst.CloneItemFrom(src, speak)

	got := dst.Item(clone)
	if got == nil || got.Name != "speak" || !got.Method {
		t.Fatalf("clone lost item data: %+v", got)
	}
	if dst.TypeExpr(got.Result).Name != "str" {
		t.Fatalf("result annotation not cloned")
	}
	body := dst.Stmt(got.Body[0])
	if body.Kind != StmtReturn || dst.Expr(body.Expr).Lit != `"woof"` {
		t.Fatalf("body not cloned")
	}
	// правка копии не задевает оригинал
	dst.Expr(body.Expr).Lit = `"meow"`
	if src.Expr(src.Stmt(ret).Expr).Lit != `"woof"` {
		t.Fatalf("clone shares expression storage with source")
	}
}

func TestWrapCoerceKeepsParentID(t *testing.T) {
	b := NewBuilder(Hints{})
	one := b.Int(at(4), "1")
	call := b.Call(at(0), b.Ident(at(0), "f"), one)

	inner := b.WrapCoerce(one, 7, "widen")
	if b.Expr(call).Args[0] != one {
		t.Fatalf("parent must keep the same id")
	}
	wrapped := b.Expr(one)
	if wrapped.Kind != ExprCoerce || wrapped.X != inner || wrapped.CoerceRule != "widen" {
		t.Fatalf("coerce node malformed: %+v", wrapped)
	}
	if b.Expr(inner).Kind != ExprInt || b.Expr(inner).Lit != "1" {
		t.Fatalf("inner expression lost")
	}
}

func TestContainsYieldIgnoresNestedDefs(t *testing.T) {
	b := NewBuilder(Hints{})
	innerBody := []StmtID{b.ExprStmt(at(1), b.Yield(at(1), b.Int(at(1), "1")))}
	inner := b.Func(at(0), "g", at(0), nil, NoTypeExprID, innerBody, false)
	outer := []StmtID{b.Def(at(0), inner), b.Pass(at(2))}
	if b.ContainsYield(outer) {
		t.Fatalf("yield in nested def must not count")
	}
	if !b.ContainsYield(innerBody) {
		t.Fatalf("yield not detected")
	}
}
