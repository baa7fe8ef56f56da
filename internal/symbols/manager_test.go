package symbols

import (
	"errors"
	"testing"

	"viper/internal/ast"
	"viper/internal/source"
	"viper/internal/types"
)

func at(i uint32) source.Span {
	return source.Span{File: 1, Start: i, End: i + 1}
}

func newManager(t *testing.T) (*Manager, types.Builtins) {
	t.Helper()
	in := types.NewInterner()
	m := NewManager(in.Builtins().None)
	m.EnterScope(ScopeModule, ast.NoItemID, at(0))
	return m, in.Builtins()
}

func TestNeverAssignedBindingIsNone(t *testing.T) {
	m, b := newManager(t)
	if _, err := m.DeclareHere("x", at(1), BindVar); err != nil {
		t.Fatalf("declare: %v", err)
	}
	got, ok := m.Lookup("x", m.Current())
	if !ok {
		t.Fatalf("x not found")
	}
	if got.Type() != b.None || got.Fixed() {
		t.Fatalf("fresh binding should be an unfixed NoneType")
	}
	if _, ok := m.Lookup("missing", m.Current()); ok {
		t.Fatalf("unknown name must not resolve")
	}
}

func TestIfBodySharesScope(t *testing.T) {
	m, _ := newManager(t)
	fn := m.EnterScope(ScopeFunction, ast.ItemID(1), at(0))
	// "if" не открывает область: объявление идёт прямо в функцию
	if _, err := m.DeclareHere("y", at(5), BindVar); err != nil {
		t.Fatalf("declare: %v", err)
	}
	if b, ok := m.Lookup("y", fn); !ok || b.Scope != fn {
		t.Fatalf("binding from if body must be visible in the function scope")
	}
}

func TestShadowingWithinFunctionChain(t *testing.T) {
	m, _ := newManager(t)
	m.EnterScope(ScopeFunction, ast.ItemID(1), at(0))
	x, _ := m.DeclareHere("d", at(1), BindVar)

	m.EnterScope(ScopeNarrow, ast.NoItemID, at(2))
	m.Overlay("d", at(3), x)
	_, err := m.DeclareHere("d", at(4), BindVar)
	var shadow *ShadowingError
	if !errors.As(err, &shadow) {
		t.Fatalf("expected ShadowingError, got %v", err)
	}
	if shadow.Previous == nil || shadow.Previous.Name != "d" {
		t.Fatalf("shadowing error should point at the previous binding")
	}
	m.ExitScope()

	if _, err := m.DeclareHere("d", at(5), BindVar); err == nil {
		t.Fatalf("same-scope redeclaration must fail")
	}
}

func TestShadowingAcrossFunctionBoundaryAllowed(t *testing.T) {
	m, _ := newManager(t)
	if _, err := m.DeclareHere("name", at(1), BindVar); err != nil {
		t.Fatalf("module declare: %v", err)
	}
	outer := m.EnterScope(ScopeFunction, ast.ItemID(1), at(2))
	if _, err := m.DeclareHere("name", at(3), BindVar); err != nil {
		t.Fatalf("function may shadow module binding: %v", err)
	}
	m.EnterScope(ScopeFunction, ast.ItemID(2), at(4))
	inner, err := m.DeclareHere("name", at(5), BindVar)
	if err != nil {
		t.Fatalf("nested function may shadow outer function binding: %v", err)
	}
	if got, _ := m.Lookup("name", m.Current()); got != inner {
		t.Fatalf("lookup should find the innermost binding")
	}
	m.ExitScope()
	if got, _ := m.Lookup("name", outer); got == inner {
		t.Fatalf("inner binding leaked into the outer function")
	}
}

func TestSiblingFunctionsAreIndependent(t *testing.T) {
	m, _ := newManager(t)
	m.EnterScope(ScopeFunction, ast.ItemID(1), at(0))
	if _, err := m.DeclareHere("tmp", at(1), BindVar); err != nil {
		t.Fatalf("declare: %v", err)
	}
	m.ExitScope()
	second := m.EnterScope(ScopeFunction, ast.ItemID(2), at(2))
	if _, ok := m.Lookup("tmp", second); ok {
		t.Fatalf("lookup must not see a sibling function's locals")
	}
	if _, err := m.DeclareHere("tmp", at(3), BindVar); err != nil {
		t.Fatalf("separate function declare: %v", err)
	}
}

func TestLookupSkipsEnclosingClassScope(t *testing.T) {
	m, _ := newManager(t)
	m.EnterScope(ScopeClass, ast.ItemID(1), at(0))
	if _, err := m.DeclareHere("speak", at(1), BindFunc); err != nil {
		t.Fatalf("declare: %v", err)
	}
	method := m.EnterScope(ScopeFunction, ast.ItemID(2), at(2))
	if _, ok := m.Lookup("speak", method); ok {
		t.Fatalf("method bodies must not see class members as bare names")
	}
}

func TestSetTypeOnce(t *testing.T) {
	m, b := newManager(t)
	x, _ := m.DeclareHere("x", at(1), BindVar)
	if err := x.SetType(b.Int); err != nil {
		t.Fatalf("first SetType: %v", err)
	}
	if err := x.SetType(b.Int); err != nil {
		t.Fatalf("same type again must be accepted: %v", err)
	}
	if err := x.SetType(b.Str); !errors.Is(err, ErrTypeReassigned) {
		t.Fatalf("expected ErrTypeReassigned, got %v", err)
	}
	if x.Type() != b.Int {
		t.Fatalf("type changed after rejected reassignment")
	}
}
