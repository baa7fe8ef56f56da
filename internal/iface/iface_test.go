package iface

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

func method(b *ast.Builder, name, word string, pos uint32) ast.StmtID {
	self := ast.Param{Name: "self", Span: at(pos)}
	ret := b.Return(at(pos+1), b.Str(at(pos+2), word))
	m := b.Method(at(pos), name, at(pos), []ast.Param{self}, ast.NoTypeExprID, []ast.StmtID{ret}, false)
	return b.Def(at(pos), m)
}

func class(b *ast.Builder, name string, pos uint32, bases []string, body ...ast.StmtID) ast.ItemID {
	var bs []ast.Base
	for _, n := range bases {
		bs = append(bs, ast.Base{Name: n, Span: at(pos)})
	}
	return b.Class(at(pos), name, at(pos), nil, bs, body)
}

func methodNames(b *ast.Builder, cls ast.ItemID) map[string]string {
	out := make(map[string]string)
	for _, id := range b.Item(cls).Body {
		s := b.Stmt(id)
		if s.Kind == ast.StmtDef {
			m := b.Item(s.Item)
			out[m.Name] = m.Origin
		}
	}
	return out
}

func TestFlattenCopiesBaseMethods(t *testing.T) {
	b := ast.NewBuilder(ast.Hints{})
	animal := class(b, "Animal", 1, nil, method(b, "speak", `"..."`, 2), method(b, "eat", `"food"`, 5))
	dog := class(b, "Dog", 10, []string{"Animal"}, method(b, "speak", `"woof"`, 11))
	puppy := class(b, "Puppy", 20, []string{"Dog"}, b.Pass(at(21)))
	f := b.NewFile(at(0), "m")
	// подкласс раньше базы: порядок объявлений не важен
	b.PushStmt(f, b.Def(at(20), puppy))
	b.PushStmt(f, b.Def(at(10), dog))
	b.PushStmt(f, b.Def(at(1), animal))

	if diags := Flatten(b, f, "m"); len(diags) != 0 {
		t.Fatalf("unexpected diagnostics %+v", diags)
	}
	got := methodNames(b, dog)
	if len(got) != 2 || got["speak"] != "" || got["eat"] != "Animal" {
		t.Fatalf("Dog methods = %v", got)
	}
	got = methodNames(b, puppy)
	if got["speak"] != "Dog" || got["eat"] != "Animal" {
		t.Fatalf("Puppy methods = %v, want origins kept through two levels", got)
	}
}

func TestFlattenReportsBaseCycle(t *testing.T) {
	b := ast.NewBuilder(ast.Hints{})
	a := class(b, "A", 1, []string{"B"}, b.Pass(at(2)))
	c := class(b, "B", 5, []string{"A"}, b.Pass(at(6)))
	f := b.NewFile(at(0), "m")
	b.PushStmt(f, b.Def(at(1), a))
	b.PushStmt(f, b.Def(at(5), c))

	diags := Flatten(b, f, "m")
	if len(diags) != 1 || diags[0].Code != diag.IfaceBaseCycle {
		t.Fatalf("diagnostics = %+v, want one IFC6002", diags)
	}
	if diags[0].Message != "class inheritance cycle: A -> B -> A" {
		t.Fatalf("message = %q", diags[0].Message)
	}
}

func TestFlattenWarnsOnAmbiguousInheritance(t *testing.T) {
	b := ast.NewBuilder(ast.Hints{})
	x := class(b, "X", 1, nil, method(b, "run", `"x"`, 2))
	y := class(b, "Y", 5, nil, method(b, "run", `"y"`, 6))
	z := class(b, "Z", 10, []string{"X", "Y"}, b.Pass(at(11)))
	f := b.NewFile(at(0), "m")
	for _, it := range []ast.ItemID{x, y, z} {
		b.PushStmt(f, b.Def(b.Item(it).Span, it))
	}

	diags := Flatten(b, f, "m")
	if len(diags) != 1 || diags[0].Code != diag.IfaceConflict || diags[0].Severity != diag.SevWarning {
		t.Fatalf("diagnostics = %+v, want one IFC6003 warning", diags)
	}
	if got := methodNames(b, z); got["run"] != "X" {
		t.Fatalf("first base must win: %v", got)
	}
}

func speaker(in *types.Interner, module, name string) types.ClassRef {
	ref := in.DeclareClass(name, module, at(1), nil)
	in.AddMethod(ref, types.Member{Name: "speak", Type: in.Fn(nil, in.Builtins().Str, false)})
	in.AddMethod(ref, types.Member{Name: "__init__", Type: in.Fn(nil, in.Builtins().None, false)})
	in.Seal(ref, func(t types.TypeID) types.TypeID { return t })
	return ref
}

func TestIdenticalSetsShareOneInterface(t *testing.T) {
	in := types.NewInterner()
	reg := NewRegistry(in)
	dog := speaker(in, "zoo", "Dog")
	robot := speaker(in, "factory", "Robot")

	first := Synthesize(reg, in, "zoo", []types.ClassRef{dog}, nil)
	second := Synthesize(reg, in, "factory", []types.ClassRef{robot}, nil)
	if len(first) != 1 || len(second) != 0 {
		t.Fatalf("registered %d then %d interfaces, want 1 then 0", len(first), len(second))
	}
	all := reg.Interfaces()
	if len(all) != 1 {
		t.Fatalf("registry holds %d interfaces", len(all))
	}
	got := all[0]
	if got.Name != "ISpeak" || got.Key != "speak()->str" {
		t.Fatalf("interface = %s %q", got.Name, got.Key)
	}
	if len(got.Implementors) != 2 || got.Implementors[0] != "zoo.Dog" || got.Implementors[1] != "factory.Robot" {
		t.Fatalf("implementors = %v", got.Implementors)
	}
	if in.Format(got.ID) != "ISpeak" {
		t.Fatalf("interner does not know the interface name: %s", in.Format(got.ID))
	}
}

func TestNamesGetSuffixOnCollision(t *testing.T) {
	in := types.NewInterner()
	reg := NewRegistry(in)
	bi := in.Builtins()
	a := in.Interface([]types.MethodSig{{Name: "get_name", Fn: in.Fn(nil, bi.Str, false)}})
	b := in.Interface([]types.MethodSig{{Name: "get_name", Fn: in.Fn(nil, bi.Int, false)}})

	ea, _ := reg.Register(a, "m")
	eb, _ := reg.Register(b, "m")
	if ea.Name != "IGetName" || eb.Name != "IGetName2" {
		t.Fatalf("names = %s, %s", ea.Name, eb.Name)
	}
	if ea.Ordinal != 0 || eb.Ordinal != 1 {
		t.Fatalf("ordinals = %d, %d", ea.Ordinal, eb.Ordinal)
	}
	if c := reg.Candidates([]string{"get_name"}); len(c) != 2 || c[0].ID != a {
		t.Fatalf("candidates = %+v, want lowest ordinal first", c)
	}
}

func TestSynthesizeRegistersSingleMethodSetsFirst(t *testing.T) {
	in := types.NewInterner()
	reg := NewRegistry(in)
	bi := in.Builtins()
	ref := in.DeclareClass("Pet", "m", at(1), nil)
	in.AddMethod(ref, types.Member{Name: "speak", Type: in.Fn(nil, bi.Str, false)})
	in.AddMethod(ref, types.Member{Name: "age", Type: in.Fn(nil, bi.Int, false)})
	in.Seal(ref, func(t types.TypeID) types.TypeID { return t })

	added := Synthesize(reg, in, "m", []types.ClassRef{ref}, nil)
	var names []string
	for _, e := range added {
		names = append(names, e.Name)
	}
	want := []string{"IAge", "ISpeak", "IAgeSpeak"}
	if len(names) != len(want) {
		t.Fatalf("added = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("added = %v, want %v", names, want)
		}
	}
}
