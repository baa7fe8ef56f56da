package pyfront

import (
	"slices"
	"strings"
	"testing"

	"viper/internal/ast"
	"viper/internal/source"
)

func parse(t *testing.T, module, src string) *Result {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual(strings.ReplaceAll(module, ".", "/")+".py", []byte(src))
	res, err := ParseFile(fs.Get(id), Options{Module: module})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return res
}

func body(res *Result) []ast.StmtID {
	return res.Builder.File(res.File).Body
}

func codes(res *Result) []string {
	out := make([]string, 0, len(res.Diagnostics))
	for _, d := range res.Diagnostics {
		out = append(out, d.Code.ID())
	}
	return out
}

func noDiags(t *testing.T, res *Result) {
	t.Helper()
	if len(res.Diagnostics) != 0 {
		for _, d := range res.Diagnostics {
			t.Errorf("%s: %s", d.Code.ID(), d.Message)
		}
		t.FailNow()
	}
}

const zoo = `
class Dog:
    def __init__(self, name: str):
        self.name = name

    def speak(self) -> str:
        return "woof"

def talk(x):
    return x.speak()

talk(Dog("rex"))
`

func TestLowerClassesAndCalls(t *testing.T) {
	res := parse(t, "main", zoo)
	noDiags(t, res)
	b := res.Builder
	stmts := body(res)
	if len(stmts) != 3 {
		t.Fatalf("top-level statements = %d, want 3", len(stmts))
	}

	cls := b.Item(b.Stmt(stmts[0]).Item)
	if cls.Kind != ast.ItemClass || cls.Name != "Dog" || len(cls.Body) != 2 {
		t.Fatalf("unexpected class %+v", cls)
	}
	init := b.Item(b.Stmt(cls.Body[0]).Item)
	if !init.Method || init.Name != "__init__" || len(init.Explicit()) != 1 {
		t.Fatalf("unexpected __init__ %+v", init)
	}
	if p := init.Explicit()[0]; b.TypeExpr(p.Type).Name != "str" {
		t.Fatalf("param annotation lost: %+v", p)
	}
	assign := b.Stmt(init.Body[0])
	if assign.Kind != ast.StmtAssign || b.Expr(assign.Target).Kind != ast.ExprMember {
		t.Fatalf("self.name = name lowered as %+v", assign)
	}

	talk := b.Item(b.Stmt(stmts[1]).Item)
	if talk.Method || talk.Name != "talk" {
		t.Fatalf("talk must be a plain function: %+v", talk)
	}
	ret := b.Stmt(talk.Body[0])
	call := b.Expr(ret.Expr)
	if call.Kind != ast.ExprCall || b.Expr(call.X).Kind != ast.ExprMember || b.Expr(call.X).Name != "speak" {
		t.Fatalf("x.speak() lowered as %+v", call)
	}

	top := b.Expr(b.Stmt(stmts[2]).Expr)
	if top.Kind != ast.ExprCall || len(top.Args) != 1 || b.Expr(top.Args[0]).Kind != ast.ExprCall {
		t.Fatalf("talk(Dog(...)) lowered as %+v", top)
	}
}

func TestLowerAnnotations(t *testing.T) {
	res := parse(t, "main", `
from typing import Optional

x: int = 5
y: float

def f(a: list[int], b: Optional[str], c: "Box" = None) -> float | None:
    return 1.0
`)
	if got := codes(res); !slices.Equal(got, []string{"SYN2002"}) {
		t.Fatalf("codes = %v, want only the default-value report", got)
	}
	b := res.Builder
	stmts := body(res)
	decl := b.Stmt(stmts[1])
	if decl.Kind != ast.StmtDecl || decl.Name != "x" || b.TypeExpr(decl.Type).Name != "int" || !decl.Expr.IsValid() {
		t.Fatalf("x: int = 5 lowered as %+v", decl)
	}
	if bare := b.Stmt(stmts[2]); bare.Kind != ast.StmtDecl || bare.Expr.IsValid() {
		t.Fatalf("y: float lowered as %+v", bare)
	}

	fn := b.Item(b.Stmt(stmts[3]).Item)
	list := b.TypeExpr(fn.Params[0].Type)
	if list.Name != "list" || len(list.Args) != 1 || b.TypeExpr(list.Args[0]).Name != "int" {
		t.Fatalf("list[int] lowered as %+v", list)
	}
	if name := b.TypeExpr(fn.Params[1].Type).Name; name != "str" {
		t.Fatalf("Optional[str] lowered as %q", name)
	}
	if name := b.TypeExpr(fn.Params[2].Type).Name; name != "Box" {
		t.Fatalf("forward reference lowered as %q", name)
	}
	if name := b.TypeExpr(fn.Result).Name; name != "float" {
		t.Fatalf("float | None lowered as %q", name)
	}
}

func TestLowerGenericClass(t *testing.T) {
	res := parse(t, "main", `
from typing import Generic, TypeVar

T = TypeVar("T")

class Box(Generic[T]):
    item: T
`)
	noDiags(t, res)
	b := res.Builder
	stmts := body(res)
	if len(stmts) != 2 {
		t.Fatalf("TypeVar assignment should be dropped, got %d statements", len(stmts))
	}
	cls := b.Item(b.Stmt(stmts[1]).Item)
	if !slices.Equal(cls.TypeParams, []string{"T"}) || len(cls.Bases) != 1 || cls.Bases[0].Name != "Generic" {
		t.Fatalf("unexpected class header %+v", cls)
	}
}

func TestLowerImports(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("app/main.py", []byte(`
import zoo.animals as za
import os
from .util import helper as h, other
from . import birds
`))
	res, err := ParseFile(fs.Get(id), Options{Module: "app.main"})
	if err != nil {
		t.Fatal(err)
	}
	noDiags(t, res)

	var paths []string
	for _, im := range res.Imports {
		paths = append(paths, im.Path)
	}
	want := []string{"zoo.animals", "os", "app.util", "app.birds"}
	if !slices.Equal(paths, want) {
		t.Fatalf("imports = %v, want %v", paths, want)
	}

	b := res.Builder
	stmts := body(res)
	first := b.Stmt(stmts[0]).Import
	if first.Module != "zoo.animals" || first.Bound() != "za" {
		t.Fatalf("import as lowered as %+v", first)
	}
	from := b.Stmt(stmts[2]).Import
	if from.Module != "app.util" || len(from.Names) != 2 || from.Names[0].Alias != "h" {
		t.Fatalf("from-import lowered as %+v", from)
	}
	sub := b.Stmt(stmts[3]).Import
	if sub.Module != "app.birds" || sub.Bound() != "birds" || len(sub.Names) != 0 {
		t.Fatalf("from . import lowered as %+v", sub)
	}
}

func TestRelativeImportBeyondTop(t *testing.T) {
	res := parse(t, "main", "from ..x import y\n")
	if got := codes(res); !slices.Equal(got, []string{"PRJ7002"}) {
		t.Fatalf("codes = %v", got)
	}
}

func TestLowerMatch(t *testing.T) {
	res := parse(t, "main", `
def describe(pet):
    match pet:
        case Dog() as d:
            d.bark()
        case Cat():
            pass
        case other:
            pass
        case _:
            pass
`)
	noDiags(t, res)
	b := res.Builder
	fn := b.Item(b.Stmt(body(res)[0]).Item)
	m := b.Stmt(fn.Body[0])
	if m.Kind != ast.StmtMatch || len(m.Cases) != 4 {
		t.Fatalf("match lowered as %+v", m)
	}
	got := make([]string, 0, 4)
	for _, mc := range m.Cases {
		got = append(got, mc.Class+"/"+mc.Capture)
	}
	if want := []string{"Dog/d", "Cat/", "/other", "/"}; !slices.Equal(got, want) {
		t.Fatalf("cases = %v, want %v", got, want)
	}
}

func TestLowerStatements(t *testing.T) {
	res := parse(t, "main", `
n = 0
n += 2
if n < 1 < 3:
    pass
elif n == 2:
    pass
else:
    pass
for i in range(3):
    break
while False:
    continue
`)
	noDiags(t, res)
	b := res.Builder
	stmts := body(res)

	aug := b.Stmt(stmts[1])
	val := b.Expr(aug.Expr)
	if aug.Kind != ast.StmtAssign || val.Kind != ast.ExprBinary || val.Op != ast.OpAdd {
		t.Fatalf("n += 2 lowered as %+v / %+v", aug, val)
	}

	ifs := b.Stmt(stmts[2])
	cond := b.Expr(ifs.Expr)
	if cond.Op != ast.OpAnd || b.Expr(cond.X).Op != ast.OpLt {
		t.Fatalf("chained comparison lowered as %+v", cond)
	}
	if len(ifs.Else) != 1 || b.Stmt(ifs.Else[0]).Kind != ast.StmtIf || len(b.Stmt(ifs.Else[0]).Else) != 1 {
		t.Fatalf("elif chain lowered as %+v", ifs)
	}
	if f := b.Stmt(stmts[3]); f.Kind != ast.StmtFor || f.Name != "i" {
		t.Fatalf("for lowered as %+v", f)
	}
	if w := b.Stmt(stmts[4]); w.Kind != ast.StmtWhile || b.Expr(w.Expr).Kind != ast.ExprBool {
		t.Fatalf("while lowered as %+v", w)
	}
}

func TestGeneratorsAndAsync(t *testing.T) {
	res := parse(t, "main", `
def count():
    yield 1

async def fetch():
    return 1

async def main():
    x = await fetch()
`)
	noDiags(t, res)
	b := res.Builder
	stmts := body(res)
	gen := b.Item(b.Stmt(stmts[0]).Item)
	if y := b.Expr(b.Stmt(gen.Body[0]).Expr); y.Kind != ast.ExprYield {
		t.Fatalf("yield lowered as %+v", y)
	}
	if !b.Item(b.Stmt(stmts[1]).Item).Async {
		t.Fatalf("async flag lost")
	}
	main := b.Item(b.Stmt(stmts[2]).Item)
	if aw := b.Expr(b.Stmt(main.Body[0]).Expr); aw.Kind != ast.ExprAwait {
		t.Fatalf("await lowered as %+v", aw)
	}
}

func TestSyntaxAndUnsupported(t *testing.T) {
	if got := codes(parse(t, "main", "def f(:\n    pass\n")); len(got) == 0 || got[0] != "SYN2001" {
		t.Fatalf("syntax error codes = %v", got)
	}
	got := codes(parse(t, "main", "f = lambda x: x\na, b = 1, 2\n"))
	if !slices.Contains(got, "SYN2002") || !slices.Contains(got, "SYN2003") {
		t.Fatalf("codes = %v", got)
	}
}

func TestIdentifiersAreNFKC(t *testing.T) {
	res := parse(t, "main", "ｘ = 1\nprint(x)\n")
	noDiags(t, res)
	b := res.Builder
	target := b.Expr(b.Stmt(body(res)[0]).Target)
	if target.Name != "x" {
		t.Fatalf("identifier = %q, want NFKC form %q", target.Name, "x")
	}
}

func TestTypingImportsStayOutOfGraph(t *testing.T) {
	res := parse(t, "main", "from typing import Protocol\nimport typing\nimport zoo\n")
	noDiags(t, res)
	if len(res.Imports) != 1 || res.Imports[0].Path != "zoo" {
		t.Fatalf("imports = %+v", res.Imports)
	}
}
