package driver

import (
	"context"
	"errors"
	"slices"
	"testing"

	"viper/internal/diag"
	"viper/internal/project/dag"
	"viper/internal/types"
)

func compile(t *testing.T, opts Options, files map[string]string) (*Session, *Result) {
	t.Helper()
	ctx := context.Background()
	src, err := LoadVirtual(ctx, files, 2)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(src.Diags) != 0 {
		t.Fatalf("load diagnostics: %+v", src.Diags)
	}
	sess := NewSession(opts)
	res, err := sess.Compile(ctx, src.Units)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return sess, res
}

func ids(ds []diag.Diagnostic) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Code.ID())
	}
	return out
}

const zoo = `
class Dog:
    def speak(self):
        return "woof"

class Cat:
    def speak(self):
        return "meow"

def talk(a):
    return a.speak()

talk(Dog())
talk(Cat())
`

func TestSharedInterfaceForUnrelatedClasses(t *testing.T) {
	sess, res := compile(t, DefaultOptions(), map[string]string{"main.py": zoo})
	if res.Halted {
		t.Fatalf("halted: %v", ids(res.Surfaced))
	}
	if got := ids(res.Surfaced); !slices.Equal(got, []string{"CST5001", "CST5001"}) {
		t.Fatalf("surfaced = %v, want one upcast warning per call", got)
	}

	tree, ok := sess.AnnotatedTree("main")
	if !ok {
		t.Fatal("no annotated tree for main")
	}
	var talk *Signature
	for _, sig := range tree.Signatures() {
		if sig.Name == "talk" {
			talk = sig
		}
	}
	if talk == nil || len(talk.Params) != 1 {
		t.Fatalf("talk signature = %+v", talk)
	}
	in := sess.Interner()
	if in.KindOf(talk.Params[0]) != types.KindInterface {
		t.Fatalf("talk(a) = %s, want an interface", in.Format(talk.Params[0]))
	}
	entry, ok := sess.InterfaceRegistry().Lookup(talk.Params[0])
	if !ok || entry.Name != "ISpeak" {
		t.Fatalf("registry entry = %+v", entry)
	}
	if !slices.Contains(entry.Implementors, "main.Dog") || !slices.Contains(entry.Implementors, "main.Cat") {
		t.Fatalf("implementors = %v", entry.Implementors)
	}
	if len(tree.Coercions) != 2 {
		t.Fatalf("coercions = %+v", tree.Coercions)
	}
	if len(sess.Classes("main")) != 2 {
		t.Fatalf("classes = %v", sess.Classes("main"))
	}
}

func TestImportCycleHaltsAndSkips(t *testing.T) {
	sess, res := compile(t, DefaultOptions(), map[string]string{
		"a.py":    "import b\n",
		"b.py":    "import a\n",
		"main.py": "import a\nprint(1)\n",
	})
	if !res.Halted {
		t.Fatal("an import cycle must halt")
	}
	got := ids(res.Surfaced)
	if !slices.Contains(got, "PRJ7001") || !slices.Contains(got, "PRJ7004") {
		t.Fatalf("surfaced = %v", got)
	}
	var cyc *dag.CycleError
	if err := sess.Plan().Check(); !errors.As(err, &cyc) || !slices.Equal(cyc.Path, []string{"a", "b", "a"}) {
		t.Fatalf("check = %v", err)
	}
	for _, m := range res.Modules {
		if !m.Skipped || m.Tree != nil {
			t.Fatalf("module %s should be skipped", m.Name)
		}
	}
	for _, d := range res.Surfaced {
		if d.Code == diag.ProjImportCycle && d.Reachability != diag.LivePath {
			t.Fatalf("cycle must be live: %+v", d)
		}
	}
}

func TestFailedDependencySkipsImporter(t *testing.T) {
	_, res := compile(t, DefaultOptions(), map[string]string{
		"lib.py":  "x = 5\nx = \"s\"\n",
		"main.py": "import lib\nprint(lib.x)\n",
	})
	if !res.Halted {
		t.Fatal("a live conflict must halt")
	}
	if got := ids(res.Surfaced); !slices.Equal(got, []string{"INF4001", "PRJ7004"}) && !slices.Equal(got, []string{"PRJ7004", "INF4001"}) {
		t.Fatalf("surfaced = %v", got)
	}
	for _, m := range res.Modules {
		switch m.Name {
		case "lib":
			if !m.Broken || m.Skipped {
				t.Fatalf("lib = %+v", m)
			}
		case "main":
			if !m.Skipped {
				t.Fatalf("main should be skipped")
			}
		}
	}
}

func TestCrossModuleClass(t *testing.T) {
	sess, res := compile(t, DefaultOptions(), map[string]string{
		"zoo/animals.py": "class Dog:\n    def speak(self) -> str:\n        return \"woof\"\n",
		"main.py":        "from zoo.animals import Dog\nd = Dog()\nprint(d.speak())\n",
	})
	if res.Halted || len(res.Surfaced) != 0 {
		t.Fatalf("surfaced = %v", ids(res.Surfaced))
	}
	layers := sess.Plan().Layers()
	if len(layers) != 2 || !slices.Equal(layers[0], []string{"zoo.animals"}) || !slices.Equal(layers[1], []string{"main"}) {
		t.Fatalf("layers = %v", layers)
	}
	lib, _ := sess.Module("zoo.animals")
	main, _ := sess.Module("main")
	if !lib.Library || main.Library {
		t.Fatalf("library flags: lib=%t main=%t", lib.Library, main.Library)
	}
	if lib.Meta.ModuleHash == main.Meta.ModuleHash {
		t.Fatal("module hashes should differ")
	}
	if _, ok := lib.Exports.Lookup("Dog"); !ok {
		t.Fatal("Dog is not exported")
	}
}

const box = `
from typing import Generic, TypeVar

T = TypeVar("T")

class Box(Generic[T]):
    def __init__(self, v: T):
        self.v = v

    def get(self) -> T:
        return self.v
`

func TestGenericConstructionInstantiatesParams(t *testing.T) {
	sess, res := compile(t, DefaultOptions(), map[string]string{
		"main.py": box + `
a = Box(1).get() + 1
b = Box("s").get() + "t"
c = Box(2).v + 3
`,
	})
	if res.Halted || len(res.Surfaced) != 0 {
		t.Fatalf("surfaced = %v", ids(res.Surfaced))
	}
	tree, _ := sess.AnnotatedTree("main")
	in := sess.Interner()
	for _, sig := range tree.Signatures() {
		if sig.Name == "get" && in.KindOf(sig.Result) != types.KindParam {
			t.Fatalf("Box.get result = %s, want the class parameter", in.Format(sig.Result))
		}
	}
}

func TestGenericConstructionKeepsArgumentType(t *testing.T) {
	_, res := compile(t, DefaultOptions(), map[string]string{
		"main.py": box + `
n = Box(1).get() + 1
s = Box("s").get() + 1
`,
	})
	if got := ids(res.Surfaced); !slices.Equal(got, []string{"INF4010"}) {
		t.Fatalf("surfaced = %v, want only the str + int error", got)
	}
	if msg := res.Surfaced[0].Message; msg != "unsupported operand types for +: str and int" {
		t.Fatalf("message = %q", msg)
	}
}

func TestAssignToMatchCaptureReportsOnlyConflict(t *testing.T) {
	_, res := compile(t, DefaultOptions(), map[string]string{
		"main.py": `
class A:
    pass

def f(x: A):
    match x:
        case A() as z:
            z = 3

f(A())
`,
	})
	if got := ids(res.Surfaced); !slices.Equal(got, []string{"INF4001"}) {
		t.Fatalf("surfaced = %v, want only the int/A conflict", got)
	}
}

func TestNumericWideningIsAWarning(t *testing.T) {
	sess, res := compile(t, DefaultOptions(), map[string]string{
		"main.py": "def f(x: float) -> float:\n    return x\n\nf(1)\n",
	})
	if res.Halted {
		t.Fatalf("halted: %v", ids(res.Surfaced))
	}
	if got := ids(res.Surfaced); !slices.Equal(got, []string{"CST5001"}) {
		t.Fatalf("surfaced = %v", got)
	}
	tree, _ := sess.AnnotatedTree("main")
	if len(tree.Coercions) != 1 || tree.Coercions[0].Rule != "widen" {
		t.Fatalf("coercions = %+v", tree.Coercions)
	}
	in := sess.Interner()
	if c := tree.Coercions[0]; c.From != in.Builtins().Int || c.To != in.Builtins().Float {
		t.Fatalf("coercion %s -> %s", in.Format(c.From), in.Format(c.To))
	}
}

func TestDeadPathErrorDoesNotHalt(t *testing.T) {
	_, res := compile(t, DefaultOptions(), map[string]string{
		"main.py": "def unused():\n    return 1 + \"a\"\n\nprint(1)\n",
	})
	if res.Halted {
		t.Fatalf("dead-path error halted: %v", ids(res.Surfaced))
	}
	if len(res.Surfaced) != 1 {
		t.Fatalf("surfaced = %v", ids(res.Surfaced))
	}
	d := res.Surfaced[0]
	if d.Code != diag.InfBadOperands || d.Severity != diag.SevError || d.Reachability != diag.DeadPath {
		t.Fatalf("unexpected %+v", d)
	}
}

func TestReportingToggleKeepsLog(t *testing.T) {
	opts := DefaultOptions()
	opts.Reporting = false
	sess, res := compile(t, opts, map[string]string{"main.py": "x = 5\nx = \"s\"\n"})
	if len(res.Surfaced) != 0 || res.Halted {
		t.Fatalf("reporting disabled but surfaced %v", ids(res.Surfaced))
	}
	if len(sess.Log()) == 0 {
		t.Fatal("log must keep diagnostics while reporting is off")
	}
	sess.SetReportingEnabled(true)
	if got := ids(sess.Diagnostics()); !slices.Equal(got, []string{"INF4001"}) {
		t.Fatalf("late flush = %v", got)
	}
	if !sess.Halted() {
		t.Fatal("late flush of a live error must halt")
	}
}

func TestSyntaxErrorBreaksModule(t *testing.T) {
	_, res := compile(t, DefaultOptions(), map[string]string{"main.py": "def f(:\n    pass\n"})
	if !res.Halted || !slices.Contains(ids(res.Surfaced), "SYN2001") {
		t.Fatalf("surfaced = %v", ids(res.Surfaced))
	}
}

func TestPickEntry(t *testing.T) {
	_, res := compile(t, DefaultOptions(), map[string]string{"tool.py": "print(1)\n"})
	if res.Entry != "tool" || res.Modules[0].Library {
		t.Fatalf("single file should be the entry: %+v", res.Modules[0])
	}
}
