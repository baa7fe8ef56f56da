package bundle

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"viper/internal/driver"
)

func build(t *testing.T, files map[string]string) *Bundle {
	t.Helper()
	ctx := context.Background()
	src, err := driver.LoadVirtual(ctx, files, 2)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	res, err := driver.NewSession(driver.DefaultOptions()).Compile(ctx, src.Units)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return FromResult(res, src.Files)
}

func find(b *Bundle, name string) *Module {
	for i := range b.Modules {
		if b.Modules[i].Name == name {
			return &b.Modules[i]
		}
	}
	return nil
}

const program = `
class Animal:
    def name(self) -> str:
        return "animal"

class Dog(Animal):
    def speak(self) -> str:
        return "woof"

def scale(x: float) -> float:
    return x

scale(2)
`

func TestFromResult(t *testing.T) {
	b := build(t, map[string]string{"main.py": program})
	if b.Schema != SchemaVersion || b.Entry != "main" || b.Halted {
		t.Fatalf("header = %d %q %t", b.Schema, b.Entry, b.Halted)
	}
	m := find(b, "main")
	if m == nil {
		t.Fatal("main module missing")
	}
	if m.Library || m.Hash == "" {
		t.Fatalf("main = %+v", m)
	}

	var dog *Class
	for i := range m.Classes {
		if m.Classes[i].Name == "Dog" {
			dog = &m.Classes[i]
		}
	}
	if dog == nil {
		t.Fatalf("classes = %+v", m.Classes)
	}
	var inherited bool
	for _, meth := range dog.Methods {
		if meth.Name == "name" && meth.Origin == "Animal" {
			inherited = true
		}
	}
	if !inherited {
		t.Fatalf("Dog methods = %+v, want name copied from Animal", dog.Methods)
	}

	if len(m.Functions) != 1 {
		t.Fatalf("functions = %+v", m.Functions)
	}
	fn := m.Functions[0]
	if fn.Name != "scale" || fn.Result != "float" || len(fn.Params) != 1 || fn.Params[0] != (Param{Name: "x", Type: "float"}) {
		t.Fatalf("scale = %+v", fn)
	}

	if len(m.Coercions) != 1 {
		t.Fatalf("coercions = %+v", m.Coercions)
	}
	c := m.Coercions[0]
	if c.From != "int" || c.To != "float" || c.Rule != "widen" || c.Pos.Line != 13 {
		t.Fatalf("coercion = %+v", c)
	}

	if len(b.Diagnostics) != 1 || b.Diagnostics[0].Code != "CST5001" || b.Diagnostics[0].Pos.Line != 13 {
		t.Fatalf("diagnostics = %+v", b.Diagnostics)
	}
}

func TestMsgpackRoundTrip(t *testing.T) {
	b := build(t, map[string]string{"main.py": program})
	var buf bytes.Buffer
	if err := Write(&buf, b); err != nil {
		t.Fatal(err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Session != b.Session || len(got.Modules) != len(b.Modules) {
		t.Fatalf("round trip lost data: %+v", got)
	}
	if got.Modules[0].Coercions[0] != b.Modules[0].Coercions[0] {
		t.Fatalf("coercion %+v != %+v", got.Modules[0].Coercions[0], b.Modules[0].Coercions[0])
	}
}

func TestReadRejectsOtherSchema(t *testing.T) {
	raw, err := msgpack.Marshal(&Bundle{Schema: SchemaVersion + 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Read(bytes.NewReader(raw)); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("err = %v", err)
	}
}

func TestWriteFile(t *testing.T) {
	b := build(t, map[string]string{"main.py": "print(1)\n"})
	path := filepath.Join(t.TempDir(), "out", "main.vpb")
	if err := WriteFile(path, b); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Entry != "main" {
		t.Fatalf("entry = %q", got.Entry)
	}
}

func TestInterfacesAndYAML(t *testing.T) {
	b := build(t, map[string]string{"main.py": `
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
`})
	if len(b.Interfaces) != 1 || b.Interfaces[0].Name != "ISpeak" {
		t.Fatalf("interfaces = %+v", b.Interfaces)
	}
	it := b.Interfaces[0]
	if len(it.Methods) != 1 || it.Methods[0].Name != "speak" || len(it.Implementors) != 2 {
		t.Fatalf("ISpeak = %+v", it)
	}

	var buf bytes.Buffer
	if err := WriteYAML(&buf, b); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"schema: 1", "entry: main", "name: ISpeak", "rule: upcast"} {
		if !strings.Contains(out, want) {
			t.Fatalf("yaml missing %q:\n%s", want, out)
		}
	}
}
