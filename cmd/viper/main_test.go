package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"viper/internal/bundle"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--color", "off"}, args...))
	err := root.Execute()
	return out.String(), err
}

const widening = "def f(x: float) -> float:\n    return x\n\nf(1)\n"

func TestCheckShortFormat(t *testing.T) {
	dir := writeTree(t, map[string]string{"main.py": widening})
	out, err := execute(t, "check", "--format", "short", dir)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(out, "warning CST5001") || !strings.Contains(out, "main.py:4:3") {
		t.Fatalf("output = %q", out)
	}
}

func TestCheckHaltsOnLiveError(t *testing.T) {
	dir := writeTree(t, map[string]string{"main.py": "x = 1 + \"a\"\n"})
	out, err := execute(t, "check", "--format", "short", dir)
	if !errors.Is(err, errHalted) {
		t.Fatalf("err = %v, output = %q", err, out)
	}
	if !strings.Contains(out, "error INF4010") {
		t.Fatalf("output = %q", out)
	}
}

func TestCheckNoReport(t *testing.T) {
	dir := writeTree(t, map[string]string{"main.py": "x = 1 + \"a\"\n"})
	out, err := execute(t, "check", "--no-report", "--quiet", dir)
	if err != nil || out != "" {
		t.Fatalf("err = %v, output = %q", err, out)
	}
}

func TestManifestEntry(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"viper.toml": "[package]\nname = \"demo\"\n\n[build]\nentry = \"app\"\n",
		"app.py":     "from helpers import greet\ngreet(\"x\")\n",
		"helpers.py": "def greet(name: str) -> str:\n    return name\n",
	})
	out, err := execute(t, "check", dir)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	if !strings.Contains(out, "entry app") {
		t.Fatalf("output = %q", out)
	}
}

func TestBuildWritesBundle(t *testing.T) {
	dir := writeTree(t, map[string]string{"main.py": widening})
	target := filepath.Join(t.TempDir(), "main.vpb")
	if _, err := execute(t, "build", "--quiet", "-o", target, "--emit-yaml", dir); err != nil {
		t.Fatalf("build: %v", err)
	}
	b, err := bundle.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if b.Entry != "main" || len(b.Modules) != 1 || len(b.Modules[0].Coercions) != 1 {
		t.Fatalf("bundle = %+v", b)
	}
	if _, err := os.Stat(strings.TrimSuffix(target, ".vpb") + ".yaml"); err != nil {
		t.Fatalf("yaml dump: %v", err)
	}
}

func TestBuildSkipsOutputWhenHalted(t *testing.T) {
	dir := writeTree(t, map[string]string{"main.py": "x = 1 + \"a\"\n"})
	target := filepath.Join(t.TempDir(), "main.vpb")
	if _, err := execute(t, "build", "-o", target, dir); !errors.Is(err, errHalted) {
		t.Fatalf("err = %v", err)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Fatalf("bundle written despite halt: %v", err)
	}
}

func TestGraph(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"main.py":        "import zoo.animals\n",
		"zoo/animals.py": "class Dog:\n    pass\n",
	})
	out, err := execute(t, "graph", dir)
	if err != nil {
		t.Fatalf("graph: %v", err)
	}
	if !strings.Contains(out, "zoo.animals") || !strings.Contains(out, ": main") {
		t.Fatalf("output = %q", out)
	}

	cyclic := writeTree(t, map[string]string{"a.py": "import b\n", "b.py": "import a\n"})
	out, err = execute(t, "graph", cyclic)
	if !errors.Is(err, errHalted) || !strings.Contains(out, "cycle: a -> b -> a") {
		t.Fatalf("err = %v, output = %q", err, out)
	}
}

func TestVersionJSON(t *testing.T) {
	out, err := execute(t, "version", "--format", "json")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"tool": "viper"`) {
		t.Fatalf("output = %q", out)
	}
}

func TestColorFlag(t *testing.T) {
	if _, err := useColor("sometimes", nil); err == nil {
		t.Fatal("invalid --color value accepted")
	}
	on, err := useColor("on", nil)
	if err != nil || !on {
		t.Fatalf("on = %v, %v", on, err)
	}
	auto, err := useColor("auto", &bytes.Buffer{})
	if err != nil || auto {
		t.Fatalf("auto on a buffer = %v, %v", auto, err)
	}
}
