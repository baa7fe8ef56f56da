package project

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestModuleKey(t *testing.T) {
	tests := []struct {
		rel     string
		key     string
		pkg     bool
		wantErr bool
	}{
		{"main.py", "main", false, false},
		{"zoo/animals.py", "zoo.animals", false, false},
		{"zoo\\birds\\parrot.py", "zoo.birds.parrot", false, false},
		{"zoo/__init__.py", "zoo", true, false},
		{"/abs/mod.py", "abs.mod", false, false},
		{"__init__.py", "", false, true},
		{"my-mod.py", "", false, true},
		{"a//b.py", "", false, true},
		{"", "", false, true},
	}
	for _, tt := range tests {
		key, pkg, err := ModuleKey(tt.rel)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ModuleKey(%q) = %q, want error", tt.rel, key)
			}
			continue
		}
		if err != nil {
			t.Errorf("ModuleKey(%q) error: %v", tt.rel, err)
			continue
		}
		if key != tt.key || pkg != tt.pkg {
			t.Errorf("ModuleKey(%q) = %q,%v want %q,%v", tt.rel, key, pkg, tt.key, tt.pkg)
		}
	}
}

func TestResolveImport(t *testing.T) {
	tests := []struct {
		from    string
		pkg     bool
		spec    string
		want    string
		wantErr error
	}{
		{"app.main", false, "zoo.animals", "zoo.animals", nil},
		{"app.main", false, ".util", "app.util", nil},
		{"app.main", false, ".", "app", nil},
		{"app.sub.main", false, "..util", "app.util", nil},
		{"app", true, ".util", "app.util", nil},
		{"main", false, ".util", "", ErrRelativeEscape},
		{"app.main", false, "...util", "", ErrRelativeEscape},
	}
	for _, tt := range tests {
		got, err := ResolveImport(tt.from, tt.pkg, tt.spec)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ResolveImport(%q, %q) err = %v, want %v", tt.from, tt.spec, err, tt.wantErr)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ResolveImport(%q, %q) = %q, %v; want %q", tt.from, tt.spec, got, err, tt.want)
		}
	}
}

func TestCombineDependsOnOrder(t *testing.T) {
	var a, b, c Digest
	a[0], b[0], c[0] = 1, 2, 3
	if Combine(a, b, c) == Combine(a, c, b) {
		t.Fatalf("dependency order must change the digest")
	}
	if got := len(Combine(a).Short()); got != 12 {
		t.Fatalf("short digest length = %d", got)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifestWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ManifestName), `
[package]
name = "zoo"

[build]
entry = "app.main"
jobs = 4

[diagnostics]
warnings_as_errors = true
`)
	nested := filepath.Join(root, "app", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	m, ok, err := LoadManifest(nested)
	if err != nil || !ok {
		t.Fatalf("LoadManifest: ok=%v err=%v", ok, err)
	}
	if m.Root != root {
		t.Fatalf("root = %q, want %q", m.Root, root)
	}
	cfg := m.Config
	if cfg.Package.Name != "zoo" || cfg.Build.Entry != "app.main" || cfg.Build.Jobs != 4 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Build.MaxIterations != DefaultMaxIterations || !cfg.Diagnostics.Reporting || !cfg.Diagnostics.WarningsAsErrors {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadManifestMissing(t *testing.T) {
	m, ok, err := LoadManifest(t.TempDir())
	if err != nil || ok || m != nil {
		t.Fatalf("LoadManifest = %v, %v, %v; want nil, false, nil", m, ok, err)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"unknown key":    "[build]\nentrypoint = \"x\"\n",
		"empty name":     "[package]\nname = \"\"\n",
		"zero iteration": "[build]\nmax_iterations = 0\n",
		"bad toml":       "[build\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ManifestName)
			writeFile(t, path, body)
			if _, err := LoadConfig(path); err == nil || !strings.Contains(err.Error(), path) {
				t.Fatalf("LoadConfig err = %v", err)
			}
		})
	}
}
