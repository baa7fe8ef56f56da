package version

import (
	"strings"
	"testing"
)

func TestColoredPlain(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	Version = "1.2.3-rc.1"
	if got := Colored(false); got != "1.2.3-rc.1" {
		t.Errorf("Colored(false) = %q", got)
	}
	Version = "weird"
	if got := Colored(true); got != "weird" {
		t.Errorf("non-semver version should pass through, got %q", got)
	}
}

func TestColoredKeepsDigits(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	Version = "2.0.7"
	got := Colored(true)
	for _, part := range []string{"2", "0", "7"} {
		if !strings.Contains(got, part) {
			t.Errorf("Colored(true) = %q lost %q", got, part)
		}
	}
}

func TestString(t *testing.T) {
	origV, origC, origD := Version, GitCommit, BuildDate
	defer func() { Version, GitCommit, BuildDate = origV, origC, origD }()

	Version = "0.1.0"
	GitCommit = "1234567890abcdef1234567890abcdef12345678"
	BuildDate = "2024-01-15"
	want := "viper 0.1.0 (1234567890ab) built 2024-01-15"
	if got := String(false); got != want {
		t.Errorf("String(false) = %q, want %q", got, want)
	}

	GitCommit, BuildDate = "", ""
	if got := String(false); got != "viper 0.1.0" {
		t.Errorf("String(false) = %q", got)
	}
}
