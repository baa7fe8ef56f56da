package diagfmt

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format selects a diagnostics renderer.
type Format uint8

const (
	FormatPretty Format = iota
	FormatShort
	FormatJSON
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatShort:
		return "short"
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return "pretty"
	}
}

// ParseFormat maps a --format value onto a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pretty":
		return FormatPretty, nil
	case "short":
		return FormatShort, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return FormatPretty, fmt.Errorf("unknown diagnostics format %q (want pretty, short, json or yaml)", s)
}

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto shows paths relative to Root when they lie under it.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths.
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

func ParsePathMode(s string) (PathMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return PathModeAuto, nil
	case "absolute", "abs":
		return PathModeAbsolute, nil
	case "relative", "rel":
		return PathModeRelative, nil
	case "basename", "base":
		return PathModeBasename, nil
	}
	return PathModeAuto, fmt.Errorf("unknown path mode %q", s)
}

// Options configures every renderer; each one reads the fields it needs.
type Options struct {
	Color    bool
	Context  int // строк контекста перед строкой с ошибкой
	PathMode PathMode
	Root     string
	Width    int // максимальная ширина строки, 0 - не ограничено
	Notes    bool
	// IncludePositions adds line/col to machine formats.
	IncludePositions bool
	Max              int // обрезка вывода, не Bag
}

func (o Options) path(p string) string {
	if p == "" {
		return p
	}
	switch o.PathMode {
	case PathModeBasename:
		return filepath.Base(p)
	case PathModeAbsolute:
		if abs, err := filepath.Abs(p); err == nil {
			return abs
		}
		return p
	case PathModeRelative:
		base := o.Root
		if base == "" {
			base = "."
		}
		if rel, err := relative(base, p); err == nil {
			return rel
		}
		return p
	default:
		if o.Root == "" {
			return p
		}
		if rel, err := relative(o.Root, p); err == nil && !strings.HasPrefix(rel, "..") {
			return rel
		}
		return p
	}
}

func relative(base, p string) (string, error) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", err
	}
	absP, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return filepath.Rel(absBase, absP)
}
