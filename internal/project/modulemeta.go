package project

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"viper/internal/source"
)

type ImportMeta struct {
	Path string // ключ импортируемого модуля: "a.b"
	Span source.Span
}

type ModuleMeta struct {
	Name        string       // последний сегмент ключа
	Path        string       // ключ модуля: "pkg.sub.mod"
	File        source.FileID
	Package     bool         // модуль задан файлом __init__.py
	Span        source.Span  // span всего файла
	Imports     []ImportMeta // разрешённые ключи импортов с их спанами
	ContentHash Digest       // хеш содержимого файла (из FileSet)
	ModuleHash  Digest       // агрегированный хеш модуля с учётом зависимостей
}

var (
	ErrEmptyModulePath = errors.New("empty module path")
	ErrRelativeEscape  = errors.New("relative import beyond top-level package")
)

// IsValidModuleIdent reports whether name can be one segment of a module key.
func IsValidModuleIdent(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if i == 0 && r != '_' && !unicode.IsLetter(r) {
			return false
		}
		if i > 0 && r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// ModuleKey turns a path relative to the project root into a module key.
// "pkg/sub/mod.py" becomes "pkg.sub.mod"; "pkg/__init__.py" becomes "pkg"
// with isPackage set.
func ModuleKey(rel string) (key string, isPackage bool, err error) {
	rel = strings.TrimSuffix(rel, ".py")
	rel = strings.ReplaceAll(rel, "\\", "/")
	rel = strings.TrimLeft(rel, "/")
	if rel == "" {
		return "", false, ErrEmptyModulePath
	}
	segments := strings.Split(rel, "/")
	if last := segments[len(segments)-1]; last == "__init__" {
		segments = segments[:len(segments)-1]
		isPackage = true
		if len(segments) == 0 {
			return "", false, fmt.Errorf("%q: top-level __init__ has no module key", rel)
		}
	}
	for _, seg := range segments {
		if !IsValidModuleIdent(seg) {
			return "", false, fmt.Errorf("invalid module path %q: segment %q is not an identifier", rel, seg)
		}
	}
	return strings.Join(segments, "."), isPackage, nil
}

// ResolveImport resolves the module named in an import statement of module
// from. Leading dots make the import relative: one dot is the package that
// contains from (from itself when it is a package), each further dot goes up
// one level.
func ResolveImport(from string, fromIsPackage bool, spec string) (string, error) {
	level := 0
	for level < len(spec) && spec[level] == '.' {
		level++
	}
	rest := spec[level:]
	var tail []string
	if rest != "" {
		tail = strings.Split(rest, ".")
		for _, seg := range tail {
			if !IsValidModuleIdent(seg) {
				return "", fmt.Errorf("invalid module name %q", spec)
			}
		}
	}
	if level == 0 {
		if len(tail) == 0 {
			return "", ErrEmptyModulePath
		}
		return rest, nil
	}

	var base []string
	if from != "" {
		base = strings.Split(from, ".")
	}
	if !fromIsPackage {
		if len(base) == 0 {
			return "", ErrRelativeEscape
		}
		base = base[:len(base)-1]
	}
	for range level - 1 {
		if len(base) == 0 {
			return "", ErrRelativeEscape
		}
		base = base[:len(base)-1]
	}
	if len(base) == 0 {
		return "", ErrRelativeEscape
	}
	target := append(append([]string(nil), base...), tail...)
	return strings.Join(target, "."), nil
}

// AnnotationOnly reports whether path names a typing helper module. Such
// imports bring annotation names only and stay out of the import graph.
func AnnotationOnly(path string) bool {
	switch path {
	case "typing", "typing_extensions", "__future__", "abc", "collections.abc":
		return true
	}
	return false
}
