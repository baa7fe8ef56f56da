// Package bundle serialises a finished compilation into a self-contained
// artifact: solved signatures, flattened classes, inserted coercions, the
// interface registry and the surfaced diagnostics. The binary form is
// msgpack; a YAML dump of the same structure is available for inspection.
package bundle

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"viper/internal/diag"
	"viper/internal/driver"
	"viper/internal/source"
	"viper/internal/types"
)

// SchemaVersion is bumped whenever the layout below changes incompatibly.
const SchemaVersion uint16 = 1

var ErrSchemaMismatch = errors.New("bundle: schema version mismatch")

type Bundle struct {
	Schema      uint16       `msgpack:"schema" yaml:"schema"`
	Session     string       `msgpack:"session" yaml:"session"`
	Entry       string       `msgpack:"entry" yaml:"entry"`
	Halted      bool         `msgpack:"halted" yaml:"halted"`
	Modules     []Module     `msgpack:"modules" yaml:"modules"`
	Interfaces  []Interface  `msgpack:"interfaces" yaml:"interfaces,omitempty"`
	Diagnostics []Diagnostic `msgpack:"diagnostics" yaml:"diagnostics,omitempty"`
}

type Module struct {
	Name      string     `msgpack:"name" yaml:"name"`
	Hash      string     `msgpack:"hash" yaml:"hash"`
	Library   bool       `msgpack:"library" yaml:"library"`
	Skipped   bool       `msgpack:"skipped" yaml:"skipped,omitempty"`
	Broken    bool       `msgpack:"broken" yaml:"broken,omitempty"`
	Classes   []Class    `msgpack:"classes" yaml:"classes,omitempty"`
	Functions []Function `msgpack:"functions" yaml:"functions,omitempty"`
	Coercions []Coercion `msgpack:"coercions" yaml:"coercions,omitempty"`
}

// Class is a class with its inherited members already copied in.
type Class struct {
	Name       string   `msgpack:"name" yaml:"name"`
	TypeParams []string `msgpack:"type_params" yaml:"type_params,omitempty"`
	Bases      []string `msgpack:"bases" yaml:"bases,omitempty"`
	Fields     []Member `msgpack:"fields" yaml:"fields,omitempty"`
	Methods    []Member `msgpack:"methods" yaml:"methods,omitempty"`
}

type Member struct {
	Name   string `msgpack:"name" yaml:"name"`
	Type   string `msgpack:"type" yaml:"type"`
	Origin string `msgpack:"origin" yaml:"origin,omitempty"`
}

type Function struct {
	Name      string  `msgpack:"name" yaml:"name"`
	Params    []Param `msgpack:"params" yaml:"params,omitempty"`
	Result    string  `msgpack:"result" yaml:"result"`
	Async     bool    `msgpack:"async" yaml:"async,omitempty"`
	Generator bool    `msgpack:"generator" yaml:"generator,omitempty"`
}

type Param struct {
	Name string `msgpack:"name" yaml:"name"`
	Type string `msgpack:"type" yaml:"type"`
}

type Coercion struct {
	Pos  Pos    `msgpack:"pos" yaml:"pos"`
	From string `msgpack:"from" yaml:"from"`
	To   string `msgpack:"to" yaml:"to"`
	Rule string `msgpack:"rule" yaml:"rule"`
}

type Interface struct {
	Name         string   `msgpack:"name" yaml:"name"`
	Methods      []Member `msgpack:"methods" yaml:"methods"`
	Implementors []string `msgpack:"implementors" yaml:"implementors,omitempty"`
	Origin       string   `msgpack:"origin" yaml:"origin,omitempty"`
}

type Diagnostic struct {
	Severity string `msgpack:"severity" yaml:"severity"`
	Code     string `msgpack:"code" yaml:"code"`
	Message  string `msgpack:"message" yaml:"message"`
	Module   string `msgpack:"module" yaml:"module,omitempty"`
	Reach    string `msgpack:"reach" yaml:"reach"`
	Pos      Pos    `msgpack:"pos" yaml:"pos"`
	Notes    []Note `msgpack:"notes" yaml:"notes,omitempty"`
}

type Note struct {
	Pos     Pos    `msgpack:"pos" yaml:"pos"`
	Message string `msgpack:"message" yaml:"message"`
}

// Pos is a resolved source position; Line and Col are 1-based.
type Pos struct {
	Path string `msgpack:"path" yaml:"path,omitempty"`
	Line uint32 `msgpack:"line" yaml:"line,omitempty"`
	Col  uint32 `msgpack:"col" yaml:"col,omitempty"`
}

// FromResult builds a bundle from a compilation. fs resolves spans to
// positions and may be nil, in which case positions stay empty.
func FromResult(res *driver.Result, fs *source.FileSet) *Bundle {
	b := &Bundle{
		Schema:  SchemaVersion,
		Session: res.Session,
		Entry:   res.Entry,
		Halted:  res.Halted,
	}
	in := res.Interner
	for _, m := range res.Modules {
		b.Modules = append(b.Modules, module(in, fs, m))
	}
	if res.Registry != nil {
		for _, it := range res.Registry.Interfaces() {
			entry := Interface{
				Name:         it.Name,
				Implementors: append([]string(nil), it.Implementors...),
				Origin:       it.Origin,
			}
			for _, m := range it.Methods {
				entry.Methods = append(entry.Methods, Member{Name: m.Name, Type: in.Format(m.Fn)})
			}
			b.Interfaces = append(b.Interfaces, entry)
		}
	}
	for i := range res.Surfaced {
		b.Diagnostics = append(b.Diagnostics, diagnostic(fs, &res.Surfaced[i]))
	}
	return b
}

func module(in *types.Interner, fs *source.FileSet, m *driver.Module) Module {
	out := Module{
		Name:    m.Name,
		Hash:    m.Meta.ModuleHash.String(),
		Library: m.Library,
		Skipped: m.Skipped,
		Broken:  m.Broken,
	}
	t := m.Tree
	if t == nil {
		return out
	}
	for _, ref := range t.Classes {
		info := in.ClassInfo(ref)
		if info == nil {
			continue
		}
		c := Class{Name: info.Name, Bases: append([]string(nil), info.Bases...)}
		for _, p := range info.Params {
			c.TypeParams = append(c.TypeParams, in.Format(p))
		}
		for _, f := range info.Fields {
			c.Fields = append(c.Fields, member(in, info, f))
		}
		for _, meth := range info.Methods {
			c.Methods = append(c.Methods, member(in, info, meth))
		}
		out.Classes = append(out.Classes, c)
	}
	for _, sig := range t.Signatures() {
		if sig.Class != types.NoClassRef {
			continue
		}
		fn := Function{
			Name:      sig.Name,
			Result:    in.Format(sig.Result),
			Async:     sig.Async,
			Generator: sig.Generator,
		}
		for i, p := range sig.Params {
			name := ""
			if i < len(sig.ParamNames) {
				name = sig.ParamNames[i]
			}
			fn.Params = append(fn.Params, Param{Name: name, Type: in.Format(p)})
		}
		out.Functions = append(out.Functions, fn)
	}
	for _, c := range t.Coercions {
		out.Coercions = append(out.Coercions, Coercion{
			Pos:  position(fs, c.Span),
			From: in.Format(c.From),
			To:   in.Format(c.To),
			Rule: c.Rule,
		})
	}
	return out
}

func member(in *types.Interner, owner *types.ClassInfo, m types.Member) Member {
	out := Member{Name: m.Name, Type: in.Format(m.Type)}
	if m.Origin != "" && m.Origin != owner.Name {
		out.Origin = m.Origin
	}
	return out
}

func diagnostic(fs *source.FileSet, d *diag.Diagnostic) Diagnostic {
	out := Diagnostic{
		Severity: d.Severity.String(),
		Code:     d.Code.ID(),
		Message:  d.Message,
		Module:   d.Module,
		Reach:    d.Reachability.String(),
		Pos:      position(fs, d.Primary),
	}
	for _, n := range d.Notes {
		out.Notes = append(out.Notes, Note{Pos: position(fs, n.Span), Message: n.Msg})
	}
	return out
}

func position(fs *source.FileSet, span source.Span) Pos {
	if fs == nil {
		return Pos{}
	}
	p, ok := fs.Resolve(span)
	if !ok {
		return Pos{}
	}
	return Pos{Path: p.Path, Line: p.Start.Line, Col: p.Start.Col}
}

// Write encodes b as msgpack.
func Write(w io.Writer, b *Bundle) error {
	if err := msgpack.NewEncoder(w).Encode(b); err != nil {
		return fmt.Errorf("bundle: encode: %w", err)
	}
	return nil
}

// Read decodes a msgpack bundle and rejects foreign schema versions.
func Read(r io.Reader) (*Bundle, error) {
	var b Bundle
	if err := msgpack.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("bundle: decode: %w", err)
	}
	if b.Schema != SchemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSchemaMismatch, b.Schema, SchemaVersion)
	}
	return &b, nil
}

// WriteFile stores b at path atomically: temp file in the same directory,
// then rename.
func WriteFile(path string, b *Bundle) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("bundle: %w", err)
	}
	f, err := os.CreateTemp(dir, ".vpb-*")
	if err != nil {
		return fmt.Errorf("bundle: %w", err)
	}
	tmp := f.Name()
	if err := Write(f, b); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("bundle: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("bundle: %w", err)
	}
	return nil
}

func ReadFile(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("bundle: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// WriteYAML dumps b as YAML with two-space indentation.
func WriteYAML(w io.Writer, b *Bundle) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("bundle: yaml: %w", err)
	}
	return enc.Close()
}
