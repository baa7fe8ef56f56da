package diagfmt

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"viper/internal/diag"
	"viper/internal/source"
)

// Location is a span in machine-readable output.
type Location struct {
	File      string `json:"file" yaml:"file"`
	StartByte uint32 `json:"start_byte" yaml:"start_byte"`
	EndByte   uint32 `json:"end_byte" yaml:"end_byte"`
	StartLine uint32 `json:"start_line,omitempty" yaml:"start_line,omitempty"`
	StartCol  uint32 `json:"start_col,omitempty" yaml:"start_col,omitempty"`
	EndLine   uint32 `json:"end_line,omitempty" yaml:"end_line,omitempty"`
	EndCol    uint32 `json:"end_col,omitempty" yaml:"end_col,omitempty"`
}

type Note struct {
	Message  string   `json:"message" yaml:"message"`
	Location Location `json:"location" yaml:"location"`
}

type Entry struct {
	Severity     string   `json:"severity" yaml:"severity"`
	Code         string   `json:"code" yaml:"code"`
	Message      string   `json:"message" yaml:"message"`
	Module       string   `json:"module,omitempty" yaml:"module,omitempty"`
	Reachability string   `json:"reachability" yaml:"reachability"`
	Location     Location `json:"location" yaml:"location"`
	Notes        []Note   `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Output is the root of JSON and YAML output.
type Output struct {
	Diagnostics []Entry `json:"diagnostics" yaml:"diagnostics"`
	Count       int     `json:"count" yaml:"count"`
	Errors      int     `json:"errors" yaml:"errors"`
	Warnings    int     `json:"warnings" yaml:"warnings"`
}

func location(span source.Span, fs *source.FileSet, opts Options) Location {
	loc := Location{StartByte: span.Start, EndByte: span.End}
	pos, ok := resolve(fs, span)
	if !ok {
		return loc
	}
	loc.File = opts.path(pos.Path)
	if opts.IncludePositions {
		loc.StartLine, loc.StartCol = pos.Start.Line, pos.Start.Col
		loc.EndLine, loc.EndCol = pos.End.Line, pos.End.Col
	}
	return loc
}

// Build собирает структуру вывода без сериализации.
func Build(diags []diag.Diagnostic, fs *source.FileSet, opts Options) Output {
	n := limit(diags, opts.Max)
	out := Output{Diagnostics: make([]Entry, 0, n)}
	for i := range n {
		d := &diags[i]
		e := Entry{
			Severity:     d.Severity.String(),
			Code:         d.Code.ID(),
			Message:      d.Message,
			Module:       d.Module,
			Reachability: d.Reachability.String(),
			Location:     location(d.Primary, fs, opts),
		}
		if e.Location.File == "" {
			e.Location.File = d.Module
		}
		if opts.Notes {
			for _, note := range d.Notes {
				e.Notes = append(e.Notes, Note{Message: note.Msg, Location: location(note.Span, fs, opts)})
			}
		}
		switch d.Severity {
		case diag.SevError:
			out.Errors++
		case diag.SevWarning:
			out.Warnings++
		}
		out.Diagnostics = append(out.Diagnostics, e)
	}
	out.Count = len(out.Diagnostics)
	return out
}

// JSON writes diagnostics as an indented JSON document.
func JSON(w io.Writer, diags []diag.Diagnostic, fs *source.FileSet, opts Options) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Build(diags, fs, opts))
}

// YAML writes the same document as JSON does, in YAML.
func YAML(w io.Writer, diags []diag.Diagnostic, fs *source.FileSet, opts Options) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Build(diags, fs, opts)); err != nil {
		return err
	}
	return enc.Close()
}

// Short writes the one-line-per-diagnostic form.
func Short(w io.Writer, diags []diag.Diagnostic, fs *source.FileSet, opts Options) error {
	s := diag.FormatShort(diags[:limit(diags, opts.Max)], fs, opts.Notes)
	if s == "" {
		return nil
	}
	_, err := io.WriteString(w, s+"\n")
	return err
}

// Render dispatches on f.
func Render(w io.Writer, f Format, diags []diag.Diagnostic, fs *source.FileSet, opts Options) error {
	switch f {
	case FormatShort:
		return Short(w, diags, fs, opts)
	case FormatJSON:
		return JSON(w, diags, fs, opts)
	case FormatYAML:
		return YAML(w, diags, fs, opts)
	default:
		return Pretty(w, diags, fs, opts)
	}
}
