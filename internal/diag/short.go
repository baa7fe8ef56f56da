package diag

import (
	"fmt"
	"sort"
	"strings"

	"viper/internal/source"
)

type shortDiagnostic struct {
	Severity string
	Code     string
	Path     string
	Line     uint32
	Column   uint32
	Reach    string
	Message  string
}

// FormatShort renders diagnostics into a stable, single-line-per-entry
// representation: "severity CODE path:line:col [reach] message".
// Used by the CLI short format and by tests as a golden form.
func FormatShort(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	if len(diags) == 0 {
		return ""
	}
	rendered := make([]shortDiagnostic, 0, len(diags))
	for i := range diags {
		rendered = appendShort(rendered, &diags[i], fs, includeNotes)
	}

	sort.SliceStable(rendered, func(i, j int) bool {
		di, dj := rendered[i], rendered[j]
		if di.Path != dj.Path {
			return di.Path < dj.Path
		}
		if di.Line != dj.Line {
			return di.Line < dj.Line
		}
		if di.Column != dj.Column {
			return di.Column < dj.Column
		}
		return di.Code < dj.Code
	})

	var b strings.Builder
	for i, d := range rendered {
		fmt.Fprintf(&b, "%s %s %s:%d:%d", d.Severity, d.Code, d.Path, d.Line, d.Column)
		if d.Reach != "" {
			fmt.Fprintf(&b, " [%s]", d.Reach)
		}
		b.WriteByte(' ')
		b.WriteString(d.Message)
		if i < len(rendered)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func appendShort(out []shortDiagnostic, d *Diagnostic, fs *source.FileSet, includeNotes bool) []shortDiagnostic {
	path, line, col := resolveShort(fs, d.Primary, d.Module)
	reach := ""
	if d.Severity == SevError {
		reach = d.Reachability.String()
	}
	out = append(out, shortDiagnostic{
		Severity: SeverityLabel(d.Severity),
		Code:     d.Code.ID(),
		Path:     path,
		Line:     line,
		Column:   col,
		Reach:    reach,
		Message:  sanitizeMessage(d.Message),
	})
	if includeNotes {
		for _, note := range d.Notes {
			np, nl, nc := resolveShort(fs, note.Span, d.Module)
			out = append(out, shortDiagnostic{
				Severity: "note",
				Code:     d.Code.ID(),
				Path:     np,
				Line:     nl,
				Column:   nc,
				Message:  sanitizeMessage(note.Msg),
			})
		}
	}
	return out
}

func resolveShort(fs *source.FileSet, span source.Span, module string) (path string, line, col uint32) {
	if fs != nil {
		if pos, ok := fs.Resolve(span); ok {
			return pos.Path, pos.Start.Line, pos.Start.Col
		}
	}
	// синтетические узлы и диагностики без файла: модуль вместо пути
	if module == "" {
		module = "<unknown>"
	}
	return module, 0, 0
}

// SeverityLabel is the lower-case severity used in one-line output.
func SeverityLabel(sev Severity) string {
	switch sev {
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	default:
		return "info"
	}
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
