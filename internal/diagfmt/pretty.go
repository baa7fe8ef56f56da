package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"viper/internal/diag"
	"viper/internal/source"
)

const tabWidth = 4

type palette struct {
	err, warn, info, note, gutter, caret, dim *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		note:   color.New(color.FgCyan),
		gutter: color.New(color.FgBlue, color.Bold),
		caret:  color.New(color.FgRed, color.Bold),
		dim:    color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.gutter, p.caret, p.dim} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид:
//
//	<path>:<line>:<col>: <sev> <CODE>: <message> [dead-path]
//	   4 | f(1)
//	     |   ^
//
// затем Notes в том же формате. Ширина подчёркивания считается по
// отображаемой ширине символов, табы разворачиваются в пробелы.
func Pretty(w io.Writer, diags []diag.Diagnostic, fs *source.FileSet, opts Options) error {
	p := newPalette(opts.Color)
	var b strings.Builder
	for i := range limit(diags, opts.Max) {
		d := &diags[i]
		if i > 0 {
			b.WriteByte('\n')
		}
		pos, hasPos := resolve(fs, d.Primary)
		b.WriteString(header(pos, hasPos, d.Module, opts))
		b.WriteString(p.severity(d.Severity).Sprint(diag.SeverityLabel(d.Severity) + " " + d.Code.ID()))
		b.WriteString(": ")
		b.WriteString(d.Message)
		if d.Severity == diag.SevError && d.Reachability == diag.DeadPath {
			b.WriteString(p.dim.Sprint(" [" + d.Reachability.String() + "]"))
		}
		b.WriteByte('\n')
		if hasPos {
			snippet(&b, fs.Get(d.Primary.File), pos, opts, p)
		}
		if !opts.Notes {
			continue
		}
		for _, n := range d.Notes {
			npos, ok := resolve(fs, n.Span)
			b.WriteString("  ")
			b.WriteString(p.note.Sprint("note"))
			b.WriteString(": ")
			if ok {
				b.WriteString(header(npos, true, d.Module, opts))
			}
			b.WriteString(n.Msg)
			b.WriteByte('\n')
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func limit(diags []diag.Diagnostic, maxItems int) int {
	if maxItems > 0 && maxItems < len(diags) {
		return maxItems
	}
	return len(diags)
}

func resolve(fs *source.FileSet, span source.Span) (source.Position, bool) {
	if fs == nil || span.File == source.NoFileID {
		return source.Position{}, false
	}
	return fs.Resolve(span)
}

func header(pos source.Position, ok bool, module string, opts Options) string {
	if !ok {
		if module == "" {
			module = "<unknown>"
		}
		return module + ": "
	}
	return fmt.Sprintf("%s:%d:%d: ", opts.path(pos.Path), pos.Start.Line, pos.Start.Col)
}

func snippet(b *strings.Builder, f *source.File, pos source.Position, opts Options, p palette) {
	if f == nil || pos.Start.Line == 0 {
		return
	}
	first := pos.Start.Line
	if opts.Context > 0 {
		back := uint32(opts.Context) //nolint:gosec // small positive flag value
		if back >= first {
			first = 1
		} else {
			first -= back
		}
	}
	gw := len(strconv.FormatUint(uint64(pos.Start.Line), 10))
	for n := first; n <= pos.Start.Line; n++ {
		line := expandTabs(f.Line(n))
		if opts.Width > 0 {
			line = runewidth.Truncate(line, opts.Width, "…")
		}
		fmt.Fprintf(b, " %s %s\n", p.gutter.Sprintf("%*d |", gw, n), line)
	}

	raw := f.Line(pos.Start.Line)
	startCol := int(pos.Start.Col) - 1
	startCol = max(0, min(startCol, len(raw)))
	endCol := len(raw)
	if pos.End.Line == pos.Start.Line {
		endCol = max(startCol, min(int(pos.End.Col)-1, len(raw)))
	}
	pad := runewidth.StringWidth(expandTabs(raw[:startCol]))
	width := max(1, runewidth.StringWidth(expandTabs(raw[startCol:endCol])))
	if opts.Width > 0 && pad+width > opts.Width {
		width = max(1, opts.Width-pad)
	}
	fmt.Fprintf(b, " %s %s%s\n", p.gutter.Sprintf("%*s |", gw, ""), strings.Repeat(" ", pad), p.caret.Sprint("^"+strings.Repeat("~", width-1)))
}

func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}
