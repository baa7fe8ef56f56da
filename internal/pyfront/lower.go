package pyfront

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
	sitter "github.com/tree-sitter/go-tree-sitter"
	"golang.org/x/text/unicode/norm"

	"viper/internal/ast"
	"viper/internal/diag"
	"viper/internal/source"
)

type lowerer struct {
	src       []byte
	file      source.FileID
	opts      Options
	b         *ast.Builder
	res       *Result
	classBody bool
}

func newLowerer(file *source.File, opts Options) *lowerer {
	b := ast.NewBuilder(ast.Hints{})
	return &lowerer{
		src:  file.Content,
		file: file.ID,
		opts: opts,
		b:    b,
		res:  &Result{Builder: b},
	}
}

func offset(n uint) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("pyfront: offset overflow: %w", err))
	}
	return v
}

func (l *lowerer) span(n *sitter.Node) source.Span {
	if n == nil {
		return source.Span{File: l.file}
	}
	return source.Span{File: l.file, Start: offset(n.StartByte()), End: offset(n.EndByte())}
}

func (l *lowerer) text(n *sitter.Node) string {
	return n.Utf8Text(l.src)
}

// name returns an identifier in NFKC form, as Python compares identifiers.
func (l *lowerer) name(n *sitter.Node) string {
	return norm.NFKC.String(l.text(n))
}

// dottedName joins the identifiers of a dotted_name, attribute or identifier.
func (l *lowerer) dottedName(n *sitter.Node) (string, bool) {
	switch n.Kind() {
	case "identifier":
		return l.name(n), true
	case "dotted_name":
		parts := make([]string, 0, n.NamedChildCount())
		for i := uint(0); i < n.NamedChildCount(); i++ {
			c := n.NamedChild(i)
			if c.Kind() != "identifier" {
				return "", false
			}
			parts = append(parts, l.name(c))
		}
		return strings.Join(parts, "."), len(parts) > 0
	case "attribute":
		head, ok := l.dottedName(n.ChildByFieldName("object"))
		if !ok {
			return "", false
		}
		return head + "." + l.name(n.ChildByFieldName("attribute")), true
	}
	return "", false
}

func (l *lowerer) report(sev diag.Severity, code diag.Code, n *sitter.Node, format string, args ...any) {
	d := diag.New(sev, code, l.span(n), fmt.Sprintf(format, args...))
	d.Module = l.opts.Module
	l.res.Diagnostics = append(l.res.Diagnostics, d)
}

func (l *lowerer) unsupported(n *sitter.Node, what string) {
	l.report(diag.SevError, diag.SynUnsupported, n, "%s is not supported", what)
}

// namedChildren skips comments.
func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := uint(0); i < n.NamedChildCount(); i++ {
		c := n.NamedChild(i)
		if c == nil || c.Kind() == "comment" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// fieldChildren returns every child stored under field, in order.
func fieldChildren(n *sitter.Node, field string) []*sitter.Node {
	var out []*sitter.Node
	for i := uint(0); i < n.ChildCount(); i++ {
		if n.FieldNameForChild(uint32(i)) == field {
			out = append(out, n.Child(i))
		}
	}
	return out
}

// syntaxErrors reports every ERROR and MISSING node without descending
// into an ERROR node already reported.
func (l *lowerer) syntaxErrors(n *sitter.Node) {
	switch {
	case n.IsMissing():
		l.report(diag.SevError, diag.SynParseError, n, "syntax error: expected %s", n.Kind())
		return
	case n.IsError():
		l.report(diag.SevError, diag.SynParseError, n, "syntax error: unexpected %s", errorSnippet(l.text(n)))
		return
	}
	if !n.HasError() {
		return
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		if c := n.Child(i); c != nil {
			l.syntaxErrors(c)
		}
	}
}

func errorSnippet(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if r := []rune(s); len(r) > 24 {
		s = string(r[:24]) + "..."
	}
	if s == "" {
		return "end of input"
	}
	return fmt.Sprintf("%q", s)
}
