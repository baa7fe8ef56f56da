// Package pyfront turns Python source into the arena tree the checker
// consumes. Parsing is done by tree-sitter with the Python grammar; the
// lowering keeps only the constructs the checker understands and reports
// the rest as unsupported.
package pyfront

import (
	"errors"
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"viper/internal/ast"
	"viper/internal/diag"
	"viper/internal/project"
	"viper/internal/source"
)

// Options describe the module being parsed.
type Options struct {
	Module  string // ключ модуля, "zoo.animals"
	Package bool   // файл __init__.py
}

// Result is one lowered module.
type Result struct {
	Builder     *ast.Builder
	File        ast.FileID
	Imports     []project.ImportMeta
	Diagnostics []diag.Diagnostic
}

// Parser wraps a tree-sitter parser. It is not safe for concurrent use;
// give each goroutine its own.
type Parser struct {
	p *sitter.Parser
}

var errNilParser = errors.New("pyfront: nil parser")

func NewParser() (*Parser, error) {
	p := sitter.NewParser()
	if err := p.SetLanguage(sitter.NewLanguage(python.Language())); err != nil {
		p.Close()
		return nil, fmt.Errorf("pyfront: %w", err)
	}
	return &Parser{p: p}, nil
}

// Close releases parser resources.
func (p *Parser) Close() {
	if p == nil || p.p == nil {
		return
	}
	p.p.Close()
	p.p = nil
}

// Parse lowers file into a fresh builder. Syntax errors and unsupported
// constructs become diagnostics; the returned tree holds everything that
// could be lowered.
func (p *Parser) Parse(file *source.File, opts Options) (*Result, error) {
	if p == nil || p.p == nil {
		return nil, errNilParser
	}
	tree := p.p.Parse(file.Content, nil)
	if tree == nil {
		return nil, fmt.Errorf("pyfront: %s: parser returned no tree", file.Path)
	}
	defer tree.Close()

	root := tree.RootNode()
	l := newLowerer(file, opts)
	if root.HasError() {
		l.syntaxErrors(root)
	}
	l.res.File = l.b.NewFile(l.span(root), opts.Module)
	for _, st := range l.block(root) {
		l.b.PushStmt(l.res.File, st)
	}
	return l.res, nil
}

// ParseFile is Parse with a throwaway parser.
func ParseFile(file *source.File, opts Options) (*Result, error) {
	p, err := NewParser()
	if err != nil {
		return nil, err
	}
	defer p.Close()
	return p.Parse(file, opts)
}
