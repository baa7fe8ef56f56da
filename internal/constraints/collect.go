package constraints

import (
	"fmt"

	"viper/internal/ast"
	"viper/internal/diag"
	"viper/internal/reach"
	"viper/internal/source"
	"viper/internal/symbols"
	"viper/internal/types"
)

// Options configures a collection run over one module.
type Options struct {
	Module string
	// Imports maps module keys to the exports of already analysed modules.
	Imports map[string]*Exports
}

// FuncInfo is the signature skeleton of a function or method. All types are
// inference variables until the module is solved.
type FuncInfo struct {
	Item       ast.ItemID
	Name       string
	Class      types.ClassRef
	ClassItem  ast.ItemID
	Self       types.TypeID
	Params     []types.TypeID // без self
	ParamNames []string
	Result     types.TypeID // куда текут return
	Yield      types.TypeID // для генераторов
	Type       types.TypeID // тип функции для вызывающих
	Generator  bool
	Async      bool
	Scope      symbols.ScopeID
}

// CallResult is what a call of the function evaluates to.
func (f *FuncInfo) CallResult(in *types.Interner) types.TypeID {
	info, _ := in.FnInfo(f.Type)
	return info.Result
}

// Result bundles everything collection produced for one module.
type Result struct {
	Set        *Set
	Scopes     *symbols.Manager
	Root       symbols.ScopeID
	Graph      *reach.Graph
	Funcs      map[ast.ItemID]*FuncInfo
	Classes    []types.ClassRef
	ClassItems map[types.ClassRef]ast.ItemID
	Findings   []Finding
}

type classCtx struct {
	ref    types.ClassRef
	item   ast.ItemID
	params map[string]types.TypeID
}

type collector struct {
	b    *ast.Builder
	in   *types.Interner
	bi   types.Builtins
	opts Options
	res  *Result
	sc   *symbols.Manager

	fn       *FuncInfo // nil на уровне модуля
	stmt     ast.StmtID
	class    *classCtx
	assigned map[symbols.BindingID]bool
	loops    int
	classes  map[ast.ItemID]types.ClassRef
}

// Collect walks one module's tree and produces its constraint set. It never
// fails: problems become findings.
func Collect(b *ast.Builder, file ast.FileID, in *types.Interner, opts Options) *Result {
	c := &collector{
		b:    b,
		in:   in,
		bi:   in.Builtins(),
		opts: opts,
		sc:   symbols.NewManager(in.Builtins().None),
		res: &Result{
			Set:        NewSet(),
			Graph:      reach.NewGraph(),
			Funcs:      make(map[ast.ItemID]*FuncInfo),
			ClassItems: make(map[types.ClassRef]ast.ItemID),
		},
		assigned: make(map[symbols.BindingID]bool),
		classes:  make(map[ast.ItemID]types.ClassRef),
	}
	c.res.Scopes = c.sc

	f := b.File(file)
	if f == nil {
		return c.res
	}
	c.sc.EnterScope(symbols.ScopeModule, ast.NoItemID, source.NoSpan)
	c.declareBuiltins()
	c.res.Root = c.sc.EnterScope(symbols.ScopeModule, ast.NoItemID, f.Span)
	c.hoist(f.Body)
	c.stmts(f.Body)
	c.sc.ExitScope()
	c.sc.ExitScope()
	return c.res
}

func (c *collector) origin() Origin {
	o := Origin{Stmt: c.stmt}
	if c.fn != nil {
		o.Fn = c.fn.Item
	}
	return o
}

func (c *collector) fnItem() ast.ItemID {
	if c.fn == nil {
		return ast.NoItemID
	}
	return c.fn.Item
}

func (c *collector) add(k Constraint) {
	k.Origin = c.origin()
	c.res.Set.Add(k)
}

func (c *collector) equal(a, b types.TypeID, span source.Span) {
	c.add(Constraint{Kind: Equal, A: a, B: b, Span: span})
}

func (c *collector) flow(value, slot types.TypeID, expr ast.ExprID, span source.Span) {
	c.add(Constraint{Kind: Flow, A: value, B: slot, Expr: expr, Span: span})
}

func (c *collector) named(v types.TypeID, what, name string, span source.Span) {
	c.res.Set.Named = append(c.res.Set.Named, NamedVar{Var: v, What: what, Name: name, Span: span, Origin: c.origin()})
}

func (c *collector) report(sev diag.Severity, code diag.Code, span source.Span, msg string, notes ...diag.Note) {
	d := diag.New(sev, code, span, msg)
	d.Notes = notes
	d.Module = c.opts.Module
	c.res.Findings = append(c.res.Findings, Finding{Diag: d, Origin: c.origin()})
}

func (c *collector) errorf(code diag.Code, span source.Span, format string, args ...any) {
	c.report(diag.SevError, code, span, fmt.Sprintf(format, args...))
}

// declare binds name in the current scope and converts shadowing into a
// finding. The returned binding is never nil.
func (c *collector) declare(name string, span source.Span, kind symbols.BindingKind) *symbols.Binding {
	b, err := c.sc.DeclareHere(name, span, kind)
	if err != nil {
		var prev source.Span
		if se, ok := err.(*symbols.ShadowingError); ok && se.Previous != nil {
			prev = se.Previous.Span
		}
		c.report(diag.SevError, diag.SemaShadowSymbol, span,
			fmt.Sprintf("%q shadows a binding in the same function scope", name),
			diag.Note{Span: prev, Msg: "previous declaration here"})
		// продолжаем с отдельной привязкой, чтобы не терять ограничения
		b = &symbols.Binding{Name: name, Span: span, Kind: kind}
	}
	switch kind {
	case symbols.BindVar, symbols.BindParam, symbols.BindFunc:
		b.Var = c.in.NewVar()
	}
	return b
}
