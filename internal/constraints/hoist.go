package constraints

import (
	"fmt"
	"maps"

	"viper/internal/ast"
	"viper/internal/diag"
	"viper/internal/reach"
	"viper/internal/source"
	"viper/internal/symbols"
)

var builtinNames = []string{"print", "len", "range", "int", "float", "str", "bool", "__name__"}

func (c *collector) declareBuiltins() {
	for _, name := range builtinNames {
		if _, err := c.sc.DeclareHere(name, source.NoSpan, symbols.BindBuiltin); err != nil {
			panic(err)
		}
	}
}

// hoist declares every plain assignment target, loop variable, def and
// class of a function-level body before its statements run. Names with an
// annotated declaration in the same body are declared at their position
// instead, and so are imports. Names already bound in the current function
// (parameters) are reused.
func (c *collector) hoist(body []ast.StmtID) {
	annotated := make(map[string]bool)
	c.b.WalkStmts(body, func(_ ast.StmtID, s *ast.Stmt) bool {
		if s.Kind == ast.StmtDecl {
			annotated[s.Name] = true
		}
		return true
	})

	h := &hoister{c: c, annotated: annotated, seen: make(map[string]bool)}
	h.walk(body, nil)
	c.stmt = ast.NoStmtID

	// сигнатуры готовим после объявления всех имён: аннотации могут
	// ссылаться на классы, объявленные ниже
	for _, item := range h.defs {
		info := c.prepareFunc(item, nil)
		if b, ok := c.sc.LookupLocal(info.Name, c.sc.Current()); ok && b.Item == item {
			c.equal(b.Var, info.Type, c.b.Item(item).NameSpan)
		}
	}
}

type hoister struct {
	c         *collector
	annotated map[string]bool
	seen      map[string]bool
	defs      []ast.ItemID
}

// walk hoists the names of body. captured holds the match captures in
// effect: assignments to them write to the arm's overlay, not to a
// function-level name.
func (h *hoister) walk(body []ast.StmtID, captured map[string]bool) {
	h.c.b.WalkStmts(body, func(id ast.StmtID, s *ast.Stmt) bool {
		return h.visit(id, s, captured)
	})
}

func (h *hoister) visit(id ast.StmtID, s *ast.Stmt, captured map[string]bool) bool {
	c := h.c
	c.stmt = id
	switch s.Kind {
	case ast.StmtAssign:
		if t := c.b.Expr(s.Target); t != nil && t.Kind == ast.ExprIdent && !captured[t.Name] {
			c.hoistName(t.Name, t.Span, h.annotated, h.seen)
		}
	case ast.StmtFor:
		if !captured[s.Name] {
			c.hoistName(s.Name, s.NameSpan, h.annotated, h.seen)
		}
	case ast.StmtMatch:
		for _, mc := range s.Cases {
			inner := captured
			if mc.Capture != "" {
				inner = make(map[string]bool, len(captured)+1)
				maps.Copy(inner, captured)
				inner[mc.Capture] = true
			}
			h.walk(mc.Body, inner)
		}
		return false
	case ast.StmtDef:
		it := c.b.Item(s.Item)
		if it == nil {
			return true
		}
		if prev, ok := c.sc.LookupLocal(it.Name, c.sc.Current()); ok {
			c.report(diag.SevError, diag.SemaShadowSymbol, it.NameSpan,
				fmt.Sprintf("%q is already defined in this scope", it.Name),
				diag.Note{Span: prev.Span, Msg: "previous declaration here"})
			return true
		}
		h.seen[it.Name] = true
		kind := symbols.BindFunc
		if it.Kind == ast.ItemClass {
			kind = symbols.BindClass
		}
		b := c.declare(it.Name, it.NameSpan, kind)
		b.Item = s.Item
		if it.Kind == ast.ItemClass {
			ref := c.in.DeclareClass(it.Name, c.opts.Module, it.NameSpan, it.TypeParams)
			b.Class = ref
			c.classes[s.Item] = ref
			c.res.Classes = append(c.res.Classes, ref)
			c.res.ClassItems[ref] = s.Item
		} else {
			h.defs = append(h.defs, s.Item)
		}
	}
	return true
}

func (c *collector) hoistName(name string, span source.Span, annotated, seen map[string]bool) {
	if annotated[name] || seen[name] {
		return
	}
	seen[name] = true
	if _, ok := c.sc.LookupLocal(name, c.sc.Current()); ok {
		return
	}
	b := c.declare(name, span, symbols.BindVar)
	c.named(b.Var, "variable", name, span)
}

// prepareFunc allocates the signature variables of a function or method.
func (c *collector) prepareFunc(item ast.ItemID, cls *classCtx) *FuncInfo {
	if info, ok := c.res.Funcs[item]; ok {
		return info
	}
	it := c.b.Item(item)
	info := &FuncInfo{
		Item:      item,
		Name:      it.Name,
		Async:     it.Async,
		Generator: c.b.ContainsYield(it.Body),
	}
	saved := c.class
	if cls != nil {
		c.class = cls
		info.Class = cls.ref
		info.ClassItem = cls.item
		info.Self = c.in.SelfType(cls.ref)
	}
	savedFn := c.fn
	c.fn = info

	for _, p := range it.Explicit() {
		v := c.in.NewVar()
		if p.Type.IsValid() {
			c.equal(v, c.resolveType(p.Type), p.Span)
		}
		info.Params = append(info.Params, v)
		info.ParamNames = append(info.ParamNames, p.Name)
		c.named(v, "parameter", p.Name+" of "+it.Name, p.Span)
	}
	info.Result = c.in.NewVar()
	if it.Result.IsValid() {
		c.equal(info.Result, c.resolveType(it.Result), c.b.TypeExpr(it.Result).Span)
	}
	callResult := info.Result
	switch {
	case info.Generator:
		info.Yield = c.in.NewVar()
		callResult = c.in.Class(c.bi.Iterator, info.Yield)
		c.named(info.Yield, "yield type", it.Name, it.NameSpan)
	case info.Async:
		callResult = c.in.Class(c.bi.Coroutine, info.Result)
		c.named(info.Result, "result", it.Name, it.NameSpan)
	default:
		c.named(info.Result, "result", it.Name, it.NameSpan)
	}
	info.Type = c.in.Fn(info.Params, callResult, info.Generator || info.Async)

	c.fn = savedFn
	c.class = saved

	fn := reach.Func{Item: item, Name: it.Name, Parent: c.fnItem()}
	if cls != nil {
		fn.Class = cls.item
		fn.ClassName = c.b.Item(cls.item).Name
		fn.Parent = ast.NoItemID
	}
	c.res.Graph.AddFunc(fn)
	c.res.Funcs[item] = info
	return info
}
