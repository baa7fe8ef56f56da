package constraints

import (
	"viper/internal/ast"
	"viper/internal/diag"
	"viper/internal/symbols"
	"viper/internal/types"
)

func (c *collector) stmts(body []ast.StmtID) {
	for _, id := range body {
		c.stmtOne(id)
	}
}

func (c *collector) stmtOne(id ast.StmtID) {
	s := c.b.Stmt(id)
	if s == nil {
		return
	}
	saved := c.stmt
	c.stmt = id
	defer func() { c.stmt = saved }()

	switch s.Kind {
	case ast.StmtExpr:
		c.expr(s.Expr)
	case ast.StmtDecl:
		c.decl(s)
	case ast.StmtAssign:
		c.assign(s)
	case ast.StmtReturn:
		c.ret(s)
	case ast.StmtIf:
		c.expr(s.Expr)
		c.stmts(s.Body)
		c.stmts(s.Else)
	case ast.StmtWhile:
		c.loops++
		c.expr(s.Expr)
		c.stmts(s.Body)
		c.loops--
		c.stmts(s.Else)
	case ast.StmtFor:
		c.forStmt(s)
	case ast.StmtMatch:
		c.match(s)
	case ast.StmtDef:
		it := c.b.Item(s.Item)
		if it == nil {
			return
		}
		if it.Kind == ast.ItemClass {
			c.collectClass(s.Item)
		} else {
			c.collectFunc(c.prepareFunc(s.Item, nil))
		}
	case ast.StmtImport:
		c.importStmt(s)
	case ast.StmtPass, ast.StmtBreak, ast.StmtContinue:
	}
}

func (c *collector) decl(s *ast.Stmt) {
	t := c.resolveType(s.Type)
	if c.inClassBody() {
		ft := c.in.AddField(c.class.ref, types.Member{Name: s.Name, Type: t, Span: s.NameSpan, Origin: c.className()})
		if ft != t {
			c.equal(ft, t, s.NameSpan)
		}
		if s.Expr.IsValid() {
			c.flow(c.expr(s.Expr), ft, s.Expr, s.Span)
		}
		return
	}
	b := c.declare(s.Name, s.NameSpan, symbols.BindVar)
	if err := b.SetType(t); err != nil {
		c.errorf(diag.SemaTypeReassigned, s.NameSpan, "type of %q cannot be reassigned", s.Name)
	}
	c.equal(b.Var, t, s.NameSpan)
	if s.Expr.IsValid() {
		c.flow(c.expr(s.Expr), b.Var, s.Expr, s.Span)
		c.assigned[b.ID] = true
	}
}

func (c *collector) assign(s *ast.Stmt) {
	value := c.expr(s.Expr)
	target := c.b.Expr(s.Target)
	if target == nil {
		return
	}
	switch target.Kind {
	case ast.ExprIdent:
		if c.inClassBody() {
			ft := c.in.AddField(c.class.ref, types.Member{Name: target.Name, Type: c.in.NewVar(), Span: target.Span, Origin: c.className()})
			c.flow(value, ft, s.Expr, s.Span)
			c.res.Set.ExprTypes[s.Target] = ft
			return
		}
		b, ok := c.sc.LookupLocal(target.Name, c.sc.Current())
		if !ok {
			b = c.declare(target.Name, target.Span, symbols.BindVar)
			c.named(b.Var, "variable", target.Name, target.Span)
		}
		if b.Narrowed {
			if orig := c.sc.Binding(b.Of); orig != nil {
				b = orig
			}
		}
		c.flow(value, b.Var, s.Expr, s.Span)
		c.assigned[b.ID] = true
		c.res.Set.ExprTypes[s.Target] = b.Var
	case ast.ExprMember:
		slot := c.memberSlot(target)
		c.flow(value, slot, s.Expr, s.Span)
		c.res.Set.ExprTypes[s.Target] = slot
	default:
		c.errorf(diag.SynBadTarget, target.Span, "cannot assign to this expression")
	}
}

// memberSlot returns the type of obj.attr as an assignment target. Writes
// through self register the field on the enclosing class.
func (c *collector) memberSlot(target *ast.Expr) types.TypeID {
	if ref, ok := c.selfClass(target.X); ok {
		return c.in.AddField(ref, types.Member{Name: target.Name, Type: c.in.NewVar(), Span: target.Span, Origin: c.className()})
	}
	recv := c.expr(target.X)
	r := c.in.NewVar()
	c.add(Constraint{Kind: Field, A: recv, Name: target.Name, Result: r, Span: target.Span})
	return r
}

// selfClass reports whether e is the receiver parameter of the current method.
func (c *collector) selfClass(e ast.ExprID) (types.ClassRef, bool) {
	x := c.b.Expr(e)
	if x == nil || x.Kind != ast.ExprIdent || c.fn == nil || c.fn.Class == types.NoClassRef {
		return types.NoClassRef, false
	}
	it := c.b.Item(c.fn.Item)
	recv, ok := it.Receiver()
	if !ok || recv.Name != x.Name {
		return types.NoClassRef, false
	}
	return c.fn.Class, true
}

func (c *collector) ret(s *ast.Stmt) {
	value := c.bi.None
	if s.Expr.IsValid() {
		value = c.expr(s.Expr)
	}
	if c.fn == nil {
		c.errorf(diag.InfReturnOutsideFn, s.Span, "'return' outside of a function")
		return
	}
	if c.fn.Generator {
		return
	}
	c.flow(value, c.fn.Result, s.Expr, s.Span)
}

func (c *collector) forStmt(s *ast.Stmt) {
	iter := c.expr(s.Expr)
	elem := c.in.NewVar()
	c.add(Constraint{Kind: Iter, A: iter, Result: elem, Expr: s.Expr, Span: c.b.Expr(s.Expr).Span})
	b, ok := c.sc.LookupLocal(s.Name, c.sc.Current())
	if !ok {
		b = c.declare(s.Name, s.NameSpan, symbols.BindVar)
	}
	c.flow(elem, b.Var, ast.NoExprID, s.NameSpan)
	c.assigned[b.ID] = true
	c.loops++
	c.stmts(s.Body)
	c.loops--
	c.stmts(s.Else)
}

// match narrows the subject per arm. Each arm gets a Narrow scope so the
// narrowed binding and the capture do not escape it.
func (c *collector) match(s *ast.Stmt) {
	subject := c.expr(s.Expr)
	var subjectBinding *symbols.Binding
	if x := c.b.Expr(s.Expr); x != nil && x.Kind == ast.ExprIdent {
		if b, ok := c.sc.Lookup(x.Name, c.sc.Current()); ok && (b.Kind == symbols.BindVar || b.Kind == symbols.BindParam) {
			subjectBinding = b
		}
	}
	for _, mc := range s.Cases {
		c.sc.EnterScope(symbols.ScopeNarrow, ast.NoItemID, mc.Span)
		narrowed := subject
		if mc.Class != "" {
			if ref, ok := c.classByName(mc.Class, mc.ClassSpan); ok {
				narrowed = c.instantiate(ref)
				c.add(Constraint{Kind: Narrow, A: subject, B: narrowed, Span: mc.ClassSpan})
				if subjectBinding != nil {
					ov := c.sc.Overlay(subjectBinding.Name, mc.ClassSpan, subjectBinding)
					ov.Var = narrowed
					c.assigned[ov.ID] = true
				}
			}
		}
		if mc.Capture != "" {
			ov := c.sc.Overlay(mc.Capture, mc.CaptureSpan, nil)
			ov.Var = narrowed
			c.assigned[ov.ID] = true
		}
		c.stmts(mc.Body)
		c.sc.ExitScope()
	}
}

func (c *collector) importStmt(s *ast.Stmt) {
	im := s.Import
	if len(im.Names) == 0 {
		b := c.declare(im.Bound(), im.ModuleSpan, symbols.BindModule)
		b.Module = im.Module
		return
	}
	exports := c.opts.Imports[im.Module]
	for _, n := range im.Names {
		local := n.Name
		if n.Alias != "" {
			local = n.Alias
		}
		x, ok := exports.Lookup(n.Name)
		if !ok {
			if exports != nil {
				c.errorf(diag.SemaUnresolvedSymbol, n.Span, "module %q has no name %q", im.Module, n.Name)
			}
			b := c.declare(local, n.Span, symbols.BindVar)
			b.Module = im.Module
			c.equal(b.Var, c.bi.Any, n.Span)
			c.assigned[b.ID] = true
			continue
		}
		b := c.declare(local, n.Span, x.Kind)
		b.Module = im.Module
		b.Class = x.Class
		if b.Var != types.NoTypeID {
			c.equal(b.Var, x.Type, n.Span)
			if x.Kind == symbols.BindVar && x.Type != types.NoTypeID {
				_ = b.SetType(x.Type)
			}
		}
		c.assigned[b.ID] = true
	}
}

func (c *collector) collectFunc(info *FuncInfo) {
	it := c.b.Item(info.Item)
	savedFn, savedAssigned, savedLoops := c.fn, c.assigned, c.loops
	c.fn, c.loops = info, 0
	c.assigned = make(map[symbols.BindingID]bool)
	info.Scope = c.sc.EnterScope(symbols.ScopeFunction, info.Item, it.Span)

	if recv, ok := it.Receiver(); ok {
		b := c.declare(recv.Name, recv.Span, symbols.BindParam)
		b.Var = info.Self
		_ = b.SetType(info.Self)
		c.assigned[b.ID] = true
	}
	for i, p := range it.Explicit() {
		b := c.declare(p.Name, p.Span, symbols.BindParam)
		b.Var = info.Params[i]
		c.assigned[b.ID] = true
	}
	c.hoist(it.Body)
	c.stmts(it.Body)
	if !info.Generator && !endsWithReturn(c.b, it.Body) {
		c.flow(c.bi.None, info.Result, ast.NoExprID, it.NameSpan)
	}

	c.sc.ExitScope()
	c.fn, c.assigned, c.loops = savedFn, savedAssigned, savedLoops
}

func endsWithReturn(b *ast.Builder, body []ast.StmtID) bool {
	if len(body) == 0 {
		return false
	}
	last := b.Stmt(body[len(body)-1])
	return last != nil && last.Kind == ast.StmtReturn
}

func (c *collector) inClassBody() bool {
	return c.class != nil && c.sc.Scope(c.sc.Current()).Kind == symbols.ScopeClass
}

func (c *collector) className() string {
	if c.class == nil {
		return ""
	}
	return c.b.Item(c.class.item).Name
}
