package constraints

import (
	"viper/internal/ast"
	"viper/internal/diag"
	"viper/internal/symbols"
	"viper/internal/types"
)

// expr returns the type of e and records it in the set.
func (c *collector) expr(e ast.ExprID) types.TypeID {
	x := c.b.Expr(e)
	if x == nil {
		return c.bi.None
	}
	t := c.exprKind(e, x)
	c.res.Set.ExprTypes[e] = t
	return t
}

func (c *collector) exprKind(e ast.ExprID, x *ast.Expr) types.TypeID {
	switch x.Kind {
	case ast.ExprIdent:
		return c.ident(x)
	case ast.ExprInt:
		return c.bi.Int
	case ast.ExprFloat:
		return c.bi.Float
	case ast.ExprStr:
		return c.bi.Str
	case ast.ExprBool:
		return c.bi.Bool
	case ast.ExprNone:
		return c.bi.None
	case ast.ExprCall:
		return c.call(e, x)
	case ast.ExprMember:
		return c.member(x)
	case ast.ExprBinary:
		return c.binary(x)
	case ast.ExprUnary:
		operand := c.expr(x.X)
		if x.Op == ast.OpNot {
			return c.bi.Bool
		}
		r := c.in.NewVar()
		c.add(Constraint{Kind: Unary, A: operand, Op: x.Op, Result: r, Expr: x.X, Span: x.Span})
		return r
	case ast.ExprList:
		elem := c.in.NewVar()
		for _, a := range x.Args {
			c.flow(c.expr(a), elem, a, c.b.Expr(a).Span)
		}
		return c.in.Class(c.bi.List, elem)
	case ast.ExprAwait:
		operand := c.expr(x.X)
		r := c.in.NewVar()
		c.add(Constraint{Kind: Await, A: operand, Result: r, Expr: x.X, Span: x.Span})
		return r
	case ast.ExprYield:
		value := c.bi.None
		if x.X.IsValid() {
			value = c.expr(x.X)
		}
		if c.fn != nil && c.fn.Generator {
			c.flow(value, c.fn.Yield, x.X, x.Span)
		}
		return c.bi.None
	case ast.ExprCoerce:
		c.expr(x.X)
		return x.CoerceTo
	}
	return c.in.NewVar()
}

func (c *collector) ident(x *ast.Expr) types.TypeID {
	b, ok := c.sc.Lookup(x.Name, c.sc.Current())
	if !ok {
		c.errorf(diag.SemaUnresolvedSymbol, x.Span, "name %q is not defined", x.Name)
		return c.in.NewVar()
	}
	switch b.Kind {
	case symbols.BindVar, symbols.BindParam:
		if c.unassigned(b) {
			return c.bi.None
		}
		return b.Var
	case symbols.BindFunc:
		if b.Item.IsValid() {
			c.res.Graph.AddCall(c.fnItem(), b.Item, c.stmt)
		}
		return b.Var
	case symbols.BindBuiltin:
		if b.Name == "__name__" {
			return c.bi.Str
		}
	}
	// классы, модули и встроенные функции как значения не типизируются
	return c.bi.Any
}

// unassigned reports a read of a local that no statement before it has
// assigned. Inside loops a later assignment may run first, so loops never
// count as unassigned.
func (c *collector) unassigned(b *symbols.Binding) bool {
	if c.loops > 0 || b.Narrowed || c.assigned[b.ID] {
		return false
	}
	here := c.sc.FunctionOf(c.sc.Current())
	return c.sc.FunctionOf(b.Scope) == here
}

func (c *collector) member(x *ast.Expr) types.TypeID {
	if mod, ok := c.moduleOf(x.X); ok {
		exports := c.opts.Imports[mod]
		ex, found := exports.Lookup(x.Name)
		if !found {
			if exports != nil {
				c.errorf(diag.SemaUnresolvedSymbol, x.Span, "module %q has no name %q", mod, x.Name)
			}
			return c.in.NewVar()
		}
		if ex.Kind == symbols.BindClass {
			return c.bi.Any
		}
		return ex.Type
	}
	recv := c.expr(x.X)
	r := c.in.NewVar()
	c.add(Constraint{Kind: Field, A: recv, Name: x.Name, Result: r, Span: x.Span})
	return r
}

// moduleOf reports whether e names an imported module. "import a.b" binds
// the dotted name, so a.b in an expression resolves as one module.
func (c *collector) moduleOf(e ast.ExprID) (string, bool) {
	name, ok := c.dotted(e)
	if !ok {
		return "", false
	}
	b, ok := c.sc.Lookup(name, c.sc.Current())
	if !ok || b.Kind != symbols.BindModule {
		return "", false
	}
	return b.Module, true
}

// dotted renders an ident or a chain of member accesses on one.
func (c *collector) dotted(e ast.ExprID) (string, bool) {
	x := c.b.Expr(e)
	if x == nil {
		return "", false
	}
	switch x.Kind {
	case ast.ExprIdent:
		return x.Name, true
	case ast.ExprMember:
		head, ok := c.dotted(x.X)
		if !ok {
			return "", false
		}
		return head + "." + x.Name, true
	}
	return "", false
}

func (c *collector) binary(x *ast.Expr) types.TypeID {
	l := c.expr(x.X)
	r := c.expr(x.Y)
	if x.Op.Logical() || x.Op.Compare() {
		return c.bi.Bool
	}
	res := c.in.NewVar()
	c.add(Constraint{Kind: Binary, A: l, B: r, Op: x.Op, Result: res, Expr: x.X, Expr2: x.Y, Span: x.Span})
	return res
}
