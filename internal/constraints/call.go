package constraints

import (
	"viper/internal/ast"
	"viper/internal/diag"
	"viper/internal/symbols"
	"viper/internal/types"
)

func (c *collector) call(e ast.ExprID, x *ast.Expr) types.TypeID {
	callee := c.b.Expr(x.X)
	if callee != nil {
		switch callee.Kind {
		case ast.ExprIdent:
			if b, ok := c.sc.Lookup(callee.Name, c.sc.Current()); ok {
				switch b.Kind {
				case symbols.BindBuiltin:
					return c.builtinCall(x, callee.Name)
				case symbols.BindClass:
					c.res.Set.ExprTypes[x.X] = c.bi.Any
					return c.construct(x, b.Class, b.Item)
				case symbols.BindFunc:
					if info, ok := c.res.Funcs[b.Item]; ok && b.Item.IsValid() {
						c.res.Set.ExprTypes[x.X] = b.Var
						c.res.Graph.AddCall(c.fnItem(), b.Item, c.stmt)
						return c.directCall(x, info)
					}
				}
			}
		case ast.ExprMember:
			if mod, ok := c.moduleOf(callee.X); ok {
				if ex, found := c.opts.Imports[mod].Lookup(callee.Name); found && ex.Kind == symbols.BindClass {
					c.res.Set.ExprTypes[x.X] = c.bi.Any
					return c.construct(x, ex.Class, ast.NoItemID)
				}
				break
			}
			recv := c.expr(callee.X)
			args := c.args(x.Args)
			r := c.in.NewVar()
			c.add(Constraint{Kind: Method, A: recv, Name: callee.Name, Args: args, ArgExprs: x.Args, Result: r, Span: x.Span})
			c.res.Graph.AddMethodCall(c.fnItem(), callee.Name, c.stmt)
			return r
		}
	}
	fn := c.expr(x.X)
	args := c.args(x.Args)
	r := c.in.NewVar()
	c.add(Constraint{Kind: Call, A: fn, Args: args, ArgExprs: x.Args, Result: r, Span: x.Span})
	return r
}

func (c *collector) args(list []ast.ExprID) []types.TypeID {
	out := make([]types.TypeID, len(list))
	for i, a := range list {
		out[i] = c.expr(a)
	}
	return out
}

// directCall binds arguments straight to the callee's parameter variables.
func (c *collector) directCall(x *ast.Expr, info *FuncInfo) types.TypeID {
	args := c.args(x.Args)
	if len(args) != len(info.Params) {
		c.errorf(diag.InfArity, x.Span, "%s() takes %d argument(s) but %d were given", info.Name, len(info.Params), len(args))
	}
	for i := range min(len(args), len(info.Params)) {
		c.flow(args[i], info.Params[i], x.Args[i], c.b.Expr(x.Args[i]).Span)
	}
	return info.CallResult(c.in)
}

// construct instantiates a class with fresh type arguments and checks the
// arguments against __init__.
func (c *collector) construct(x *ast.Expr, ref types.ClassRef, item ast.ItemID) types.TypeID {
	inst := c.instantiate(ref)
	args := c.args(x.Args)
	c.add(Constraint{Kind: Method, A: inst, Name: "__init__", Args: args, ArgExprs: x.Args, Result: c.in.NewVar(), Span: x.Span})
	if item.IsValid() {
		c.res.Graph.AddConstruct(c.fnItem(), item, c.stmt)
	}
	return inst
}

func (c *collector) instantiate(ref types.ClassRef) types.TypeID {
	info := c.in.ClassInfo(ref)
	if info == nil {
		return c.in.NewVar()
	}
	args := make([]types.TypeID, len(info.Params))
	for i := range args {
		args[i] = c.in.NewVar()
	}
	return c.in.Class(ref, args...)
}

func (c *collector) builtinCall(x *ast.Expr, name string) types.TypeID {
	args := c.args(x.Args)
	arity := func(lo, hi int) {
		if len(args) < lo || len(args) > hi {
			c.errorf(diag.InfArity, x.Span, "%s() takes %d to %d arguments but %d were given", name, lo, hi, len(args))
		}
	}
	switch name {
	case "print":
		return c.bi.None
	case "len":
		arity(1, 1)
		return c.bi.Int
	case "range":
		arity(1, 3)
		for i, a := range args {
			c.flow(a, c.bi.Int, x.Args[i], c.b.Expr(x.Args[i]).Span)
		}
		return c.in.Class(c.bi.Iterator, c.bi.Int)
	case "int":
		arity(0, 1)
		return c.bi.Int
	case "float":
		arity(0, 1)
		return c.bi.Float
	case "str":
		arity(0, 1)
		return c.bi.Str
	case "bool":
		arity(0, 1)
		return c.bi.Bool
	}
	return c.bi.Any
}
