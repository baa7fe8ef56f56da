package constraints

import (
	"viper/internal/ast"
	"viper/internal/diag"
	"viper/internal/source"
	"viper/internal/types"
)

// resolveType turns an annotation into a type. Unknown names are reported
// and become fresh variables so inference can go on.
func (c *collector) resolveType(id ast.TypeExprID) types.TypeID {
	te := c.b.TypeExpr(id)
	if te == nil {
		return c.in.NewVar()
	}
	arg := func(i int) types.TypeID {
		if i < len(te.Args) {
			return c.resolveType(te.Args[i])
		}
		return c.in.NewVar()
	}
	switch te.Name {
	case "int":
		return c.bi.Int
	case "float":
		return c.bi.Float
	case "str":
		return c.bi.Str
	case "bool":
		return c.bi.Bool
	case "None":
		return c.bi.None
	case "Any", "object":
		return c.bi.Any
	case "list", "List":
		return c.in.Class(c.bi.List, arg(0))
	case "Iterator", "Iterable", "Generator":
		return c.in.Class(c.bi.Iterator, arg(0))
	case "Coroutine", "Awaitable":
		// Coroutine[Any, Any, T]: результат последний
		return c.in.Class(c.bi.Coroutine, arg(max(len(te.Args)-1, 0)))
	}
	if c.class != nil {
		if p, ok := c.class.params[te.Name]; ok {
			return p
		}
	}
	if ref := c.lookupClass(te.Name); ref != types.NoClassRef {
		return c.classType(ref, arg)
	}
	c.errorf(diag.SemaUnknownType, te.Span, "unknown type %q", te.Name)
	return c.in.NewVar()
}

func (c *collector) classType(ref types.ClassRef, arg func(int) types.TypeID) types.TypeID {
	info := c.in.ClassInfo(ref)
	if info == nil {
		return c.in.NewVar()
	}
	args := make([]types.TypeID, len(info.Params))
	for i := range args {
		args[i] = arg(i)
	}
	return c.in.Class(ref, args...)
}

// classByName resolves a class used in a match pattern.
func (c *collector) classByName(name string, span source.Span) (types.ClassRef, bool) {
	if ref := c.lookupClass(name); ref != types.NoClassRef {
		return ref, true
	}
	c.errorf(diag.SemaUnresolvedSymbol, span, "unknown class %q in pattern", name)
	return types.NoClassRef, false
}
