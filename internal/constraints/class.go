package constraints

import (
	"strings"

	"viper/internal/ast"
	"viper/internal/diag"
	"viper/internal/symbols"
	"viper/internal/types"
)

// markerBases are accepted in a class header but carry no members.
var markerBases = map[string]bool{"Generic": true, "Protocol": true, "object": true}

// collectClass registers members first and only then walks method bodies,
// so a method can use any field or method of its class.
func (c *collector) collectClass(item ast.ItemID) {
	it := c.b.Item(item)
	ref, ok := c.classes[item]
	if !ok {
		// повторное объявление: уже сообщили, но тело всё равно проверяем
		ref = c.in.DeclareClass(it.Name, c.opts.Module, it.NameSpan, it.TypeParams)
		c.classes[item] = ref
	}
	info := c.in.ClassInfo(ref)
	cls := &classCtx{ref: ref, item: item, params: make(map[string]types.TypeID, len(info.Params))}
	for i, p := range it.TypeParams {
		cls.params[p] = info.Params[i]
	}

	var names []string
	var refs []types.ClassRef
	for _, base := range it.Bases {
		if markerBases[base.Name] {
			continue
		}
		ref := c.lookupClass(base.Name)
		if ref == types.NoClassRef {
			c.errorf(diag.IfaceUnknownBase, base.Span, "unknown base class %q", base.Name)
			continue
		}
		names = append(names, base.Name)
		refs = append(refs, ref)
	}
	c.in.SetBases(ref, names, refs)

	saved := c.class
	c.class = cls
	defer func() { c.class = saved }()
	c.sc.EnterScope(symbols.ScopeClass, item, it.Span)
	defer c.sc.ExitScope()

	var methods []*FuncInfo
	for _, id := range it.Body {
		s := c.b.Stmt(id)
		if s.Kind != ast.StmtDef {
			continue
		}
		m := c.b.Item(s.Item)
		if m.Kind != ast.ItemFunc {
			c.errorf(diag.SynUnsupported, m.NameSpan, "nested class %q is not supported", m.Name)
			continue
		}
		c.stmt = id
		mi := c.prepareFunc(s.Item, cls)
		origin := m.Origin
		if origin == "" {
			origin = it.Name
		}
		c.in.AddMethod(ref, types.Member{Name: m.Name, Type: mi.Type, Span: m.NameSpan, Origin: origin})
		b := c.declare(m.Name, m.NameSpan, symbols.BindFunc)
		b.Item = s.Item
		c.equal(b.Var, mi.Type, m.NameSpan)
		c.prescanFields(m, origin)
		methods = append(methods, mi)
	}
	c.stmt = ast.NoStmtID
	c.inheritForeign(ref, refs)

	for _, id := range it.Body {
		if s := c.b.Stmt(id); s.Kind != ast.StmtDef {
			c.stmtOne(id)
		}
	}
	for _, mi := range methods {
		c.collectFunc(mi)
	}
}

// prescanFields registers every self.name assignment target of a method.
func (c *collector) prescanFields(m *ast.Item, origin string) {
	recv, ok := m.Receiver()
	if !ok {
		return
	}
	c.b.WalkStmts(m.Body, func(_ ast.StmtID, s *ast.Stmt) bool {
		if s.Kind != ast.StmtAssign {
			return true
		}
		t := c.b.Expr(s.Target)
		if t == nil || t.Kind != ast.ExprMember {
			return true
		}
		if r := c.b.Expr(t.X); r != nil && r.Kind == ast.ExprIdent && r.Name == recv.Name {
			c.in.AddField(c.class.ref, types.Member{Name: t.Name, Type: c.in.NewVar(), Span: t.Span, Origin: origin})
		}
		return true
	})
}

func (c *collector) lookupClass(name string) types.ClassRef {
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		mod, n := name[:i], name[i+1:]
		b, found := c.sc.Lookup(mod, c.sc.Current())
		if !found || b.Kind != symbols.BindModule {
			return types.NoClassRef
		}
		if ex, has := c.opts.Imports[b.Module].Lookup(n); has && ex.Kind == symbols.BindClass {
			return ex.Class
		}
		return types.NoClassRef
	}
	b, ok := c.sc.Lookup(name, c.sc.Current())
	if ok && b.Kind == symbols.BindClass {
		return b.Class
	}
	return types.NoClassRef
}

// inheritForeign copies the solved members of bases declared in other
// modules. Same-module bases were already copied into the body as source.
func (c *collector) inheritForeign(ref types.ClassRef, bases []types.ClassRef) {
	info := c.in.ClassInfo(ref)
	for _, base := range bases {
		bi := c.in.ClassInfo(base)
		if bi == nil || bi.Module == c.opts.Module {
			continue
		}
		for _, m := range bi.Methods {
			if _, ok := info.Method(m.Name); !ok {
				c.in.AddMethod(ref, m)
			}
		}
		for _, f := range bi.Fields {
			c.in.AddField(ref, f)
		}
	}
}
