package pyfront

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"viper/internal/ast"
	"viper/internal/diag"
	"viper/internal/project"
)

func (l *lowerer) function(n *sitter.Node) ast.ItemID {
	method := l.classBody
	l.classBody = false
	defer func() { l.classBody = method }()

	async := false
	if first := n.Child(0); first != nil && first.Kind() == "async" {
		async = true
	}
	nameNode := n.ChildByFieldName("name")
	params := l.params(n.ChildByFieldName("parameters"))
	result := ast.NoTypeExprID
	if rt := n.ChildByFieldName("return_type"); rt != nil {
		result = l.typeExpr(rt)
	}
	body := l.block(n.ChildByFieldName("body"))

	sp, name, nameSpan := l.span(n), l.name(nameNode), l.span(nameNode)
	if !method {
		return l.b.Func(sp, name, nameSpan, params, result, body, async)
	}
	if len(params) == 0 {
		l.report(diag.SevError, diag.SemaSelfOutsideClass, nameNode, "method %q must take self as its first parameter", name)
		params = []ast.Param{{Name: "self", Span: nameSpan}}
	}
	return l.b.Method(sp, name, nameSpan, params, result, body, async)
}

func (l *lowerer) params(n *sitter.Node) []ast.Param {
	var out []ast.Param
	for _, p := range namedChildren(n) {
		switch p.Kind() {
		case "identifier":
			out = append(out, ast.Param{Name: l.name(p), Span: l.span(p)})
		case "typed_parameter":
			id := p.NamedChild(0)
			if id == nil || id.Kind() != "identifier" {
				l.unsupported(p, "variadic parameter")
				continue
			}
			out = append(out, ast.Param{Name: l.name(id), Span: l.span(id), Type: l.typeExpr(p.ChildByFieldName("type"))})
		case "default_parameter", "typed_default_parameter":
			l.unsupported(p.ChildByFieldName("value"), "default parameter value")
			nameNode := p.ChildByFieldName("name")
			param := ast.Param{Name: l.name(nameNode), Span: l.span(nameNode)}
			if t := p.ChildByFieldName("type"); t != nil {
				param.Type = l.typeExpr(t)
			}
			out = append(out, param)
		case "keyword_separator", "positional_separator":
		default:
			l.unsupported(p, "variadic parameter")
		}
	}
	return out
}

func (l *lowerer) class(n *sitter.Node) ast.ItemID {
	nameNode := n.ChildByFieldName("name")
	var (
		bases      []ast.Base
		typeParams []string
	)
	if tp := n.ChildByFieldName("type_parameters"); tp != nil {
		for _, t := range namedChildren(tp) {
			typeParams = append(typeParams, strings.TrimSpace(l.name(t)))
		}
	}
	for _, sc := range namedChildren(n.ChildByFieldName("superclasses")) {
		base, ok := l.base(sc)
		if !ok {
			continue
		}
		if base.Name == "Generic" || base.Name == "Protocol" {
			for _, a := range base.Args {
				if te := l.b.TypeExpr(a); te != nil {
					typeParams = append(typeParams, te.Name)
				}
			}
		}
		bases = append(bases, base)
	}

	outer := l.classBody
	l.classBody = true
	body := l.block(n.ChildByFieldName("body"))
	l.classBody = outer

	return l.b.Class(l.span(n), l.name(nameNode), l.span(nameNode), typeParams, bases, body)
}

func (l *lowerer) base(n *sitter.Node) (ast.Base, bool) {
	switch n.Kind() {
	case "identifier", "attribute":
		name, ok := l.dottedName(n)
		if !ok {
			break
		}
		return ast.Base{Name: strings.TrimPrefix(name, "typing."), Span: l.span(n)}, true
	case "subscript":
		value := n.ChildByFieldName("value")
		name, ok := l.dottedName(value)
		if !ok {
			break
		}
		base := ast.Base{Name: strings.TrimPrefix(name, "typing."), Span: l.span(n)}
		for _, a := range fieldChildren(n, "subscript") {
			base.Args = append(base.Args, l.typeExpr(a))
		}
		return base, true
	}
	l.unsupported(n, "this base class expression")
	return ast.Base{}, false
}

func (l *lowerer) addImport(path string, n *sitter.Node) {
	if project.AnnotationOnly(path) {
		return
	}
	l.res.Imports = append(l.res.Imports, project.ImportMeta{Path: path, Span: l.span(n)})
}

func (l *lowerer) importStmt(n *sitter.Node) []ast.StmtID {
	var out []ast.StmtID
	for _, c := range fieldChildren(n, "name") {
		target, alias := c, ""
		if c.Kind() == "aliased_import" {
			target = c.ChildByFieldName("name")
			alias = l.name(c.ChildByFieldName("alias"))
		}
		path, ok := l.dottedName(target)
		if !ok {
			l.unsupported(c, "this import")
			continue
		}
		l.addImport(path, target)
		out = append(out, l.b.Import(l.span(n), ast.Import{Module: path, ModuleSpan: l.span(target), Alias: alias}))
	}
	return out
}

func (l *lowerer) importFrom(n *sitter.Node) []ast.StmtID {
	modNode := n.ChildByFieldName("module_name")
	spec, ok := l.importSpec(modNode)
	if !ok {
		l.unsupported(modNode, "this import")
		return nil
	}
	path, err := project.ResolveImport(l.opts.Module, l.opts.Package, spec)
	if err != nil {
		l.report(diag.SevError, diag.ProjMissingModule, modNode, "cannot resolve %q: %v", spec, err)
		return nil
	}
	for _, c := range namedChildren(n) {
		if c.Kind() == "wildcard_import" {
			l.unsupported(c, "star import")
		}
	}

	var names []ast.ImportName
	var out []ast.StmtID
	bareRelative := strings.TrimLeft(spec, ".") == ""
	for _, c := range fieldChildren(n, "name") {
		target, alias := c, ""
		if c.Kind() == "aliased_import" {
			target = c.ChildByFieldName("name")
			alias = l.name(c.ChildByFieldName("alias"))
		}
		name, ok := l.dottedName(target)
		if !ok || strings.Contains(name, ".") {
			l.unsupported(c, "this imported name")
			continue
		}
		if bareRelative {
			// "from . import x" берёт подмодуль x пакета
			if alias == "" {
				alias = name
			}
			sub := path + "." + name
			l.addImport(sub, target)
			out = append(out, l.b.Import(l.span(n), ast.Import{Module: sub, ModuleSpan: l.span(target), Alias: alias}))
			continue
		}
		names = append(names, ast.ImportName{Name: name, Alias: alias, Span: l.span(c)})
	}
	if bareRelative {
		return out
	}
	l.addImport(path, modNode)
	return []ast.StmtID{l.b.Import(l.span(n), ast.Import{Module: path, ModuleSpan: l.span(modNode), Names: names})}
}

// importSpec renders module_name with its leading dots.
func (l *lowerer) importSpec(n *sitter.Node) (string, bool) {
	if n == nil {
		return "", false
	}
	if n.Kind() != "relative_import" {
		return l.dottedName(n)
	}
	var sb strings.Builder
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		switch c.Kind() {
		case "import_prefix":
			sb.WriteString(strings.TrimSpace(l.text(c)))
		case "dotted_name":
			name, ok := l.dottedName(c)
			if !ok {
				return "", false
			}
			sb.WriteString(name)
		}
	}
	return sb.String(), true
}
