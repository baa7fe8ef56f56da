package pyfront

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"viper/internal/ast"
	"viper/internal/diag"
)

// block lowers the statements of a module or a block node.
func (l *lowerer) block(n *sitter.Node) []ast.StmtID {
	var out []ast.StmtID
	for _, c := range namedChildren(n) {
		out = append(out, l.stmt(c)...)
	}
	return out
}

func (l *lowerer) stmt(n *sitter.Node) []ast.StmtID {
	sp := l.span(n)
	switch n.Kind() {
	case "expression_statement":
		return l.exprStmt(n)
	case "return_statement":
		value := ast.NoExprID
		if kids := namedChildren(n); len(kids) > 0 {
			value = l.expr(kids[0])
		}
		return []ast.StmtID{l.b.Return(sp, value)}
	case "pass_statement":
		return []ast.StmtID{l.b.Pass(sp)}
	case "break_statement":
		return []ast.StmtID{l.b.Break(sp)}
	case "continue_statement":
		return []ast.StmtID{l.b.Continue(sp)}
	case "if_statement":
		return []ast.StmtID{l.ifStmt(n)}
	case "while_statement":
		if alt := n.ChildByFieldName("alternative"); alt != nil {
			l.unsupported(alt, "while ... else")
		}
		return []ast.StmtID{l.b.While(sp, l.expr(n.ChildByFieldName("condition")), l.block(n.ChildByFieldName("body")))}
	case "for_statement":
		return l.forStmt(n)
	case "function_definition":
		return []ast.StmtID{l.b.Def(sp, l.function(n))}
	case "class_definition":
		return []ast.StmtID{l.b.Def(sp, l.class(n))}
	case "decorated_definition":
		for _, c := range namedChildren(n) {
			if c.Kind() == "decorator" {
				l.report(diag.SevWarning, diag.SynUnsupported, c, "decorator %s is ignored", errorSnippet(l.text(c)))
			}
		}
		def := n.ChildByFieldName("definition")
		if def == nil {
			return nil
		}
		return l.stmt(def)
	case "import_statement":
		return l.importStmt(n)
	case "import_from_statement":
		return l.importFrom(n)
	case "future_import_statement", "comment", "ERROR":
		return nil
	case "assert_statement":
		var out []ast.StmtID
		for _, c := range namedChildren(n) {
			out = append(out, l.b.ExprStmt(l.span(c), l.expr(c)))
		}
		return out
	case "match_statement":
		return l.match(n)
	}
	l.unsupported(n, statementName(n.Kind()))
	return nil
}

func statementName(kind string) string {
	switch kind {
	case "try_statement":
		return "try"
	case "with_statement":
		return "with"
	case "raise_statement":
		return "raise"
	case "global_statement":
		return "global"
	case "nonlocal_statement":
		return "nonlocal"
	case "delete_statement":
		return "del"
	}
	return kind
}

func (l *lowerer) exprStmt(n *sitter.Node) []ast.StmtID {
	kids := namedChildren(n)
	if len(kids) != 1 {
		l.unsupported(n, "tuple expression")
		return nil
	}
	c := kids[0]
	switch c.Kind() {
	case "assignment":
		return l.assignment(c)
	case "augmented_assignment":
		return l.augmented(c)
	}
	return []ast.StmtID{l.b.ExprStmt(l.span(n), l.expr(c))}
}

// ifStmt lowers elif chains into nested Ifs in Else.
func (l *lowerer) ifStmt(n *sitter.Node) ast.StmtID {
	cond := l.expr(n.ChildByFieldName("condition"))
	body := l.block(n.ChildByFieldName("consequence"))
	alts := fieldChildren(n, "alternative")
	return l.b.If(l.span(n), cond, body, l.alternatives(alts))
}

func (l *lowerer) alternatives(alts []*sitter.Node) []ast.StmtID {
	if len(alts) == 0 {
		return nil
	}
	alt := alts[0]
	switch alt.Kind() {
	case "else_clause":
		return l.block(alt.ChildByFieldName("body"))
	case "elif_clause":
		cond := l.expr(alt.ChildByFieldName("condition"))
		body := l.block(alt.ChildByFieldName("consequence"))
		return []ast.StmtID{l.b.If(l.span(alt), cond, body, l.alternatives(alts[1:]))}
	}
	return nil
}

func (l *lowerer) forStmt(n *sitter.Node) []ast.StmtID {
	if first := n.Child(0); first != nil && first.Kind() == "async" {
		l.unsupported(first, "async for")
	}
	if alt := n.ChildByFieldName("alternative"); alt != nil {
		l.unsupported(alt, "for ... else")
	}
	left := n.ChildByFieldName("left")
	if left == nil || left.Kind() != "identifier" {
		l.report(diag.SevError, diag.SynBadTarget, left, "loop target must be a single name")
		return nil
	}
	iter := l.expr(n.ChildByFieldName("right"))
	body := l.block(n.ChildByFieldName("body"))
	return []ast.StmtID{l.b.For(l.span(n), l.name(left), l.span(left), iter, body)}
}

func (l *lowerer) assignment(n *sitter.Node) []ast.StmtID {
	sp := l.span(n)
	left := n.ChildByFieldName("left")
	typ := n.ChildByFieldName("type")
	right := n.ChildByFieldName("right")

	if right != nil && right.Kind() == "assignment" {
		l.unsupported(right, "chained assignment")
		return nil
	}
	if left.Kind() == "identifier" && right != nil && l.isTypeVarCall(right) {
		// T = TypeVar("T"): параметры классов берутся из Generic[T]
		return nil
	}

	value := ast.NoExprID
	if right != nil {
		value = l.expr(right)
	}
	switch left.Kind() {
	case "identifier":
		if typ != nil {
			return []ast.StmtID{l.b.Decl(sp, l.name(left), l.span(left), l.typeExpr(typ), value)}
		}
		return []ast.StmtID{l.b.Assign(sp, l.b.Ident(l.span(left), l.name(left)), value)}
	case "attribute":
		if typ != nil {
			l.report(diag.SevWarning, diag.SynUnsupported, typ, "annotation on an attribute target is ignored")
		}
		if right == nil {
			return nil
		}
		return []ast.StmtID{l.b.Assign(sp, l.expr(left), value)}
	}
	l.report(diag.SevError, diag.SynBadTarget, left, "cannot assign to %s", left.Kind())
	return nil
}

func (l *lowerer) isTypeVarCall(n *sitter.Node) bool {
	if n.Kind() != "call" {
		return false
	}
	name, ok := l.dottedName(n.ChildByFieldName("function"))
	return ok && (name == "TypeVar" || name == "typing.TypeVar")
}

// augmented rewrites "x op= v" into "x = x op v".
func (l *lowerer) augmented(n *sitter.Node) []ast.StmtID {
	left := n.ChildByFieldName("left")
	opText := l.text(n.ChildByFieldName("operator"))
	op := ast.ParseBinaryOp(opText[:len(opText)-1])
	if op == ast.OpInvalid || op.Compare() || op.Logical() {
		l.unsupported(n, "operator "+opText)
		return nil
	}
	if k := left.Kind(); k != "identifier" && k != "attribute" {
		l.report(diag.SevError, diag.SynBadTarget, left, "cannot assign to %s", k)
		return nil
	}
	sp := l.span(n)
	value := l.b.Binary(sp, op, l.expr(left), l.expr(n.ChildByFieldName("right")))
	return []ast.StmtID{l.b.Assign(sp, l.expr(left), value)}
}

func (l *lowerer) match(n *sitter.Node) []ast.StmtID {
	subjects := fieldChildren(n, "subject")
	if len(subjects) != 1 {
		l.unsupported(n, "match over several subjects")
		return nil
	}
	subject := l.expr(subjects[0])
	var cases []ast.MatchCase
	for _, cc := range namedChildren(n.ChildByFieldName("body")) {
		if cc.Kind() != "case_clause" {
			continue
		}
		mc, ok := l.matchCase(cc)
		if ok {
			cases = append(cases, mc)
		}
	}
	return []ast.StmtID{l.b.Match(l.span(n), subject, cases)}
}

func (l *lowerer) matchCase(cc *sitter.Node) (ast.MatchCase, bool) {
	var patterns []*sitter.Node
	for _, c := range namedChildren(cc) {
		if c.Kind() == "case_pattern" {
			patterns = append(patterns, c)
		}
	}
	if len(patterns) != 1 {
		l.unsupported(cc, "sequence pattern")
		return ast.MatchCase{}, false
	}
	mc := ast.MatchCase{Span: l.span(cc)}
	if !l.pattern(patterns[0], &mc) {
		return ast.MatchCase{}, false
	}
	body := l.block(cc.ChildByFieldName("consequence"))
	if guard := cc.ChildByFieldName("guard"); guard != nil {
		// охранное условие только проверяется на типы
		if kids := namedChildren(guard); len(kids) > 0 {
			g := l.b.ExprStmt(l.span(guard), l.expr(kids[0]))
			body = append([]ast.StmtID{g}, body...)
		}
	}
	mc.Body = body
	return mc, true
}

// pattern fills the class and capture of mc from a case_pattern.
func (l *lowerer) pattern(p *sitter.Node, mc *ast.MatchCase) bool {
	kids := namedChildren(p)
	if len(kids) == 0 {
		// "_"
		return true
	}
	c := kids[0]
	switch c.Kind() {
	case "class_pattern":
		parts := namedChildren(c)
		if len(parts) == 0 {
			return false
		}
		name, ok := l.dottedName(parts[0])
		if !ok {
			l.unsupported(parts[0], "class pattern")
			return false
		}
		if len(parts) > 1 {
			l.unsupported(parts[1], "class pattern arguments")
		}
		mc.Class = name
		mc.ClassSpan = l.span(parts[0])
		return true
	case "as_pattern":
		inner := namedChildren(c)
		if len(inner) < 2 {
			return false
		}
		if inner[0].Kind() != "case_pattern" || !l.pattern(inner[0], mc) {
			return false
		}
		target := inner[len(inner)-1]
		if mc.Capture != "" {
			l.unsupported(target, "double capture")
			return false
		}
		mc.Capture = l.name(target)
		mc.CaptureSpan = l.span(target)
		return true
	case "dotted_name":
		if c.NamedChildCount() == 1 {
			mc.Capture = l.name(c.NamedChild(0))
			mc.CaptureSpan = l.span(c)
			return true
		}
		l.unsupported(c, "value pattern")
		return false
	}
	l.unsupported(c, "this pattern")
	return false
}
