package pyfront

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"viper/internal/ast"
)

var compareOps = map[string]ast.Op{
	"==": ast.OpEq, "!=": ast.OpNe, "<": ast.OpLt, "<=": ast.OpLe, ">": ast.OpGt, ">=": ast.OpGe,
	// членство и идентичность дают bool так же, как сравнения
	"in": ast.OpEq, "not in": ast.OpNe, "is": ast.OpEq, "is not": ast.OpNe,
}

func (l *lowerer) expr(n *sitter.Node) ast.ExprID {
	if n == nil {
		return ast.NoExprID
	}
	sp := l.span(n)
	switch n.Kind() {
	case "identifier":
		return l.b.Ident(sp, l.name(n))
	case "integer":
		return l.b.Int(sp, l.text(n))
	case "float":
		return l.b.Float(sp, l.text(n))
	case "string", "concatenated_string":
		return l.b.Str(sp, l.text(n))
	case "true":
		return l.b.BoolLit(sp, true)
	case "false":
		return l.b.BoolLit(sp, false)
	case "none":
		return l.b.None(sp)
	case "parenthesized_expression":
		if kids := namedChildren(n); len(kids) == 1 {
			return l.expr(kids[0])
		}
	case "call":
		return l.call(n)
	case "attribute":
		return l.b.Member(sp, l.expr(n.ChildByFieldName("object")), l.name(n.ChildByFieldName("attribute")))
	case "binary_operator":
		opText := l.text(n.ChildByFieldName("operator"))
		op := ast.ParseBinaryOp(opText)
		if op == ast.OpInvalid {
			l.unsupported(n, "operator "+opText)
			return l.b.None(sp)
		}
		return l.b.Binary(sp, op, l.expr(n.ChildByFieldName("left")), l.expr(n.ChildByFieldName("right")))
	case "boolean_operator":
		op := ast.OpAnd
		if l.text(n.ChildByFieldName("operator")) == "or" {
			op = ast.OpOr
		}
		return l.b.Binary(sp, op, l.expr(n.ChildByFieldName("left")), l.expr(n.ChildByFieldName("right")))
	case "comparison_operator":
		return l.comparison(n)
	case "not_operator":
		return l.b.Unary(sp, ast.OpNot, l.expr(n.ChildByFieldName("argument")))
	case "unary_operator":
		switch l.text(n.ChildByFieldName("operator")) {
		case "-":
			return l.b.Unary(sp, ast.OpNeg, l.expr(n.ChildByFieldName("argument")))
		case "+":
			return l.b.Unary(sp, ast.OpPos, l.expr(n.ChildByFieldName("argument")))
		}
		l.unsupported(n, "bitwise operator")
		return l.b.None(sp)
	case "list":
		var elems []ast.ExprID
		for _, c := range namedChildren(n) {
			if c.Kind() == "list_splat" {
				l.unsupported(c, "list unpacking")
				continue
			}
			elems = append(elems, l.expr(c))
		}
		return l.b.List(sp, elems...)
	case "await":
		if kids := namedChildren(n); len(kids) == 1 {
			return l.b.Await(sp, l.expr(kids[0]))
		}
	case "yield":
		for i := uint(0); i < n.ChildCount(); i++ {
			if n.Child(i).Kind() == "from" {
				l.unsupported(n, "yield from")
				return l.b.None(sp)
			}
		}
		value := ast.NoExprID
		if kids := namedChildren(n); len(kids) > 0 {
			value = l.expr(kids[0])
		}
		return l.b.Yield(sp, value)
	}
	l.unsupported(n, exprName(n.Kind()))
	return l.b.None(sp)
}

func exprName(kind string) string {
	switch kind {
	case "conditional_expression":
		return "conditional expression"
	case "lambda":
		return "lambda"
	case "subscript":
		return "subscript"
	case "dictionary":
		return "dict literal"
	case "set":
		return "set literal"
	case "tuple", "expression_list":
		return "tuple"
	case "list_comprehension", "dictionary_comprehension", "set_comprehension", "generator_expression":
		return "comprehension"
	}
	return kind
}

func (l *lowerer) call(n *sitter.Node) ast.ExprID {
	callee := l.expr(n.ChildByFieldName("function"))
	argsNode := n.ChildByFieldName("arguments")
	if argsNode != nil && argsNode.Kind() != "argument_list" {
		l.unsupported(argsNode, "comprehension")
		return l.b.Call(l.span(n), callee)
	}
	var args []ast.ExprID
	for _, a := range namedChildren(argsNode) {
		switch a.Kind() {
		case "keyword_argument":
			l.unsupported(a, "keyword argument")
			continue
		case "list_splat", "dictionary_splat":
			l.unsupported(a, "argument unpacking")
			continue
		}
		args = append(args, l.expr(a))
	}
	return l.b.Call(l.span(n), callee, args...)
}

// comparison lowers a chain a < b < c into (a < b) and (b < c).
func (l *lowerer) comparison(n *sitter.Node) ast.ExprID {
	var (
		operands []*sitter.Node
		ops      []string
	)
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		switch {
		case c.Kind() == "comment":
		case c.IsNamed():
			operands = append(operands, c)
		default:
			ops = append(ops, c.Kind())
		}
	}
	if len(operands) != len(ops)+1 || len(ops) == 0 {
		l.unsupported(n, "comparison")
		return l.b.None(l.span(n))
	}
	var out ast.ExprID
	for i, opText := range ops {
		op, ok := compareOps[opText]
		if !ok {
			l.unsupported(n, "operator "+opText)
			return l.b.None(l.span(n))
		}
		sp := l.span(operands[i]).Cover(l.span(operands[i+1]))
		cmp := l.b.Binary(sp, op, l.expr(operands[i]), l.expr(operands[i+1]))
		if out == ast.NoExprID {
			out = cmp
			continue
		}
		out = l.b.Binary(l.span(n), ast.OpAnd, out, cmp)
	}
	return out
}
