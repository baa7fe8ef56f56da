package pyfront

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"viper/internal/ast"
)

// typeExpr lowers an annotation. Optional[X] and X | None become X since
// None is accepted by every slot.
func (l *lowerer) typeExpr(n *sitter.Node) ast.TypeExprID {
	if n == nil {
		return ast.NoTypeExprID
	}
	sp := l.span(n)
	switch n.Kind() {
	case "type":
		if kids := namedChildren(n); len(kids) == 1 {
			return l.typeExpr(kids[0])
		}
	case "identifier", "attribute", "member_type":
		if name, ok := l.typeName(n); ok {
			return l.b.TypeName(sp, name)
		}
	case "none":
		return l.b.TypeName(sp, "None")
	case "string":
		// отложенная аннотация "Dog"
		name := strings.Trim(l.text(n), `"'`)
		if name != "" && !strings.ContainsAny(name, "[]| ") {
			return l.b.TypeName(sp, name)
		}
	case "subscript":
		name, ok := l.typeName(n.ChildByFieldName("value"))
		if !ok {
			break
		}
		return l.generic(n, name, fieldChildren(n, "subscript"))
	case "generic_type":
		kids := namedChildren(n)
		if len(kids) != 2 {
			break
		}
		name, ok := l.typeName(kids[0])
		if !ok {
			break
		}
		return l.generic(n, name, namedChildren(kids[1]))
	case "union_type", "binary_operator":
		if other, ok := l.optionalArm(n); ok {
			return l.typeExpr(other)
		}
	}
	l.unsupported(n, "this annotation")
	return ast.NoTypeExprID
}

func (l *lowerer) typeName(n *sitter.Node) (string, bool) {
	if n == nil {
		return "", false
	}
	var name string
	if n.Kind() == "member_type" {
		name = strings.Join(strings.Fields(l.text(n)), "")
	} else {
		var ok bool
		if name, ok = l.dottedName(n); !ok {
			return "", false
		}
	}
	return strings.TrimPrefix(name, "typing."), true
}

func (l *lowerer) generic(n *sitter.Node, name string, argNodes []*sitter.Node) ast.TypeExprID {
	if name == "Optional" && len(argNodes) == 1 {
		return l.typeExpr(argNodes[0])
	}
	args := make([]ast.TypeExprID, 0, len(argNodes))
	for _, a := range argNodes {
		args = append(args, l.typeExpr(a))
	}
	return l.b.TypeName(l.span(n), name, args...)
}

// optionalArm picks X out of "X | None" or "None | X".
func (l *lowerer) optionalArm(n *sitter.Node) (*sitter.Node, bool) {
	kids := namedChildren(n)
	if len(kids) != 2 {
		return nil, false
	}
	if n.Kind() == "binary_operator" && l.text(n.ChildByFieldName("operator")) != "|" {
		return nil, false
	}
	isNone := func(x *sitter.Node) bool {
		if x.Kind() == "type" {
			if inner := namedChildren(x); len(inner) == 1 {
				x = inner[0]
			}
		}
		return x.Kind() == "none"
	}
	switch {
	case isNone(kids[1]):
		return kids[0], true
	case isNone(kids[0]):
		return kids[1], true
	}
	return nil, false
}
