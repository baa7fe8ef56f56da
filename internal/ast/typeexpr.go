package ast

import "viper/internal/source"

// TypeExpr is an annotation such as int, list[str] or Box[T].
type TypeExpr struct {
	Span source.Span
	Name string
	Args []TypeExprID
}
