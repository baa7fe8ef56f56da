package ast

import "viper/internal/source"

type ItemKind uint8

const (
	ItemFunc ItemKind = iota + 1
	ItemClass
)

func (k ItemKind) String() string {
	switch k {
	case ItemFunc:
		return "func"
	case ItemClass:
		return "class"
	}
	return "item"
}

type Param struct {
	Name string
	Span source.Span
	Type TypeExprID // NoTypeExprID: выводится
}

type Base struct {
	Name string
	Span source.Span
	Args []TypeExprID
}

// Item is a function or class declaration.
type Item struct {
	Kind     ItemKind
	Span     source.Span
	Name     string
	NameSpan source.Span
	Body     []StmtID

	// функции
	Params []Param
	Result TypeExprID
	Async  bool
	Method bool // объявлена в теле класса, Params[0] это self

	// классы
	TypeParams []string
	Bases      []Base

	// Origin is set on methods copied from a base class: the base's name.
	Origin string
}

// Receiver returns the self parameter of a method.
func (it *Item) Receiver() (Param, bool) {
	if it.Kind != ItemFunc || !it.Method || len(it.Params) == 0 {
		return Param{}, false
	}
	return it.Params[0], true
}

// Explicit returns the parameters excluding the method receiver.
func (it *Item) Explicit() []Param {
	if _, ok := it.Receiver(); ok {
		return it.Params[1:]
	}
	return it.Params
}
