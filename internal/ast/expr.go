package ast

import (
	"viper/internal/source"
	"viper/internal/types"
)

type ExprKind uint8

const (
	ExprIdent ExprKind = iota + 1
	ExprInt
	ExprFloat
	ExprStr
	ExprBool
	ExprNone
	ExprCall
	ExprMember
	ExprBinary
	ExprUnary
	ExprList
	ExprAwait
	ExprYield
	ExprCoerce // вставляется резолвером приведений
)

type Op uint8

const (
	OpInvalid Op = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpFloorDiv
	OpMod
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpNot
	OpNeg
	OpPos
)

var opText = map[Op]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpFloorDiv: "//", OpMod: "%",
	OpEq: "==", OpNe: "!=", OpLt: "<", OpLe: "<=", OpGt: ">", OpGe: ">=",
	OpAnd: "and", OpOr: "or", OpNot: "not", OpNeg: "-", OpPos: "+",
}

func (o Op) String() string {
	if s, ok := opText[o]; ok {
		return s
	}
	return "?"
}

// Compare reports whether o yields a bool from two operands.
func (o Op) Compare() bool { return o >= OpEq && o <= OpGe }

// Logical covers and/or/not.
func (o Op) Logical() bool { return o == OpAnd || o == OpOr || o == OpNot }

// ParseBinaryOp maps operator text to an Op.
func ParseBinaryOp(s string) Op {
	for op, txt := range opText {
		if txt == s && op != OpNeg && op != OpPos && op != OpNot {
			return op
		}
	}
	return OpInvalid
}

type Expr struct {
	Kind ExprKind
	Span source.Span
	Name string // ident, member attribute
	Lit  string // литерал как в исходнике
	Bool bool
	X    ExprID // callee, receiver, operand, inner
	Y    ExprID
	Op   Op
	Args []ExprID // call arguments, list elements

	CoerceTo   types.TypeID
	CoerceRule string
}
