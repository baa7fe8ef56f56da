package constraints

import (
	"viper/internal/ast"
	"viper/internal/diag"
	"viper/internal/source"
	"viper/internal/types"
)

type Kind uint8

const (
	// Equal is a hard equality solved by union-find.
	Equal Kind = iota + 1
	// Flow says a value of type A flows into a slot of type B. It joins
	// lower bounds and may be satisfied through a coercion at Expr.
	Flow
	// Method: A.Name(Args...) -> Result.
	Method
	// Field: A.Name -> Result.
	Field
	// Iter: element type of iterating A is Result.
	Iter
	// Binary: A Op B -> Result.
	Binary
	// Unary: Op A -> Result.
	Unary
	// Await: await A -> Result.
	Await
	// Call: calling a value of type A with Args -> Result.
	Call
	// Narrow: a match arm tests A against class type B.
	Narrow
)

func (k Kind) String() string {
	switch k {
	case Equal:
		return "equal"
	case Flow:
		return "flow"
	case Method:
		return "method"
	case Field:
		return "field"
	case Iter:
		return "iter"
	case Binary:
		return "binary"
	case Unary:
		return "unary"
	case Await:
		return "await"
	case Call:
		return "call"
	case Narrow:
		return "narrow"
	}
	return "constraint"
}

// Origin locates a constraint for reachability: the enclosing function
// (NoItemID for module code) and the statement being analysed.
type Origin struct {
	Fn   ast.ItemID
	Stmt ast.StmtID
}

type Constraint struct {
	Kind Kind
	A, B types.TypeID

	Name     string
	Op       ast.Op
	Args     []types.TypeID
	ArgExprs []ast.ExprID
	Result   types.TypeID

	// Expr is the value expression of a Flow (where a coercion would go),
	// or the operand expressions of Binary in X/Y order.
	Expr  ast.ExprID
	Expr2 ast.ExprID

	Span   source.Span
	Origin Origin
}

// CastObligation is a coercible mismatch: the value at Expr has type From
// and must become To. Pending holds the InferenceError that stands if no
// coercion rule applies.
type CastObligation struct {
	From, To types.TypeID
	Expr     ast.ExprID
	Span     source.Span
	Origin   Origin
	Pending  diag.Diagnostic
}

// NamedVar is an inference variable that stands for something a user can
// name: a binding, a parameter, a function result.
type NamedVar struct {
	Var    types.TypeID
	What   string
	Name   string
	Span   source.Span
	Origin Origin
}

// Finding is a diagnostic whose reachability is decided after collection.
type Finding struct {
	Diag   diag.Diagnostic
	Origin Origin
}
