package ast

import "viper/internal/source"

type StmtKind uint8

const (
	StmtExpr StmtKind = iota + 1
	StmtDecl          // x: T [= v]
	StmtAssign        // target = v, target is Ident or Member
	StmtReturn
	StmtIf // elif lowers to a nested If in Else
	StmtWhile
	StmtFor
	StmtMatch
	StmtPass
	StmtBreak
	StmtContinue
	StmtDef
	StmtImport
)

func (k StmtKind) String() string {
	switch k {
	case StmtExpr:
		return "expr"
	case StmtDecl:
		return "decl"
	case StmtAssign:
		return "assign"
	case StmtReturn:
		return "return"
	case StmtIf:
		return "if"
	case StmtWhile:
		return "while"
	case StmtFor:
		return "for"
	case StmtMatch:
		return "match"
	case StmtPass:
		return "pass"
	case StmtBreak:
		return "break"
	case StmtContinue:
		return "continue"
	case StmtDef:
		return "def"
	case StmtImport:
		return "import"
	}
	return "stmt"
}

// MatchCase is one arm of a match. An empty Class is the wildcard.
type MatchCase struct {
	Span        source.Span
	Class       string
	ClassSpan   source.Span
	Capture     string // "case Dog() as d"
	CaptureSpan source.Span
	Body        []StmtID
}

type ImportName struct {
	Name  string
	Alias string
	Span  source.Span
}

// Import covers "import m [as a]" and "from m import n [as a], ...".
type Import struct {
	Module     string
	ModuleSpan source.Span
	Alias      string
	Names      []ImportName
}

// Bound returns the local name an import introduces for a plain import.
func (im *Import) Bound() string {
	if im.Alias != "" {
		return im.Alias
	}
	return im.Module
}

type Stmt struct {
	Kind     StmtKind
	Span     source.Span
	Expr     ExprID // value, condition, iterable, subject
	Target   ExprID // StmtAssign
	Name     string // StmtDecl, StmtFor
	NameSpan source.Span
	Type     TypeExprID
	Body     []StmtID
	Else     []StmtID
	Cases    []MatchCase
	Item     ItemID
	Import   *Import
}
