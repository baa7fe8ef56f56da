package ast

import (
	"viper/internal/source"
	"viper/internal/types"
)

type Hints struct{ Files, Items, Stmts, Exprs uint }

// Builder owns the arenas of one module's tree. Not safe for concurrent
// mutation; finished trees may be read from other goroutines.
type Builder struct {
	Files     *Arena[File]
	Items     *Arena[Item]
	Stmts     *Arena[Stmt]
	Exprs     *Arena[Expr]
	TypeExprs *Arena[TypeExpr]
}

func NewBuilder(hints Hints) *Builder {
	if hints.Files == 0 {
		hints.Files = 1
	}
	if hints.Items == 0 {
		hints.Items = 1 << 5
	}
	if hints.Stmts == 0 {
		hints.Stmts = 1 << 7
	}
	if hints.Exprs == 0 {
		hints.Exprs = 1 << 8
	}
	return &Builder{
		Files:     NewArena[File](hints.Files),
		Items:     NewArena[Item](hints.Items),
		Stmts:     NewArena[Stmt](hints.Stmts),
		Exprs:     NewArena[Expr](hints.Exprs),
		TypeExprs: NewArena[TypeExpr](hints.Items),
	}
}

func (b *Builder) File(id FileID) *File             { return b.Files.Get(uint32(id)) }
func (b *Builder) Item(id ItemID) *Item             { return b.Items.Get(uint32(id)) }
func (b *Builder) Stmt(id StmtID) *Stmt             { return b.Stmts.Get(uint32(id)) }
func (b *Builder) Expr(id ExprID) *Expr             { return b.Exprs.Get(uint32(id)) }
func (b *Builder) TypeExpr(id TypeExprID) *TypeExpr { return b.TypeExprs.Get(uint32(id)) }

// Files -----------------------------------------------------------------------

func (b *Builder) NewFile(sp source.Span, module string) FileID {
	return FileID(b.Files.Allocate(File{Span: sp, Module: module}))
}

func (b *Builder) PushStmt(file FileID, stmt StmtID) {
	f := b.File(file)
	f.Body = append(f.Body, stmt)
}

// Items -----------------------------------------------------------------------

// Func declares a function item. Set Method on the result for class members.
func (b *Builder) Func(sp source.Span, name string, nameSpan source.Span, params []Param, result TypeExprID, body []StmtID, async bool) ItemID {
	return ItemID(b.Items.Allocate(Item{
		Kind:     ItemFunc,
		Span:     sp,
		Name:     name,
		NameSpan: nameSpan,
		Params:   params,
		Result:   result,
		Body:     body,
		Async:    async,
	}))
}

// Method is Func with the Method flag set; params must start with self.
func (b *Builder) Method(sp source.Span, name string, nameSpan source.Span, params []Param, result TypeExprID, body []StmtID, async bool) ItemID {
	id := b.Func(sp, name, nameSpan, params, result, body, async)
	b.Item(id).Method = true
	return id
}

func (b *Builder) Class(sp source.Span, name string, nameSpan source.Span, typeParams []string, bases []Base, body []StmtID) ItemID {
	return ItemID(b.Items.Allocate(Item{
		Kind:       ItemClass,
		Span:       sp,
		Name:       name,
		NameSpan:   nameSpan,
		TypeParams: typeParams,
		Bases:      bases,
		Body:       body,
	}))
}

// Statements ------------------------------------------------------------------

func (b *Builder) newStmt(s Stmt) StmtID {
	return StmtID(b.Stmts.Allocate(s))
}

func (b *Builder) ExprStmt(sp source.Span, e ExprID) StmtID {
	return b.newStmt(Stmt{Kind: StmtExpr, Span: sp, Expr: e})
}

// Decl is an annotated declaration; value may be NoExprID.
func (b *Builder) Decl(sp source.Span, name string, nameSpan source.Span, typ TypeExprID, value ExprID) StmtID {
	return b.newStmt(Stmt{Kind: StmtDecl, Span: sp, Name: name, NameSpan: nameSpan, Type: typ, Expr: value})
}

func (b *Builder) Assign(sp source.Span, target, value ExprID) StmtID {
	return b.newStmt(Stmt{Kind: StmtAssign, Span: sp, Target: target, Expr: value})
}

func (b *Builder) Return(sp source.Span, value ExprID) StmtID {
	return b.newStmt(Stmt{Kind: StmtReturn, Span: sp, Expr: value})
}

func (b *Builder) If(sp source.Span, cond ExprID, body, els []StmtID) StmtID {
	return b.newStmt(Stmt{Kind: StmtIf, Span: sp, Expr: cond, Body: body, Else: els})
}

func (b *Builder) While(sp source.Span, cond ExprID, body []StmtID) StmtID {
	return b.newStmt(Stmt{Kind: StmtWhile, Span: sp, Expr: cond, Body: body})
}

func (b *Builder) For(sp source.Span, name string, nameSpan source.Span, iter ExprID, body []StmtID) StmtID {
	return b.newStmt(Stmt{Kind: StmtFor, Span: sp, Name: name, NameSpan: nameSpan, Expr: iter, Body: body})
}

func (b *Builder) Match(sp source.Span, subject ExprID, cases []MatchCase) StmtID {
	return b.newStmt(Stmt{Kind: StmtMatch, Span: sp, Expr: subject, Cases: cases})
}

func (b *Builder) Pass(sp source.Span) StmtID     { return b.newStmt(Stmt{Kind: StmtPass, Span: sp}) }
func (b *Builder) Break(sp source.Span) StmtID    { return b.newStmt(Stmt{Kind: StmtBreak, Span: sp}) }
func (b *Builder) Continue(sp source.Span) StmtID { return b.newStmt(Stmt{Kind: StmtContinue, Span: sp}) }

func (b *Builder) Def(sp source.Span, item ItemID) StmtID {
	return b.newStmt(Stmt{Kind: StmtDef, Span: sp, Item: item})
}

func (b *Builder) Import(sp source.Span, im Import) StmtID {
	return b.newStmt(Stmt{Kind: StmtImport, Span: sp, Import: &im})
}

// Expressions -----------------------------------------------------------------

func (b *Builder) newExpr(e Expr) ExprID {
	return ExprID(b.Exprs.Allocate(e))
}

func (b *Builder) Ident(sp source.Span, name string) ExprID {
	return b.newExpr(Expr{Kind: ExprIdent, Span: sp, Name: name})
}

func (b *Builder) Int(sp source.Span, lit string) ExprID {
	return b.newExpr(Expr{Kind: ExprInt, Span: sp, Lit: lit})
}

func (b *Builder) Float(sp source.Span, lit string) ExprID {
	return b.newExpr(Expr{Kind: ExprFloat, Span: sp, Lit: lit})
}

func (b *Builder) Str(sp source.Span, lit string) ExprID {
	return b.newExpr(Expr{Kind: ExprStr, Span: sp, Lit: lit})
}

func (b *Builder) BoolLit(sp source.Span, v bool) ExprID {
	return b.newExpr(Expr{Kind: ExprBool, Span: sp, Bool: v})
}

func (b *Builder) None(sp source.Span) ExprID {
	return b.newExpr(Expr{Kind: ExprNone, Span: sp})
}

func (b *Builder) Call(sp source.Span, callee ExprID, args ...ExprID) ExprID {
	return b.newExpr(Expr{Kind: ExprCall, Span: sp, X: callee, Args: args})
}

func (b *Builder) Member(sp source.Span, recv ExprID, name string) ExprID {
	return b.newExpr(Expr{Kind: ExprMember, Span: sp, X: recv, Name: name})
}

func (b *Builder) Binary(sp source.Span, op Op, x, y ExprID) ExprID {
	return b.newExpr(Expr{Kind: ExprBinary, Span: sp, Op: op, X: x, Y: y})
}

func (b *Builder) Unary(sp source.Span, op Op, x ExprID) ExprID {
	return b.newExpr(Expr{Kind: ExprUnary, Span: sp, Op: op, X: x})
}

func (b *Builder) List(sp source.Span, elems ...ExprID) ExprID {
	return b.newExpr(Expr{Kind: ExprList, Span: sp, Args: elems})
}

func (b *Builder) Await(sp source.Span, x ExprID) ExprID {
	return b.newExpr(Expr{Kind: ExprAwait, Span: sp, X: x})
}

// Yield with NoExprID yields None.
func (b *Builder) Yield(sp source.Span, x ExprID) ExprID {
	return b.newExpr(Expr{Kind: ExprYield, Span: sp, X: x})
}

// WrapCoerce turns the node at e into a coercion of its former self to `to`.
// Parents keep pointing at e, which now names the Coerce node; the original
// expression moves to a fresh ID.
func (b *Builder) WrapCoerce(e ExprID, to types.TypeID, rule string) ExprID {
	orig := b.Expr(e)
	if orig == nil {
		return NoExprID
	}
	inner := b.newExpr(*orig)
	// после Allocate указатель мог устареть
	slot := b.Expr(e)
	*slot = Expr{
		Kind:       ExprCoerce,
		Span:       slot.Span,
		X:          inner,
		CoerceTo:   to,
		CoerceRule: rule,
	}
	return inner
}

// Type expressions ------------------------------------------------------------

func (b *Builder) TypeName(sp source.Span, name string, args ...TypeExprID) TypeExprID {
	return TypeExprID(b.TypeExprs.Allocate(TypeExpr{Span: sp, Name: name, Args: args}))
}
