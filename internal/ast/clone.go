package ast

// CloneItemFrom deep-copies item from src into b with fresh IDs. src may be
// b itself or the finished tree of another module.
func (b *Builder) CloneItemFrom(src *Builder, item ItemID) ItemID {
	c := cloner{dst: b, src: src}
	return c.item(item)
}

type cloner struct {
	dst, src *Builder
}

func (c *cloner) item(id ItemID) ItemID {
	it := c.src.Item(id)
	if it == nil {
		return NoItemID
	}
	cp := *it
	cp.Params = make([]Param, len(it.Params))
	for i, p := range it.Params {
		p.Type = c.typeExpr(p.Type)
		cp.Params[i] = p
	}
	cp.Result = c.typeExpr(it.Result)
	cp.Body = c.stmts(it.Body)
	cp.TypeParams = append([]string(nil), it.TypeParams...)
	if len(it.Bases) > 0 {
		cp.Bases = make([]Base, len(it.Bases))
		for i, base := range it.Bases {
			base.Args = c.typeExprs(base.Args)
			cp.Bases[i] = base
		}
	}
	return ItemID(c.dst.Items.Allocate(cp))
}

func (c *cloner) stmts(ids []StmtID) []StmtID {
	if ids == nil {
		return nil
	}
	out := make([]StmtID, len(ids))
	for i, id := range ids {
		out[i] = c.stmt(id)
	}
	return out
}

func (c *cloner) stmt(id StmtID) StmtID {
	s := c.src.Stmt(id)
	if s == nil {
		return NoStmtID
	}
	cp := *s
	cp.Expr = c.expr(s.Expr)
	cp.Target = c.expr(s.Target)
	cp.Type = c.typeExpr(s.Type)
	cp.Body = c.stmts(s.Body)
	cp.Else = c.stmts(s.Else)
	if s.Cases != nil {
		cp.Cases = make([]MatchCase, len(s.Cases))
		for i, mc := range s.Cases {
			mc.Body = c.stmts(mc.Body)
			cp.Cases[i] = mc
		}
	}
	if s.Item.IsValid() {
		cp.Item = c.item(s.Item)
	}
	if s.Import != nil {
		im := *s.Import
		im.Names = append([]ImportName(nil), s.Import.Names...)
		cp.Import = &im
	}
	return c.dst.newStmt(cp)
}

func (c *cloner) expr(id ExprID) ExprID {
	e := c.src.Expr(id)
	if e == nil {
		return NoExprID
	}
	cp := *e
	cp.X = c.expr(e.X)
	cp.Y = c.expr(e.Y)
	if e.Args != nil {
		cp.Args = make([]ExprID, len(e.Args))
		for i, a := range e.Args {
			cp.Args[i] = c.expr(a)
		}
	}
	return c.dst.newExpr(cp)
}

func (c *cloner) typeExprs(ids []TypeExprID) []TypeExprID {
	if ids == nil {
		return nil
	}
	out := make([]TypeExprID, len(ids))
	for i, id := range ids {
		out[i] = c.typeExpr(id)
	}
	return out
}

func (c *cloner) typeExpr(id TypeExprID) TypeExprID {
	t := c.src.TypeExpr(id)
	if t == nil {
		return NoTypeExprID
	}
	cp := *t
	cp.Args = c.typeExprs(t.Args)
	return TypeExprID(c.dst.TypeExprs.Allocate(cp))
}

// CloneStmtFrom deep-copies one statement of src into b.
func (b *Builder) CloneStmtFrom(src *Builder, stmt StmtID) StmtID {
	c := cloner{dst: b, src: src}
	return c.stmt(stmt)
}
