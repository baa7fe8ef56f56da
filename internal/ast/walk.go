package ast

// WalkStmts visits body in program order, descending into if, while, for
// and match bodies but not into nested defs. Returning false from visit
// skips the children of that statement.
func (b *Builder) WalkStmts(body []StmtID, visit func(StmtID, *Stmt) bool) {
	for _, id := range body {
		s := b.Stmt(id)
		if s == nil || !visit(id, s) {
			continue
		}
		b.WalkStmts(s.Body, visit)
		b.WalkStmts(s.Else, visit)
		for _, mc := range s.Cases {
			b.WalkStmts(mc.Body, visit)
		}
	}
}

// WalkExpr visits e and its subexpressions depth-first.
func (b *Builder) WalkExpr(e ExprID, visit func(ExprID, *Expr)) {
	x := b.Expr(e)
	if x == nil {
		return
	}
	visit(e, x)
	b.WalkExpr(x.X, visit)
	b.WalkExpr(x.Y, visit)
	for _, a := range x.Args {
		b.WalkExpr(a, visit)
	}
}

// StmtExprs lists the top-level expressions a statement owns.
func (s *Stmt) StmtExprs() []ExprID {
	var out []ExprID
	if s.Target.IsValid() {
		out = append(out, s.Target)
	}
	if s.Expr.IsValid() {
		out = append(out, s.Expr)
	}
	return out
}

// ContainsYield reports whether a function body yields, ignoring nested defs.
func (b *Builder) ContainsYield(body []StmtID) bool {
	found := false
	b.WalkStmts(body, func(_ StmtID, s *Stmt) bool {
		for _, e := range s.StmtExprs() {
			b.WalkExpr(e, func(_ ExprID, x *Expr) {
				if x.Kind == ExprYield {
					found = true
				}
			})
		}
		return !found
	})
	return found
}
