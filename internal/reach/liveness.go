package reach

import (
	"viper/internal/ast"
	"viper/internal/diag"
)

// Liveness is the result of reachability analysis for one module.
type Liveness struct {
	live map[ast.ItemID]bool
	dead map[ast.StmtID]bool
}

// Analyze computes which functions are reachable and which statements are
// straight-line dead. Library modules also root their public surface.
func Analyze(b *ast.Builder, file ast.FileID, g *Graph, library bool) *Liveness {
	l := &Liveness{
		live: make(map[ast.ItemID]bool),
		dead: make(map[ast.StmtID]bool),
	}
	if f := b.File(file); f != nil {
		l.markDead(b, f.Body)
	}
	for _, id := range g.Order {
		if it := b.Item(id); it != nil {
			l.markDead(b, it.Body)
		}
	}

	work := []ast.ItemID{ast.NoItemID}
	if library {
		for _, id := range g.Order {
			if g.Funcs[id].Public() {
				work = append(work, id)
			}
		}
	}
	l.live[ast.NoItemID] = true
	for _, id := range work[1:] {
		l.live[id] = true
	}

	push := func(id ast.ItemID) {
		if id.IsValid() && !l.live[id] {
			l.live[id] = true
			work = append(work, id)
		}
	}
	for len(work) > 0 {
		fn := work[len(work)-1]
		work = work[:len(work)-1]
		for _, e := range g.Calls[fn] {
			if !l.dead[e.Stmt] {
				push(e.To)
			}
		}
		for _, e := range g.Constructs[fn] {
			if !l.dead[e.Stmt] {
				push(g.Inits[e.To])
			}
		}
		for _, e := range g.Methods[fn] {
			if l.dead[e.Stmt] {
				continue
			}
			for _, m := range g.ByMethod[e.Method] {
				push(m)
			}
		}
	}
	return l
}

// markDead flags statements that can never run: everything after a return,
// break or continue in the same block, and bodies guarded by a literal False.
// Nested defs are handled by their own item.
func (l *Liveness) markDead(b *ast.Builder, body []ast.StmtID) {
	terminated := false
	for _, id := range body {
		s := b.Stmt(id)
		if s == nil {
			continue
		}
		if terminated {
			l.killBlock(b, []ast.StmtID{id})
			continue
		}
		switch s.Kind {
		case ast.StmtReturn, ast.StmtBreak, ast.StmtContinue:
			terminated = true
		case ast.StmtIf:
			switch literalBool(b, s.Expr) {
			case boolFalse:
				l.killBlock(b, s.Body)
				l.markDead(b, s.Else)
			case boolTrue:
				l.markDead(b, s.Body)
				l.killBlock(b, s.Else)
			default:
				l.markDead(b, s.Body)
				l.markDead(b, s.Else)
			}
		case ast.StmtWhile:
			if literalBool(b, s.Expr) == boolFalse {
				l.killBlock(b, s.Body)
			} else {
				l.markDead(b, s.Body)
			}
		case ast.StmtFor:
			l.markDead(b, s.Body)
		case ast.StmtMatch:
			for _, mc := range s.Cases {
				l.markDead(b, mc.Body)
			}
		}
	}
}

func (l *Liveness) killBlock(b *ast.Builder, body []ast.StmtID) {
	b.WalkStmts(body, func(id ast.StmtID, _ *ast.Stmt) bool {
		l.dead[id] = true
		return true
	})
}

type triBool uint8

const (
	boolUnknown triBool = iota
	boolTrue
	boolFalse
)

func literalBool(b *ast.Builder, e ast.ExprID) triBool {
	x := b.Expr(e)
	if x == nil || x.Kind != ast.ExprBool {
		return boolUnknown
	}
	if x.Bool {
		return boolTrue
	}
	return boolFalse
}

// Live reports whether fn is reachable; ast.NoItemID is the module body.
func (l *Liveness) Live(fn ast.ItemID) bool {
	return l.live[fn]
}

// Dead reports whether stmt is straight-line dead.
func (l *Liveness) Dead(stmt ast.StmtID) bool {
	return l.dead[stmt]
}

// Reachability classifies a site inside fn at stmt.
func (l *Liveness) Reachability(fn ast.ItemID, stmt ast.StmtID) diag.Reachability {
	if l == nil {
		return diag.LivePath
	}
	if !l.live[fn] || l.dead[stmt] {
		return diag.DeadPath
	}
	return diag.LivePath
}

// LiveFuncs returns the reachable function items in graph order.
func (l *Liveness) LiveFuncs(g *Graph) []ast.ItemID {
	var out []ast.ItemID
	for _, id := range g.Order {
		if l.live[id] {
			out = append(out, id)
		}
	}
	return out
}
