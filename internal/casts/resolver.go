package casts

import (
	"fmt"

	"viper/internal/ast"
	"viper/internal/constraints"
	"viper/internal/diag"
	"viper/internal/source"
	"viper/internal/types"
)

// Reach classifies the site of an obligation.
type Reach func(constraints.Origin) diag.Reachability

type siteKey struct {
	expr ast.ExprID
	span source.Span
	to   types.TypeID
}

// Resolver inserts coercion nodes for the cast obligations of one module.
type Resolver struct {
	b      *ast.Builder
	in     *types.Interner
	module string
	seen   map[siteKey]bool
}

func NewResolver(b *ast.Builder, in *types.Interner, module string) *Resolver {
	return &Resolver{b: b, in: in, module: module, seen: make(map[siteKey]bool)}
}

// Resolve wraps every coercible site and returns one CastInserted warning
// per site. Obligations without a rule give back their pending error.
// exprTypes, if not nil, is updated so the wrapper has the target type and
// the moved node keeps the source type.
func (r *Resolver) Resolve(obs []constraints.CastObligation, reach Reach, exprTypes map[ast.ExprID]types.TypeID) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, ob := range obs {
		reachability := diag.LivePath
		if reach != nil {
			reachability = reach(ob.Origin)
		}
		rule, ok := Find(r.in, ob.From, ob.To)
		if !ok {
			d := ob.Pending
			d.Reachability = reachability
			out = append(out, d)
			continue
		}
		key := siteKey{expr: ob.Expr, to: ob.To}
		if !ob.Expr.IsValid() {
			key.span = ob.Span
		}
		if r.seen[key] {
			continue
		}
		r.seen[key] = true

		if ob.Expr.IsValid() {
			inner := r.b.WrapCoerce(ob.Expr, ob.To, rule.String())
			if exprTypes != nil {
				exprTypes[inner] = ob.From
				exprTypes[ob.Expr] = ob.To
			}
		}
		d := diag.New(diag.SevWarning, diag.CastInserted, ob.Span,
			fmt.Sprintf("implicit %s cast from %s to %s", rule, r.in.Format(ob.From), r.in.Format(ob.To)))
		d.Reachability = reachability
		d.Module = r.module
		out = append(out, d)
	}
	return out
}
