package infer

import (
	"fmt"

	"viper/internal/casts"
	"viper/internal/constraints"
	"viper/internal/diag"
	"viper/internal/source"
	"viper/internal/types"
)

// final is zonk with every variable still unbound replaced by Any.
func (s *solver) final(t types.TypeID) types.TypeID {
	return s.in.Map(s.zonk(t), func(id types.TypeID) (types.TypeID, bool) {
		if s.isVar(id) {
			return s.bi.Any, true
		}
		return types.NoTypeID, false
	})
}

func (s *solver) finish(sol *Solution) {
	s.reportUnresolved(sol)

	for _, ref := range s.opts.Classes {
		s.in.Seal(ref, s.final)
	}

	type siteKey struct {
		span     source.Span
		from, to types.TypeID
	}
	seen := make(map[siteKey]bool)
	for _, f := range s.flows {
		from, to := s.final(f.value), s.final(f.slot)
		if s.compatible(from, to) {
			continue
		}
		key := siteKey{span: f.span, from: from, to: to}
		if seen[key] {
			continue
		}
		seen[key] = true
		msg := s.flowMessage(f, from, to)
		if _, ok := casts.Find(s.in, from, to); ok {
			pending := diag.NewError(diag.InfConflict, f.span, msg)
			pending.Module = s.opts.Module
			sol.Obligations = append(sol.Obligations, constraints.CastObligation{
				From: from, To: to, Expr: f.expr, Span: f.span, Origin: f.origin, Pending: pending,
			})
			continue
		}
		s.errorf(f.origin, diag.InfConflict, f.span, "%s", msg)
	}

	sol.Subst = make(Substitution)
	record := func(t types.TypeID) {
		for _, v := range s.in.FreeVars(t) {
			if _, ok := sol.Subst[v]; !ok {
				sol.Subst[v] = s.final(v)
			}
		}
	}
	for _, k := range s.set.Constraints {
		record(k.A)
		record(k.B)
		record(k.Result)
		for _, a := range k.Args {
			record(a)
		}
	}
	for _, nv := range s.set.Named {
		record(nv.Var)
	}
	for _, t := range s.set.ExprTypes {
		record(t)
	}
	for _, f := range s.flows {
		record(f.value)
		record(f.slot)
	}
	sol.Findings = s.findings
}

// reportUnresolved names every user-visible variable that has no type.
func (s *solver) reportUnresolved(sol *Solution) {
	reported := make(map[types.TypeID]bool)
	for _, nv := range s.set.Named {
		h := s.shallow(nv.Var)
		if !s.isVar(h) || reported[h] {
			continue
		}
		reported[h] = true
		if sol.Diverged {
			s.errorf(nv.Origin, diag.InfDivergence, nv.Span,
				"inference of %s %q did not settle within %d rounds", nv.What, nv.Name, s.opts.MaxIterations)
			continue
		}
		s.errorf(nv.Origin, diag.InfUnresolved, nv.Span, "cannot infer the type of %s %q", nv.What, nv.Name)
	}
}

// compatible reports whether a value of type from fits a slot of type to
// without a conversion. None fits every slot; Any fits and accepts anything.
func (s *solver) compatible(from, to types.TypeID) bool {
	if from == to {
		return true
	}
	kf, kt := s.in.KindOf(from), s.in.KindOf(to)
	if kf == types.KindNone || kf == types.KindAny || kt == types.KindAny {
		return true
	}
	if kf != kt {
		return false
	}
	switch kf {
	case types.KindClass:
		rf, af, _ := s.in.ClassOf(from)
		rt, at, _ := s.in.ClassOf(to)
		if rf != rt || len(af) != len(at) {
			return false
		}
		for i := range af {
			if !s.compatibleExact(af[i], at[i]) {
				return false
			}
		}
		return true
	case types.KindFn:
		ff, _ := s.in.FnInfo(from)
		ft, _ := s.in.FnInfo(to)
		if len(ff.Params) != len(ft.Params) {
			return false
		}
		for i := range ff.Params {
			if !s.compatibleExact(ff.Params[i], ft.Params[i]) {
				return false
			}
		}
		return s.compatibleExact(ff.Result, ft.Result)
	}
	return false
}

// compatibleExact is equality up to Any, used for invariant positions.
func (s *solver) compatibleExact(a, b types.TypeID) bool {
	if a == b || s.in.KindOf(a) == types.KindAny || s.in.KindOf(b) == types.KindAny {
		return true
	}
	return s.compatible(a, b) && s.compatible(b, a)
}

func (s *solver) flowMessage(f flow, from, to types.TypeID) string {
	if nv, ok := s.nameOf(s.find(f.slot)); ok && s.isVar(f.slot) {
		return fmt.Sprintf("cannot assign %s to %s %q of type %s", s.in.Format(from), nv.What, nv.Name, s.in.Format(to))
	}
	return fmt.Sprintf("cannot use %s as %s", s.in.Format(from), s.in.Format(to))
}
