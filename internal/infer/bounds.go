package infer

import (
	"fmt"
	"slices"

	"viper/internal/constraints"
	"viper/internal/diag"
	"viper/internal/types"
)

// joinStructural makes the arguments of same-class flows equal: a flow of
// list[?1] into list[int] fixes ?1. Mismatches are left to the final check.
func (s *solver) joinStructural() {
	for _, f := range s.flows {
		v, sl := s.shallow(f.value), s.shallow(f.slot)
		if s.isVar(v) || s.isVar(sl) || v == sl {
			continue
		}
		rv, _, okv := s.in.ClassOf(v)
		rs, _, oks := s.in.ClassOf(sl)
		if okv && oks && rv == rs {
			s.unifyTypes(v, sl)
			continue
		}
		if s.in.KindOf(v) == types.KindFn && s.in.KindOf(sl) == types.KindFn {
			s.unifyTypes(v, sl)
		}
	}
}

// collectRequirements records the method names each unresolved receiver
// must provide.
func (s *solver) collectRequirements() {
	s.reqs = make(map[types.TypeID][]string)
	for i := range s.set.Constraints {
		k := &s.set.Constraints[i]
		if s.done[i] || k.Kind != constraints.Method || k.Name == "__init__" || !types.IsPublic(k.Name) {
			continue
		}
		r := s.shallow(k.A)
		if !s.isVar(r) {
			continue
		}
		if !slices.Contains(s.reqs[r], k.Name) {
			s.reqs[r] = append(s.reqs[r], k.Name)
		}
	}
}

type lower struct {
	t    types.TypeID
	flow int
}

// slotIndex groups flows by the unresolved representative they flow into,
// in first-seen order.
func (s *solver) slotIndex() ([]types.TypeID, map[types.TypeID][]int) {
	var order []types.TypeID
	idx := make(map[types.TypeID][]int)
	for i, f := range s.flows {
		sl := s.shallow(f.slot)
		if !s.isVar(sl) {
			continue
		}
		if _, ok := idx[sl]; !ok {
			order = append(order, sl)
		}
		idx[sl] = append(idx[sl], i)
	}
	return order, idx
}

// resolveLower joins the lower bounds of every unresolved variable. In
// strict mode a variable waits while any of its bounds is still unknown.
func (s *solver) resolveLower(strict bool) {
	order, idx := s.slotIndex()
	for _, rep := range order {
		if r := s.shallow(rep); !s.isVar(r) || r != rep {
			continue
		}
		var lows []lower
		pending := false
		for _, fi := range idx[rep] {
			v := s.zonk(s.flows[fi].value)
			if s.isVar(v) {
				if v != rep {
					pending = true
				}
				continue
			}
			lows = append(lows, lower{t: v, flow: fi})
		}
		if len(lows) == 0 || (strict && pending) {
			continue
		}
		if strict && len(s.reqs[rep]) > 0 && !s.signaturesGround(lows) {
			continue
		}
		t := s.join(rep, lows)
		if m := s.bind(rep, t); m != nil {
			f := s.flows[lows[0].flow]
			s.errorf(f.origin, diag.InfInfiniteType, f.span, "infinite type: %s occurs in %s", s.show(rep), s.show(t))
			s.bound[rep] = s.bi.Any
			s.changed = true
		}
	}
}

func (s *solver) signaturesGround(lows []lower) bool {
	for _, l := range lows {
		for _, m := range s.methodSet(l.t) {
			if !s.in.IsGround(m.Fn) {
				return false
			}
		}
	}
	return true
}

// join picks the type of rep from its concrete lower bounds.
func (s *solver) join(rep types.TypeID, lows []lower) types.TypeID {
	var cands []lower
	for _, l := range lows {
		switch s.in.KindOf(l.t) {
		case types.KindAny:
			return s.bi.Any
		case types.KindNone:
			continue
		}
		if !slices.ContainsFunc(cands, func(c lower) bool { return c.t == l.t }) {
			cands = append(cands, l)
		}
	}
	switch len(cands) {
	case 0:
		return s.bi.None
	case 1:
		return cands[0].t
	}
	ts := make([]types.TypeID, len(cands))
	for i, c := range cands {
		ts[i] = c.t
	}
	if w := s.in.Widest(ts...); w != types.NoTypeID {
		return w
	}
	if t, ok := s.sameClass(ts); ok {
		return t
	}
	if names := s.reqs[rep]; len(names) > 0 {
		if t, ok := s.projectAll(ts, names); ok {
			return t
		}
	}
	sets := make([][]types.MethodSig, len(ts))
	for i, t := range ts {
		sets[i] = s.methodSet(t)
	}
	if common := types.IntersectMethods(sets...); len(common) > 0 {
		return s.in.Interface(common)
	}
	s.conflict(rep, cands)
	return s.bi.Any
}

// sameClass unifies instances of one generic class, e.g. list[?1] and list[int].
func (s *solver) sameClass(ts []types.TypeID) (types.TypeID, bool) {
	ref, _, ok := s.in.ClassOf(ts[0])
	if !ok {
		return types.NoTypeID, false
	}
	for _, t := range ts[1:] {
		if r, _, ok := s.in.ClassOf(t); !ok || r != ref {
			return types.NoTypeID, false
		}
	}
	for _, t := range ts[1:] {
		if s.unifyTypes(ts[0], t) != nil {
			return types.NoTypeID, false
		}
	}
	return s.zonk(ts[0]), true
}

// projectAll builds the interface of the required methods from the first
// candidate; every other candidate must carry identical signatures.
func (s *solver) projectAll(ts []types.TypeID, names []string) (types.TypeID, bool) {
	first, ok := types.SelectMethods(s.methodSet(ts[0]), names)
	if !ok {
		return types.NoTypeID, false
	}
	for _, t := range ts[1:] {
		other, ok := types.SelectMethods(s.methodSet(t), names)
		if !ok || !slices.Equal(first, other) {
			return types.NoTypeID, false
		}
	}
	return s.in.Interface(first), true
}

// methodSet is the public method set of t with current knowledge applied.
func (s *solver) methodSet(t types.TypeID) []types.MethodSig {
	set := s.in.MethodSetWith(t, s.zonk)
	out := make([]types.MethodSig, len(set))
	for i, m := range set {
		out[i] = types.MethodSig{Name: m.Name, Fn: s.zonk(m.Fn)}
	}
	return out
}

func (s *solver) conflict(rep types.TypeID, cands []lower) {
	s.conflicted[rep] = true
	first := cands[0]
	bad := cands[1]
	for _, c := range cands[1:] {
		if !s.in.Widens(c.t, first.t) && !s.in.Widens(first.t, c.t) {
			bad = c
			break
		}
	}
	f := s.flows[bad.flow]
	what := "value"
	if nv, ok := s.nameOf(rep); ok {
		what = fmt.Sprintf("%s %q", nv.What, nv.Name)
	}
	s.report(f.origin, diag.SevError, diag.InfConflict, f.span,
		fmt.Sprintf("%s cannot be both %s and %s", what, s.in.Format(first.t), s.in.Format(bad.t)),
		diag.Note{Span: s.flows[first.flow].span, Msg: "first assigned " + s.in.Format(first.t) + " here"})
}

// nameOf finds the user-facing name of a representative.
func (s *solver) nameOf(rep types.TypeID) (constraints.NamedVar, bool) {
	for _, nv := range s.set.Named {
		if s.find(nv.Var) == rep {
			return nv, true
		}
	}
	return constraints.NamedVar{}, false
}

// resolveRequirements types receivers that have no lower bounds from the
// classes of the module and then the registered interfaces. The first
// candidate that has every required method wins.
func (s *solver) resolveRequirements() {
	_, idx := s.slotIndex()
	var reps []types.TypeID
	for rep := range s.reqs {
		reps = append(reps, rep)
	}
	slices.Sort(reps)
	for _, rep := range reps {
		if !s.isVar(s.shallow(rep)) || len(idx[rep]) > 0 {
			continue
		}
		if t, ok := s.candidate(s.reqs[rep]); ok {
			s.bind(rep, t)
		}
	}
}

func (s *solver) candidate(names []string) (types.TypeID, bool) {
	for _, ref := range s.opts.Classes {
		info := s.in.ClassInfo(ref)
		if info == nil || len(info.Params) > 0 {
			continue
		}
		if proj, ok := types.SelectMethods(s.methodSet(s.in.Class(ref)), names); ok {
			return s.in.Interface(proj), true
		}
	}
	if s.opts.Interfaces == nil {
		return types.NoTypeID, false
	}
	for _, iface := range s.opts.Interfaces() {
		if proj, ok := types.SelectMethods(s.methodSet(iface), names); ok {
			return s.in.Interface(proj), true
		}
	}
	return types.NoTypeID, false
}

// resolveUpper gives a variable with neither lower bounds nor requirements
// the one slot it flows into.
func (s *solver) resolveUpper() {
	_, idx := s.slotIndex()
	uppers := make(map[types.TypeID][]types.TypeID)
	var order []types.TypeID
	for _, f := range s.flows {
		v := s.shallow(f.value)
		if !s.isVar(v) || len(idx[v]) > 0 || len(s.reqs[v]) > 0 {
			continue
		}
		sl := s.zonk(f.slot)
		if s.isVar(sl) || s.in.KindOf(sl) == types.KindAny {
			continue
		}
		if _, ok := uppers[v]; !ok {
			order = append(order, v)
		}
		if !slices.Contains(uppers[v], sl) {
			uppers[v] = append(uppers[v], sl)
		}
	}
	for _, v := range order {
		if len(uppers[v]) == 1 && s.isVar(s.shallow(v)) {
			s.bind(v, uppers[v][0])
		}
	}
}
