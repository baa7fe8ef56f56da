package infer

import (
	"fmt"

	"viper/internal/constraints"
	"viper/internal/diag"
	"viper/internal/source"
	"viper/internal/types"
)

func (s *solver) isVar(t types.TypeID) bool {
	return s.in.KindOf(t) == types.KindVar
}

// find returns the union-find representative of v with path compression.
func (s *solver) find(v types.TypeID) types.TypeID {
	root := v
	for {
		p, ok := s.parent[root]
		if !ok {
			break
		}
		root = p
	}
	for v != root {
		next := s.parent[v]
		s.parent[v] = root
		v = next
	}
	return root
}

// shallow follows bindings until the head of t is concrete or an unbound
// representative.
func (s *solver) shallow(t types.TypeID) types.TypeID {
	for s.isVar(t) {
		r := s.find(t)
		b, ok := s.bound[r]
		if !ok {
			return r
		}
		t = b
	}
	return t
}

// zonk substitutes everything known so far. Unbound variables are replaced
// by their representative.
func (s *solver) zonk(t types.TypeID) types.TypeID {
	return s.in.Map(t, func(id types.TypeID) (types.TypeID, bool) {
		if !s.isVar(id) {
			return types.NoTypeID, false
		}
		h := s.shallow(id)
		if s.isVar(h) {
			return h, true
		}
		return s.zonk(h), true
	})
}

type mismatch struct {
	a, b     types.TypeID
	infinite bool
}

func (s *solver) unifyTypes(a, b types.TypeID) *mismatch {
	a, b = s.shallow(a), s.shallow(b)
	if a == b {
		return nil
	}
	switch {
	case s.isVar(a) && s.isVar(b):
		s.parent[a] = b
		s.changed = true
		return nil
	case s.isVar(a):
		return s.bind(a, b)
	case s.isVar(b):
		return s.bind(b, a)
	}
	ka, kb := s.in.KindOf(a), s.in.KindOf(b)
	if ka == types.KindAny || kb == types.KindAny {
		return nil
	}
	if ka != kb {
		return &mismatch{a: a, b: b}
	}
	switch ka {
	case types.KindClass:
		ra, aa, _ := s.in.ClassOf(a)
		rb, ab, _ := s.in.ClassOf(b)
		if ra != rb || len(aa) != len(ab) {
			return &mismatch{a: a, b: b}
		}
		for i := range aa {
			if m := s.unifyTypes(aa[i], ab[i]); m != nil {
				return m
			}
		}
		return nil
	case types.KindFn:
		fa, _ := s.in.FnInfo(a)
		fb, _ := s.in.FnInfo(b)
		if len(fa.Params) != len(fb.Params) || fa.Suspendable != fb.Suspendable {
			return &mismatch{a: a, b: b}
		}
		for i := range fa.Params {
			if m := s.unifyTypes(fa.Params[i], fb.Params[i]); m != nil {
				return m
			}
		}
		return s.unifyTypes(fa.Result, fb.Result)
	case types.KindInterface:
		ia, _ := s.in.InterfaceInfo(a)
		ib, _ := s.in.InterfaceInfo(b)
		if len(ia.Methods) != len(ib.Methods) {
			return &mismatch{a: a, b: b}
		}
		for i := range ia.Methods {
			if ia.Methods[i].Name != ib.Methods[i].Name {
				return &mismatch{a: a, b: b}
			}
			if m := s.unifyTypes(ia.Methods[i].Fn, ib.Methods[i].Fn); m != nil {
				return m
			}
		}
		return nil
	}
	return &mismatch{a: a, b: b}
}

// bind sets representative v to t after the occurs check.
func (s *solver) bind(v, t types.TypeID) *mismatch {
	if s.in.Occurs(v, s.zonk(t)) {
		return &mismatch{a: v, b: t, infinite: true}
	}
	s.bound[v] = t
	s.changed = true
	return nil
}

// unify is a hard equality; a failure becomes a finding.
func (s *solver) unify(a, b types.TypeID, span source.Span, origin constraints.Origin) bool {
	m := s.unifyTypes(a, b)
	if m == nil {
		return true
	}
	if m.infinite {
		s.errorf(origin, diag.InfInfiniteType, span, "infinite type: %s occurs in %s",
			s.show(m.a), s.show(m.b))
		return false
	}
	s.errorf(origin, diag.InfConflict, span, "type mismatch: %s and %s", s.show(m.a), s.show(m.b))
	return false
}

func (s *solver) show(t types.TypeID) string {
	return s.in.Format(s.zonk(t))
}

func (s *solver) report(origin constraints.Origin, sev diag.Severity, code diag.Code, span source.Span, msg string, notes ...diag.Note) {
	d := diag.New(sev, code, span, msg)
	d.Notes = notes
	d.Module = s.opts.Module
	s.findings = append(s.findings, constraints.Finding{Diag: d, Origin: origin})
}

func (s *solver) errorf(origin constraints.Origin, code diag.Code, span source.Span, format string, args ...any) {
	s.report(origin, diag.SevError, code, span, fmt.Sprintf(format, args...))
}
