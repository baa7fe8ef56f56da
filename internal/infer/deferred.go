package infer

import (
	"slices"

	"viper/internal/ast"
	"viper/internal/constraints"
	"viper/internal/diag"
	"viper/internal/types"
)

// processDeferred handles every member, operator and call constraint whose
// operands are known by now. Each constraint is handled once.
func (s *solver) processDeferred() {
	for i := range s.set.Constraints {
		if s.done[i] {
			continue
		}
		k := &s.set.Constraints[i]
		var ok bool
		switch k.Kind {
		case constraints.Method:
			ok = s.method(k)
		case constraints.Field:
			ok = s.field(k)
		case constraints.Iter:
			ok = s.iter(k)
		case constraints.Binary:
			ok = s.binary(k)
		case constraints.Unary:
			ok = s.unary(k)
		case constraints.Await:
			ok = s.await(k)
		case constraints.Call:
			ok = s.callValue(k)
		case constraints.Narrow:
			ok = s.narrow(k)
		default:
			ok = true
		}
		if ok {
			s.done[i] = true
			s.changed = true
		}
	}
}

// head returns the resolved head of t, or false while it is unknown.
func (s *solver) head(t types.TypeID) (types.TypeID, bool) {
	h := s.shallow(t)
	if s.isVar(h) {
		return h, false
	}
	return s.zonk(h), true
}

func (s *solver) toAny(k *constraints.Constraint) bool {
	s.unifyTypes(k.Result, s.bi.Any)
	return true
}

func (s *solver) method(k *constraints.Constraint) bool {
	recv, ok := s.head(k.A)
	if !ok {
		return false
	}
	switch s.in.KindOf(recv) {
	case types.KindAny:
		return s.toAny(k)
	case types.KindClass:
		if s.waitMember(recv, k.Name) {
			return false
		}
		if m, _, found := s.in.MemberWith(recv, k.Name, s.zonk); found {
			return s.apply(k, m.Type, k.Name)
		}
		if k.Name == "__init__" {
			ref, _, _ := s.in.ClassOf(recv)
			info := s.in.ClassInfo(ref)
			if len(k.Args) > 0 {
				s.errorf(k.Origin, diag.InfArity, k.Span, "%s() takes no arguments but %d were given", info.Name, len(k.Args))
			}
			return true
		}
	default:
		if m, isMethod, found := s.in.MemberWith(recv, k.Name, s.zonk); found && isMethod {
			return s.apply(k, m.Type, k.Name)
		}
	}
	s.errorf(k.Origin, diag.InfMissingMethod, k.Span, "%s has no method %q", s.in.Format(recv), k.Name)
	return s.toAny(k)
}

// waitMember reports whether a member of a generic class should not be
// read yet: its declared type still has unsolved variables that may turn
// out to be the class parameters.
func (s *solver) waitMember(recv types.TypeID, name string) bool {
	if s.eager >= 2 {
		return false
	}
	ref, args, ok := s.in.ClassOf(recv)
	if !ok || len(args) == 0 {
		return false
	}
	info := s.in.ClassInfo(ref)
	if info == nil || len(info.Params) == 0 {
		return false
	}
	if s.eager == 1 && slices.Equal(args, info.Params) {
		return false
	}
	m, found := info.Method(name)
	if !found {
		if m, found = info.Field(name); !found {
			return false
		}
	}
	if s.in.IsGround(s.zonk(m.Type)) {
		return false
	}
	s.postponed = true
	return true
}

// apply checks a call of fn against the constraint's arguments.
func (s *solver) apply(k *constraints.Constraint, fn types.TypeID, what string) bool {
	h, ok := s.head(fn)
	if !ok {
		return false
	}
	switch s.in.KindOf(h) {
	case types.KindAny:
		return s.toAny(k)
	case types.KindFn:
	default:
		s.errorf(k.Origin, diag.InfNotCallable, k.Span, "%s of type %s is not callable", what, s.in.Format(h))
		return s.toAny(k)
	}
	info, _ := s.in.FnInfo(h)
	if len(info.Params) != len(k.Args) {
		s.errorf(k.Origin, diag.InfArity, k.Span, "%s() takes %d argument(s) but %d were given", what, len(info.Params), len(k.Args))
	}
	for i := range min(len(info.Params), len(k.Args)) {
		f := flow{value: k.Args[i], slot: info.Params[i], span: k.Span, origin: k.Origin, derived: true}
		if i < len(k.ArgExprs) {
			f.expr = k.ArgExprs[i]
		}
		s.flows = append(s.flows, f)
	}
	s.unify(k.Result, info.Result, k.Span, k.Origin)
	return true
}

func (s *solver) field(k *constraints.Constraint) bool {
	recv, ok := s.head(k.A)
	if !ok {
		return false
	}
	if s.in.KindOf(recv) == types.KindAny {
		return s.toAny(k)
	}
	if s.waitMember(recv, k.Name) {
		return false
	}
	if m, _, found := s.in.MemberWith(recv, k.Name, s.zonk); found {
		s.unify(k.Result, m.Type, k.Span, k.Origin)
		return true
	}
	s.errorf(k.Origin, diag.InfMissingField, k.Span, "%s has no attribute %q", s.in.Format(recv), k.Name)
	return s.toAny(k)
}

func (s *solver) iter(k *constraints.Constraint) bool {
	it, ok := s.head(k.A)
	if !ok {
		return false
	}
	switch s.in.KindOf(it) {
	case types.KindAny:
		return s.toAny(k)
	case types.KindStr:
		s.unify(k.Result, s.bi.Str, k.Span, k.Origin)
		return true
	case types.KindClass:
		ref, args, _ := s.in.ClassOf(it)
		if (ref == s.bi.List || ref == s.bi.Iterator) && len(args) == 1 {
			s.unify(k.Result, args[0], k.Span, k.Origin)
			return true
		}
	}
	s.errorf(k.Origin, diag.InfNotIterable, k.Span, "%s is not iterable", s.in.Format(it))
	return s.toAny(k)
}

func (s *solver) binary(k *constraints.Constraint) bool {
	l, okL := s.head(k.A)
	r, okR := s.head(k.B)
	if (okL && s.in.KindOf(l) == types.KindAny) || (okR && s.in.KindOf(r) == types.KindAny) {
		return s.toAny(k)
	}
	if !okL || !okR {
		return false
	}
	kl, kr := s.in.KindOf(l), s.in.KindOf(r)
	switch {
	case s.in.IsNumeric(l) && s.in.IsNumeric(r):
		res := s.in.Widest(l, r)
		if kl == types.KindBool && kr == types.KindBool {
			res = s.bi.Int
		}
		switch k.Op {
		case ast.OpDiv:
			res = s.bi.Float
		default:
			s.widenOperand(k, l, k.Expr, res)
			s.widenOperand(k, r, k.Expr2, res)
		}
		s.unify(k.Result, res, k.Span, k.Origin)
		return true
	case kl == types.KindStr && kr == types.KindStr && k.Op == ast.OpAdd,
		kl == types.KindStr && k.Op == ast.OpMod,
		kl == types.KindStr && kr == types.KindInt && k.Op == ast.OpMul,
		kl == types.KindInt && kr == types.KindStr && k.Op == ast.OpMul:
		s.unify(k.Result, s.bi.Str, k.Span, k.Origin)
		return true
	case k.Op == ast.OpAdd && kl == types.KindClass && kr == types.KindClass:
		ref, _, _ := s.in.ClassOf(l)
		if ref == s.bi.List && s.unifyTypes(l, r) == nil {
			s.unify(k.Result, l, k.Span, k.Origin)
			return true
		}
	}
	s.errorf(k.Origin, diag.InfBadOperands, k.Span, "unsupported operand types for %s: %s and %s",
		k.Op, s.in.Format(l), s.in.Format(r))
	return s.toAny(k)
}

// widenOperand records the numeric widening of one operand as a flow so
// the final check turns it into a cast obligation.
func (s *solver) widenOperand(k *constraints.Constraint, operand types.TypeID, expr ast.ExprID, to types.TypeID) {
	if operand == to || s.in.KindOf(to) == types.KindInt && s.in.KindOf(operand) == types.KindBool {
		return
	}
	s.flows = append(s.flows, flow{value: operand, slot: to, expr: expr, span: k.Span, origin: k.Origin, derived: true})
}

func (s *solver) unary(k *constraints.Constraint) bool {
	x, ok := s.head(k.A)
	if !ok {
		return false
	}
	switch s.in.KindOf(x) {
	case types.KindAny:
		return s.toAny(k)
	case types.KindInt, types.KindFloat:
		s.unify(k.Result, x, k.Span, k.Origin)
		return true
	case types.KindBool:
		s.unify(k.Result, s.bi.Int, k.Span, k.Origin)
		return true
	}
	s.errorf(k.Origin, diag.InfBadOperands, k.Span, "bad operand type for unary %s: %s", k.Op, s.in.Format(x))
	return s.toAny(k)
}

func (s *solver) await(k *constraints.Constraint) bool {
	x, ok := s.head(k.A)
	if !ok {
		return false
	}
	if s.in.KindOf(x) == types.KindAny {
		return s.toAny(k)
	}
	if ref, args, isClass := s.in.ClassOf(x); isClass && ref == s.bi.Coroutine && len(args) == 1 {
		s.unify(k.Result, args[0], k.Span, k.Origin)
		return true
	}
	s.errorf(k.Origin, diag.InfNotAwaitable, k.Span, "%s is not awaitable", s.in.Format(x))
	return s.toAny(k)
}

func (s *solver) callValue(k *constraints.Constraint) bool {
	fn, ok := s.head(k.A)
	if !ok {
		return false
	}
	return s.apply(k, fn, s.in.Format(fn))
}

// narrow checks that a match arm's class pattern can match the subject.
func (s *solver) narrow(k *constraints.Constraint) bool {
	subj, ok := s.head(k.A)
	if !ok {
		return false
	}
	pat := s.zonk(k.B)
	never := false
	switch s.in.KindOf(subj) {
	case types.KindAny:
	case types.KindClass:
		rs, _, _ := s.in.ClassOf(subj)
		rp, _, _ := s.in.ClassOf(pat)
		switch {
		case rs == rp:
			s.unifyTypes(subj, pat)
		case s.in.IsSubclass(rp, rs):
		default:
			never = true
		}
	case types.KindInterface:
		never = !s.satisfies(pat, subj)
	default:
		never = true
	}
	if never {
		s.report(k.Origin, diag.SevWarning, diag.InfPatternNever, k.Span,
			"pattern "+s.in.Format(pat)+" can never match a value of type "+s.in.Format(subj))
	}
	return true
}

// satisfies is types.Satisfies over the current substitution, so member
// signatures that are still being inferred compare by their solved types.
func (s *solver) satisfies(t, iface types.TypeID) bool {
	info, ok := s.in.InterfaceInfo(iface)
	if !ok {
		return false
	}
	have := s.methodSet(t)
	for _, want := range info.Methods {
		fn := s.zonk(want.Fn)
		if !slices.ContainsFunc(have, func(m types.MethodSig) bool { return m.Name == want.Name && m.Fn == fn }) {
			return false
		}
	}
	return true
}
