package types

// Member finds a method or field on recv with class parameters substituted.
// isMethod distinguishes the two.
func (in *Interner) Member(recv TypeID, name string) (m Member, isMethod, ok bool) {
	return in.MemberWith(recv, name, nil)
}

// MemberWith is Member with resolve applied to a class member's declared
// type before the class parameters are substituted. The solver passes its
// substitution here: member types of a class under analysis still hold
// inference variables bound to the class parameters.
func (in *Interner) MemberWith(recv TypeID, name string, resolve func(TypeID) TypeID) (m Member, isMethod, ok bool) {
	switch in.KindOf(recv) {
	case KindClass:
		ref, args, _ := in.ClassOf(recv)
		info := in.ClassInfo(ref)
		if info == nil {
			return Member{}, false, false
		}
		if mm, found := info.Method(name); found {
			mm.Type = in.Instantiate(apply(resolve, mm.Type), info.Params, args)
			return mm, true, true
		}
		if f, found := info.Field(name); found {
			f.Type = in.Instantiate(apply(resolve, f.Type), info.Params, args)
			return f, false, true
		}
	case KindInterface:
		info, _ := in.InterfaceInfo(recv)
		for _, sig := range info.Methods {
			if sig.Name == name {
				return Member{Name: name, Type: sig.Fn}, true, true
			}
		}
	default:
		for _, mm := range in.primMembers(in.KindOf(recv)) {
			if mm.Name == name {
				return mm, true, true
			}
		}
	}
	return Member{}, false, false
}

// MethodSet returns the public, name-sorted methods of t.
func (in *Interner) MethodSet(t TypeID) []MethodSig {
	return in.MethodSetWith(t, nil)
}

// MethodSetWith is MethodSet with resolve applied as in MemberWith.
func (in *Interner) MethodSetWith(t TypeID, resolve func(TypeID) TypeID) []MethodSig {
	var out []MethodSig
	switch in.KindOf(t) {
	case KindClass:
		ref, args, _ := in.ClassOf(t)
		info := in.ClassInfo(ref)
		if info == nil {
			return nil
		}
		for _, m := range info.Methods {
			if IsPublic(m.Name) {
				out = append(out, MethodSig{Name: m.Name, Fn: in.Instantiate(apply(resolve, m.Type), info.Params, args)})
			}
		}
	case KindInterface:
		info, _ := in.InterfaceInfo(t)
		return append([]MethodSig(nil), info.Methods...)
	default:
		for _, m := range in.primMembers(in.KindOf(t)) {
			out = append(out, MethodSig{Name: m.Name, Fn: m.Type})
		}
	}
	return canonicalMethods(out)
}

func apply(resolve func(TypeID) TypeID, t TypeID) TypeID {
	if resolve == nil {
		return t
	}
	return resolve(t)
}

func (in *Interner) primMembers(k Kind) []Member {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.prim[k]
}

// Satisfies reports whether t structurally provides every method of iface
// with an identical signature.
func (in *Interner) Satisfies(t, iface TypeID) bool {
	info, ok := in.InterfaceInfo(iface)
	if !ok {
		return false
	}
	if t == iface {
		return true
	}
	have := in.MethodSet(t)
	for _, want := range info.Methods {
		found := false
		for _, h := range have {
			if h.Name == want.Name {
				found = h.Fn == want.Fn
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// IntersectMethods keeps the signatures present, identically, in every set.
func IntersectMethods(sets ...[]MethodSig) []MethodSig {
	if len(sets) == 0 {
		return nil
	}
	out := append([]MethodSig(nil), sets[0]...)
	for _, s := range sets[1:] {
		kept := out[:0]
		for _, m := range out {
			for _, o := range s {
				if o.Name == m.Name && o.Fn == m.Fn {
					kept = append(kept, m)
					break
				}
			}
		}
		out = kept
	}
	return out
}

// SelectMethods picks the named methods from set, reporting whether all exist.
func SelectMethods(set []MethodSig, names []string) ([]MethodSig, bool) {
	out := make([]MethodSig, 0, len(names))
	for _, n := range names {
		found := false
		for _, m := range set {
			if m.Name == n {
				out = append(out, m)
				found = true
				break
			}
		}
		if !found {
			return nil, false
		}
	}
	return canonicalMethods(out), true
}
