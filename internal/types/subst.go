package types

// Map rebuilds t bottom-up. f is consulted first for every node; when it
// returns true its replacement is used as is.
func (in *Interner) Map(t TypeID, f func(TypeID) (TypeID, bool)) TypeID {
	if t == NoTypeID {
		return t
	}
	if r, ok := f(t); ok {
		return r
	}
	switch in.KindOf(t) {
	case KindClass:
		ref, args, _ := in.ClassOf(t)
		if len(args) == 0 {
			return t
		}
		changed := false
		next := make([]TypeID, len(args))
		for i, a := range args {
			next[i] = in.Map(a, f)
			changed = changed || next[i] != a
		}
		if !changed {
			return t
		}
		return in.Class(ref, next...)
	case KindFn:
		info, _ := in.FnInfo(t)
		changed := false
		params := make([]TypeID, len(info.Params))
		for i, p := range info.Params {
			params[i] = in.Map(p, f)
			changed = changed || params[i] != p
		}
		result := in.Map(info.Result, f)
		if !changed && result == info.Result {
			return t
		}
		return in.Fn(params, result, info.Suspendable)
	case KindInterface:
		info, _ := in.InterfaceInfo(t)
		changed := false
		methods := make([]MethodSig, len(info.Methods))
		for i, m := range info.Methods {
			methods[i] = MethodSig{Name: m.Name, Fn: in.Map(m.Fn, f)}
			changed = changed || methods[i].Fn != m.Fn
		}
		if !changed {
			return t
		}
		return in.Interface(methods)
	}
	return t
}

// Instantiate replaces rigid params with args positionally.
func (in *Interner) Instantiate(t TypeID, params, args []TypeID) TypeID {
	if len(params) == 0 || len(args) == 0 {
		return t
	}
	return in.Map(t, func(id TypeID) (TypeID, bool) {
		for i, p := range params {
			if p == id && i < len(args) {
				return args[i], true
			}
		}
		return NoTypeID, false
	})
}

// Walk visits t and every type nested in it.
func (in *Interner) Walk(t TypeID, visit func(TypeID)) {
	in.Map(t, func(id TypeID) (TypeID, bool) {
		visit(id)
		return NoTypeID, false
	})
}

// Occurs reports whether variable v appears inside t.
func (in *Interner) Occurs(v, t TypeID) bool {
	found := false
	in.Walk(t, func(id TypeID) {
		if id == v {
			found = true
		}
	})
	return found
}

// FreeVars lists the inference variables of t in first-seen order.
func (in *Interner) FreeVars(t TypeID) []TypeID {
	var out []TypeID
	seen := map[TypeID]bool{}
	in.Walk(t, func(id TypeID) {
		if !seen[id] && in.KindOf(id) == KindVar {
			seen[id] = true
			out = append(out, id)
		}
	})
	return out
}

// IsGround reports whether t has no inference variables.
func (in *Interner) IsGround(t TypeID) bool {
	return t != NoTypeID && len(in.FreeVars(t)) == 0
}
