package iface

import "viper/internal/types"

// Synthesize registers the interfaces one solved module contributes, in a
// fixed order: for each class its single-method sets and then its full
// public set, then every interface type the module's signatures use, then
// the sets of declared bases. Classes must be sealed.
func Synthesize(reg *Registry, in *types.Interner, module string, classes []types.ClassRef, used []types.TypeID) []Interface {
	var added []Interface
	add := func(t types.TypeID, origin string) {
		if e, created := reg.Register(t, origin); created {
			added = append(added, e)
		}
	}
	for _, ref := range classes {
		info := in.ClassInfo(ref)
		if info == nil || len(info.Params) > 0 {
			continue
		}
		set := in.MethodSet(in.Class(ref))
		for _, m := range set {
			add(in.Interface([]types.MethodSig{m}), info.QualifiedName())
		}
		add(in.Interface(set), info.QualifiedName())
	}
	for _, t := range used {
		add(t, module)
	}
	for _, ref := range classes {
		info := in.ClassInfo(ref)
		if info == nil {
			continue
		}
		for _, base := range info.BaseRefs {
			bi := in.ClassInfo(base)
			if bi == nil || len(bi.Params) > 0 {
				continue
			}
			add(in.Interface(in.MethodSet(in.Class(base))), bi.QualifiedName())
		}
	}
	reg.AddClasses(classes...)
	return added
}

// UsedInterfaces collects the interface types nested anywhere in ts, in
// first-seen order.
func UsedInterfaces(in *types.Interner, ts ...types.TypeID) []types.TypeID {
	var out []types.TypeID
	seen := make(map[types.TypeID]bool)
	for _, t := range ts {
		in.Walk(t, func(id types.TypeID) {
			if in.KindOf(id) == types.KindInterface && !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		})
	}
	return out
}
