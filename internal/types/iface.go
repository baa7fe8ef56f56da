package types

import (
	"slices"
	"strings"
)

// InterfaceInfo is a canonical, name-sorted method set.
type InterfaceInfo struct {
	Methods []MethodSig
	Key     string
	Name    string // назначается реестром интерфейсов
}

// Interface interns a structural interface. Method order does not matter;
// duplicate names keep the first entry.
func (in *Interner) Interface(methods []MethodSig) TypeID {
	sorted := canonicalMethods(methods)
	var id strings.Builder
	for _, m := range sorted {
		id.WriteString(m.Name)
		id.WriteByte(':')
		id.WriteString(keyOfIDs([]TypeID{m.Fn}))
		id.WriteByte(';')
	}
	key := in.SignatureKey(sorted)
	return in.internKeyed("i{"+id.String()+"}", func() Type {
		in.ifaces = append(in.ifaces, InterfaceInfo{Methods: sorted, Key: key})
		return Type{Kind: KindInterface, Payload: slot(len(in.ifaces) - 1)}
	})
}

// InterfaceInfo returns the method set of an interface type.
func (in *Interner) InterfaceInfo(id TypeID) (InterfaceInfo, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if id == NoTypeID || int(id) >= len(in.types) {
		return InterfaceInfo{}, false
	}
	tt := in.types[id]
	if tt.Kind != KindInterface {
		return InterfaceInfo{}, false
	}
	return in.ifaces[tt.Payload], true
}

// NameInterface attaches a display name to an interface type.
func (in *Interner) NameInterface(id TypeID, name string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if id == NoTypeID || int(id) >= len(in.types) || in.types[id].Kind != KindInterface {
		return
	}
	in.ifaces[in.types[id].Payload].Name = name
}

// SignatureKey renders the canonical "name(params)->result" list used as the
// structural identity of a method set. Input must already be sorted.
func (in *Interner) SignatureKey(methods []MethodSig) string {
	parts := make([]string, 0, len(methods))
	for _, m := range methods {
		parts = append(parts, m.Name+in.formatFnTail(m.Fn))
	}
	return strings.Join(parts, ";")
}

func (in *Interner) formatFnTail(fn TypeID) string {
	info, ok := in.FnInfo(fn)
	if !ok {
		return "()->" + in.Format(fn)
	}
	params := make([]string, 0, len(info.Params))
	for _, p := range info.Params {
		params = append(params, in.Format(p))
	}
	tail := "(" + strings.Join(params, ",") + ")->" + in.Format(info.Result)
	if info.Suspendable {
		tail = "~" + tail
	}
	return tail
}

func canonicalMethods(methods []MethodSig) []MethodSig {
	out := make([]MethodSig, 0, len(methods))
	seen := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		if _, dup := seen[m.Name]; dup {
			continue
		}
		seen[m.Name] = struct{}{}
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b MethodSig) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// MethodNames returns the names of a method set in order.
func MethodNames(methods []MethodSig) []string {
	out := make([]string, len(methods))
	for i, m := range methods {
		out[i] = m.Name
	}
	return out
}
