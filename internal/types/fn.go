package types

// FnInfo stores metadata for function types.
type FnInfo struct {
	Params []TypeID
	Result TypeID
	// Suspendable marks generators and coroutines. The result is then
	// Iterator[T] or Coroutine[T].
	Suspendable bool
}

// Fn interns a function type.
func (in *Interner) Fn(params []TypeID, result TypeID, suspendable bool) TypeID {
	key := "f(" + keyOfIDs(params) + ")" + keyOfIDs([]TypeID{result})
	if suspendable {
		key += "s"
	}
	return in.internKeyed(key, func() Type {
		in.fns = append(in.fns, FnInfo{Params: cloneIDs(params), Result: result, Suspendable: suspendable})
		return Type{Kind: KindFn, Payload: slot(len(in.fns) - 1)}
	})
}

// FnInfo retrieves function type metadata by TypeID.
func (in *Interner) FnInfo(id TypeID) (FnInfo, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if id == NoTypeID || int(id) >= len(in.types) {
		return FnInfo{}, false
	}
	tt := in.types[id]
	if tt.Kind != KindFn {
		return FnInfo{}, false
	}
	return in.fns[tt.Payload], true
}
