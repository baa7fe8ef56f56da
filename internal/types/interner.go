package types

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for primitive types and refs of builtin classes.
type Builtins struct {
	None  TypeID
	Any   TypeID
	Bool  TypeID
	Int   TypeID
	Float TypeID
	Str   TypeID

	List      ClassRef
	Iterator  ClassRef
	Coroutine ClassRef
}

type classInst struct {
	Class ClassRef
	Args  []TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
// One interner serves a whole compilation and is safe for concurrent use.
type Interner struct {
	mu       sync.RWMutex
	types    []Type
	index    map[string]TypeID
	insts    []classInst
	fns      []FnInfo
	ifaces   []InterfaceInfo
	params   []ParamInfo
	classes  []*ClassInfo
	prim     map[Kind][]Member
	builtins Builtins
	nextVar  uint32
}

// NewInterner constructs an interner seeded with built-in primitives and classes.
func NewInterner() *Interner {
	in := &Interner{
		index:   make(map[string]TypeID, 64),
		types:   []Type{{Kind: KindInvalid}}, // 0 зарезервирован
		insts:   []classInst{{}},
		fns:     []FnInfo{{}},
		ifaces:  []InterfaceInfo{{}},
		params:  []ParamInfo{{}},
		classes: []*ClassInfo{nil},
		prim:    make(map[Kind][]Member),
	}
	in.builtins.None = in.intern(Type{Kind: KindNone})
	in.builtins.Any = in.intern(Type{Kind: KindAny})
	in.builtins.Bool = in.intern(Type{Kind: KindBool})
	in.builtins.Int = in.intern(Type{Kind: KindInt})
	in.builtins.Float = in.intern(Type{Kind: KindFloat})
	in.builtins.Str = in.intern(Type{Kind: KindStr})
	in.seedBuiltinClasses()
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// KindOf returns the kind of id, KindInvalid for unknown IDs.
func (in *Interner) KindOf(id TypeID) Kind {
	t, _ := in.Lookup(id)
	return t.Kind
}

// NewVar allocates a fresh inference variable.
func (in *Interner) NewVar() TypeID {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.nextVar++
	return in.appendType(Type{Kind: KindVar, Payload: in.nextVar})
}

func (in *Interner) intern(t Type) TypeID {
	in.mu.Lock()
	defer in.mu.Unlock()
	key := "k" + strconv.Itoa(int(t.Kind))
	if id, ok := in.index[key]; ok {
		return id
	}
	id := in.appendType(t)
	in.index[key] = id
	return id
}

// internKeyed returns the type registered under key or builds a new one.
// build runs under the write lock and returns the descriptor to store.
func (in *Interner) internKeyed(key string, build func() Type) TypeID {
	in.mu.RLock()
	id, ok := in.index[key]
	in.mu.RUnlock()
	if ok {
		return id
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.index[key]; ok {
		return id
	}
	id = in.appendType(build())
	in.index[key] = id
	return id
}

func (in *Interner) appendType(t Type) TypeID {
	n, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	in.types = append(in.types, t)
	return TypeID(n)
}

func slot(n int) uint32 {
	s, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("type payload overflow: %w", err))
	}
	return s
}

func keyOfIDs(ids []TypeID) string {
	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatUint(uint64(id), 10))
	}
	return b.String()
}

func cloneIDs(ids []TypeID) []TypeID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]TypeID, len(ids))
	copy(out, ids)
	return out
}
