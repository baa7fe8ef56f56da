package types

import (
	"fmt"
	"strconv"

	"viper/internal/source"
)

// Member is a method or field of a class. Method types exclude self.
type Member struct {
	Name string
	Type TypeID
	Span source.Span
	// Origin names the class whose body defined the member. It differs from
	// the owner for methods copied in from a base.
	Origin string
}

// ClassInfo stores a declared class. Members are appended while the owning
// module is analysed and frozen by Seal; sealed classes are safe to share.
type ClassInfo struct {
	Ref      ClassRef
	Name     string
	Module   string
	Decl     source.Span
	Params   []TypeID // KindParam, in declaration order
	Bases    []string
	BaseRefs []ClassRef
	Methods  []Member
	Fields   []Member
	Builtin  bool
	sealed   bool
}

func (c *ClassInfo) Sealed() bool { return c.sealed }

// Method returns the member function called name.
func (c *ClassInfo) Method(name string) (Member, bool) {
	for _, m := range c.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

func (c *ClassInfo) Field(name string) (Member, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Member{}, false
}

// QualifiedName is module.Name for user classes and Name for builtins.
func (c *ClassInfo) QualifiedName() string {
	if c.Module == "" {
		return c.Name
	}
	return c.Module + "." + c.Name
}

// ParamInfo describes a rigid class type parameter.
type ParamInfo struct {
	Name  string
	Owner ClassRef
	Index int
}

// DeclareClass registers a class and its type parameters.
func (in *Interner) DeclareClass(name, module string, decl source.Span, typeParams []string) ClassRef {
	in.mu.Lock()
	ref := ClassRef(slot(len(in.classes)))
	info := &ClassInfo{Ref: ref, Name: name, Module: module, Decl: decl}
	in.classes = append(in.classes, info)
	in.mu.Unlock()

	for i, p := range typeParams {
		info.Params = append(info.Params, in.param(p, ref, i))
	}
	return ref
}

func (in *Interner) param(name string, owner ClassRef, index int) TypeID {
	key := "p" + strconv.Itoa(int(owner)) + "." + strconv.Itoa(index)
	return in.internKeyed(key, func() Type {
		in.params = append(in.params, ParamInfo{Name: name, Owner: owner, Index: index})
		return Type{Kind: KindParam, Payload: slot(len(in.params) - 1)}
	})
}

// ParamInfo returns metadata of a KindParam type.
func (in *Interner) ParamInfo(id TypeID) (ParamInfo, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if id == NoTypeID || int(id) >= len(in.types) || in.types[id].Kind != KindParam {
		return ParamInfo{}, false
	}
	return in.params[in.types[id].Payload], true
}

// ClassInfo returns the declaration record of ref, or nil.
func (in *Interner) ClassInfo(ref ClassRef) *ClassInfo {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if ref == NoClassRef || int(ref) >= len(in.classes) {
		return nil
	}
	return in.classes[ref]
}

// Class interns the instantiation ref[args].
func (in *Interner) Class(ref ClassRef, args ...TypeID) TypeID {
	key := "c" + strconv.Itoa(int(ref)) + "[" + keyOfIDs(args) + "]"
	return in.internKeyed(key, func() Type {
		in.insts = append(in.insts, classInst{Class: ref, Args: cloneIDs(args)})
		return Type{Kind: KindClass, Payload: slot(len(in.insts) - 1)}
	})
}

// ClassOf unpacks a class type into its declaration and type arguments.
func (in *Interner) ClassOf(id TypeID) (ClassRef, []TypeID, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if id == NoTypeID || int(id) >= len(in.types) || in.types[id].Kind != KindClass {
		return NoClassRef, nil, false
	}
	inst := in.insts[in.types[id].Payload]
	return inst.Class, inst.Args, true
}

// SelfType is the class instantiated with its own rigid parameters.
func (in *Interner) SelfType(ref ClassRef) TypeID {
	info := in.ClassInfo(ref)
	if info == nil {
		return NoTypeID
	}
	return in.Class(ref, info.Params...)
}

// AddMethod appends a method to an unsealed class. A second method with the
// same name replaces the first, like a later def in a class body.
func (in *Interner) AddMethod(ref ClassRef, m Member) {
	in.mutate(ref, func(c *ClassInfo) {
		for i := range c.Methods {
			if c.Methods[i].Name == m.Name {
				c.Methods[i] = m
				return
			}
		}
		c.Methods = append(c.Methods, m)
	})
}

// AddField registers a field unless one with the same name exists.
// It returns the type of the field that is in effect.
func (in *Interner) AddField(ref ClassRef, f Member) TypeID {
	out := f.Type
	in.mutate(ref, func(c *ClassInfo) {
		for _, existing := range c.Fields {
			if existing.Name == f.Name {
				out = existing.Type
				return
			}
		}
		c.Fields = append(c.Fields, f)
	})
	return out
}

// SetBases records the base names as written and the refs they resolved to.
func (in *Interner) SetBases(ref ClassRef, names []string, refs []ClassRef) {
	in.mutate(ref, func(c *ClassInfo) {
		c.Bases = append([]string(nil), names...)
		c.BaseRefs = append([]ClassRef(nil), refs...)
	})
}

// Seal rewrites every member type through zonk and freezes the class.
func (in *Interner) Seal(ref ClassRef, zonk func(TypeID) TypeID) {
	info := in.ClassInfo(ref)
	if info == nil || info.sealed {
		return
	}
	methods := make([]Member, len(info.Methods))
	for i, m := range info.Methods {
		m.Type = zonk(m.Type)
		methods[i] = m
	}
	fields := make([]Member, len(info.Fields))
	for i, f := range info.Fields {
		f.Type = zonk(f.Type)
		fields[i] = f
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	info.Methods = methods
	info.Fields = fields
	info.sealed = true
}

func (in *Interner) mutate(ref ClassRef, fn func(*ClassInfo)) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if ref == NoClassRef || int(ref) >= len(in.classes) {
		return
	}
	c := in.classes[ref]
	if c.sealed {
		panic(fmt.Errorf("types: class %s is sealed", c.Name))
	}
	fn(c)
}

// IsSubclass reports whether sub lists base among its bases, transitively.
func (in *Interner) IsSubclass(sub, base ClassRef) bool {
	seen := map[ClassRef]bool{}
	var walk func(ClassRef) bool
	walk = func(r ClassRef) bool {
		if seen[r] {
			return false
		}
		seen[r] = true
		info := in.ClassInfo(r)
		if info == nil {
			return false
		}
		for _, b := range info.BaseRefs {
			if b == base || walk(b) {
				return true
			}
		}
		return false
	}
	return sub != base && walk(sub)
}

func (in *Interner) seedBuiltinClasses() {
	b := &in.builtins
	none, str, boolT := b.None, b.Str, b.Bool

	b.List = in.DeclareClass("list", "", source.NoSpan, []string{"T"})
	t := in.ClassInfo(b.List).Params[0]
	in.AddMethod(b.List, Member{Name: "append", Type: in.Fn([]TypeID{t}, none, false), Origin: "list"})
	in.AddMethod(b.List, Member{Name: "pop", Type: in.Fn(nil, t, false), Origin: "list"})

	b.Iterator = in.DeclareClass("Iterator", "", source.NoSpan, []string{"T"})
	t = in.ClassInfo(b.Iterator).Params[0]
	in.AddMethod(b.Iterator, Member{Name: "__next__", Type: in.Fn(nil, t, false), Origin: "Iterator"})

	b.Coroutine = in.DeclareClass("Coroutine", "", source.NoSpan, []string{"T"})

	for _, ref := range []ClassRef{b.List, b.Iterator, b.Coroutine} {
		in.mu.Lock()
		in.classes[ref].Builtin = true
		in.classes[ref].sealed = true
		in.mu.Unlock()
	}

	strNoArgs := in.Fn(nil, str, false)
	in.prim[KindStr] = []Member{
		{Name: "lower", Type: strNoArgs, Origin: "str"},
		{Name: "startswith", Type: in.Fn([]TypeID{str}, boolT, false), Origin: "str"},
		{Name: "strip", Type: strNoArgs, Origin: "str"},
		{Name: "upper", Type: strNoArgs, Origin: "str"},
	}
}
