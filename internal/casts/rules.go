// Package casts decides which type mismatches may be bridged by an implicit
// conversion and annotates the tree with the conversions it inserts.
package casts

import "viper/internal/types"

type Rule uint8

const (
	RuleNone Rule = iota
	// RuleWiden converts along bool -> int -> float.
	RuleWiden
	// RuleUpcast views a value through an interface it satisfies.
	RuleUpcast
	// RuleImplements views a class instance as one of its declared bases.
	RuleImplements
)

func (r Rule) String() string {
	switch r {
	case RuleWiden:
		return "widen"
	case RuleUpcast:
		return "upcast"
	case RuleImplements:
		return "implements"
	}
	return "none"
}

// Find returns the rule that turns a value of type from into to.
// Identical types need no rule and report false.
func Find(in *types.Interner, from, to types.TypeID) (Rule, bool) {
	if from == to {
		return RuleNone, false
	}
	if in.Widens(from, to) {
		return RuleWiden, true
	}
	if in.KindOf(to) == types.KindInterface && in.Satisfies(from, to) {
		return RuleUpcast, true
	}
	sub, _, okSub := in.ClassOf(from)
	base, args, okBase := in.ClassOf(to)
	if okSub && okBase && len(args) == 0 && in.IsSubclass(sub, base) {
		return RuleImplements, true
	}
	return RuleNone, false
}
