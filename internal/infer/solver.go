// Package infer solves the constraint set of one module: union-find over
// inference variables for hard equalities, bound joining for flows, and a
// bounded fixpoint over the deferred member and operator constraints.
package infer

import (
	"viper/internal/ast"
	"viper/internal/constraints"
	"viper/internal/source"
	"viper/internal/types"
)

// DefaultMaxIterations bounds the fixpoint when Options leave it unset.
const DefaultMaxIterations = 32

type Options struct {
	Module        string
	MaxIterations int
	// Classes are the module's own classes in declaration order. They are
	// the first candidates for a receiver that has no lower bounds.
	Classes []types.ClassRef
	// Interfaces returns already registered interfaces in ordinal order.
	Interfaces func() []types.TypeID
}

// Substitution maps every inference variable of a set to its final type.
type Substitution map[types.TypeID]types.TypeID

// Solution is what solving produced. The input set is left untouched.
type Solution struct {
	Subst       Substitution
	Obligations []constraints.CastObligation
	Findings    []constraints.Finding
	Iterations  int
	Diverged    bool
}

// Apply rewrites t through the substitution. Variables the substitution
// does not know stay as they are.
func (s *Solution) Apply(in *types.Interner, t types.TypeID) types.TypeID {
	return in.Map(t, func(id types.TypeID) (types.TypeID, bool) {
		if in.KindOf(id) != types.KindVar {
			return types.NoTypeID, false
		}
		if r, ok := s.Subst[id]; ok {
			return r, true
		}
		return id, true
	})
}

type flow struct {
	value, slot types.TypeID
	expr        ast.ExprID
	span        source.Span
	origin      constraints.Origin
	derived     bool
}

type solver struct {
	in   *types.Interner
	bi   types.Builtins
	set  *constraints.Set
	opts Options

	parent map[types.TypeID]types.TypeID
	bound  map[types.TypeID]types.TypeID
	flows  []flow
	done   []bool // по индексу ограничения
	reqs   map[types.TypeID][]string

	conflicted map[types.TypeID]bool
	changed    bool
	findings   []constraints.Finding

	// Обращения к членам generic-классов ждут, пока тип члена не станет
	// известен. Круг без изменений поднимает eager: на 1 проходят обращения
	// через self самого класса, на 2 все остальные.
	postponed bool
	eager     int
}

// Solve runs inference over set. It never creates inference variables, so
// solving the same set again yields the same substitution.
func Solve(in *types.Interner, set *constraints.Set, opts Options) *Solution {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	s := &solver{
		in:         in,
		bi:         in.Builtins(),
		set:        set,
		opts:       opts,
		parent:     make(map[types.TypeID]types.TypeID),
		bound:      make(map[types.TypeID]types.TypeID),
		done:       make([]bool, len(set.Constraints)),
		conflicted: make(map[types.TypeID]bool),
	}
	for i := range set.Constraints {
		k := &set.Constraints[i]
		switch k.Kind {
		case constraints.Equal:
			s.unify(k.A, k.B, k.Span, k.Origin)
			s.done[i] = true
		case constraints.Flow:
			s.flows = append(s.flows, flow{value: k.A, slot: k.B, expr: k.Expr, span: k.Span, origin: k.Origin})
			s.done[i] = true
		}
	}

	sol := &Solution{}
	for round := 1; ; round++ {
		if round > opts.MaxIterations {
			sol.Diverged = true
			break
		}
		sol.Iterations = round
		s.changed = false
		s.postponed = false
		s.joinStructural()
		s.processDeferred()
		s.collectRequirements()
		s.resolveLower(true)
		if !s.changed {
			s.resolveLower(false)
		}
		if !s.changed {
			s.resolveRequirements()
		}
		if !s.changed {
			s.resolveUpper()
		}
		if !s.changed && s.postponed && s.eager < 2 {
			s.eager++
			s.changed = true
		}
		if !s.changed {
			break
		}
	}
	s.finish(sol)
	return sol
}
