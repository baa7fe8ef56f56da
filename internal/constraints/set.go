package constraints

import (
	"viper/internal/ast"
	"viper/internal/types"
)

// Set is the output of collection and the input of solving.
// Solving treats it as read-only.
type Set struct {
	Constraints []Constraint
	ExprTypes   map[ast.ExprID]types.TypeID
	Named       []NamedVar
}

func NewSet() *Set {
	return &Set{ExprTypes: make(map[ast.ExprID]types.TypeID)}
}

func (s *Set) Add(c Constraint) {
	s.Constraints = append(s.Constraints, c)
}

// Count returns the number of constraints of kind k.
func (s *Set) Count(k Kind) int {
	n := 0
	for i := range s.Constraints {
		if s.Constraints[i].Kind == k {
			n++
		}
	}
	return n
}
