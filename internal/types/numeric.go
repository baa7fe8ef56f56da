package types

// NumericRank orders the widening chain bool -> int -> float. Zero means
// the kind is not numeric.
func NumericRank(k Kind) int {
	switch k {
	case KindBool:
		return 1
	case KindInt:
		return 2
	case KindFloat:
		return 3
	}
	return 0
}

func (in *Interner) IsNumeric(t TypeID) bool {
	return NumericRank(in.KindOf(t)) > 0
}

// Widest returns the widest numeric type among ts, or NoTypeID if any of
// them is not numeric.
func (in *Interner) Widest(ts ...TypeID) TypeID {
	best, rank := NoTypeID, 0
	for _, t := range ts {
		r := NumericRank(in.KindOf(t))
		if r == 0 {
			return NoTypeID
		}
		if r > rank {
			best, rank = t, r
		}
	}
	return best
}

// Widens reports whether from converts implicitly to a wider numeric to.
func (in *Interner) Widens(from, to TypeID) bool {
	rf, rt := NumericRank(in.KindOf(from)), NumericRank(in.KindOf(to))
	return rf > 0 && rt > 0 && rf < rt
}
