package dag

import (
	"fmt"
	"strings"

	"viper/internal/diag"
)

// CycleError names one import cycle. Path starts and ends with the same
// module: ["a", "b", "a"].
type CycleError struct {
	Path []string
	IDs  []ModuleID
}

func (e *CycleError) Error() string {
	return "import cycle: " + strings.Join(e.Path, " -> ")
}

const (
	white = iota
	grey
	black
)

// Cycles finds import cycles with a depth-first walk. Every back edge to a
// module still on the stack closes one cycle; rotations of a cycle already
// seen are skipped. The walk starts from modules in index order.
func Cycles(idx ModuleIndex, g Graph) []*CycleError {
	state := make([]uint8, len(g.Edges))
	var (
		stack []ModuleID
		out   []*CycleError
		seen  = make(map[string]struct{})
	)

	var visit func(id ModuleID)
	visit = func(id ModuleID) {
		state[int(id)] = grey
		stack = append(stack, id)
		for _, to := range g.Edges[int(id)] {
			if !g.Present[int(to)] {
				continue
			}
			switch state[int(to)] {
			case white:
				visit(to)
			case grey:
				start := len(stack) - 1
				for stack[start] != to {
					start--
				}
				ids := make([]ModuleID, 0, len(stack)-start+1)
				ids = append(ids, stack[start:]...)
				ids = append(ids, to)
				key := cycleKey(ids)
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				out = append(out, &CycleError{Path: idx.Names(ids), IDs: ids})
			}
		}
		stack = stack[:len(stack)-1]
		state[int(id)] = black
	}

	for i := range g.Edges {
		if g.Present[i] && state[i] == white {
			visit(toModuleID(i))
		}
	}
	return out
}

// cycleKey is the rotation-independent identity of a closed path.
func cycleKey(ids []ModuleID) string {
	body := ids[:len(ids)-1]
	minAt := 0
	for i, id := range body {
		if id < body[minAt] {
			minAt = i
		}
	}
	var sb strings.Builder
	for i := range body {
		fmt.Fprintf(&sb, "%d,", body[(minAt+i)%len(body)])
	}
	return sb.String()
}

// Check returns the first import cycle, or nil for an acyclic graph.
func Check(idx ModuleIndex, g Graph) error {
	cycles := Cycles(idx, g)
	if len(cycles) == 0 {
		return nil
	}
	return cycles[0]
}

// ReportCycles emits one live PRJ7001 per cycle at the import that closes it
// and marks every module on the cycle as broken.
func ReportCycles(idx ModuleIndex, slots []ModuleSlot, cycles []*CycleError) {
	for _, cyc := range cycles {
		n := len(cyc.IDs)
		if n < 2 {
			continue
		}
		from, to := cyc.IDs[n-2], cyc.IDs[n-1]
		slot := &slots[int(from)]
		b := diag.ReportError(slot.Reporter, diag.ProjImportCycle, importSpan(slots, idx, from, to), cyc.Error()).
			WithReach(diag.LivePath).
			WithModule(slot.Meta.Path)
		for i := 0; i+2 < n; i++ {
			a, c := cyc.IDs[i], cyc.IDs[i+1]
			b.WithNote(importSpan(slots, idx, a, c), fmt.Sprintf("%q imports %q", idx.IDToName[int(a)], idx.IDToName[int(c)]))
		}
		d := b.Diagnostic()
		b.Emit()
		for _, id := range cyc.IDs {
			slots[int(id)].MarkBroken(&d)
		}
	}
}
