package dag

import (
	"fmt"
	"slices"

	"viper/internal/diag"
	"viper/internal/project"
	"viper/internal/source"
)

type Graph struct {
	Edges   [][]ModuleID // Edges[from] = []to, from импортирует to
	Present []bool       // модуль реально загружен, а не только упомянут в импорте
}

type ModuleNode struct {
	Meta     project.ModuleMeta
	Reporter diag.Reporter
}

// ModuleSlot is the per-module state the driver updates while walking layers.
type ModuleSlot struct {
	Meta     project.ModuleMeta
	Reporter diag.Reporter
	Present  bool
	Broken   bool
	FirstErr *diag.Diagnostic
}

// MarkBroken records that the module cannot be relied on by importers.
func (s *ModuleSlot) MarkBroken(first *diag.Diagnostic) {
	s.Broken = true
	if s.FirstErr == nil && first != nil {
		d := *first
		s.FirstErr = &d
	}
}

func BuildGraph(idx ModuleIndex, nodes []ModuleNode) (Graph, []ModuleSlot) {
	nodeCount := len(idx.IDToName)
	g := Graph{
		Edges:   make([][]ModuleID, nodeCount),
		Present: make([]bool, nodeCount),
	}
	slots := make([]ModuleSlot, nodeCount)
	for i, name := range idx.IDToName {
		slots[i].Meta.Path = name
	}

	for _, node := range nodes {
		meta := node.Meta
		if meta.Path == "" {
			continue
		}
		id, ok := idx.NameToID[meta.Path]
		if !ok {
			// индекс строится на тех же метаданных
			continue
		}
		slot := &slots[int(id)]
		if slot.Present {
			b := diag.ReportError(node.Reporter, diag.ProjDuplicateModule, meta.Span,
				fmt.Sprintf("duplicate module %q", meta.Path)).WithModule(meta.Path)
			if slot.Meta.Span != (source.Span{}) {
				b.WithNote(slot.Meta.Span, fmt.Sprintf("previous definition of %q", slot.Meta.Path))
			}
			b.Emit()
			continue
		}
		slot.Meta = meta
		slot.Reporter = node.Reporter
		slot.Present = true
		g.Present[int(id)] = true
	}

	for from := range slots {
		slot := &slots[from]
		if !slot.Present || len(slot.Meta.Imports) == 0 {
			continue
		}
		seen := make(map[ModuleID]struct{}, len(slot.Meta.Imports))
		for _, dep := range slot.Meta.Imports {
			if dep.Path == "" {
				continue
			}
			toID, ok := idx.NameToID[dep.Path]
			if !ok {
				continue
			}
			if ModuleID(from) == toID {
				diag.ReportError(slot.Reporter, diag.ProjSelfImport, dep.Span,
					fmt.Sprintf("module %q imports itself", slot.Meta.Path)).WithModule(slot.Meta.Path).Emit()
				continue
			}
			if _, dup := seen[toID]; dup {
				continue
			}
			seen[toID] = struct{}{}

			g.Edges[from] = append(g.Edges[from], toID)
			if !g.Present[int(toID)] {
				diag.ReportError(slot.Reporter, diag.ProjMissingModule, dep.Span,
					fmt.Sprintf("module %q imports missing module %q", slot.Meta.Path, idx.IDToName[int(toID)])).
					WithModule(slot.Meta.Path).Emit()
			}
		}
		if len(g.Edges[from]) > 1 {
			slices.Sort(g.Edges[from])
		}
	}

	return g, slots
}

// ReportBrokenDeps emits one PRJ7004 per import of from whose target is
// broken and reports whether any was found.
func ReportBrokenDeps(idx ModuleIndex, slots []ModuleSlot, from ModuleID) bool {
	slotFrom := &slots[int(from)]
	if !slotFrom.Present || len(slotFrom.Meta.Imports) == 0 {
		return false
	}
	found := false
	emitted := make(map[string]struct{}, len(slotFrom.Meta.Imports))
	for _, imp := range slotFrom.Meta.Imports {
		toID, ok := idx.NameToID[imp.Path]
		if !ok || toID == from {
			continue
		}
		depSlot := slots[int(toID)]
		if !depSlot.Broken {
			continue
		}
		found = true
		key := imp.Path + "|" + imp.Span.String()
		if _, seen := emitted[key]; seen {
			continue
		}
		emitted[key] = struct{}{}

		b := diag.ReportError(slotFrom.Reporter, diag.ProjDependencyFailed, imp.Span,
			fmt.Sprintf("dependency module %q has errors", imp.Path)).WithModule(slotFrom.Meta.Path)
		if depSlot.FirstErr != nil {
			b.WithNote(depSlot.FirstErr.Primary, fmt.Sprintf("first error in dependency: %s", depSlot.FirstErr.Message))
		}
		b.Emit()
	}
	return found
}

// importSpan finds where from imports to.
func importSpan(slots []ModuleSlot, idx ModuleIndex, from, to ModuleID) source.Span {
	name := idx.IDToName[int(to)]
	for _, imp := range slots[int(from)].Meta.Imports {
		if imp.Path == name {
			return imp.Span
		}
	}
	return slots[int(from)].Meta.Span
}
