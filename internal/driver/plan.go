package driver

import (
	"viper/internal/diag"
	"viper/internal/project"
	"viper/internal/project/dag"
)

// Plan is the import graph of a set of units together with its cycles and
// topological layers. Diagnostics found while planning go to per-module bags.
type Plan struct {
	Index  dag.ModuleIndex
	Graph  dag.Graph
	Slots  []dag.ModuleSlot
	Topo   *dag.Topo
	Cycles []*dag.CycleError

	bags  []*diag.Bag
	units []*Unit
}

// NewPlan builds the module graph of units. It reports duplicate, missing
// and self imports but leaves cycles to the caller.
func NewPlan(units []*Unit) *Plan {
	var (
		metas []project.ModuleMeta
		owned []*Unit
	)
	for _, u := range units {
		if u != nil {
			metas = append(metas, u.Meta())
			owned = append(owned, u)
		}
	}
	idx := dag.BuildIndex(metas)
	p := &Plan{
		Index: idx,
		bags:  make([]*diag.Bag, len(idx.IDToName)),
		units: make([]*Unit, len(idx.IDToName)),
	}

	nodes := make([]dag.ModuleNode, 0, len(metas))
	for i, u := range owned {
		id := idx.NameToID[u.Module]
		bag := p.bags[int(id)]
		if bag == nil {
			bag = diag.NewBag(0)
			p.bags[int(id)] = bag
		}
		if p.units[int(id)] == nil {
			p.units[int(id)] = u
		}
		nodes = append(nodes, dag.ModuleNode{Meta: metas[i], Reporter: diag.BagReporter{Bag: bag}})
	}
	p.Graph, p.Slots = dag.BuildGraph(idx, nodes)
	p.Cycles = dag.Cycles(idx, p.Graph)
	p.Topo = dag.ToposortKahn(p.Graph)
	return p
}

// Layers returns the module names of each topological batch, dependencies
// first.
func (p *Plan) Layers() [][]string {
	out := make([][]string, 0, len(p.Topo.Batches))
	for _, batch := range p.Topo.Batches {
		out = append(out, p.Index.Names(batch))
	}
	return out
}

// Blocked returns the modules that sit on a cycle or import one.
func (p *Plan) Blocked() []string {
	return p.Index.Names(p.Topo.Blocked)
}

// Check is the import graph verdict: nil or the first *dag.CycleError.
func (p *Plan) Check() error {
	if len(p.Cycles) == 0 {
		return nil
	}
	return p.Cycles[0]
}

// computeHashes folds each module's dependency hashes into its own,
// dependencies first. Cyclic graphs keep the content hash only.
func (p *Plan) computeHashes() {
	for i := range p.Slots {
		p.Slots[i].Meta.ModuleHash = p.Slots[i].Meta.ContentHash
	}
	if p.Topo.Cyclic {
		return
	}
	for _, id := range p.Topo.Order {
		slot := &p.Slots[int(id)]
		deps := make([]project.Digest, 0, len(p.Graph.Edges[int(id)]))
		for _, to := range p.Graph.Edges[int(id)] {
			if p.Graph.Present[int(to)] {
				deps = append(deps, p.Slots[int(to)].Meta.ModuleHash)
			}
		}
		slot.Meta.ModuleHash = project.Combine(slot.Meta.ContentHash, deps...)
	}
}
