package driver

import (
	"context"
	"fmt"
	"maps"
	"runtime"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"viper/internal/ast"
	"viper/internal/casts"
	"viper/internal/constraints"
	"viper/internal/diag"
	"viper/internal/iface"
	"viper/internal/infer"
	"viper/internal/observ"
	"viper/internal/project/dag"
	"viper/internal/reach"
	"viper/internal/trace"
	"viper/internal/types"
)

// Result is what Compile hands to the caller and the emitter.
type Result struct {
	Session  string
	Entry    string
	Modules  []*Module
	Interner *types.Interner
	Registry *iface.Registry
	// Surfaced is the flush taken right after compilation.
	Surfaced []diag.Diagnostic
	Halted   bool
}

// Tree returns the annotated tree of module, if it was analysed.
func (r *Result) Tree(module string) (*AnnotatedTree, bool) {
	for _, m := range r.Modules {
		if m.Name == module && m.Tree != nil {
			return m.Tree, true
		}
	}
	return nil, false
}

type moduleState struct {
	id   dag.ModuleID
	unit *Unit
	bag  *diag.Bag
	rep  *diag.DedupReporter
	mod  *Module

	res     *constraints.Result
	live    *reach.Liveness
	sol     *infer.Solution
	exports *constraints.Exports
}

func (st *moduleState) add(items ...diag.Diagnostic) {
	for _, d := range items {
		if d.Module == "" {
			d.Module = st.unit.Module
		}
		st.rep.Report(d)
	}
}

// stamp turns findings into diagnostics classified by liveness.
func (st *moduleState) stamp(findings []constraints.Finding) {
	for _, f := range findings {
		d := f.Diag
		d.Reachability = st.live.Reachability(f.Origin.Fn, f.Origin.Stmt)
		st.add(d)
	}
}

type compilation struct {
	s       *Session
	plan    *Plan
	states  []*moduleState
	exports map[string]*constraints.Exports
	timer   *observ.Timer
}

// Compile analyses units layer by layer. Modules of one layer run in
// parallel; interface synthesis and cast resolution run afterwards in
// module order so registry ordinals do not depend on scheduling. The
// returned error is only ever a context error.
func (s *Session) Compile(ctx context.Context, units []*Unit) (*Result, error) {
	tracer := s.opts.Tracer
	if tracer == nil {
		tracer = trace.FromContext(ctx)
	}
	ctx, span := trace.Start(trace.WithTracer(ctx, tracer), trace.ScopeDriver, "compile")
	span.WithExtra("session", s.ID())

	c := &compilation{
		s:       s,
		exports: make(map[string]*constraints.Exports),
		timer:   s.opts.Timer,
	}

	idx := c.timer.Begin("graph")
	c.plan = NewPlan(units)
	dag.ReportCycles(c.plan.Index, c.plan.Slots, c.plan.Cycles)
	c.plan.computeHashes()
	c.timer.End(idx, fmt.Sprintf("%d modules, %d layers", len(units), len(c.plan.Topo.Batches)))

	entry := s.pickEntry(units)
	s.mu.Lock()
	s.plan = c.plan
	s.entry = entry
	s.mu.Unlock()
	c.prepare(entry)

	jobs := s.opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	for li, batch := range c.plan.Topo.Batches {
		ready := c.admit(batch)
		if len(ready) == 0 {
			continue
		}
		idx := c.timer.Begin(fmt.Sprintf("layer %d", li+1))
		imports := maps.Clone(c.exports)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(jobs)
		for _, st := range ready {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				start := time.Now()
				c.analyze(gctx, st, imports)
				c.timer.Module(idx, st.unit.Module, time.Since(start))
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			c.timer.End(idx, "cancelled")
			span.End("cancelled")
			return nil, err
		}
		for _, st := range ready {
			c.finish(ctx, st)
		}
		c.timer.End(idx, fmt.Sprintf("%d modules", len(ready)))
	}
	c.skipBlocked()

	idx = c.timer.Begin("record")
	result := c.record(entry)
	c.timer.End(idx, fmt.Sprintf("%d diagnostics", len(result.Surfaced)))
	span.End(fmt.Sprintf("modules=%d halted=%t", len(result.Modules), result.Halted))
	return result, nil
}

// pickEntry is the configured entry, or the only unit of a one-file build.
func (s *Session) pickEntry(units []*Unit) string {
	for _, u := range units {
		if u != nil && u.Module == s.opts.Entry {
			return u.Module
		}
	}
	if len(units) == 1 && units[0] != nil {
		return units[0].Module
	}
	return s.opts.Entry
}

func (c *compilation) prepare(entry string) {
	c.states = make([]*moduleState, len(c.plan.Slots))
	for i := range c.plan.Slots {
		u := c.plan.units[i]
		if u == nil || !c.plan.Slots[i].Present {
			continue
		}
		st := &moduleState{
			id:   dag.ModuleID(i), //nolint:gosec // индекс слота совпадает с ModuleID
			unit: u,
			bag:  c.plan.bags[i],
			rep:  diag.NewDedupReporter(diag.BagReporter{Bag: c.plan.bags[i]}),
			mod: &Module{
				Name:    u.Module,
				Meta:    c.plan.Slots[i].Meta,
				Library: u.Module != entry,
			},
		}
		st.add(u.Diags...)
		c.states[i] = st
	}
}

// admit drops the modules of batch whose dependencies are broken.
func (c *compilation) admit(batch []dag.ModuleID) []*moduleState {
	ready := make([]*moduleState, 0, len(batch))
	for _, id := range batch {
		st := c.states[int(id)]
		if st == nil {
			continue
		}
		if dag.ReportBrokenDeps(c.plan.Index, c.plan.Slots, id) {
			st.mod.Skipped = true
			st.mod.Broken = true
			c.plan.Slots[int(id)].MarkBroken(st.bag.FirstBlocking())
			continue
		}
		ready = append(ready, st)
	}
	return ready
}

func (c *compilation) analyze(ctx context.Context, st *moduleState, imports map[string]*constraints.Exports) {
	s := c.s
	b, file, mod := st.unit.Builder, st.unit.Tree, st.unit.Module
	ctx, mspan := trace.Start(ctx, trace.ScopeModule, "module:"+mod)
	pass := func(name string) *trace.Span {
		_, sp := trace.Start(ctx, trace.ScopePass, name)
		return sp
	}

	sp := pass("flatten")
	st.add(iface.Flatten(b, file, mod)...)
	sp.End("")

	sp = pass("collect")
	st.res = constraints.Collect(b, file, s.in, constraints.Options{Module: mod, Imports: imports})
	sp.End(fmt.Sprintf("%d constraints", len(st.res.Set.Constraints)))

	sp = pass("reach")
	st.live = reach.Analyze(b, file, st.res.Graph, st.mod.Library)
	sp.End(fmt.Sprintf("%d live functions", len(st.live.LiveFuncs(st.res.Graph))))

	sp = pass("solve")
	st.sol = infer.Solve(s.in, st.res.Set, infer.Options{
		Module:        mod,
		MaxIterations: s.opts.MaxIterations,
		Classes:       st.res.Classes,
		Interfaces:    s.reg.IDs,
	})
	sp.End(fmt.Sprintf("%d rounds, diverged=%t", st.sol.Iterations, st.sol.Diverged))

	exports, finalized := st.res.Finalize(s.in, mod, c.apply(st))
	st.exports = exports
	st.stamp(st.res.Findings)
	st.stamp(st.sol.Findings)
	st.stamp(finalized)
	mspan.End("")
}

func (c *compilation) apply(st *moduleState) func(types.TypeID) types.TypeID {
	return func(t types.TypeID) types.TypeID { return st.sol.Apply(c.s.in, t) }
}

// finish runs the order-sensitive tail of a module: interface synthesis,
// cast resolution and the broken verdict.
func (c *compilation) finish(ctx context.Context, st *moduleState) {
	s := c.s
	b, mod := st.unit.Builder, st.unit.Module
	apply := c.apply(st)
	sigs := signatures(s.in, b, st.res.Funcs, apply)

	_, sp := trace.Start(ctx, trace.ScopePass, "synthesize")
	sp.Module(mod)
	used := make([]types.TypeID, 0, len(sigs))
	for _, sig := range sortedSigs(sigs) {
		used = append(used, sig.Type)
	}
	for _, bnd := range st.res.Scopes.Bindings() {
		if bnd.Var != types.NoTypeID {
			used = append(used, bnd.Type())
		}
	}
	added := iface.Synthesize(s.reg, s.in, mod, st.res.Classes, iface.UsedInterfaces(s.in, used...))
	sp.End(fmt.Sprintf("%d interfaces", len(added)))

	_, sp = trace.Start(ctx, trace.ScopePass, "resolve")
	sp.Module(mod)
	exprTypes := make(map[ast.ExprID]types.TypeID, len(st.res.Set.ExprTypes))
	for e, t := range st.res.Set.ExprTypes {
		exprTypes[e] = apply(t)
	}
	reachOf := func(o constraints.Origin) diag.Reachability {
		return st.live.Reachability(o.Fn, o.Stmt)
	}
	st.add(casts.NewResolver(b, s.in, mod).Resolve(st.sol.Obligations, reachOf, exprTypes)...)
	tree := &AnnotatedTree{
		Module:    mod,
		Builder:   b,
		File:      st.unit.Tree,
		ExprTypes: exprTypes,
		Funcs:     sigs,
		Classes:   st.res.Classes,
		Coercions: coercions(b, exprTypes),
		Live:      st.live,
	}
	sp.End(fmt.Sprintf("%d coercions", len(tree.Coercions)))

	st.mod.Tree = tree
	st.mod.Exports = st.exports
	c.exports[mod] = st.exports
	if first := st.bag.FirstBlocking(); first != nil {
		st.mod.Broken = true
		c.plan.Slots[int(st.id)].MarkBroken(first)
	}
}

func sortedSigs(sigs map[ast.ItemID]*Signature) []*Signature {
	keys := slices.Sorted(maps.Keys(sigs))
	out := make([]*Signature, 0, len(keys))
	for _, k := range keys {
		out = append(out, sigs[k])
	}
	return out
}

// skipBlocked reports the importers of cyclic modules. Importers are
// visited until no more of them turn out broken, since a module may only
// reach a cycle through another blocked module.
func (c *compilation) skipBlocked() {
	blocked := c.plan.Topo.Blocked
	done := make(map[dag.ModuleID]bool, len(blocked))
	for _, cyc := range c.plan.Cycles {
		for _, id := range cyc.IDs {
			done[id] = true
		}
	}
	for changed := true; changed; {
		changed = false
		for _, id := range blocked {
			if done[id] || c.states[int(id)] == nil {
				continue
			}
			if dag.ReportBrokenDeps(c.plan.Index, c.plan.Slots, id) {
				done[id] = true
				changed = true
				c.plan.Slots[int(id)].MarkBroken(c.states[int(id)].bag.FirstBlocking())
			}
		}
	}
	for _, id := range blocked {
		if st := c.states[int(id)]; st != nil {
			st.mod.Skipped = true
			st.mod.Broken = true
		}
	}
}

func (c *compilation) record(entry string) *Result {
	s := c.s
	modules := make([]*Module, 0, len(c.states))
	for i, st := range c.states {
		if st == nil {
			continue
		}
		items := slices.Clone(st.bag.Items())
		diag.SortDiagnostics(items)
		st.mod.Diags = items
		st.mod.Meta = c.plan.Slots[i].Meta
		s.mgr.RecordAll(items)
		modules = append(modules, st.mod)
	}
	s.mu.Lock()
	for _, m := range modules {
		s.modules[m.Name] = m
	}
	s.mu.Unlock()

	return &Result{
		Session:  s.ID(),
		Entry:    entry,
		Modules:  modules,
		Interner: s.in,
		Registry: s.reg,
		Surfaced: s.mgr.Flush(),
		Halted:   s.mgr.Halted(),
	}
}

