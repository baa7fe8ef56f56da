package dag

import (
	"errors"
	"slices"
	"testing"

	"viper/internal/diag"
	"viper/internal/project"
	"viper/internal/source"
)

func imports(paths ...string) []project.ImportMeta {
	out := make([]project.ImportMeta, len(paths))
	for i, p := range paths {
		out[i] = project.ImportMeta{Path: p, Span: source.Span{File: 1, Start: uint32(i), End: uint32(i + 1)}}
	}
	return out
}

func build(metas ...project.ModuleMeta) (ModuleIndex, Graph, []ModuleSlot, *diag.Bag) {
	bag := diag.NewBag(100)
	nodes := make([]ModuleNode, len(metas))
	for i, m := range metas {
		nodes[i] = ModuleNode{Meta: m, Reporter: diag.BagReporter{Bag: bag}}
	}
	idx := BuildIndex(metas)
	g, slots := BuildGraph(idx, nodes)
	return idx, g, slots, bag
}

func TestBuildIndexIncludesImports(t *testing.T) {
	metas := []project.ModuleMeta{
		{Path: "core.main", Imports: imports("lib.math", "lib.util")},
		{Path: "lib.util"},
	}

	idx := BuildIndex(metas)

	wantNames := []string{"core.main", "lib.math", "lib.util"}
	if !slices.Equal(idx.IDToName, wantNames) {
		t.Fatalf("IDToName = %v, want %v", idx.IDToName, wantNames)
	}
	for i, want := range wantNames {
		if id, ok := idx.NameToID[want]; !ok || int(id) != i {
			t.Fatalf("NameToID[%q] = %v, want %d", want, id, i)
		}
	}
}

func TestBuildGraphReportsMissingModules(t *testing.T) {
	idx, g, _, bag := build(
		project.ModuleMeta{Path: "app", Imports: imports("core", "util")},
		project.ModuleMeta{Path: "core", Imports: imports("util")},
	)

	appID, coreID, utilID := idx.NameToID["app"], idx.NameToID["core"], idx.NameToID["util"]
	if deps := g.Edges[int(appID)]; !slices.Equal(deps, []ModuleID{coreID, utilID}) {
		t.Fatalf("app deps = %v", deps)
	}
	if g.Present[int(utilID)] {
		t.Fatalf("util must not be present")
	}
	if bag.Len() != 2 {
		t.Fatalf("diagnostics = %d, want 2", bag.Len())
	}
	for _, d := range bag.Items() {
		if d.Code != diag.ProjMissingModule {
			t.Fatalf("code = %v, want %v", d.Code, diag.ProjMissingModule)
		}
	}
}

func TestBuildGraphDuplicateAndSelfImport(t *testing.T) {
	spanA := source.Span{File: 1, Start: 0, End: 5}
	spanB := source.Span{File: 2, Start: 0, End: 5}
	idx, _, slots, bag := build(
		project.ModuleMeta{Path: "dup", Span: spanA, Imports: imports("dup")},
		project.ModuleMeta{Path: "dup", Span: spanB},
	)

	codes := make([]diag.Code, 0, bag.Len())
	for _, d := range bag.Items() {
		codes = append(codes, d.Code)
	}
	slices.Sort(codes)
	if !slices.Equal(codes, []diag.Code{diag.ProjSelfImport, diag.ProjDuplicateModule}) {
		t.Fatalf("codes = %v", codes)
	}
	if slot := slots[int(idx.NameToID["dup"])]; slot.Meta.Span != spanA {
		t.Fatalf("slot should keep the first definition")
	}
}

func TestToposortKahnDependenciesFirst(t *testing.T) {
	idx, g, _, _ := build(
		project.ModuleMeta{Path: "b", Imports: imports("c")},
		project.ModuleMeta{Path: "a"},
		project.ModuleMeta{Path: "c"},
		project.ModuleMeta{Path: "main", Imports: imports("a", "b")},
	)

	topo := ToposortKahn(g)
	if topo.Cyclic {
		t.Fatalf("expected acyclic graph")
	}
	var got [][]string
	for _, batch := range topo.Batches {
		got = append(got, idx.Names(batch))
	}
	want := [][]string{{"a", "c"}, {"b"}, {"main"}}
	if len(got) != len(want) {
		t.Fatalf("batches = %v, want %v", got, want)
	}
	for i := range want {
		if !slices.Equal(got[i], want[i]) {
			t.Fatalf("batches = %v, want %v", got, want)
		}
	}
	if names := idx.Names(topo.Order); !slices.Equal(names, []string{"a", "c", "b", "main"}) {
		t.Fatalf("order = %v", names)
	}
}

func TestCheckTwoModuleCycle(t *testing.T) {
	idx, g, _, _ := build(
		project.ModuleMeta{Path: "A", Imports: imports("B")},
		project.ModuleMeta{Path: "B", Imports: imports("A")},
	)

	err := Check(idx, g)
	var cyc *CycleError
	if !errors.As(err, &cyc) {
		t.Fatalf("Check = %v, want *CycleError", err)
	}
	if !slices.Equal(cyc.Path, []string{"A", "B", "A"}) {
		t.Fatalf("path = %v", cyc.Path)
	}
	if cyc.Error() != "import cycle: A -> B -> A" {
		t.Fatalf("message = %q", cyc.Error())
	}
}

func TestCheckAcyclic(t *testing.T) {
	idx, g, _, _ := build(
		project.ModuleMeta{Path: "a", Imports: imports("b")},
		project.ModuleMeta{Path: "b"},
	)
	if err := Check(idx, g); err != nil {
		t.Fatalf("Check = %v", err)
	}
}

func TestCyclesAreReportedOnce(t *testing.T) {
	idx, g, slots, bag := build(
		project.ModuleMeta{Path: "a", Imports: imports("b")},
		project.ModuleMeta{Path: "b", Imports: imports("c")},
		project.ModuleMeta{Path: "c", Imports: imports("a")},
		project.ModuleMeta{Path: "user", Imports: imports("a")},
	)

	cycles := Cycles(idx, g)
	if len(cycles) != 1 || !slices.Equal(cycles[0].Path, []string{"a", "b", "c", "a"}) {
		t.Fatalf("cycles = %v", cycles)
	}
	ReportCycles(idx, slots, cycles)
	if bag.Len() != 1 {
		t.Fatalf("diagnostics = %d, want 1", bag.Len())
	}
	d := bag.Items()[0]
	if d.Code != diag.ProjImportCycle || d.Reachability != diag.LivePath || len(d.Notes) != 2 {
		t.Fatalf("unexpected cycle diagnostic %+v", d)
	}
	for _, name := range []string{"a", "b", "c"} {
		if !slots[int(idx.NameToID[name])].Broken {
			t.Fatalf("%s should be broken", name)
		}
	}

	topo := ToposortKahn(g)
	if !topo.Cyclic || !slices.Equal(idx.Names(topo.Blocked), []string{"a", "b", "c", "user"}) {
		t.Fatalf("blocked = %v", idx.Names(topo.Blocked))
	}

	if !ReportBrokenDeps(idx, slots, idx.NameToID["user"]) {
		t.Fatalf("user should see a broken dependency")
	}
	last := bag.Items()[bag.Len()-1]
	if last.Code != diag.ProjDependencyFailed || len(last.Notes) != 1 {
		t.Fatalf("unexpected dependency diagnostic %+v", last)
	}
}
