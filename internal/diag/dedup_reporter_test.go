package diag

import (
	"testing"

	"viper/internal/source"
)

func TestDedupKeepsLiveCopyOfDeadReport(t *testing.T) {
	bag := NewBag(0)
	r := NewDedupReporter(BagReporter{Bag: bag})
	span := source.Span{File: 1, Start: 4, End: 9}

	dead := NewError(InfBadOperands, span, "unsupported operands int and str")
	dead.Reachability = DeadPath
	live := dead
	live.Reachability = LivePath

	r.Report(dead)
	r.Report(dead)
	r.Report(live)
	r.Report(live)

	items := bag.Items()
	if len(items) != 2 {
		t.Fatalf("got %d diagnostics, want the dead and the live copy", len(items))
	}
	if !items[1].Blocking() {
		t.Fatalf("live copy must stay blocking")
	}
}
