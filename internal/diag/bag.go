package diag

import (
	"slices"
	"sort"
)

// Bag is an append-only list of diagnostics with an optional limit.
// Not safe for concurrent use; each module analysis owns its own bag.
type Bag struct {
	items []Diagnostic
	max   int
}

// NewBag returns a bag that keeps at most max items; max <= 0 means no limit.
func NewBag(max int) *Bag {
	return &Bag{max: max}
}

// Add добавляет диагностику, учитывая лимит.
// Возвращает false, если лимит достигнут.
func (b *Bag) Add(d Diagnostic) bool {
	if b.max > 0 && len(b.items) >= b.max {
		return false
	}
	b.items = append(b.items, d)
	return true
}

func (b *Bag) Len() int { return len(b.items) }

// Items возвращает read-only slice диагностик в порядке добавления.
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// FirstBlocking returns a copy of the earliest live-path error in sorted
// order, or nil. It is what a module's broken verdict points at.
func (b *Bag) FirstBlocking() *Diagnostic {
	sorted := slices.Clone(b.items)
	SortDiagnostics(sorted)
	for i := range sorted {
		if sorted[i].Blocking() {
			return &sorted[i]
		}
	}
	return nil
}

// SortDiagnostics orders diagnostics in place: file, start, end, severity
// (errors first), code, message.
func SortDiagnostics(items []Diagnostic) {
	sort.SliceStable(items, func(i, j int) bool {
		di, dj := items[i].Primary, items[j].Primary
		switch {
		case di.File != dj.File:
			return di.File < dj.File
		case di.Start != dj.Start:
			return di.Start < dj.Start
		case di.End != dj.End:
			return di.End < dj.End
		case items[i].Severity != items[j].Severity:
			return items[i].Severity > items[j].Severity
		case items[i].Code != items[j].Code:
			return items[i].Code < items[j].Code
		}
		return items[i].Message < items[j].Message
	})
}
