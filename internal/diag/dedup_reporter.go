package diag

import "viper/internal/source"

// dedupKey is what makes two diagnostics the same report. Reachability is
// part of it: a dead copy must not hide a live one.
type dedupKey struct {
	code  Code
	sev   Severity
	reach Reachability
	span  source.Span
	msg   string
}

// DedupReporter forwards each distinct diagnostic once. Methods copied into
// a subclass share the base's spans, so their findings repeat verbatim.
// Not safe for concurrent use.
type DedupReporter struct {
	next Reporter
	seen map[dedupKey]struct{}
}

func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{next: next, seen: make(map[dedupKey]struct{})}
}

func (r *DedupReporter) Report(d Diagnostic) {
	if r == nil {
		return
	}
	key := dedupKey{code: d.Code, sev: d.Severity, reach: d.Reachability, span: d.Primary, msg: d.Message}
	if _, dup := r.seen[key]; dup {
		return
	}
	r.seen[key] = struct{}{}
	if r.next != nil {
		r.next.Report(d)
	}
}
