package diag

import (
	"testing"

	"viper/internal/source"
)

func TestFormatShort(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.AddVirtual("app/main.py", []byte("a\nb\n"))

	diags := []Diagnostic{
		{
			Severity: SevWarning,
			Code:     CastInserted,
			Message:  "another",
			Primary:  source.Span{File: file, Start: 2, End: 3},
		},
		{
			Severity:     SevError,
			Code:         InfConflict,
			Message:      "first line\nsecond",
			Primary:      source.Span{File: file, Start: 0, End: 1},
			Reachability: DeadPath,
			Notes:        []Note{{Span: source.Span{File: file, Start: 2, End: 3}, Msg: "note line"}},
		},
		{
			Severity: SevError,
			Code:     ProjImportCycle,
			Message:  "a -> b -> a",
			Module:   "a",
		},
	}

	expected := "error PRJ7001 a:0:0 [on-live-path] a -> b -> a\n" +
		"error INF4001 app/main.py:1:1 [dead-path] first line second\n" +
		"warning CST5001 app/main.py:2:1 another\n" +
		"note INF4001 app/main.py:2:1 note line"

	if got := FormatShort(diags, fs, true); got != expected {
		t.Fatalf("unexpected output:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
}
