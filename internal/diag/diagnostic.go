package diag

import (
	"viper/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

type Diagnostic struct {
	Severity     Severity
	Code         Code
	Message      string
	Primary      source.Span
	Notes        []Note
	Reachability Reachability
	Module       string
}

func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

func NewError(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}

// Blocking reports whether d halts execution when surfaced.
func (d Diagnostic) Blocking() bool {
	return Blocking(d.Severity, d.Reachability)
}

// Kind is the taxonomy bucket of the diagnostic's code.
func (d Diagnostic) Kind() Kind {
	return d.Code.Kind()
}
