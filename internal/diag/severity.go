package diag

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	// SevInfo is for informational diagnostics.
	SevInfo Severity = iota
	// SevWarning is for warning diagnostics.
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// Reachability tells whether a diagnostic sits on code that can run.
// The zero value is LivePath: anything not proven dead is live.
type Reachability uint8

const (
	LivePath Reachability = iota
	DeadPath
)

func (r Reachability) String() string {
	if r == DeadPath {
		return "dead-path"
	}
	return "on-live-path"
}

// Blocking reports whether a diagnostic with this severity and reachability
// stops execution once surfaced.
func Blocking(sev Severity, r Reachability) bool {
	return sev == SevError && r == LivePath
}
