package symbols

import (
	"fmt"

	"viper/internal/source"
)

// ShadowingError reports a declaration that collides with a binding in the
// same function-level scope chain.
type ShadowingError struct {
	Name     string
	Span     source.Span
	Previous *Binding
}

func (e *ShadowingError) Error() string {
	return fmt.Sprintf("%q is already declared in this scope", e.Name)
}
