package symbols

type (
	ScopeID   uint32
	BindingID uint32
)

const (
	NoScopeID   ScopeID   = 0
	NoBindingID BindingID = 0
)

func (id ScopeID) IsValid() bool   { return id != NoScopeID }
func (id BindingID) IsValid() bool { return id != NoBindingID }
