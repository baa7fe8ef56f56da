package types

import (
	"strconv"
	"strings"
)

// Format renders t for diagnostics.
func (in *Interner) Format(t TypeID) string {
	tt, ok := in.Lookup(t)
	if !ok {
		return "<invalid>"
	}
	switch tt.Kind {
	case KindNone, KindAny, KindBool, KindInt, KindFloat, KindStr:
		return tt.Kind.String()
	case KindVar:
		return "?" + strconv.FormatUint(uint64(tt.Payload), 10)
	case KindParam:
		p, _ := in.ParamInfo(t)
		return p.Name
	case KindClass:
		ref, args, _ := in.ClassOf(t)
		info := in.ClassInfo(ref)
		name := "<class>"
		if info != nil {
			name = info.Name
		}
		if len(args) == 0 {
			return name
		}
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = in.Format(a)
		}
		return name + "[" + strings.Join(parts, ", ") + "]"
	case KindFn:
		info, _ := in.FnInfo(t)
		parts := make([]string, len(info.Params))
		for i, p := range info.Params {
			parts[i] = in.Format(p)
		}
		s := "(" + strings.Join(parts, ", ") + ") -> " + in.Format(info.Result)
		if info.Suspendable {
			s = "suspendable " + s
		}
		return s
	case KindInterface:
		info, _ := in.InterfaceInfo(t)
		if info.Name != "" {
			return info.Name
		}
		return "{" + strings.Join(MethodNames(info.Methods), ", ") + "}"
	}
	return tt.Kind.String()
}
