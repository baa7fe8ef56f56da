package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	IOLoadFileError Code = 1001

	// синтаксис (front end)
	SynInfo        Code = 2000
	SynParseError  Code = 2001
	SynUnsupported Code = 2002
	SynBadTarget   Code = 2003

	// области видимости
	SemaInfo             Code = 3000
	SemaError            Code = 3001
	SemaShadowSymbol     Code = 3004
	SemaUnresolvedSymbol Code = 3005
	SemaTypeReassigned   Code = 3006
	SemaUnknownType      Code = 3007
	SemaSelfOutsideClass Code = 3008

	// вывод типов
	InfInfo            Code = 4000
	InfConflict        Code = 4001
	InfUnresolved      Code = 4002
	InfInfiniteType    Code = 4003
	InfDivergence      Code = 4004
	InfMissingMethod   Code = 4005
	InfMissingField    Code = 4006
	InfArity           Code = 4007
	InfNotCallable     Code = 4008
	InfNotIterable     Code = 4009
	InfBadOperands     Code = 4010
	InfPatternNever    Code = 4011
	InfNotAwaitable    Code = 4012
	InfReturnOutsideFn Code = 4013

	// приведения
	CastInfo     Code = 5000
	CastInserted Code = 5001

	// интерфейсы
	IfaceInfo        Code = 6000
	IfaceUnknownBase Code = 6001
	IfaceBaseCycle   Code = 6002
	IfaceConflict    Code = 6003

	// проект и импорты
	ProjInfo             Code = 7000
	ProjImportCycle      Code = 7001
	ProjMissingModule    Code = 7002
	ProjSelfImport       Code = 7003
	ProjDependencyFailed Code = 7004
	ProjDuplicateModule  Code = 7005
)

var codeDescription = map[Code]string{
	UnknownCode:          "Unknown error",
	IOLoadFileError:      "I/O load file error",
	SynInfo:              "Syntax information",
	SynParseError:        "Syntax error",
	SynUnsupported:       "Unsupported construct",
	SynBadTarget:         "Invalid assignment target",
	SemaInfo:             "Scope information",
	SemaError:            "Scope error",
	SemaShadowSymbol:     "Name shadows a binding in the same function scope",
	SemaUnresolvedSymbol: "Unresolved name",
	SemaTypeReassigned:   "Type of binding cannot be reassigned",
	SemaUnknownType:      "Unknown type in annotation",
	SemaSelfOutsideClass: "Method outside of a class",
	InfInfo:              "Inference information",
	InfConflict:          "Conflicting types",
	InfUnresolved:        "Type could not be inferred",
	InfInfiniteType:      "Infinite type",
	InfDivergence:        "Inference did not converge",
	InfMissingMethod:     "Missing method",
	InfMissingField:      "Missing field",
	InfArity:             "Wrong number of arguments",
	InfNotCallable:       "Value is not callable",
	InfNotIterable:       "Value is not iterable",
	InfBadOperands:       "Unsupported operand types",
	InfPatternNever:      "Pattern never matches",
	InfNotAwaitable:      "Value is not awaitable",
	InfReturnOutsideFn:   "Return outside of a function",
	CastInfo:             "Cast information",
	CastInserted:         "Implicit cast inserted",
	IfaceInfo:            "Interface information",
	IfaceUnknownBase:     "Unknown base interface",
	IfaceBaseCycle:       "Cyclic base list",
	IfaceConflict:        "Conflicting inherited method",
	ProjInfo:             "Project information",
	ProjImportCycle:      "Import cycle detected",
	ProjMissingModule:    "Missing module",
	ProjSelfImport:       "Module imports itself",
	ProjDependencyFailed: "Dependency module has errors",
	ProjDuplicateModule:  "Duplicate module definition",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("INF%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("CST%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("IFC%04d", ic)
	case ic >= 7000 && ic < 8000:
		return fmt.Sprintf("PRJ%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// Kind classifies diagnostics for uniform filtering.
type Kind uint8

const (
	KindOther Kind = iota
	KindShadowing
	KindInference
	KindCast
	KindCycle
)

func (k Kind) String() string {
	switch k {
	case KindShadowing:
		return "ShadowingError"
	case KindInference:
		return "InferenceError"
	case KindCast:
		return "CastWarning"
	case KindCycle:
		return "CycleError"
	}
	return "Diagnostic"
}

func (c Code) Kind() Kind {
	switch {
	case c == SemaShadowSymbol:
		return KindShadowing
	case c == ProjImportCycle:
		return KindCycle
	case c >= 4000 && c < 5000:
		return KindInference
	case c >= 5000 && c < 6000:
		return KindCast
	}
	return KindOther
}
