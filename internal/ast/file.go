package ast

import "viper/internal/source"

// File is the root of one module's tree.
type File struct {
	Span   source.Span
	Module string
	Body   []StmtID
}
