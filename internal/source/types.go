package source

type (
	// FileID uniquely identifies a source file within a FileSet. Zero is "no file".
	FileID uint32
	// FileFlags encodes metadata about a source file.
	FileFlags uint8
)

const NoFileID FileID = 0

const (
	// FileVirtual indicates the file was added from memory (test, stdin, etc.).
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
)

// File captures metadata and content for a single source file.
type File struct {
	ID      FileID
	Path    string
	Module  string // ключ модуля, если файл загружен драйвером
	Content []byte
	Lines   []uint32 // смещения начала каждой строки
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol represents a human-readable position in a source file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based, in bytes
}

// Position is a resolved span: path plus start and end coordinates.
type Position struct {
	Path  string
	Start LineCol
	End   LineCol
}
