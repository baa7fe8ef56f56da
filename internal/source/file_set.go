package source

import (
	"crypto/sha256"
	"fmt"
	"math"
	"os"
	"sync"

	"fortio.org/safecast"
)

// FileSet owns every source file of a compilation. Safe for concurrent use.
type FileSet struct {
	mu     sync.RWMutex
	files  []*File
	byPath map[string]FileID
}

func NewFileSet() *FileSet {
	return &FileSet{byPath: make(map[string]FileID)}
}

// Add registers content under path and returns its ID.
// A path added twice gets a new ID; GetByPath returns the latest.
func (fs *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	if len(content) > math.MaxUint32 {
		panic(fmt.Errorf("source: file %s is too large", path))
	}
	content, hadBOM := removeBOM(content)
	if hadBOM {
		flags |= FileHadBOM
	}
	content, crlf := normalizeCRLF(content)
	if crlf {
		flags |= FileNormalizedCRLF
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	id, err := safecast.Conv[uint32](len(fs.files) + 1)
	if err != nil {
		panic(fmt.Errorf("source: file id overflow: %w", err))
	}
	path = normalizePath(path)
	fs.files = append(fs.files, &File{
		ID:      FileID(id),
		Path:    path,
		Content: content,
		Lines:   lineStarts(content),
		Hash:    sha256.Sum256(content),
		Flags:   flags,
	})
	fs.byPath[path] = FileID(id)
	return FileID(id)
}

// AddVirtual is Add for in-memory sources such as tests and stdin.
func (fs *FileSet) AddVirtual(path string, content []byte) FileID {
	return fs.Add(path, content, FileVirtual)
}

// Load reads a file from disk and registers it.
func (fs *FileSet) Load(path string) (FileID, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return NoFileID, fmt.Errorf("read %s: %w", path, err)
	}
	return fs.Add(path, content, 0), nil
}

// Get returns the file by ID, or nil for an unknown ID.
func (fs *FileSet) Get(id FileID) *File {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if id == NoFileID || int(id) > len(fs.files) {
		return nil
	}
	return fs.files[id-1]
}

func (fs *FileSet) GetByPath(path string) (*File, bool) {
	fs.mu.RLock()
	id, ok := fs.byPath[normalizePath(path)]
	fs.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return fs.Get(id), true
}

// SetModule tags the file with the module key it was loaded as.
func (fs *FileSet) SetModule(id FileID, module string) {
	if f := fs.Get(id); f != nil {
		fs.mu.Lock()
		f.Module = module
		fs.mu.Unlock()
	}
}

func (fs *FileSet) Len() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return len(fs.files)
}

// Resolve converts a span into path and line/column coordinates.
func (fs *FileSet) Resolve(span Span) (Position, bool) {
	f := fs.Get(span.File)
	if f == nil {
		return Position{}, false
	}
	return Position{
		Path:  f.Path,
		Start: toLineCol(f.Lines, span.Start),
		End:   toLineCol(f.Lines, span.End),
	}, true
}

// Line returns the text of a 1-based line without its newline.
func (f *File) Line(n uint32) string {
	if n == 0 || int(n) > len(f.Lines) {
		return ""
	}
	start := f.Lines[n-1]
	end := uint32(len(f.Content)) //nolint:gosec // checked on Add
	if int(n) < len(f.Lines) {
		end = f.Lines[n] - 1
	}
	if end < start {
		return ""
	}
	return string(f.Content[start:end])
}

// Text returns the bytes covered by span, clamped to the file.
func (f *File) Text(span Span) string {
	n := uint32(len(f.Content)) //nolint:gosec // checked on Add
	start, end := min(span.Start, n), min(span.End, n)
	if end < start {
		return ""
	}
	return string(f.Content[start:end])
}
