package source

import (
	"bytes"
	"path/filepath"
	"sort"
)

// normalizeCRLF заменяет все \r\n на \n, не трогая одиночные \r.
func normalizeCRLF(content []byte) ([]byte, bool) {
	if !bytes.Contains(content, []byte("\r\n")) {
		return content, false
	}
	return bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n")), true
}

func removeBOM(content []byte) ([]byte, bool) {
	if bytes.HasPrefix(content, []byte{0xEF, 0xBB, 0xBF}) {
		return content[3:], true
	}
	return content, false
}

// lineStarts returns the byte offset of every line start; the first is always 0.
func lineStarts(content []byte) []uint32 {
	out := make([]uint32, 1, 1+bytes.Count(content, []byte("\n")))
	for i, b := range content {
		if b == '\n' {
			out = append(out, uint32(i+1)) //nolint:gosec // file size is checked on Add
		}
	}
	return out
}

func toLineCol(starts []uint32, off uint32) LineCol {
	// первая строка, начало которой строго больше off, минус один
	i := sort.Search(len(starts), func(i int) bool { return starts[i] > off }) - 1
	if i < 0 {
		i = 0
	}
	return LineCol{Line: uint32(i + 1), Col: off - starts[i] + 1} //nolint:gosec // bounded by len(starts)
}

func normalizePath(p string) string {
	// единый вид в кроссплатформенных дифах
	return filepath.ToSlash(filepath.Clean(p))
}
