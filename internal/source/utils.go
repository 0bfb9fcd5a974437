package source

import (
	"bytes"
	"path/filepath"
	"slices"

	"fortio.org/safecast"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// normalizeCRLF turns every "\r\n" into "\n". A lone '\r' is kept and
// reported by the lexer.
func normalizeCRLF(content []byte) ([]byte, bool) {
	if !bytes.Contains(content, []byte("\r\n")) {
		return content, false
	}
	return bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n")), true
}

func removeBOM(content []byte) ([]byte, bool) {
	return bytes.CutPrefix(content, utf8BOM)
}

// buildLineIndex records the offset of every '\n'. Callers have checked
// that content fits in uint32 offsets.
func buildLineIndex(content string) []uint32 {
	var out []uint32
	for i := range len(content) {
		if content[i] == '\n' {
			out = append(out, offset(i))
		}
	}
	return out
}

func toLineCol(lineIdx []uint32, off uint32) LineCol {
	// line is the number of newlines strictly before off
	line, _ := slices.BinarySearch(lineIdx, off)
	var lineStart uint32
	if line > 0 {
		lineStart = lineIdx[line-1] + 1
	}
	return LineCol{Line: offset(line + 1), Col: off - lineStart + 1}
}

func normalizePath(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}

// offset narrows an index already known to fit in uint32.
func offset(i int) uint32 {
	v, err := safecast.Conv[uint32](i)
	if err != nil {
		panic(err)
	}
	return v
}
