package lexer

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"mcc/internal/source"
)

// Cursor is a byte position inside one file.
type Cursor struct {
	File  *source.File
	Off   uint32
	Limit uint32
}

func NewCursor(f *source.File) Cursor {
	limit, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("file %s is too large: %w", f.Path, err))
	}
	return Cursor{File: f, Limit: limit}
}

func (c *Cursor) EOF() bool { return c.Off >= c.Limit }

// Peek returns the current byte, or 0 at EOF.
func (c *Cursor) Peek() byte { return c.PeekAt(0) }

// PeekAt returns the byte n positions ahead, or 0 past EOF.
func (c *Cursor) PeekAt(n uint32) byte {
	if c.Off+n >= c.Limit {
		return 0
	}
	return c.File.Content[c.Off+n]
}

// Bump consumes and returns one byte, or 0 at EOF.
func (c *Cursor) Bump() byte {
	b := c.Peek()
	if !c.EOF() {
		c.Off++
	}
	return b
}

// HasPrefix reports whether the unread input starts with s.
func (c *Cursor) HasPrefix(s string) bool {
	return strings.HasPrefix(c.File.Content[c.Off:c.Limit], s)
}

// SkipLine advances to the next '\n' without consuming it.
func (c *Cursor) SkipLine() {
	rest := c.File.Content[c.Off:c.Limit]
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		c.Off += uint32(i) // #nosec G115 -- bounded by Limit
		return
	}
	c.Off = c.Limit
}

// SkipPast advances beyond the next occurrence of s. At EOF without a match
// it reports false.
func (c *Cursor) SkipPast(s string) bool {
	rest := c.File.Content[c.Off:c.Limit]
	if i := strings.Index(rest, s); i >= 0 {
		c.Off += uint32(i + len(s)) // #nosec G115 -- bounded by Limit
		return true
	}
	c.Off = c.Limit
	return false
}

// Mark remembers a position so a span can be cut later.
type Mark uint32

func (c *Cursor) Mark() Mark { return Mark(c.Off) }

func (c *Cursor) SpanFrom(m Mark) source.Span {
	return source.Span{File: c.File.ID, Start: uint32(m), End: c.Off}
}

func (c *Cursor) TextFrom(m Mark) string {
	return c.File.Content[m:c.Off]
}
