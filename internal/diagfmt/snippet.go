package diagfmt

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
	"github.com/mattn/go-runewidth"

	"mcc/internal/source"
)

// underline describes the caret run under one source line.
type underline struct {
	pad   string
	width int
}

// caretFor computes the padding and caret width for the part of span that
// lies on line. Tabs in the prefix are kept so the caret lines up in any
// terminal; other characters are replaced by spaces of the same cell width.
func caretFor(f *source.File, line uint32, span source.Span) underline {
	start := lineStartOffset(f, line)
	end := lineEndOffset(f, line)
	lo := min(max(span.Start, start), end)
	hi := min(max(span.End, lo), end)

	var pad strings.Builder
	for _, r := range f.Content[start:lo] {
		if r == '\t' {
			pad.WriteByte('\t')
			continue
		}
		pad.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	return underline{
		pad:   pad.String(),
		width: max(1, runewidth.StringWidth(f.Content[lo:hi])),
	}
}

// clipLine shortens text to width terminal cells; 0 disables clipping.
func clipLine(text string, width uint8) string {
	if width == 0 || runewidth.StringWidth(text) <= int(width) {
		return text
	}
	return runewidth.Truncate(text, int(width), "…")
}

func lineStartOffset(f *source.File, line uint32) uint32 {
	if line <= 1 {
		return 0
	}
	idx := line - 2
	if int(idx) < len(f.LineIdx) {
		return f.LineIdx[idx] + 1
	}
	return contentLen(f)
}

// lineEndOffset returns the offset of the terminator of line, or the end
// of the content for the last line.
func lineEndOffset(f *source.File, line uint32) uint32 {
	if line == 0 {
		return 0
	}
	idx := line - 1
	if int(idx) < len(f.LineIdx) {
		return f.LineIdx[idx]
	}
	return contentLen(f)
}

func contentLen(f *source.File) uint32 {
	n, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("len file content overflow: %w", err))
	}
	return n
}
