package diag

import (
	"cmp"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"mcc/internal/source"
)

// shortLine is one rendered line of the short format.
type shortLine struct {
	label     string // severity label or "note"
	code      string
	path      string // "-" when the span does not resolve
	line, col uint32
	msg       string
}

func (l shortLine) String() string {
	if l.path == "-" {
		return fmt.Sprintf("%s %s - %s", l.label, l.code, l.msg)
	}
	return fmt.Sprintf("%s %s %s:%d:%d %s", l.label, l.code, l.path, l.line, l.col, l.msg)
}

func compareShort(a, b shortLine) int {
	return cmp.Or(
		cmp.Compare(a.path, b.path),
		cmp.Compare(a.line, b.line),
		cmp.Compare(a.col, b.col),
		cmp.Compare(a.label, b.label),
		cmp.Compare(a.code, b.code),
		cmp.Compare(a.msg, b.msg),
	)
}

// FormatShortDiagnostics renders diagnostics one per line as
// "<severity> <CODE> <path>:<line>:<col> <message>", sorted by location so
// the output is stable for golden tests. Paths are relative to the base
// directory of fs. Notes follow as "note" lines when includeNotes is set.
func FormatShortDiagnostics(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	if fs == nil || len(diags) == 0 {
		return ""
	}
	lines := make([]shortLine, 0, len(diags))
	for _, d := range diags {
		code := d.Code.ID()
		lines = append(lines, shortAt(fs, d.Primary, d.Severity.Label(), code, d.Message))
		if !includeNotes {
			continue
		}
		for _, n := range d.Notes {
			lines = append(lines, shortAt(fs, n.Span, "note", code, n.Msg))
		}
	}
	slices.SortStableFunc(lines, compareShort)

	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.String()
	}
	return strings.Join(out, "\n")
}

func shortAt(fs *source.FileSet, sp source.Span, label, code, msg string) shortLine {
	l := shortLine{label: label, code: code, path: "-", msg: oneLine(msg)}
	if f := fs.Get(sp.File); f != nil {
		start, _ := fs.Resolve(sp)
		l.path = filepath.ToSlash(f.FormatPath("relative", fs.BaseDir()))
		for strings.HasPrefix(l.path, "./") {
			l.path = l.path[2:]
		}
		l.line, l.col = start.Line, start.Col
	}
	return l
}

// oneLine folds a multi-line message onto a single line.
func oneLine(msg string) string {
	return strings.Join(strings.Fields(msg), " ")
}
