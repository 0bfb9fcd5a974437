package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"mcc/internal/diag"
	"mcc/internal/source"
)

type palette struct {
	err, warn, info, note, gutter, caret, bold *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		note:   color.New(color.FgBlue, color.Bold),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgGreen, color.Bold),
		bold:   color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.gutter, p.caret, p.bold} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty renders diagnostics in a human-readable form, in the given order:
//
//	<path>:<line>:<col>: <severity>[<CODE>]: <message>
//	  12 | source line
//	     |     ^~~~
//
// Diagnostics whose span does not resolve in fs print the header only.
func Pretty(w io.Writer, diags []diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	p := newPalette(opts.Color)
	for i := range diags {
		prettyOne(w, &diags[i], fs, opts, p)
	}
}

func prettyOne(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, p palette) {
	sev := p.severity(d.Severity).Sprintf("%s[%s]", d.Severity.Label(), d.Code.ID())
	var f *source.File
	if fs != nil {
		f = fs.Get(d.Primary.File)
	}
	if f == nil {
		fmt.Fprintf(w, "%s: %s\n", sev, p.bold.Sprint(d.Message))
		return
	}

	start, _ := fs.Resolve(d.Primary)
	path := f.FormatPath(opts.PathMode.mode(), fs.BaseDir())
	fmt.Fprintf(w, "%s:%d:%d: %s: %s\n", path, start.Line, start.Col, sev, p.bold.Sprint(d.Message))

	// Driver diagnostics such as timings carry a file but no source position.
	if d.Code.Stage() != diag.StageDriver {
		excerpt(w, f, d.Primary, start.Line, opts, p)
	}

	if !opts.ShowNotes {
		return
	}
	for _, note := range d.Notes {
		label := p.note.Sprint("note")
		nf := fs.Get(note.Span.File)
		if nf == nil || note.Span == d.Primary {
			fmt.Fprintf(w, "  = %s: %s\n", label, note.Msg)
			continue
		}
		npos, _ := fs.Resolve(note.Span)
		fmt.Fprintf(w, "  = %s: %s:%d:%d: %s\n", label, nf.FormatPath(opts.PathMode.mode(), fs.BaseDir()), npos.Line, npos.Col, note.Msg)
	}
}

func excerpt(w io.Writer, f *source.File, span source.Span, line uint32, opts PrettyOpts, p palette) {
	first := line
	if opts.Context > 0 {
		ctx := uint32(opts.Context)
		if ctx >= line {
			first = 1
		} else {
			first = line - ctx
		}
	}
	gutterWidth := len(strconv.FormatUint(uint64(line), 10))

	for n := first; n <= line; n++ {
		num := fmt.Sprintf("%*d", gutterWidth+1, n)
		fmt.Fprintf(w, "%s %s %s\n", p.gutter.Sprint(num), p.gutter.Sprint("|"), clipLine(f.GetLine(n), opts.Width))
	}
	u := caretFor(f, line, span)
	marks := "^" + strings.Repeat("~", u.width-1)
	fmt.Fprintf(w, "%s %s %s%s\n", strings.Repeat(" ", gutterWidth+1), p.gutter.Sprint("|"), u.pad, p.caret.Sprint(marks))
}

// Summary prints the trailing "N errors, M warnings" line; nothing when both are zero.
func Summary(w io.Writer, diags []diag.Diagnostic, useColor bool) {
	errs, warns := diag.CountBySeverity(diags)
	if errs == 0 && warns == 0 {
		return
	}
	p := newPalette(useColor)
	parts := make([]string, 0, 2)
	if errs > 0 {
		parts = append(parts, p.err.Sprint(plural(errs, "error")))
	}
	if warns > 0 {
		parts = append(parts, p.warn.Sprint(plural(warns, "warning")))
	}
	fmt.Fprintln(w, strings.Join(parts, ", "))
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}
