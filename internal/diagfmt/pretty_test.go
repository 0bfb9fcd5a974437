package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mcc/internal/diag"
	"mcc/internal/source"
)

func render(diags []diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) string {
	var buf bytes.Buffer
	Pretty(&buf, diags, fs, opts)
	return buf.String()
}

func TestPrettyExcerpt(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.c", "int f(){x=1;}\n")
	d := diag.NewError(diag.LowUndeclaredIdentifier, source.Span{File: id, Start: 8, End: 9}, "use of undeclared identifier 'x'")

	got := render([]diag.Diagnostic{d}, fs, PrettyOpts{PathMode: PathModeBasename})
	want := "test.c:1:9: error[LOW3001]: use of undeclared identifier 'x'\n" +
		" 1 | int f(){x=1;}\n" +
		"   |         ^\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("pretty output mismatch (-want +got):\n%s", diff)
	}
}

func TestPrettyCaretAlignment(t *testing.T) {
	tests := []struct {
		name    string
		content string
		span    source.Span
		caret   string
	}{
		{"range", "int f(void);\n", source.Span{Start: 4, End: 11}, "   |     ^~~~~~~\n"},
		{"tab", "\treturn y;\n", source.Span{Start: 8, End: 9}, "   | \t       ^\n"},
		{"wide", "/* 世 */ y;\n", source.Span{Start: 10, End: 11}, "   |          ^\n"},
		{"empty", "x\n", source.Span{Start: 1, End: 1}, "   |  ^\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := source.NewFileSet()
			span := tt.span
			span.File = fs.AddVirtual("a.c", tt.content)
			got := render([]diag.Diagnostic{diag.NewError(diag.LowUndeclaredIdentifier, span, "m")}, fs, PrettyOpts{})
			if !strings.HasSuffix(got, tt.caret) {
				t.Fatalf("caret line mismatch, want suffix %q, got:\n%q", tt.caret, got)
			}
		})
	}
}

func TestPrettyContextAndNotes(t *testing.T) {
	fs := source.NewFileSet()
	content := "int g;\nint f(){return 1/0;}\n"
	id := fs.AddVirtual("/src/a.c", content)
	fs.SetBaseDir("/src")
	d := diag.NewWarning(diag.LowDivisionByZero, source.Span{File: id, Start: 22, End: 25}, "division by zero").
		WithNote(source.Span{File: id, Start: 4, End: 5}, "declared here")

	got := render([]diag.Diagnostic{d}, fs, PrettyOpts{Context: 3, PathMode: PathModeRelative, ShowNotes: true})
	want := "a.c:2:16: warning[LOW3100]: division by zero\n" +
		" 1 | int g;\n" +
		" 2 | int f(){return 1/0;}\n" +
		"   |                ^~~\n" +
		"  = note: a.c:1:5: declared here\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("pretty output mismatch (-want +got):\n%s", diff)
	}

	if out := render([]diag.Diagnostic{d}, fs, PrettyOpts{PathMode: PathModeRelative}); strings.Contains(out, "note") {
		t.Fatalf("notes printed without ShowNotes:\n%s", out)
	}
}

func TestPathModes(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("/home/user/project/src/test.c", "int main(void){return y;}\n")
	fs.SetBaseDir("/home/user/project")
	d := diag.NewError(diag.LowUndeclaredIdentifier, source.Span{File: id, Start: 22, End: 23}, "use of undeclared identifier 'y'")

	tests := []struct {
		name string
		mode PathMode
		want string
	}{
		{"absolute", PathModeAbsolute, "/home/user/project/src/test.c:1:23:"},
		{"relative", PathModeRelative, "src/test.c:1:23:"},
		{"basename", PathModeBasename, "test.c:1:23:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := render([]diag.Diagnostic{d}, fs, PrettyOpts{PathMode: tt.mode})
			if !strings.HasPrefix(out, tt.want) {
				t.Fatalf("expected prefix %q, got:\n%s", tt.want, out)
			}
		})
	}
}

func TestPrettyWithoutSource(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("gone.c", "")
	diags := []diag.Diagnostic{
		diag.NewError(diag.IOLoadFileError, source.Span{File: id}, "failed to load file"),
		diag.NewError(diag.IOLoadFileError, source.Span{File: 42}, "no such file"),
	}
	got := render(diags, fs, PrettyOpts{PathMode: PathModeBasename})
	want := "gone.c:1:1: error[IO5001]: failed to load file\n" +
		"error[IO5001]: no such file\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("pretty output mismatch (-want +got):\n%s", diff)
	}
}

func TestPrettyClipsWideLines(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("a.c", "int main(void){return 100000000000000000000;}\n")
	d := diag.NewError(diag.LowUndeclaredIdentifier, source.Span{File: id, Start: 0, End: 3}, "m")
	got := render([]diag.Diagnostic{d}, fs, PrettyOpts{Width: 10})
	if !strings.Contains(got, " 1 | int main(…\n") {
		t.Fatalf("line not clipped:\n%s", got)
	}
}

func TestPrettyColor(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("a.c", "x;\n")
	d := diag.NewError(diag.LowUndeclaredIdentifier, source.Span{File: id, Start: 0, End: 1}, "m")
	if got := render([]diag.Diagnostic{d}, fs, PrettyOpts{Color: true}); !strings.Contains(got, "\x1b[") {
		t.Fatalf("expected escape sequences:\n%q", got)
	}
	if got := render([]diag.Diagnostic{d}, fs, PrettyOpts{}); strings.Contains(got, "\x1b[") {
		t.Fatalf("unexpected escape sequences:\n%q", got)
	}
}

func TestSummary(t *testing.T) {
	diags := []diag.Diagnostic{
		{Severity: diag.SevError},
		{Severity: diag.SevWarning},
		{Severity: diag.SevError},
		{Severity: diag.SevInfo},
	}
	var buf bytes.Buffer
	Summary(&buf, diags, false)
	if got := buf.String(); got != "2 errors, 1 warning\n" {
		t.Fatalf("Summary = %q", got)
	}
	buf.Reset()
	Summary(&buf, diags[3:], false)
	if buf.Len() != 0 {
		t.Fatalf("Summary printed %q for info only", buf.String())
	}
}
