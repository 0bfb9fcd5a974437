package diag

import (
	"mcc/internal/source"
)

// Note points at a secondary location, or carries a payload such as
// timing JSON.
type Note struct {
	Span source.Span
	Msg  string
}

// Diagnostic is one message about a source span. Stage is derived from Code.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Stage    Stage
	Message  string
	Primary  source.Span
	Notes    []Note
}

func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{Severity: sev, Code: code, Stage: code.Stage(), Primary: primary, Message: msg}
}

func NewError(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

func NewWarning(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevWarning, code, primary, msg)
}

// WithNote returns d with one more note; d itself is not modified.
func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes[:len(d.Notes):len(d.Notes)], Note{Span: sp, Msg: msg})
	return d
}

// IsError reports whether d blocks code generation.
func (d Diagnostic) IsError() bool {
	return d.Severity.Blocks(false)
}

// Shifted returns a copy of d with its primary and note spans moved by delta.
func (d Diagnostic) Shifted(delta uint32) Diagnostic {
	d.Primary = d.Primary.Shift(delta)
	if len(d.Notes) > 0 {
		notes := make([]Note, len(d.Notes))
		for i, n := range d.Notes {
			notes[i] = Note{Span: n.Span.Shift(delta), Msg: n.Msg}
		}
		d.Notes = notes
	}
	return d
}
