package diag

// Severity orders diagnostics by how they affect the unit being compiled.
type Severity uint8

const (
	// SevInfo carries reports such as stage timings.
	SevInfo Severity = iota
	// SevWarning flags code that still compiles, e.g. a constant division by zero.
	SevWarning
	// SevError stops the unit before code generation.
	SevError
)

var severityNames = [...]struct{ upper, lower string }{
	SevInfo:    {"INFO", "info"},
	SevWarning: {"WARNING", "warning"},
	SevError:   {"ERROR", "error"},
}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s].upper
	}
	return "UNKNOWN"
}

// Label is the lower-case spelling used in rendered diagnostics.
// Unknown severities render as info.
func (s Severity) Label() string {
	if int(s) < len(severityNames) {
		return severityNames[s].lower
	}
	return severityNames[SevInfo].lower
}

// Blocks reports whether a diagnostic of this severity keeps the unit from
// reaching code generation.
func (s Severity) Blocks(warningsAsErrors bool) bool {
	return s >= SevError || warningsAsErrors && s == SevWarning
}
