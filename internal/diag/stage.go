package diag

// Stage names the pipeline stage a diagnostic originates from.
type Stage uint8

const (
	StageUnknown Stage = iota
	StageLex
	StageParse
	StageLower
	StageCodegen
	StageDriver
)

func (s Stage) String() string {
	switch s {
	case StageLex:
		return "lex"
	case StageParse:
		return "parse"
	case StageLower:
		return "lower"
	case StageCodegen:
		return "codegen"
	case StageDriver:
		return "driver"
	}
	return "unknown"
}
