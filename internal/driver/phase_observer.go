package driver

import "time"

// PhaseStatus reports whether a stage started or finished.
type PhaseStatus int

const (
	// PhaseStart indicates that a stage has begun.
	PhaseStart PhaseStatus = iota
	PhaseEnd
)

// PhaseEvent describes a stage boundary of one file.
type PhaseEvent struct {
	Path    string
	Stage   Stage
	Status  PhaseStatus
	Elapsed time.Duration
	// Err is set on PhaseEnd when the stage failed with a contract violation
	// or cancellation. Diagnostics are not errors.
	Err error
}

// PhaseObserver receives phase events emitted during Run.
type PhaseObserver func(PhaseEvent)
