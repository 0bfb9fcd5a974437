package query

import (
	"errors"
	"fmt"
)

var (
	// ErrCycle is returned when a query transitively demands itself.
	ErrCycle = errors.New("query cycle")
	// ErrInputNotSet is returned when an input is read before it was set.
	ErrInputNotSet = errors.New("input not set")
)

// ContractViolation reports a programming error inside the engine or a tracked
// function: a cycle, a panic, or a value that cannot be fingerprinted.
// It aborts only the demand chain it occurred in and is never memoized.
type ContractViolation struct {
	Query string
	Key   string
	Err   error
	Stack []byte
}

func (c *ContractViolation) Error() string {
	if c.Key == "" {
		return fmt.Sprintf("contract violation in %s: %v", c.Query, c.Err)
	}
	return fmt.Sprintf("contract violation in %s(%s): %v", c.Query, c.Key, c.Err)
}

func (c *ContractViolation) Unwrap() error { return c.Err }

// IsContractViolation reports whether err carries a *ContractViolation.
func IsContractViolation(err error) bool {
	var cv *ContractViolation
	return errors.As(err, &cv)
}
