// Package rclerr defines the error kinds the analyzer core produces. None
// of them is recovered inside the core; they all abort the analysis.
package rclerr

import (
	"errors"
	"fmt"
)

var (
	// ErrParse is the kind of all contract parsing errors.
	ErrParse = errors.New("parse error")

	// ErrCapacityExceeded is the kind of the error returned when a state
	// has more firable relativized actions than subset enumeration
	// supports.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrAllocationRefused is the kind of the error returned when the mask
	// buffer for a subset enumeration would exceed the configured
	// allocation limit.
	ErrAllocationRefused = errors.New("allocation refused")
)

// parseError is an error produced while reading a contract file. It carries
// the source position so front ends can point at the offending token.
type parseError struct {
	line, col int
	msg       string
}

func (e *parseError) Error() string {
	if e.line > 0 {
		return fmt.Sprintf("%d:%d: %s", e.line, e.col, e.msg)
	}
	return e.msg
}

func (e *parseError) Unwrap() error { return ErrParse }

// Parsef returns a new parse error at the given source position. A line of
// zero means the position is unknown.
func Parsef(line, col int, format string, a ...interface{}) error {
	return &parseError{line: line, col: col, msg: fmt.Sprintf(format, a...)}
}

// Position extracts the source position from a parse error, if it has one.
func Position(err error) (line, col int, ok bool) {
	var pe *parseError
	if errors.As(err, &pe) && pe.line > 0 {
		return pe.line, pe.col, true
	}
	return 0, 0, false
}

type capacityError struct {
	n int
}

func (e *capacityError) Error() string {
	return fmt.Sprintf("state has %d concurrent relativized actions; subset enumeration supports at most 30", e.n)
}

func (e *capacityError) Unwrap() error { return ErrCapacityExceeded }

// CapacityExceeded returns the error for a state whose relativized action
// set is too large to enumerate.
func CapacityExceeded(n int) error {
	return &capacityError{n: n}
}

type allocationError struct {
	requested int64
}

func (e *allocationError) Error() string {
	gib := float64(e.requested) / (1 << 30)
	return fmt.Sprintf("refusing to reserve %.2f GiB for the subset mask buffer", gib)
}

func (e *allocationError) Unwrap() error { return ErrAllocationRefused }

// AllocationRefused returns the error for a mask buffer reservation that
// would exceed the allocation limit. requested is in bytes.
func AllocationRefused(requested int64) error {
	return &allocationError{requested: requested}
}
