package l2

import (
	"errors"
	"fmt"
)

// ErrInternal marks consistency violations inside the translator itself:
// operand-kind mismatches, reads of unbound semantic values, manifest
// invariant breaks. These abort translation of the one affected unit; they
// are never produced by a malformed input program.
var ErrInternal = errors.New("internal translation error")

// internalf wraps a formatted message as an internal error.
func internalf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInternal, fmt.Sprintf(format, args...))
}

// Program-level failure codes carried in int registers and reported through
// OpFail. Codes 1-5 mirror the dispatch lookup error codes.
const (
	FailNoMethod           int64 = 1
	FailNoDefinition       int64 = 2
	FailAmbiguousLookup    int64 = 3
	FailAbstractMethod     int64 = 4
	FailForwardMethod      int64 = 5
	FailUnassignedVariable int64 = 6
)

// FailureError is how the reference evaluator surfaces a unit that ended at
// an OpFail: an ordinary, recoverable error value carrying the failure code.
type FailureError struct {
	Code int64
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("unit failed with code %d", e.Code)
}
