// Package oraerrors defines the error kinds raised by construction and
// query operations across the oracle packages: errors wrapped with
// positional context via a constructor function, returned rather than
// panicked.
package oraerrors

import "fmt"

// ConstructionError reports that building an oracle from a regex, grammar, or
// lexer specification failed: a malformed regex, a grammar/lexer conflict, or
// a missing file. It is fatal and is always surfaced to the caller of
// construction, never recovered from internally.
type ConstructionError struct {
	Op  string // the construction step that failed, e.g. "compile regex"
	Err error
}

func (e *ConstructionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("construction error: %s", e.Op)
	}
	return fmt.Sprintf("construction error: %s: %s", e.Op, e.Err.Error())
}

func (e *ConstructionError) Unwrap() error { return e.Err }

// NewConstructionError wraps err with the construction step it occurred
// during.
func NewConstructionError(op string, err error) *ConstructionError {
	return &ConstructionError{Op: op, Err: err}
}

// InvalidPrefixError is not an exception in the usual sense: it is the
// error an oracle's CheckPrefix returns when a prefix cannot be extended to
// an accepted string (the State-returning methods report the same condition
// with an invalid State instead). Callers test for it with errors.As rather
// than treating it as a process-level failure.
type InvalidPrefixError struct {
	// ByteOffset is how many bytes of the attempted prefix were consumed
	// before acceptance became impossible.
	ByteOffset int
	Reason     string
}

func (e *InvalidPrefixError) Error() string {
	return fmt.Sprintf("invalid prefix at byte %d: %s", e.ByteOffset, e.Reason)
}

// NewInvalidPrefix builds an InvalidPrefixError for the given failure point.
func NewInvalidPrefix(byteOffset int, reason string) *InvalidPrefixError {
	return &InvalidPrefixError{ByteOffset: byteOffset, Reason: reason}
}

// ParseFailureError reports that the prefix parser could not produce any
// prefix tree at all: there was no committed-token boundary with a complete
// reduction to the start symbol to back up to.
type ParseFailureError struct {
	ByteOffset int
	Reason     string
}

func (e *ParseFailureError) Error() string {
	return fmt.Sprintf("parse failure at byte %d: %s", e.ByteOffset, e.Reason)
}

// NewParseFailure builds a ParseFailureError for the given failure point.
func NewParseFailure(byteOffset int, reason string) *ParseFailureError {
	return &ParseFailureError{ByteOffset: byteOffset, Reason: reason}
}
