// Package errors provides structured error types for the tape runtime.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the primitive that failed, the offending pointer for
// bounds violations, a source or program location, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseLoad, errors.KindInvalidData).
//		At("pc 12").
//		Detail("jump target %d out of range", 99).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.OutOfRange("IncPtr", 30000)
//	err := errors.UnmatchedLoop(17, ']')
//
// All errors implement the standard error interface and support errors.Is/As.
// ErrOutOfRange matches every pointer bounds violation regardless of the primitive.
package errors
