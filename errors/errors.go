package errors

import (
	"fmt"
	"strconv"
	"strings"
)

// TapeLength mirrors tape.Size for error details; tape imports this package.
const TapeLength = 30000

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseParse    Phase = "parse"    // source text to instructions
	PhaseOptimize Phase = "optimize" // peephole passes
	PhaseCompile  Phase = "compile"  // bytecode and wasm lowering
	PhaseLoad     Phase = "load"     // image decoding, module compilation
	PhaseRuntime  Phase = "runtime"  // primitive execution
	PhaseConfig   Phase = "config"   // configuration loading
)

// Kind categorizes the error
type Kind string

const (
	KindOutOfBounds    Kind = "out_of_bounds"
	KindUnmatchedLoop  Kind = "unmatched_loop"
	KindUnsupported    Kind = "unsupported"
	KindInvalidData    Kind = "invalid_data"
	KindInvalidInput   Kind = "invalid_input"
	KindIO             Kind = "io"
	KindNotInitialized Kind = "not_initialized"
	KindInstantiation  Kind = "instantiation"
	KindCanceled       Kind = "canceled"
	KindTrap           Kind = "trap"
)

// ErrOutOfRange matches any pointer bounds violation via errors.Is.
var ErrOutOfRange = &Error{Phase: PhaseRuntime, Kind: KindOutOfBounds}

// Error is the structured error type used throughout the runtime
type Error struct {
	Value   any
	Cause   error
	Phase   Phase
	Kind    Kind
	Op      string // primitive or pass that failed
	At      string // source offset, pc or similar location
	Detail  string
	Pointer int // offending pointer, only meaningful for KindOutOfBounds
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Op != "" {
		b.WriteString(" in ")
		b.WriteString(e.Op)
	}

	if e.At != "" {
		b.WriteString(" at ")
		b.WriteString(e.At)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Op sets the failing primitive or pass name
func (b *Builder) Op(op string) *Builder {
	b.err.Op = op
	return b
}

// At sets the location description
func (b *Builder) At(at string) *Builder {
	b.err.At = at
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// OutOfRange creates the pointer bounds violation raised by primitive op.
func OutOfRange(op string, pointer int) *Error {
	return &Error{
		Phase:   PhaseRuntime,
		Kind:    KindOutOfBounds,
		Op:      op,
		Pointer: pointer,
		Value:   pointer,
		Detail:  fmt.Sprintf("pointer %d outside tape [0, %d)", pointer, TapeLength),
	}
}

// UnmatchedLoop creates a parse error for a bracket without its partner.
func UnmatchedLoop(offset int, bracket byte) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindUnmatchedLoop,
		At:     Offset(offset),
		Value:  bracket,
		Detail: fmt.Sprintf("unmatched %q", bracket),
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, at, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		At:     at,
		Detail: detail,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// IO wraps a failed write to the output sink.
func IO(op string, cause error) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindIO,
		Op:     op,
		Detail: "write output",
		Cause:  cause,
	}
}

// NotInitialized creates a not-initialized error for a missing component
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// Instantiation creates an instantiation error
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindInstantiation,
		Detail: "instantiate module",
		Cause:  cause,
	}
}

// Canceled reports a run stopped by its context before the program finished.
func Canceled(cause error) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindCanceled,
		Detail: "run canceled",
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Load creates a program or module loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// Config creates a configuration error
func Config(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindInvalidInput,
		Detail: detail,
		Cause:  cause,
	}
}

// Offset formats a source byte offset for Error.At.
func Offset(n int) string {
	return "offset " + strconv.Itoa(n)
}

// PC formats a program counter for Error.At.
func PC(n int) string {
	return "pc " + strconv.Itoa(n)
}
