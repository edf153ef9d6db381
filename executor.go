package taperuntime

import (
	"context"
	"io"

	"github.com/wippyai/tape-runtime/ir"
	"github.com/wippyai/tape-runtime/tape"
)

// Size is the number of cells on the tape.
const Size = tape.Size

// Executor runs a program on a fresh tape. Output bytes are written to w in
// program order; a nil w discards them. On success it returns the final tape
// and pointer. A bounds violation is returned as an error matching
// errors.ErrOutOfRange, after every Output that preceded it has been written.
//
// Every backend implements Executor and must be observably equivalent to the
// tree walker in package tape.
type Executor interface {
	Execute(ctx context.Context, prog ir.Program, w io.Writer) (tape.Snapshot, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, prog ir.Program, w io.Writer) (tape.Snapshot, error)

func (f ExecutorFunc) Execute(ctx context.Context, prog ir.Program, w io.Writer) (tape.Snapshot, error) {
	return f(ctx, prog, w)
}
