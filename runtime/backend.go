package runtime

import (
	"context"
	"io"

	taperuntime "github.com/wippyai/tape-runtime"
	"github.com/wippyai/tape-runtime/bytecode"
	"github.com/wippyai/tape-runtime/codegen"
	"github.com/wippyai/tape-runtime/engine"
	"github.com/wippyai/tape-runtime/ir"
	"github.com/wippyai/tape-runtime/tape"
)

// Interp runs programs with the tree walker.
var Interp taperuntime.Executor = taperuntime.ExecutorFunc(
	func(ctx context.Context, prog ir.Program, w io.Writer) (tape.Snapshot, error) {
		m := tape.New()
		if err := m.ExecuteContext(ctx, prog, w); err != nil {
			return tape.Snapshot{}, err
		}
		return m.Snapshot(), nil
	})

// VM compiles programs to bytecode and runs them on the step VM.
var VM taperuntime.Executor = taperuntime.ExecutorFunc(
	func(ctx context.Context, prog ir.Program, w io.Writer) (tape.Snapshot, error) {
		code, err := bytecode.Compile(prog)
		if err != nil {
			return tape.Snapshot{}, err
		}
		return runCode(ctx, code, w)
	})

func runCode(ctx context.Context, code bytecode.Code, w io.Writer) (tape.Snapshot, error) {
	vm := bytecode.New(code, w)
	if err := vm.RunContext(ctx); err != nil {
		return tape.Snapshot{}, err
	}
	return vm.Machine().Snapshot(), nil
}

// Wasm returns an executor that lowers programs to WebAssembly and runs them on e.
func Wasm(e *engine.Engine) taperuntime.Executor {
	return taperuntime.ExecutorFunc(func(ctx context.Context, prog ir.Program, w io.Writer) (tape.Snapshot, error) {
		bin, err := codegen.Generate(prog)
		if err != nil {
			return tape.Snapshot{}, err
		}
		mod, err := e.Compile(ctx, bin)
		if err != nil {
			return tape.Snapshot{}, err
		}
		defer mod.Close(context.WithoutCancel(ctx))
		return mod.Run(ctx, w)
	})
}
