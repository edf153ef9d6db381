// Package runtime provides the high-level API for running tape programs.
//
// # Quick Start
//
//	ctx := context.Background()
//	rt, err := runtime.New(ctx, runtime.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	res, err := rt.RunSource(ctx, src, os.Stdout)
//	if errors.Is(err, rterrors.ErrOutOfRange) {
//	    // the program moved the pointer off the tape
//	}
//
// # Configuration
//
// Config selects the backend and optimization level and tunes the wasm
// backend. LoadConfig reads it from TOML; keys missing from the file keep
// the values of DefaultConfig and unknown keys are rejected.
//
// # Backends
//
//	interp  tree walker over ir.Program
//	vm      bytecode step VM
//	wasm    generated WebAssembly on wazero
//
// Each is a taperuntime.Executor and can be used on its own: Interp, VM and
// Wasm(engine).
//
// # Logging
//
// The package logs through a zap logger installed with SetLogger. Every run
// gets a random run ID that appears in the Result and in its log lines.
package runtime
