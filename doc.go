// Package taperuntime runs programs for a byte-tape machine: 30000 cells of
// wrapping u8, one pointer, and eight primitives (IncPtr, DecPtr, IncVal,
// DecVal, Clear, MulAdd, Loop, Output).
//
// # Architecture Overview
//
//	taperuntime/        Executor interface shared by every backend
//	├── runtime/        High-level API: config, backend selection, run IDs
//	├── parser/         Source text to ir.Program
//	├── optimizer/      Folding, Clear, MulAdd and dead loop passes
//	├── ir/             Instruction model
//	├── tape/           The machine and its tree-walking interpreter
//	├── bytecode/       Flat opcode compiler, step VM, CBOR images
//	├── codegen/        Lowering to WebAssembly
//	├── wasm/           WebAssembly binary writer
//	├── engine/         wazero execution of generated modules
//	└── errors/         Structured error types
//
// # Quick Start
//
//	rt, err := runtime.New(ctx, runtime.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	res, err := rt.RunSource(ctx, []byte("++>+++[<+>-]<."), os.Stdout)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Snapshot.Pointer)
//
// # Backends
//
//	interp  tape.Machine.Execute walks the instruction tree
//	vm      bytecode.Compile + bytecode.VM
//	wasm    codegen.Generate + engine (wazero)
//
// All three produce the same output bytes, final tape and pointer, and fail
// with the same errors.ErrOutOfRange when the pointer leaves the tape.
//
// # Bounds
//
// A pointer move that would leave [0, 30000) fails at that move, before any
// later primitive runs and without moving the pointer. MulAdd checks its
// target only when the current cell is non-zero. Optimization never removes
// a fault: pointer moves fold only in one direction, and a loop becomes MulAdd
// only when its farthest cells on both sides are MulAdd targets.
package taperuntime
