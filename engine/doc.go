// Package engine runs modules produced by codegen on wazero.
//
// # Architecture
//
//	Engine  - owns a wazero runtime and the "tape" host module
//	Module  - a compiled program; every Run instantiates it afresh
//
// The host module is instantiated once per Engine. Its output and fault
// functions find the state of the current run (output sink, recorded fault)
// in the context passed to Module.Run, so one Engine serves concurrent runs.
//
// # Faults
//
// Generated code calls tape.fault(pointer, op) and then traps. The engine
// records the fault before the trap unwinds and returns it as the
// errors.OutOfRange value the tree walker would have produced:
//
//	snap, err := mod.Run(ctx, os.Stdout)
//	if errors.Is(err, rterrors.ErrOutOfRange) {
//	    // pointer left the tape
//	}
//
// # Cancellation
//
// With Config.CloseOnContextDone set, a canceled or expired context stops a
// running guest, including one stuck in an infinite loop, and Run returns a
// canceled error.
//
// # Thread Safety
//
// Engine and Module are safe for concurrent use.
package engine
