package bytecode

import (
	"context"
	"io"

	"github.com/wippyai/tape-runtime/errors"
	"github.com/wippyai/tape-runtime/tape"
)

// cancelCheckInterval is how many steps RunContext executes between context checks.
const cancelCheckInterval = 1 << 14

// VM executes Code one op at a time. It is not safe for concurrent use.
type VM struct {
	w     io.Writer
	m     *tape.Machine
	code  Code
	pc    int
	steps uint64
}

// New returns a VM at pc 0 with a fresh tape. Output goes to w; nil discards it.
func New(code Code, w io.Writer) *VM {
	return &VM{code: code, w: w, m: tape.New()}
}

// PC returns the index of the next op to execute.
func (vm *VM) PC() int { return vm.pc }

// Steps returns the number of ops executed successfully.
func (vm *VM) Steps() uint64 { return vm.steps }

// Code returns the program being executed.
func (vm *VM) Code() Code { return vm.code }

// Machine exposes the tape for inspection.
func (vm *VM) Machine() *tape.Machine { return vm.m }

// Done reports whether the program has finished.
func (vm *VM) Done() bool { return vm.pc >= len(vm.code) }

// Reset rewinds to pc 0 on a zeroed tape.
func (vm *VM) Reset() {
	vm.m.Reset()
	vm.pc = 0
	vm.steps = 0
}

// Step executes one op. It reports done once the pc has moved past the last
// op. A failing op leaves the pc on itself so it can be inspected.
func (vm *VM) Step() (done bool, err error) {
	if vm.pc >= len(vm.code) {
		return true, nil
	}
	op := &vm.code[vm.pc]
	next := vm.pc + 1

	switch op.Code {
	case OpIncPtr:
		err = vm.m.IncPtr(op.Arg)
	case OpDecPtr:
		err = vm.m.DecPtr(op.Arg)
	case OpIncVal:
		vm.m.IncVal(op.Arg)
	case OpDecVal:
		vm.m.DecVal(op.Arg)
	case OpClear:
		vm.m.Clear()
	case OpMulAdd:
		err = vm.m.MulAdd(op.Offset, byte(op.Arg))
	case OpOutput:
		err = vm.m.Output(vm.w)
	case OpJumpIfZero:
		if vm.m.Current() == 0 {
			next = op.Arg
		}
	case OpJumpIfNotZero:
		if vm.m.Current() != 0 {
			next = op.Arg
		}
	default:
		e := errors.Unsupported(errors.PhaseRuntime, "opcode "+op.Code.String())
		e.At = errors.PC(vm.pc)
		return false, e
	}
	if err != nil {
		return false, err
	}

	vm.pc = next
	vm.steps++
	return vm.pc >= len(vm.code), nil
}

// Run steps until the program finishes or an op fails.
func (vm *VM) Run() error {
	return vm.RunContext(context.Background())
}

// RunContext is Run with cancellation, checked every few thousand steps.
func (vm *VM) RunContext(ctx context.Context) error {
	done := ctx.Done()
	for n := 0; ; n++ {
		if done != nil && n%cancelCheckInterval == 0 {
			select {
			case <-done:
				return errors.Canceled(ctx.Err())
			default:
			}
		}
		finished, err := vm.Step()
		if err != nil {
			return err
		}
		if finished {
			return nil
		}
	}
}
