// Package tape implements the tape machine: a fixed byte tape, one pointer,
// and the primitive operations every backend must agree with.
//
// Cell arithmetic wraps modulo 256. The pointer is kept inside [0, Size):
// a primitive that would move it or address a cell outside the tape fails
// with errors.ErrOutOfRange at that primitive and leaves the state untouched.
package tape

import (
	"context"
	"io"

	"github.com/wippyai/tape-runtime/errors"
	"github.com/wippyai/tape-runtime/ir"
)

// Size is the number of cells on the tape.
const Size = 30000

// Machine owns a tape and its pointer. It is not safe for concurrent use.
type Machine struct {
	out   [1]byte
	cells [Size]byte
	ptr   int
}

// Snapshot is a copy of the machine state.
type Snapshot struct {
	Cells   []byte
	Pointer int
}

// New returns a machine with every cell zero and the pointer at 0.
func New() *Machine {
	return &Machine{}
}

// Pointer returns the current cell index.
func (m *Machine) Pointer() int {
	return m.ptr
}

// Current returns the value under the pointer.
func (m *Machine) Current() byte {
	return m.cells[m.ptr]
}

// Cell returns the value at index i. It panics if i is outside the tape.
func (m *Machine) Cell(i int) byte {
	return m.cells[i]
}

// Snapshot copies the tape and pointer.
func (m *Machine) Snapshot() Snapshot {
	cells := make([]byte, Size)
	copy(cells, m.cells[:])
	return Snapshot{Cells: cells, Pointer: m.ptr}
}

// Reset zeroes the tape and returns the pointer to 0.
func (m *Machine) Reset() {
	m.cells = [Size]byte{}
	m.ptr = 0
}

// IncPtr moves the pointer n cells right.
func (m *Machine) IncPtr(n int) error {
	return m.move(ir.KindIncPtr, m.ptr+n)
}

// DecPtr moves the pointer n cells left.
func (m *Machine) DecPtr(n int) error {
	return m.move(ir.KindDecPtr, m.ptr-n)
}

func (m *Machine) move(kind ir.Kind, next int) error {
	if next < 0 || next >= Size {
		return errors.OutOfRange(kind.String(), next)
	}
	m.ptr = next
	return nil
}

// IncVal adds n to the current cell modulo 256.
func (m *Machine) IncVal(n int) {
	m.cells[m.ptr] += byte(n)
}

// DecVal subtracts n from the current cell modulo 256.
func (m *Machine) DecVal(n int) {
	m.cells[m.ptr] -= byte(n)
}

// Clear sets the current cell to 0, the fixed point of decrementing until zero.
func (m *Machine) Clear() {
	m.cells[m.ptr] = 0
}

// MulAdd adds current*factor to the cell at pointer+offset modulo 256.
// The current cell is not modified. When the current cell is 0 the target is
// not accessed, matching the loop this replaces, which would not run.
func (m *Machine) MulAdd(offset int, factor byte) error {
	v := m.cells[m.ptr]
	if v == 0 {
		return nil
	}
	target := m.ptr + offset
	if target < 0 || target >= Size {
		return errors.OutOfRange(ir.KindMulAdd.String(), target)
	}
	m.cells[target] += v * factor
	return nil
}

// Output writes the current cell to w as a single byte. A nil w discards it.
func (m *Machine) Output(w io.Writer) error {
	if w == nil {
		return nil
	}
	m.out[0] = m.cells[m.ptr]
	if _, err := w.Write(m.out[:]); err != nil {
		return errors.IO(ir.KindOutput.String(), err)
	}
	return nil
}

// cancelCheckInterval is how many loop passes ExecuteContext runs between
// checks of its context.
const cancelCheckInterval = 1 << 14

// Execute runs prog against the machine, writing Output bytes to w in order.
// It returns when the sequence is exhausted or a primitive fails; a loop whose
// governing cell never reaches 0 does not return.
func (m *Machine) Execute(prog ir.Program, w io.Writer) error {
	return m.ExecuteContext(context.Background(), prog, w)
}

// ExecuteContext is Execute with cancellation. The context is polled every
// few thousand loop passes, so a loop that never ends still returns once ctx
// is done, with an error of kind canceled.
func (m *Machine) ExecuteContext(ctx context.Context, prog ir.Program, w io.Writer) error {
	x := &walker{m: m, w: w, ctx: ctx, done: ctx.Done()}
	return x.run(prog)
}

type walker struct {
	ctx    context.Context
	done   <-chan struct{}
	m      *Machine
	w      io.Writer
	passes int
}

func (x *walker) run(prog ir.Program) error {
	m := x.m
	for i := range prog {
		in := &prog[i]
		switch in.Kind {
		case ir.KindIncPtr:
			if err := m.IncPtr(in.N); err != nil {
				return err
			}
		case ir.KindDecPtr:
			if err := m.DecPtr(in.N); err != nil {
				return err
			}
		case ir.KindIncVal:
			m.IncVal(in.N)
		case ir.KindDecVal:
			m.DecVal(in.N)
		case ir.KindClear:
			m.Clear()
		case ir.KindMulAdd:
			if err := m.MulAdd(in.Offset, in.Factor); err != nil {
				return err
			}
		case ir.KindLoop:
			for m.cells[m.ptr] != 0 {
				if err := x.poll(); err != nil {
					return err
				}
				if err := x.run(in.Body); err != nil {
					return err
				}
			}
		case ir.KindOutput:
			if err := m.Output(x.w); err != nil {
				return err
			}
		default:
			return errors.Unsupported(errors.PhaseRuntime, "instruction "+in.Kind.String())
		}
	}
	return nil
}

func (x *walker) poll() error {
	if x.done == nil {
		return nil
	}
	x.passes++
	if x.passes%cancelCheckInterval != 0 {
		return nil
	}
	select {
	case <-x.done:
		return errors.Canceled(x.ctx.Err())
	default:
		return nil
	}
}
