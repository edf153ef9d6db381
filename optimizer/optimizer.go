// Package optimizer rewrites programs into equivalent, cheaper ones.
//
// Every pass is pure: it returns a new program and never mutates its input.
// Level 1 folds runs of pointer and value changes. Level 2 additionally
// replaces zeroing loops with Clear, scaled copy loops with MulAdd followed by
// Clear, and removes loops that can never be entered.
package optimizer

import (
	"fmt"

	"github.com/wippyai/tape-runtime/errors"
	"github.com/wippyai/tape-runtime/ir"
)

// Level selects which passes run.
type Level int

const (
	LevelNone  Level = 0
	LevelBasic Level = 1
	LevelFull  Level = 2
)

// Pass is a named program rewrite.
type Pass struct {
	Run  func(ir.Program) ir.Program
	Name string
}

// Passes returns the pipeline for level in execution order.
func Passes(level Level) ([]Pass, error) {
	switch level {
	case LevelNone:
		return nil, nil
	case LevelBasic:
		return []Pass{{Name: "concat", Run: Concat}}, nil
	case LevelFull:
		return []Pass{
			{Name: "concat", Run: Concat},
			{Name: "deadloop", Run: DeadLoops},
			{Name: "clear", Run: ClearLoops},
			{Name: "muladd", Run: MulAddLoops},
		}, nil
	}
	return nil, errors.InvalidInput(errors.PhaseOptimize, fmt.Sprintf("unknown optimization level %d", level))
}

// Optimize runs the passes of level over p.
func Optimize(p ir.Program, level Level) (ir.Program, error) {
	passes, err := Passes(level)
	if err != nil {
		return nil, err
	}
	for _, pass := range passes {
		p = pass.Run(p)
	}
	return p, nil
}

// Concat folds adjacent value changes into their net amount modulo 256 and
// adjacent pointer moves in the same direction into one move. Value runs that
// cancel out vanish. Moves in opposite directions are kept apart: the turning
// point may lie off the tape, and folding it away would hide the fault.
func Concat(p ir.Program) ir.Program {
	out := make(ir.Program, 0, len(p))
	for _, in := range p {
		switch in.Kind {
		case ir.KindIncVal, ir.KindDecVal:
			d := valueDelta(in)
			if n := len(out); n > 0 && isValue(out[n-1]) {
				d += valueDelta(out[n-1])
				out = out[:n-1]
			}
			out = appendValue(out, d)
		case ir.KindIncPtr, ir.KindDecPtr:
			d := pointerDelta(in)
			if n := len(out); n > 0 && out[n-1].Kind == in.Kind {
				d += pointerDelta(out[n-1])
				out = out[:n-1]
			}
			out = appendPointer(out, d)
		case ir.KindLoop:
			out = append(out, ir.Loop(Concat(in.Body)...))
		default:
			out = append(out, in)
		}
	}
	return out
}

// ClearLoops replaces a loop whose body only adds or subtracts an odd amount
// to the current cell with Clear. An odd step visits every residue modulo 256,
// so such a loop always ends at 0.
func ClearLoops(p ir.Program) ir.Program {
	out := make(ir.Program, 0, len(p))
	for _, in := range p {
		if in.Kind != ir.KindLoop {
			out = append(out, in)
			continue
		}
		body := ClearLoops(in.Body)
		if len(body) == 1 && isValue(body[0]) && body[0].N%2 == 1 {
			out = append(out, ir.Clear())
			continue
		}
		out = append(out, ir.Loop(body...))
	}
	return out
}

// MulAddLoops replaces balanced copy loops with MulAdd instructions followed
// by Clear. A loop qualifies when its body only moves the pointer and changes
// values, returns to where it started, and decrements the governing cell by
// exactly one per pass. The lowest and highest offsets the body visits must
// each be 0 or a MulAdd target, so that every cell the loop would reach is
// still bounds checked.
func MulAddLoops(p ir.Program) ir.Program {
	out := make(ir.Program, 0, len(p))
	for _, in := range p {
		if in.Kind != ir.KindLoop {
			out = append(out, in)
			continue
		}
		body := MulAddLoops(in.Body)
		if expanded, ok := mulAdd(body); ok {
			out = append(out, expanded...)
			continue
		}
		out = append(out, ir.Loop(body...))
	}
	return out
}

func mulAdd(body ir.Program) (ir.Program, bool) {
	offset, lo, hi := 0, 0, 0
	deltas := map[int]int{}
	var order []int
	for _, in := range body {
		switch {
		case isPointer(in):
			offset += pointerDelta(in)
			lo, hi = min(lo, offset), max(hi, offset)
		case isValue(in):
			if _, seen := deltas[offset]; !seen {
				order = append(order, offset)
			}
			deltas[offset] += valueDelta(in)
		default:
			return nil, false
		}
	}
	if offset != 0 || mod256(deltas[0]) != 255 {
		return nil, false
	}
	if (lo != 0 && mod256(deltas[lo]) == 0) || (hi != 0 && mod256(deltas[hi]) == 0) {
		return nil, false
	}

	out := make(ir.Program, 0, len(order))
	for _, off := range order {
		if off == 0 {
			continue
		}
		if f := mod256(deltas[off]); f != 0 {
			out = append(out, ir.MulAdd(off, byte(f)))
		}
	}
	return append(out, ir.Clear()), true
}

// DeadLoops removes loops that cannot be entered: one at the very start of a
// program run on a fresh tape, and one directly after a Loop or Clear, both of
// which leave the current cell at 0. Output and MulAdd keep that knowledge
// since neither changes the current cell or the pointer.
func DeadLoops(p ir.Program) ir.Program {
	return deadLoops(p, true)
}

func deadLoops(p ir.Program, zero bool) ir.Program {
	out := make(ir.Program, 0, len(p))
	for _, in := range p {
		switch in.Kind {
		case ir.KindLoop:
			if zero {
				continue
			}
			out = append(out, ir.Loop(deadLoops(in.Body, false)...))
			zero = true
		case ir.KindClear:
			out = append(out, in)
			zero = true
		case ir.KindOutput, ir.KindMulAdd:
			out = append(out, in)
		default:
			out = append(out, in)
			zero = false
		}
	}
	return out
}

func isValue(in ir.Instr) bool {
	return in.Kind == ir.KindIncVal || in.Kind == ir.KindDecVal
}

func isPointer(in ir.Instr) bool {
	return in.Kind == ir.KindIncPtr || in.Kind == ir.KindDecPtr
}

func valueDelta(in ir.Instr) int {
	if in.Kind == ir.KindDecVal {
		return -in.N
	}
	return in.N
}

func pointerDelta(in ir.Instr) int {
	if in.Kind == ir.KindDecPtr {
		return -in.N
	}
	return in.N
}

func mod256(d int) int {
	return ((d % 256) + 256) % 256
}

func appendValue(out ir.Program, d int) ir.Program {
	m := mod256(d)
	switch {
	case m == 0:
		return out
	case m <= 128:
		return append(out, ir.IncVal(m))
	default:
		return append(out, ir.DecVal(256-m))
	}
}

func appendPointer(out ir.Program, d int) ir.Program {
	switch {
	case d > 0:
		return append(out, ir.IncPtr(d))
	case d < 0:
		return append(out, ir.DecPtr(-d))
	}
	return out
}
