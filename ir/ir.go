// Package ir defines the primitive instruction sequence consumed by every backend.
//
// A Program is an ordered list of Instr. Loop is the only compound instruction:
// it owns its body, and nothing else references other instructions.
package ir

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/wippyai/tape-runtime/errors"
)

// Kind identifies a primitive operation.
type Kind uint8

const (
	KindIncPtr Kind = iota + 1
	KindDecPtr
	KindIncVal
	KindDecVal
	KindClear
	KindMulAdd
	KindLoop
	KindOutput
)

var kindNames = [...]string{
	KindIncPtr: "IncPtr",
	KindDecPtr: "DecPtr",
	KindIncVal: "IncVal",
	KindDecVal: "DecVal",
	KindClear:  "Clear",
	KindMulAdd: "MulAdd",
	KindLoop:   "Loop",
	KindOutput: "Output",
}

func (k Kind) String() string {
	if k.Valid() {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Valid reports whether k names a known primitive.
func (k Kind) Valid() bool {
	return k >= KindIncPtr && k <= KindOutput
}

// Instr is one primitive. Only the fields relevant to Kind are set.
type Instr struct {
	Body   Program // KindLoop
	N      int     // pointer magnitude or value amount
	Offset int     // KindMulAdd target, relative to the pointer
	Kind   Kind
	Factor byte // KindMulAdd
}

// Program is an ordered instruction sequence.
type Program []Instr

// IncPtr moves the pointer n cells right.
func IncPtr(n int) Instr { return Instr{Kind: KindIncPtr, N: n} }

// DecPtr moves the pointer n cells left.
func DecPtr(n int) Instr { return Instr{Kind: KindDecPtr, N: n} }

// IncVal adds n to the current cell modulo 256.
func IncVal(n int) Instr { return Instr{Kind: KindIncVal, N: n} }

// DecVal subtracts n from the current cell modulo 256.
func DecVal(n int) Instr { return Instr{Kind: KindDecVal, N: n} }

// Clear sets the current cell to 0.
func Clear() Instr { return Instr{Kind: KindClear} }

// Output emits the current cell as one byte.
func Output() Instr { return Instr{Kind: KindOutput} }

// MulAdd adds cell*factor to the cell at pointer+offset. It leaves the current cell alone.
func MulAdd(offset int, factor byte) Instr {
	return Instr{Kind: KindMulAdd, Offset: offset, Factor: factor}
}

// Loop repeats body while the current cell is non-zero.
func Loop(body ...Instr) Instr {
	if len(body) == 0 {
		return Instr{Kind: KindLoop}
	}
	return Instr{Kind: KindLoop, Body: Program(body)}
}

func (in Instr) String() string {
	switch in.Kind {
	case KindIncPtr, KindDecPtr, KindIncVal, KindDecVal:
		return fmt.Sprintf("%s(%d)", in.Kind, in.N)
	case KindMulAdd:
		return fmt.Sprintf("MulAdd(%d, %d)", in.Offset, in.Factor)
	case KindLoop:
		return "Loop[" + in.Body.String() + "]"
	default:
		return in.Kind.String()
	}
}

func (p Program) String() string {
	parts := make([]string, len(p))
	for i, in := range p {
		parts[i] = in.String()
	}
	return strings.Join(parts, " ")
}

// Count returns the number of instructions including nested loop bodies.
func (p Program) Count() int {
	n := len(p)
	for _, in := range p {
		if in.Kind == KindLoop {
			n += in.Body.Count()
		}
	}
	return n
}

// Depth returns the deepest loop nesting level.
func (p Program) Depth() int {
	deepest := 0
	for _, in := range p {
		if in.Kind == KindLoop {
			if d := 1 + in.Body.Depth(); d > deepest {
				deepest = d
			}
		}
	}
	return deepest
}

// Validate checks operand ranges. The sequence is assumed to come from a
// front end, so loop nesting is already structural.
func (p Program) Validate() error {
	return p.validate("")
}

func (p Program) validate(prefix string) error {
	for i, in := range p {
		at := prefix + strconv.Itoa(i)
		if !in.Kind.Valid() {
			return errors.InvalidData(errors.PhaseCompile, "instr "+at, "unknown kind "+in.Kind.String())
		}
		switch in.Kind {
		case KindIncPtr, KindDecPtr, KindIncVal, KindDecVal:
			if in.N < 0 {
				return errors.InvalidData(errors.PhaseCompile, "instr "+at,
					fmt.Sprintf("%s magnitude %d is negative", in.Kind, in.N))
			}
		case KindLoop:
			if err := in.Body.validate(at + "."); err != nil {
				return err
			}
			continue
		}
		if len(in.Body) > 0 {
			return errors.InvalidData(errors.PhaseCompile, "instr "+at, in.Kind.String()+" cannot own a body")
		}
	}
	return nil
}

// Dump writes an indented listing, one instruction per line.
func (p Program) Dump(w io.Writer) error {
	return p.dump(w, 0)
}

func (p Program) dump(w io.Writer, depth int) error {
	indent := strings.Repeat("  ", depth)
	for _, in := range p {
		if in.Kind != KindLoop {
			if _, err := fmt.Fprintf(w, "%s%s\n", indent, in); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "%sLoop\n", indent); err != nil {
			return err
		}
		if err := in.Body.dump(w, depth+1); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%sEnd\n", indent); err != nil {
			return err
		}
	}
	return nil
}
