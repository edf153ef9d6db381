// Package bytecode flattens an ir.Program into a linear opcode array and runs
// it on a step-wise VM backed by tape.Machine.
//
// Loops become a pair of conditional jumps. JumpIfZero sits where the loop
// starts and targets the op after the matching JumpIfNotZero; JumpIfNotZero
// targets the op after the matching JumpIfZero. Both test the current cell, so
// the governing cell is re-read at the pointer's position after every pass.
package bytecode

import (
	"fmt"
	"io"
	"strconv"
)

// Opcode identifies a bytecode operation.
type Opcode uint8

const (
	OpIncPtr Opcode = iota + 1
	OpDecPtr
	OpIncVal
	OpDecVal
	OpClear
	OpMulAdd
	OpOutput
	OpJumpIfZero
	OpJumpIfNotZero
)

var opcodeNames = [...]string{
	OpIncPtr:        "inc_ptr",
	OpDecPtr:        "dec_ptr",
	OpIncVal:        "inc_val",
	OpDecVal:        "dec_val",
	OpClear:         "clear",
	OpMulAdd:        "mul_add",
	OpOutput:        "output",
	OpJumpIfZero:    "jz",
	OpJumpIfNotZero: "jnz",
}

func (c Opcode) String() string {
	if c.Valid() {
		return opcodeNames[c]
	}
	return "op(" + strconv.Itoa(int(c)) + ")"
}

// Valid reports whether c is a known opcode.
func (c Opcode) Valid() bool {
	return c >= OpIncPtr && c <= OpJumpIfNotZero
}

// IsJump reports whether Arg is a jump target.
func (c Opcode) IsJump() bool {
	return c == OpJumpIfZero || c == OpJumpIfNotZero
}

// Op is one instruction.
//
// Arg holds the count for pointer and value ops, the factor for OpMulAdd and
// the target pc for jumps. Offset is only used by OpMulAdd.
type Op struct {
	Arg    int    `cbor:"2,keyasint,omitempty"`
	Offset int    `cbor:"3,keyasint,omitempty"`
	Code   Opcode `cbor:"1,keyasint"`
}

func (op Op) String() string {
	switch op.Code {
	case OpClear, OpOutput:
		return op.Code.String()
	case OpMulAdd:
		return fmt.Sprintf("%s %+d, %d", op.Code, op.Offset, op.Arg)
	case OpJumpIfZero, OpJumpIfNotZero:
		return fmt.Sprintf("%s -> %d", op.Code, op.Arg)
	default:
		return fmt.Sprintf("%s %d", op.Code, op.Arg)
	}
}

// Code is a compiled program.
type Code []Op

// Dump writes one "pc: op" line per instruction.
func (c Code) Dump(w io.Writer) error {
	width := len(strconv.Itoa(len(c)))
	for pc, op := range c {
		if _, err := fmt.Fprintf(w, "%*d: %s\n", width, pc, op); err != nil {
			return err
		}
	}
	return nil
}
