// Package codegen lowers an ir.Program to a WebAssembly core module.
//
// The generated module exports a memory holding the tape at address 0 and a
// function run() -> i32 that executes the program and returns the final
// pointer. It imports two host functions from module "tape":
//
//	output(value i32)        receives each Output byte
//	fault(pointer i32, op i32) is called before trapping on a bounds violation
//
// Bounds are checked where the tree walker checks them: after every pointer
// move, and for MulAdd only when the current cell is non-zero. The op argument
// of fault is the ir.Kind of the failing primitive.
package codegen

import (
	"fmt"

	"github.com/wippyai/tape-runtime/errors"
	"github.com/wippyai/tape-runtime/ir"
	"github.com/wippyai/tape-runtime/tape"
	"github.com/wippyai/tape-runtime/wasm"
)

// Names shared with the host side.
const (
	HostModule   = "tape"
	OutputFunc   = "output"
	FaultFunc    = "fault"
	RunFunc      = "run"
	MemoryExport = "memory"
)

// Function indices: imports come first.
const (
	outputIdx uint32 = iota
	faultIdx
	runIdx
)

// Locals of run.
const (
	localPtr uint32 = iota
	localVal
	localTarget
	numLocals
)

// maxMagnitude keeps pointer arithmetic inside i32 range.
const maxMagnitude = 1 << 30

// Generate returns the encoded module for prog.
func Generate(prog ir.Program) ([]byte, error) {
	m, err := Build(prog)
	if err != nil {
		return nil, err
	}
	return m.Encode(), nil
}

// Build returns the module for prog without encoding it.
func Build(prog ir.Program) (*wasm.Module, error) {
	if err := prog.Validate(); err != nil {
		return nil, err
	}

	var m wasm.Module
	outputType := m.AddType(wasm.FuncType{Params: []wasm.ValType{wasm.ValI32}})
	faultType := m.AddType(wasm.FuncType{Params: []wasm.ValType{wasm.ValI32, wasm.ValI32}})
	runType := m.AddType(wasm.FuncType{Results: []wasm.ValType{wasm.ValI32}})

	m.Imports = []wasm.Import{
		{Module: HostModule, Name: OutputFunc, TypeIdx: outputType},
		{Module: HostModule, Name: FaultFunc, TypeIdx: faultType},
	}
	m.Funcs = []uint32{runType}
	m.Memories = []wasm.Limits{{Min: pages(tape.Size)}}
	m.Exports = []wasm.Export{
		{Name: RunFunc, Kind: wasm.KindFunc, Index: runIdx},
		{Name: MemoryExport, Kind: wasm.KindMemory, Index: 0},
	}

	g := &generator{}
	if err := g.program(prog); err != nil {
		return nil, err
	}
	g.c.LocalGet(localPtr)
	if g.c.Depth() != 0 {
		return nil, errors.New(errors.PhaseCompile, errors.KindInvalidData).
			Op("codegen").Detail("unbalanced blocks: depth %d", g.c.Depth()).Build()
	}

	m.Code = []wasm.FuncBody{{
		Locals: []wasm.LocalEntry{{Count: numLocals, ValType: wasm.ValI32}},
		Code:   g.c.Bytes(),
	}}
	return &m, nil
}

func pages(bytes int) uint32 {
	return uint32((bytes + wasm.PageSize - 1) / wasm.PageSize)
}

type generator struct {
	c wasm.Code
}

func (g *generator) program(prog ir.Program) error {
	for i := range prog {
		in := &prog[i]
		switch in.Kind {
		case ir.KindIncPtr, ir.KindDecPtr:
			if in.N > maxMagnitude {
				return errors.Unsupported(errors.PhaseCompile, fmt.Sprintf("%s(%d) exceeds %d", in.Kind, in.N, maxMagnitude))
			}
			g.move(in)
		case ir.KindIncVal, ir.KindDecVal:
			g.value(in)
		case ir.KindClear:
			g.c.LocalGet(localPtr)
			g.c.I32Const(0)
			g.c.I32Store8(0)
		case ir.KindMulAdd:
			if in.Offset > maxMagnitude || in.Offset < -maxMagnitude {
				return errors.Unsupported(errors.PhaseCompile, fmt.Sprintf("MulAdd offset %d out of range", in.Offset))
			}
			g.mulAdd(in)
		case ir.KindOutput:
			g.c.LocalGet(localPtr)
			g.c.I32Load8U(0)
			g.c.Call(outputIdx)
		case ir.KindLoop:
			if err := g.loop(in.Body); err != nil {
				return err
			}
		}
	}
	return nil
}

// move updates the pointer local and faults when it leaves the tape. A
// negative pointer compares as a large unsigned value.
func (g *generator) move(in *ir.Instr) {
	g.c.LocalGet(localPtr)
	g.c.I32Const(int32(in.N))
	if in.Kind == ir.KindIncPtr {
		g.c.I32Add()
	} else {
		g.c.I32Sub()
	}
	g.c.LocalTee(localPtr)
	g.checkBounds(localPtr, in.Kind)
}

// checkBounds expects the address on the stack and consumes it.
func (g *generator) checkBounds(local uint32, kind ir.Kind) {
	g.c.I32Const(tape.Size)
	g.c.I32GeU()
	g.c.If()
	g.c.LocalGet(local)
	g.c.I32Const(int32(kind))
	g.c.Call(faultIdx)
	g.c.Unreachable()
	g.c.End()
}

func (g *generator) value(in *ir.Instr) {
	g.c.LocalGet(localPtr)
	g.c.LocalGet(localPtr)
	g.c.I32Load8U(0)
	g.c.I32Const(int32(byte(in.N)))
	if in.Kind == ir.KindIncVal {
		g.c.I32Add()
	} else {
		g.c.I32Sub()
	}
	g.c.I32Store8(0)
}

func (g *generator) mulAdd(in *ir.Instr) {
	g.c.Block()
	g.c.LocalGet(localPtr)
	g.c.I32Load8U(0)
	g.c.LocalTee(localVal)
	g.c.I32Eqz()
	g.c.BrIf(0)

	g.c.LocalGet(localPtr)
	g.c.I32Const(int32(in.Offset))
	g.c.I32Add()
	g.c.LocalTee(localTarget)
	g.checkBounds(localTarget, ir.KindMulAdd)

	g.c.LocalGet(localTarget)
	g.c.LocalGet(localTarget)
	g.c.I32Load8U(0)
	g.c.LocalGet(localVal)
	g.c.I32Const(int32(in.Factor))
	g.c.I32Mul()
	g.c.I32Add()
	g.c.I32Store8(0)
	g.c.End()
}

func (g *generator) loop(body ir.Program) error {
	g.c.Block()
	g.c.Loop()
	g.c.LocalGet(localPtr)
	g.c.I32Load8U(0)
	g.c.I32Eqz()
	g.c.BrIf(1)
	if err := g.program(body); err != nil {
		return err
	}
	g.c.Br(0)
	g.c.End()
	g.c.End()
	return nil
}
