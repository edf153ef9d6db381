package wasm

import (
	"bytes"
	"testing"
)

func TestBuffer_U32(t *testing.T) {
	tests := []struct {
		want []byte
		v    uint32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0x7f}, 127},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0xb0, 0xea, 0x01}, 30000},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0x0f}, 0xFFFFFFFF},
	}
	for _, tt := range tests {
		var w Buffer
		w.U32(tt.v)
		if !bytes.Equal(w.Bytes(), tt.want) {
			t.Errorf("U32(%d) = %x, want %x", tt.v, w.Bytes(), tt.want)
		}
	}
}

func TestBuffer_S32(t *testing.T) {
	tests := []struct {
		want []byte
		v    int32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0x7f}, -1},
		{[]byte{0x3f}, 63},
		{[]byte{0xc0, 0x00}, 64},
		{[]byte{0x40}, -64},
		{[]byte{0xbf, 0x7f}, -65},
		{[]byte{0xff, 0x01}, 255},
		{[]byte{0xb0, 0xea, 0x01}, 30000},
		{[]byte{0x80, 0x80, 0x80, 0x80, 0x78}, -2147483648},
	}
	for _, tt := range tests {
		var w Buffer
		w.S32(tt.v)
		if !bytes.Equal(w.Bytes(), tt.want) {
			t.Errorf("S32(%d) = %x, want %x", tt.v, w.Bytes(), tt.want)
		}
	}
}

func TestBuffer_Name(t *testing.T) {
	var w Buffer
	w.Name("run")
	if want := []byte{3, 'r', 'u', 'n'}; !bytes.Equal(w.Bytes(), want) {
		t.Errorf("Name = %x, want %x", w.Bytes(), want)
	}
}

func TestModule_EncodeEmpty(t *testing.T) {
	var m Module
	want := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	if got := m.Encode(); !bytes.Equal(got, want) {
		t.Errorf("Encode() = %x, want %x", got, want)
	}
}

func TestModule_Encode(t *testing.T) {
	var m Module
	out := m.AddType(FuncType{Params: []ValType{ValI32}})
	run := m.AddType(FuncType{Results: []ValType{ValI32}})
	if again := m.AddType(FuncType{Params: []ValType{ValI32}}); again != out {
		t.Fatalf("AddType duplicated an existing type: %d", again)
	}
	m.Imports = []Import{{Module: "m", Name: "f", TypeIdx: out}}
	m.Funcs = []uint32{run}
	m.Memories = []Limits{{Min: 1}}
	m.Exports = []Export{{Name: "run", Kind: KindFunc, Index: 1}, {Name: "mem", Kind: KindMemory, Index: 0}}

	var c Code
	c.I32Const(7)
	m.Code = []FuncBody{{Locals: []LocalEntry{{Count: 2, ValType: ValI32}}, Code: c.Bytes()}}

	want := []byte{
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
		// types
		0x01, 0x09, 0x02, 0x60, 0x01, 0x7f, 0x00, 0x60, 0x00, 0x01, 0x7f,
		// imports
		0x02, 0x07, 0x01, 0x01, 'm', 0x01, 'f', 0x00, 0x00,
		// functions
		0x03, 0x02, 0x01, 0x01,
		// memory
		0x05, 0x03, 0x01, 0x00, 0x01,
		// exports
		0x07, 0x0d, 0x02, 0x03, 'r', 'u', 'n', 0x00, 0x01, 0x03, 'm', 'e', 'm', 0x02, 0x00,
		// code
		0x0a, 0x08, 0x01, 0x06, 0x01, 0x02, 0x7f, 0x41, 0x07, 0x0b,
	}
	if got := m.Encode(); !bytes.Equal(got, want) {
		t.Errorf("Encode() =\n%x\nwant\n%x", got, want)
	}
}

func TestModule_EncodeLimitsWithMax(t *testing.T) {
	limit := uint32(4)
	m := Module{Memories: []Limits{{Min: 1, Max: &limit}}}
	got := m.Encode()[8:]
	want := []byte{0x05, 0x04, 0x01, 0x01, 0x01, 0x04}
	if !bytes.Equal(got, want) {
		t.Errorf("memory section = %x, want %x", got, want)
	}
}

func TestCode_Control(t *testing.T) {
	var c Code
	c.Block()
	c.Loop()
	c.LocalGet(0)
	c.I32Load8U(0)
	c.I32Eqz()
	c.BrIf(1)
	c.Br(0)
	c.End()
	c.End()
	if c.Depth() != 0 {
		t.Errorf("Depth() = %d after closing all blocks", c.Depth())
	}
	want := []byte{
		0x02, 0x40,
		0x03, 0x40,
		0x20, 0x00,
		0x2d, 0x00, 0x00,
		0x45,
		0x0d, 0x01,
		0x0c, 0x00,
		0x0b,
		0x0b,
	}
	if !bytes.Equal(c.Bytes(), want) {
		t.Errorf("Bytes() = %x, want %x", c.Bytes(), want)
	}
}

func TestCode_Arithmetic(t *testing.T) {
	var c Code
	c.LocalGet(1)
	c.I32Const(-3)
	c.I32Add()
	c.LocalTee(1)
	c.I32Const(30000)
	c.I32GeU()
	c.If()
	c.Call(1)
	c.Unreachable()
	c.End()
	c.LocalGet(1)
	c.I32Const(5)
	c.I32Mul()
	c.I32Store8(0)
	want := []byte{
		0x20, 0x01,
		0x41, 0x7d,
		0x6a,
		0x22, 0x01,
		0x41, 0xb0, 0xea, 0x01,
		0x4f,
		0x04, 0x40,
		0x10, 0x01,
		0x00,
		0x0b,
		0x20, 0x01,
		0x41, 0x05,
		0x6c,
		0x3a, 0x00, 0x00,
	}
	if !bytes.Equal(c.Bytes(), want) {
		t.Errorf("Bytes() = %x, want %x", c.Bytes(), want)
	}
}
