package wasm

import "encoding/binary"

// Buffer accumulates WebAssembly binary encoding.
type Buffer struct {
	b []byte
}

// Bytes returns the written bytes.
func (w *Buffer) Bytes() []byte {
	return w.b
}

// Byte writes a single byte.
func (w *Buffer) Byte(b byte) {
	w.b = append(w.b, b)
}

// Write appends raw bytes.
func (w *Buffer) Write(data []byte) {
	w.b = append(w.b, data...)
}

// U32 writes an unsigned LEB128 value.
func (w *Buffer) U32(v uint32) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		w.b = append(w.b, b)
		if v == 0 {
			return
		}
	}
}

// S32 writes a signed LEB128 value.
func (w *Buffer) S32(v int32) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			w.b = append(w.b, b)
			return
		}
		w.b = append(w.b, b|0x80)
	}
}

// Name writes a length-prefixed UTF-8 name.
func (w *Buffer) Name(s string) {
	w.U32(uint32(len(s)))
	w.b = append(w.b, s...)
}

// U32LE writes a fixed-width little-endian value.
func (w *Buffer) U32LE(v uint32) {
	w.b = binary.LittleEndian.AppendUint32(w.b, v)
}

// Vec writes a length-prefixed byte vector.
func (w *Buffer) Vec(data []byte) {
	w.U32(uint32(len(data)))
	w.b = append(w.b, data...)
}
