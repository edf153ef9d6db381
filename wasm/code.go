package wasm

// Code emits a function body instruction by instruction.
// Block, Loop and If open a void block that must be closed with End.
type Code struct {
	buf   Buffer
	depth int
}

// Bytes returns the emitted instructions.
func (c *Code) Bytes() []byte { return c.buf.Bytes() }

// Depth returns the number of open blocks.
func (c *Code) Depth() int { return c.depth }

func (c *Code) Block() { c.open(OpBlock) }
func (c *Code) Loop()  { c.open(OpLoop) }
func (c *Code) If()    { c.open(OpIf) }

func (c *Code) open(op byte) {
	c.buf.Byte(op)
	c.buf.Byte(BlockTypeVoid)
	c.depth++
}

// End closes the innermost block.
func (c *Code) End() {
	c.buf.Byte(OpEnd)
	c.depth--
}

// Br branches to the label depth blocks out.
func (c *Code) Br(depth uint32) {
	c.buf.Byte(OpBr)
	c.buf.U32(depth)
}

// BrIf pops a condition and branches when it is non-zero.
func (c *Code) BrIf(depth uint32) {
	c.buf.Byte(OpBrIf)
	c.buf.U32(depth)
}

func (c *Code) Call(funcIdx uint32) {
	c.buf.Byte(OpCall)
	c.buf.U32(funcIdx)
}

func (c *Code) Unreachable() { c.buf.Byte(OpUnreachable) }

func (c *Code) LocalGet(idx uint32) { c.local(OpLocalGet, idx) }
func (c *Code) LocalTee(idx uint32) { c.local(OpLocalTee, idx) }

func (c *Code) local(op byte, idx uint32) {
	c.buf.Byte(op)
	c.buf.U32(idx)
}

func (c *Code) I32Const(v int32) {
	c.buf.Byte(OpI32Const)
	c.buf.S32(v)
}

// I32Load8U loads one byte zero-extended from address+offset.
func (c *Code) I32Load8U(offset uint32) { c.memory(OpI32Load8U, offset) }

// I32Store8 stores the low byte of a value at address+offset.
func (c *Code) I32Store8(offset uint32) { c.memory(OpI32Store8, offset) }

func (c *Code) memory(op byte, offset uint32) {
	c.buf.Byte(op)
	c.buf.U32(0) // align 2^0
	c.buf.U32(offset)
}

func (c *Code) I32Eqz() { c.buf.Byte(OpI32Eqz) }
func (c *Code) I32GeU() { c.buf.Byte(OpI32GeU) }
func (c *Code) I32Add() { c.buf.Byte(OpI32Add) }
func (c *Code) I32Sub() { c.buf.Byte(OpI32Sub) }
func (c *Code) I32Mul() { c.buf.Byte(OpI32Mul) }
