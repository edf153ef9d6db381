package wasm

// Binary header
const (
	Magic   uint32 = 0x6D736100 // \0asm
	Version uint32 = 0x01
)

// Section IDs
const (
	SectionType     byte = 1
	SectionImport   byte = 2
	SectionFunction byte = 3
	SectionMemory   byte = 5
	SectionExport   byte = 7
	SectionCode     byte = 10
)

// Value types
const (
	ValI32 ValType = 0x7F
	ValI64 ValType = 0x7E
)

// Import/export kinds
const (
	KindFunc   byte = 0x00
	KindMemory byte = 0x02
)

const (
	FuncTypeByte  byte = 0x60
	BlockTypeVoid byte = 0x40
	LimitsHasMax  byte = 0x01
)

// Opcodes used by the emitter
const (
	OpUnreachable byte = 0x00
	OpBlock       byte = 0x02
	OpLoop        byte = 0x03
	OpIf          byte = 0x04
	OpEnd         byte = 0x0B
	OpBr          byte = 0x0C
	OpBrIf        byte = 0x0D
	OpCall        byte = 0x10
	OpLocalGet    byte = 0x20
	OpLocalTee    byte = 0x22
	OpI32Load8U   byte = 0x2D
	OpI32Store8   byte = 0x3A
	OpI32Const    byte = 0x41
	OpI32Eqz      byte = 0x45
	OpI32GeU      byte = 0x4F
	OpI32Add      byte = 0x6A
	OpI32Sub      byte = 0x6B
	OpI32Mul      byte = 0x6C
)

// PageSize is the size of one linear memory page.
const PageSize = 65536
