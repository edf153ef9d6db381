package wasm

// Module is a core module limited to what generated tape programs need:
// function types, function imports, functions with bodies, memories and exports.
type Module struct {
	Types    []FuncType
	Imports  []Import
	Funcs    []uint32 // type index per defined function
	Memories []Limits
	Exports  []Export
	Code     []FuncBody
}

// ValType is a value type byte.
type ValType byte

func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	default:
		return "unknown"
	}
}

// FuncType is a function signature.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// Import is a function import.
type Import struct {
	Module  string
	Name    string
	TypeIdx uint32
}

// Export names a function or memory.
type Export struct {
	Name  string
	Kind  byte
	Index uint32
}

// Limits bounds a memory in pages.
type Limits struct {
	Max *uint32
	Min uint32
}

// LocalEntry declares Count locals of one type.
type LocalEntry struct {
	Count   uint32
	ValType ValType
}

// FuncBody is a function's locals and instruction bytes, excluding the final end.
type FuncBody struct {
	Locals []LocalEntry
	Code   []byte
}

// AddType appends ft unless an equal type exists and returns its index.
func (m *Module) AddType(ft FuncType) uint32 {
	for i, t := range m.Types {
		if equalTypes(t.Params, ft.Params) && equalTypes(t.Results, ft.Results) {
			return uint32(i)
		}
	}
	m.Types = append(m.Types, ft)
	return uint32(len(m.Types) - 1)
}

// Encode encodes the module to WebAssembly binary format.
func (m *Module) Encode() []byte {
	var w Buffer
	w.U32LE(Magic)
	w.U32LE(Version)

	if len(m.Types) > 0 {
		var sec Buffer
		sec.U32(uint32(len(m.Types)))
		for _, ft := range m.Types {
			sec.Byte(FuncTypeByte)
			writeValTypes(&sec, ft.Params)
			writeValTypes(&sec, ft.Results)
		}
		writeSection(&w, SectionType, sec.Bytes())
	}

	if len(m.Imports) > 0 {
		var sec Buffer
		sec.U32(uint32(len(m.Imports)))
		for _, imp := range m.Imports {
			sec.Name(imp.Module)
			sec.Name(imp.Name)
			sec.Byte(KindFunc)
			sec.U32(imp.TypeIdx)
		}
		writeSection(&w, SectionImport, sec.Bytes())
	}

	if len(m.Funcs) > 0 {
		var sec Buffer
		sec.U32(uint32(len(m.Funcs)))
		for _, idx := range m.Funcs {
			sec.U32(idx)
		}
		writeSection(&w, SectionFunction, sec.Bytes())
	}

	if len(m.Memories) > 0 {
		var sec Buffer
		sec.U32(uint32(len(m.Memories)))
		for _, l := range m.Memories {
			writeLimits(&sec, l)
		}
		writeSection(&w, SectionMemory, sec.Bytes())
	}

	if len(m.Exports) > 0 {
		var sec Buffer
		sec.U32(uint32(len(m.Exports)))
		for _, exp := range m.Exports {
			sec.Name(exp.Name)
			sec.Byte(exp.Kind)
			sec.U32(exp.Index)
		}
		writeSection(&w, SectionExport, sec.Bytes())
	}

	if len(m.Code) > 0 {
		var sec Buffer
		sec.U32(uint32(len(m.Code)))
		for _, body := range m.Code {
			var fb Buffer
			fb.U32(uint32(len(body.Locals)))
			for _, l := range body.Locals {
				fb.U32(l.Count)
				fb.Byte(byte(l.ValType))
			}
			fb.Write(body.Code)
			fb.Byte(OpEnd)
			sec.Vec(fb.Bytes())
		}
		writeSection(&w, SectionCode, sec.Bytes())
	}

	return w.Bytes()
}

func writeSection(w *Buffer, id byte, data []byte) {
	w.Byte(id)
	w.Vec(data)
}

func writeValTypes(w *Buffer, types []ValType) {
	w.U32(uint32(len(types)))
	for _, t := range types {
		w.Byte(byte(t))
	}
}

func writeLimits(w *Buffer, l Limits) {
	if l.Max != nil {
		w.Byte(LimitsHasMax)
		w.U32(l.Min)
		w.U32(*l.Max)
		return
	}
	w.Byte(0)
	w.U32(l.Min)
}

func equalTypes(a, b []ValType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
