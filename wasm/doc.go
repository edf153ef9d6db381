// Package wasm writes WebAssembly core modules.
//
// It covers the subset of the binary format that generated tape programs
// use: function types, function imports, one or more memories, exports, and
// code built with the Code emitter (structured control, locals, i32
// arithmetic and byte loads and stores).
//
//	var m wasm.Module
//	t := m.AddType(wasm.FuncType{Results: []wasm.ValType{wasm.ValI32}})
//	m.Funcs = append(m.Funcs, t)
//
//	var c wasm.Code
//	c.I32Const(42)
//	m.Code = append(m.Code, wasm.FuncBody{Code: c.Bytes()})
//	m.Exports = append(m.Exports, wasm.Export{Name: "answer", Kind: wasm.KindFunc})
//
//	bin := m.Encode()
//
// Modules are not validated here; the engine that compiles them does that.
package wasm
