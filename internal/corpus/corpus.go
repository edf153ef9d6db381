// Package corpus holds reference programs with their expected output.
package corpus

import "strings"

// Program is a source text and what it prints on a fresh tape.
type Program struct {
	Name   string
	Source string
	Output string
}

// Programs terminate normally on every backend.
var Programs = []Program{
	{Name: "scenario", Source: "++>+++[<+>-]<.", Output: "\x05"},
	{Name: "hello", Source: Hello, Output: "Hello World!\n"},
	{Name: "multiply", Source: "+++++[>+++++++++++++<-]>.", Output: "A"},
	{Name: "nested", Source: "++++[>++++[>++++<-]<-]>>+.", Output: "A"},
	{Name: "underflow", Source: "-.", Output: "\xff"},
	{Name: "clear", Source: "+++++[-].", Output: "\x00"},
	{Name: "deadloop", Source: "[->+<]++[>+<-]>.", Output: "\x02"},
	{Name: "digits", Source: "++++++++[>++++++<-]++++++++++[>.+<-]", Output: "0123456789"},
	{Name: "scan", Source: "+>+>+>+<<<[>]<.", Output: "\x01"},
	{Name: "comments", Source: "this + is a comment ++ . and this too", Output: "\x03"},
}

// Hello prints "Hello World!\n".
const Hello = "++++++++[>++++[>++>+++>+++>+<<<<-]>+>+>->>+[<]<-]>>.>---.+++++++..+++.>>.<-.<.+++.------.--------.>>+.>++."

// Faulting programs drive the pointer off the tape.
var Faulting = []Program{
	{Name: "below zero", Source: "+.<", Output: "\x01"},
	{Name: "past end", Source: "+[>+]"},
	{Name: "copy below zero", Source: "+[-<+>]"},
	{Name: "round trip below zero", Source: "<>."},
	{Name: "loop excursion below zero", Source: "+[<<>>-]."},
	{Name: "one past end and back", Source: strings.Repeat(">", 30000) + "<."},
	{Name: "excursion past end", Source: "+." + strings.Repeat(">", 29999) + "><+", Output: "\x01"},
}
