// Package parser turns source text into an ir.Program.
//
// Each command byte becomes one instruction; runs are left for the optimizer
// to fold. Bytes outside the command set are comments. Input (',') is not
// part of the runtime and is rejected.
package parser

import (
	"github.com/wippyai/tape-runtime/errors"
	"github.com/wippyai/tape-runtime/ir"
)

// Parse parses src into a program with loop bodies nested under their Loop.
func Parse(src []byte) (ir.Program, error) {
	type frame struct {
		body ir.Program
		open int
	}
	stack := []frame{{}}

	for i, c := range src {
		top := &stack[len(stack)-1]
		switch c {
		case '+':
			top.body = append(top.body, ir.IncVal(1))
		case '-':
			top.body = append(top.body, ir.DecVal(1))
		case '>':
			top.body = append(top.body, ir.IncPtr(1))
		case '<':
			top.body = append(top.body, ir.DecPtr(1))
		case '.':
			top.body = append(top.body, ir.Output())
		case ',':
			e := errors.Unsupported(errors.PhaseParse, "input command ',' is not supported")
			e.At = errors.Offset(i)
			return nil, e
		case '[':
			stack = append(stack, frame{open: i})
		case ']':
			if len(stack) == 1 {
				return nil, errors.UnmatchedLoop(i, ']')
			}
			loop := ir.Loop(top.body...)
			stack = stack[:len(stack)-1]
			parent := &stack[len(stack)-1]
			parent.body = append(parent.body, loop)
		}
	}

	if len(stack) > 1 {
		return nil, errors.UnmatchedLoop(stack[len(stack)-1].open, '[')
	}
	if stack[0].body == nil {
		return ir.Program{}, nil
	}
	return stack[0].body, nil
}

// ParseString is Parse for string sources.
func ParseString(src string) (ir.Program, error) {
	return Parse([]byte(src))
}
