package bytecode

import (
	"github.com/wippyai/tape-runtime/ir"
)

// Compile validates p and lowers it to flat bytecode.
func Compile(p ir.Program) (Code, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return emit(make(Code, 0, p.Count()+p.Count()/4), p), nil
}

func emit(c Code, p ir.Program) Code {
	for _, in := range p {
		switch in.Kind {
		case ir.KindIncPtr:
			c = append(c, Op{Code: OpIncPtr, Arg: in.N})
		case ir.KindDecPtr:
			c = append(c, Op{Code: OpDecPtr, Arg: in.N})
		case ir.KindIncVal:
			c = append(c, Op{Code: OpIncVal, Arg: in.N})
		case ir.KindDecVal:
			c = append(c, Op{Code: OpDecVal, Arg: in.N})
		case ir.KindClear:
			c = append(c, Op{Code: OpClear})
		case ir.KindMulAdd:
			c = append(c, Op{Code: OpMulAdd, Offset: in.Offset, Arg: int(in.Factor)})
		case ir.KindOutput:
			c = append(c, Op{Code: OpOutput})
		case ir.KindLoop:
			start := len(c)
			c = append(c, Op{Code: OpJumpIfZero})
			c = emit(c, in.Body)
			c = append(c, Op{Code: OpJumpIfNotZero, Arg: start + 1})
			c[start].Arg = len(c)
		}
	}
	return c
}
