package bytecode

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/wippyai/tape-runtime/errors"
)

// ImageVersion is the image format written by Marshal.
const ImageVersion = 1

const imageMagic = "tape-bytecode"

// image is the on-disk form of Code.
type image struct {
	Magic   string `cbor:"1,keyasint"`
	Code    Code   `cbor:"3,keyasint"`
	Version uint   `cbor:"2,keyasint"`
}

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

// Marshal encodes c as a versioned CBOR image. Equal programs encode to equal bytes.
func Marshal(c Code) ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	data, err := encMode.Marshal(image{Magic: imageMagic, Version: ImageVersion, Code: c})
	if err != nil {
		return nil, errors.Wrap(errors.PhaseCompile, errors.KindInvalidData, err, "encode image")
	}
	return data, nil
}

// Unmarshal decodes and validates an image written by Marshal.
func Unmarshal(data []byte) (Code, error) {
	var img image
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, errors.Load("decode image", err)
	}
	if img.Magic != imageMagic {
		return nil, errors.Load(fmt.Sprintf("not a bytecode image (magic %q)", img.Magic), nil)
	}
	if img.Version != ImageVersion {
		return nil, errors.Load(fmt.Sprintf("unsupported image version %d", img.Version), nil)
	}
	if err := img.Code.Validate(); err != nil {
		return nil, err
	}
	return img.Code, nil
}

// Validate checks opcodes, operand ranges and that every jump pairs with its
// partner. Code produced by Compile always passes.
func (c Code) Validate() error {
	for pc, op := range c {
		if err := c.validateOp(pc, op); err != nil {
			return errors.InvalidData(errors.PhaseLoad, errors.PC(pc), err.Error())
		}
	}
	return nil
}

func (c Code) validateOp(pc int, op Op) error {
	if !op.Code.Valid() {
		return fmt.Errorf("unknown opcode %d", uint8(op.Code))
	}
	switch op.Code {
	case OpIncPtr, OpDecPtr, OpIncVal, OpDecVal:
		if op.Arg < 0 {
			return fmt.Errorf("%s operand %d is negative", op.Code, op.Arg)
		}
	case OpMulAdd:
		if op.Arg < 0 || op.Arg > 255 {
			return fmt.Errorf("mul_add factor %d out of range", op.Arg)
		}
	case OpJumpIfZero:
		// target is one past the closing jnz
		end := op.Arg - 1
		if end <= pc || end >= len(c) || c[end].Code != OpJumpIfNotZero || c[end].Arg != pc+1 {
			return fmt.Errorf("jz target %d has no matching jnz", op.Arg)
		}
	case OpJumpIfNotZero:
		start := op.Arg - 1
		if start < 0 || start >= pc || c[start].Code != OpJumpIfZero || c[start].Arg != pc+1 {
			return fmt.Errorf("jnz target %d has no matching jz", op.Arg)
		}
	}
	if op.Code != OpMulAdd && op.Offset != 0 {
		return fmt.Errorf("%s does not take an offset", op.Code)
	}
	return nil
}
