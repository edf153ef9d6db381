package parser

import (
	"errors"
	"reflect"
	"testing"

	rterrors "github.com/wippyai/tape-runtime/errors"
	"github.com/wippyai/tape-runtime/ir"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want ir.Program
	}{
		{"empty", "", ir.Program{}},
		{"comments only", "hello world\n", ir.Program{}},
		{"simple", "+-<>.", ir.Program{ir.IncVal(1), ir.DecVal(1), ir.DecPtr(1), ir.IncPtr(1), ir.Output()}},
		{"runs are not folded", "+++", ir.Program{ir.IncVal(1), ir.IncVal(1), ir.IncVal(1)}},
		{"clear loop", "[-]", ir.Program{ir.Loop(ir.DecVal(1))}},
		{"empty loop", "[]", ir.Program{ir.Loop()}},
		{
			name: "nested",
			src:  "[[+][<++[-+]]]",
			want: ir.Program{
				ir.Loop(
					ir.Loop(ir.IncVal(1)),
					ir.Loop(ir.DecPtr(1), ir.IncVal(1), ir.IncVal(1), ir.Loop(ir.DecVal(1), ir.IncVal(1))),
				),
			},
		},
		{
			name: "end to end scenario",
			src:  "++>+++[<+>-]<.",
			want: ir.Program{
				ir.IncVal(1), ir.IncVal(1), ir.IncPtr(1),
				ir.IncVal(1), ir.IncVal(1), ir.IncVal(1),
				ir.Loop(ir.DecPtr(1), ir.IncVal(1), ir.IncPtr(1), ir.DecVal(1)),
				ir.DecPtr(1), ir.Output(),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseString(tt.src)
			if err != nil {
				t.Fatalf("ParseString(%q): %v", tt.src, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseString(%q) =\n%v\nwant\n%v", tt.src, got, tt.want)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		wantKind rterrors.Kind
		wantAt   string
	}{
		{"unmatched close", "+]", rterrors.KindUnmatchedLoop, "offset 1"},
		{"unmatched open", "+[[-]", rterrors.KindUnmatchedLoop, "offset 1"},
		{"close before open", "][", rterrors.KindUnmatchedLoop, "offset 0"},
		{"input", "+,", rterrors.KindUnsupported, "offset 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.src)
			var rerr *rterrors.Error
			if !errors.As(err, &rerr) {
				t.Fatalf("err = %v, want *errors.Error", err)
			}
			if rerr.Phase != rterrors.PhaseParse || rerr.Kind != tt.wantKind {
				t.Errorf("Phase=%v Kind=%v, want parse %v", rerr.Phase, rerr.Kind, tt.wantKind)
			}
			if rerr.At != tt.wantAt {
				t.Errorf("At = %q, want %q", rerr.At, tt.wantAt)
			}
		})
	}
}
