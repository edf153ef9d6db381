package engine

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wippyai/tape-runtime/codegen"
	rterrors "github.com/wippyai/tape-runtime/errors"
	"github.com/wippyai/tape-runtime/internal/corpus"
	"github.com/wippyai/tape-runtime/ir"
	"github.com/wippyai/tape-runtime/optimizer"
	"github.com/wippyai/tape-runtime/parser"
	"github.com/wippyai/tape-runtime/tape"
	"github.com/wippyai/tape-runtime/wasm"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	ctx := context.Background()
	e, err := New(ctx, &Config{MemoryLimitPages: 1, CloseOnContextDone: true})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = e.Close(ctx) })
	return e
}

func compile(t *testing.T, e *Engine, src string, level optimizer.Level) *Module {
	t.Helper()
	prog, err := parser.ParseString(src)
	if err != nil {
		t.Fatal(err)
	}
	prog, err = optimizer.Optimize(prog, level)
	if err != nil {
		t.Fatal(err)
	}
	bin, err := codegen.Generate(prog)
	if err != nil {
		t.Fatal(err)
	}
	mod, err := e.Compile(context.Background(), bin)
	if err != nil {
		t.Fatalf("Compile(%q): %v", src, err)
	}
	t.Cleanup(func() { _ = mod.Close(context.Background()) })
	return mod
}

func TestRun_MatchesTreeWalker(t *testing.T) {
	e := newEngine(t)
	for _, prog := range corpus.Programs {
		t.Run(prog.Name, func(t *testing.T) {
			p, err := parser.ParseString(prog.Source)
			if err != nil {
				t.Fatal(err)
			}
			ref := tape.New()
			if err := ref.Execute(p, nil); err != nil {
				t.Fatal(err)
			}
			want := ref.Snapshot()

			for _, level := range []optimizer.Level{optimizer.LevelNone, optimizer.LevelFull} {
				var out bytes.Buffer
				snap, err := compile(t, e, prog.Source, level).Run(context.Background(), &out)
				if err != nil {
					t.Fatalf("O%d: %v", level, err)
				}
				if out.String() != prog.Output {
					t.Errorf("O%d output = %q, want %q", level, out.String(), prog.Output)
				}
				if snap.Pointer != want.Pointer || !bytes.Equal(snap.Cells, want.Cells) {
					t.Errorf("O%d final state differs: ptr %d, want %d", level, snap.Pointer, want.Pointer)
				}
			}
		})
	}
}

func TestRun_Faults(t *testing.T) {
	e := newEngine(t)
	tests := []struct {
		name    string
		src     string
		level   optimizer.Level
		wantOp  string
		wantPtr int
		wantOut string
	}{
		{"below zero", "+.<", optimizer.LevelNone, "DecPtr", -1, "\x01"},
		{"past end", "+[>+]", optimizer.LevelNone, "IncPtr", tape.Size, ""},
		{"folded move", "+.<<<", optimizer.LevelBasic, "DecPtr", -3, "\x01"},
		{"mul-add target", "+[-<+>]", optimizer.LevelFull, "MulAdd", -1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			_, err := compile(t, e, tt.src, tt.level).Run(context.Background(), &out)
			if !errors.Is(err, rterrors.ErrOutOfRange) {
				t.Fatalf("err = %v, want ErrOutOfRange", err)
			}
			var rerr *rterrors.Error
			if !errors.As(err, &rerr) {
				t.Fatalf("err is %T", err)
			}
			if rerr.Op != tt.wantOp || rerr.Pointer != tt.wantPtr {
				t.Errorf("Op=%q Pointer=%d, want %q %d", rerr.Op, rerr.Pointer, tt.wantOp, tt.wantPtr)
			}
			if out.String() != tt.wantOut {
				t.Errorf("output = %q, want %q", out.String(), tt.wantOut)
			}
		})
	}
}

func TestRun_MulAddZeroCellDoesNotFault(t *testing.T) {
	e := newEngine(t)
	bin, err := codegen.Generate(ir.Program{ir.MulAdd(-5, 3), ir.IncVal(1), ir.Output()})
	if err != nil {
		t.Fatal(err)
	}
	mod, err := e.Compile(context.Background(), bin)
	if err != nil {
		t.Fatal(err)
	}
	defer mod.Close(context.Background())

	var out bytes.Buffer
	if _, err := mod.Run(context.Background(), &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.String() != "\x01" {
		t.Errorf("output = %q", out.String())
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("sink closed") }

func TestRun_OutputError(t *testing.T) {
	e := newEngine(t)
	_, err := compile(t, e, "+[.]", optimizer.LevelNone).Run(context.Background(), failWriter{})
	var rerr *rterrors.Error
	if !errors.As(err, &rerr) || rerr.Kind != rterrors.KindIO {
		t.Fatalf("err = %v, want io error", err)
	}
}

func TestRun_ContextDeadline(t *testing.T) {
	e := newEngine(t)
	mod := compile(t, e, "+[]", optimizer.LevelNone)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := mod.Run(ctx, nil)
	var rerr *rterrors.Error
	if !errors.As(err, &rerr) || rerr.Kind != rterrors.KindCanceled {
		t.Fatalf("err = %v, want canceled", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err does not wrap context.DeadlineExceeded: %v", err)
	}
}

func TestRun_Concurrent(t *testing.T) {
	e := newEngine(t)
	mod := compile(t, e, corpus.Hello, optimizer.LevelFull)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var out bytes.Buffer
			if _, err := mod.Run(context.Background(), &out); err != nil {
				errs <- err
				return
			}
			if out.String() != "Hello World!\n" {
				errs <- errors.New("unexpected output " + out.String())
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestCompile_Rejects(t *testing.T) {
	e := newEngine(t)

	var noRun wasm.Module
	noRun.Memories = []wasm.Limits{{Min: 1}}
	noRun.Exports = []wasm.Export{{Name: codegen.MemoryExport, Kind: wasm.KindMemory}}

	tests := []struct {
		name string
		bin  []byte
	}{
		{"garbage", []byte("not wasm")},
		{"missing run", noRun.Encode()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Compile(context.Background(), tt.bin)
			var rerr *rterrors.Error
			if !errors.As(err, &rerr) || rerr.Phase != rterrors.PhaseLoad {
				t.Errorf("err = %v, want load error", err)
			}
		})
	}
}
