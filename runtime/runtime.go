package runtime

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	taperuntime "github.com/wippyai/tape-runtime"
	"github.com/wippyai/tape-runtime/bytecode"
	"github.com/wippyai/tape-runtime/engine"
	"github.com/wippyai/tape-runtime/ir"
	"github.com/wippyai/tape-runtime/optimizer"
	"github.com/wippyai/tape-runtime/parser"
	"github.com/wippyai/tape-runtime/tape"
)

// Runtime compiles source and runs it on the configured backend.
// It is safe for concurrent use.
type Runtime struct {
	exec   taperuntime.Executor
	engine *engine.Engine
	cfg    Config
}

// Result describes one finished run.
type Result struct {
	RunID       string
	Backend     Backend
	Snapshot    tape.Snapshot
	OutputBytes int
	Elapsed     time.Duration
}

// New validates cfg and prepares its backend. A nil cfg uses DefaultConfig.
func New(ctx context.Context, cfg *Config) (*Runtime, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Runtime{cfg: *cfg}
	switch cfg.Backend {
	case BackendInterp:
		r.exec = Interp
	case BackendVM:
		r.exec = VM
	case BackendWasm:
		eng, err := engine.New(ctx, &engine.Config{
			MemoryLimitPages:   cfg.Wasm.MemoryLimitPages,
			CloseOnContextDone: cfg.Wasm.CloseOnContextDone,
		})
		if err != nil {
			return nil, err
		}
		r.engine = eng
		r.exec = Wasm(eng)
	}

	Logger().Debug("runtime ready",
		zap.String("backend", string(cfg.Backend)),
		zap.Int("optimize", int(cfg.Optimize)))
	return r, nil
}

// Close releases backend resources.
func (r *Runtime) Close(ctx context.Context) error {
	if r.engine != nil {
		return r.engine.Close(ctx)
	}
	return nil
}

// Config returns a copy of the configuration in use.
func (r *Runtime) Config() Config {
	return r.cfg
}

// Compile parses src and optimizes it at the configured level.
func (r *Runtime) Compile(src []byte) (ir.Program, error) {
	prog, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	opt, err := optimizer.Optimize(prog, r.cfg.Optimize)
	if err != nil {
		return nil, err
	}
	Logger().Debug("compiled",
		zap.Int("source_bytes", len(src)),
		zap.Int("instructions", prog.Count()),
		zap.Int("optimized", opt.Count()),
		zap.Int("loop_depth", opt.Depth()))
	return opt, nil
}

// Run executes prog on a fresh tape, writing output to w. On failure the
// returned Result still carries the run ID and the bytes written so far.
func (r *Runtime) Run(ctx context.Context, prog ir.Program, w io.Writer) (*Result, error) {
	return r.run(ctx, r.cfg.Backend, w, func(ctx context.Context, w io.Writer) (tape.Snapshot, error) {
		return r.exec.Execute(ctx, prog, w)
	})
}

// RunSource compiles and runs src.
func (r *Runtime) RunSource(ctx context.Context, src []byte, w io.Writer) (*Result, error) {
	prog, err := r.Compile(src)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx, prog, w)
}

// RunCode runs already compiled bytecode on the VM, whatever the configured backend.
func (r *Runtime) RunCode(ctx context.Context, code bytecode.Code, w io.Writer) (*Result, error) {
	if err := code.Validate(); err != nil {
		return nil, err
	}
	return r.run(ctx, BackendVM, w, func(ctx context.Context, w io.Writer) (tape.Snapshot, error) {
		return runCode(ctx, code, w)
	})
}

func (r *Runtime) run(ctx context.Context, backend Backend, w io.Writer,
	exec func(context.Context, io.Writer) (tape.Snapshot, error)) (*Result, error) {
	res := &Result{RunID: uuid.New().String(), Backend: backend}
	cw := &countingWriter{w: w}
	start := time.Now()

	snap, err := exec(ctx, cw)
	res.Elapsed = time.Since(start)
	res.OutputBytes = cw.n

	log := Logger().With(zap.String("run_id", res.RunID), zap.String("backend", string(backend)))
	if err != nil {
		log.Error("run failed", zap.Error(err), zap.Int("output_bytes", cw.n))
		return res, err
	}
	res.Snapshot = snap
	log.Info("run finished",
		zap.Int("output_bytes", cw.n),
		zap.Int("pointer", snap.Pointer),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

// countingWriter counts bytes handed to it. A nil w discards them.
type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.w == nil {
		c.n += len(p)
		return len(p), nil
	}
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
