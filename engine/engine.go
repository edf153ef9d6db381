package engine

import (
	"context"
	"io"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/tape-runtime/codegen"
	"github.com/wippyai/tape-runtime/errors"
	"github.com/wippyai/tape-runtime/ir"
	"github.com/wippyai/tape-runtime/tape"
)

// Config holds configuration for engine creation
type Config struct {
	// MemoryLimitPages caps guest memory in 64KiB pages. 0 means wazero's default.
	// The tape needs one page.
	MemoryLimitPages uint32

	// CloseOnContextDone stops running guests when their context is done.
	CloseOnContextDone bool
}

// Engine compiles and runs generated tape modules.
type Engine struct {
	runtime wazero.Runtime
}

// Module is a compiled tape program.
type Module struct {
	engine   *Engine
	compiled wazero.CompiledModule
}

type runStateKey struct{}

// runState is the per-run data host functions reach through the context.
type runState struct {
	w   io.Writer
	err error
	out [1]byte
}

// New creates an engine and instantiates the host module. A nil cfg uses defaults.
func New(ctx context.Context, cfg *Config) (*Engine, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg != nil {
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
		runtimeCfg = runtimeCfg.WithCloseOnContextDone(cfg.CloseOnContextDone)
	}

	e := &Engine{runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg)}

	_, err := e.runtime.NewHostModuleBuilder(codegen.HostModule).
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(hostOutput), []api.ValueType{api.ValueTypeI32}, nil).
		Export(codegen.OutputFunc).
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(hostFault), []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, nil).
		Export(codegen.FaultFunc).
		Instantiate(ctx)
	if err != nil {
		_ = e.runtime.Close(ctx)
		return nil, errors.Instantiation(err)
	}
	return e, nil
}

// Close releases the runtime and every module compiled by it.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// Compile validates and compiles a module produced by codegen.Generate.
func (e *Engine) Compile(ctx context.Context, bin []byte) (*Module, error) {
	compiled, err := e.runtime.CompileModule(ctx, bin)
	if err != nil {
		return nil, errors.Load("compile module", err)
	}
	if _, ok := compiled.ExportedFunctions()[codegen.RunFunc]; !ok {
		_ = compiled.Close(ctx)
		return nil, errors.Load("module does not export "+codegen.RunFunc, nil)
	}
	if _, ok := compiled.ExportedMemories()[codegen.MemoryExport]; !ok {
		_ = compiled.Close(ctx)
		return nil, errors.Load("module does not export "+codegen.MemoryExport, nil)
	}
	Logger().Debug("compiled module", zap.Int("bytes", len(bin)))
	return &Module{engine: e, compiled: compiled}, nil
}

// Close releases the compiled module.
func (m *Module) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}

// Run instantiates the module on a fresh tape, calls run and returns the
// final state. Output bytes go to w in order; nil discards them.
func (m *Module) Run(ctx context.Context, w io.Writer) (tape.Snapshot, error) {
	st := &runState{w: w}
	ctx = context.WithValue(ctx, runStateKey{}, st)

	// anonymous instances do not collide in the runtime's namespace
	inst, err := m.engine.runtime.InstantiateModule(ctx, m.compiled,
		wazero.NewModuleConfig().WithName("").WithStartFunctions())
	if err != nil {
		if ctx.Err() != nil {
			return tape.Snapshot{}, errors.Canceled(ctx.Err())
		}
		return tape.Snapshot{}, errors.Instantiation(err)
	}
	defer inst.Close(context.WithoutCancel(ctx))

	results, err := inst.ExportedFunction(codegen.RunFunc).Call(ctx)
	if st.err != nil {
		return tape.Snapshot{}, st.err
	}
	if err != nil {
		if ctx.Err() != nil {
			return tape.Snapshot{}, errors.Canceled(ctx.Err())
		}
		return tape.Snapshot{}, errors.Wrap(errors.PhaseRuntime, errors.KindTrap, err, "guest trapped")
	}

	cells, ok := inst.ExportedMemory(codegen.MemoryExport).Read(0, tape.Size)
	if !ok {
		return tape.Snapshot{}, errors.Load("memory smaller than the tape", nil)
	}
	snap := tape.Snapshot{
		Cells:   make([]byte, tape.Size),
		Pointer: int(api.DecodeI32(results[0])),
	}
	copy(snap.Cells, cells)
	return snap, nil
}

func stateFrom(ctx context.Context) *runState {
	st, _ := ctx.Value(runStateKey{}).(*runState)
	if st == nil {
		panic(errors.NotInitialized(errors.PhaseRuntime, "run state"))
	}
	return st
}

func hostOutput(ctx context.Context, _ api.Module, stack []uint64) {
	st := stateFrom(ctx)
	if st.w == nil {
		return
	}
	st.out[0] = byte(api.DecodeU32(stack[0]))
	if _, err := st.w.Write(st.out[:]); err != nil {
		st.err = errors.IO(ir.KindOutput.String(), err)
		// unwinds the guest; Run reports st.err
		panic(st.err)
	}
}

func hostFault(ctx context.Context, _ api.Module, stack []uint64) {
	st := stateFrom(ctx)
	pointer := int(api.DecodeI32(stack[0]))
	op := ir.Kind(api.DecodeU32(stack[1]))
	st.err = errors.OutOfRange(op.String(), pointer)
	Logger().Debug("guest fault", zap.String("op", op.String()), zap.Int("pointer", pointer))
}
