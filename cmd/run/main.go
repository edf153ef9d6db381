package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/tape-runtime/bytecode"
	"github.com/wippyai/tape-runtime/codegen"
	"github.com/wippyai/tape-runtime/engine"
	"github.com/wippyai/tape-runtime/ir"
	"github.com/wippyai/tape-runtime/optimizer"
	"github.com/wippyai/tape-runtime/runtime"
)

type options struct {
	expr         string
	backend      string
	configPath   string
	logLevel     string
	emitBytecode string
	emitWasm     string
	image        string
	optimize     int
	dump         bool
	interactive  bool
}

func main() {
	var o options
	flag.StringVar(&o.expr, "e", "", "Program source given inline")
	flag.StringVar(&o.backend, "backend", "", "Backend: interp, vm or wasm (default from config, else interp)")
	flag.IntVar(&o.optimize, "O", int(optimizer.LevelFull), "Optimization level 0-2")
	flag.StringVar(&o.configPath, "config", "", "Path to a TOML config file")
	flag.StringVar(&o.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.BoolVar(&o.dump, "dump", false, "Print the optimized program and exit")
	flag.StringVar(&o.emitBytecode, "emit-bytecode", "", "Write a bytecode image to this path and exit")
	flag.StringVar(&o.emitWasm, "emit-wasm", "", "Write the generated wasm module to this path and exit")
	flag.StringVar(&o.image, "image", "", "Run a bytecode image instead of source")
	flag.BoolVar(&o.interactive, "i", false, "Interactive stepping debugger")
	flag.Parse()

	if o.expr == "" && o.image == "" && flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: run [flags] <file>")
		fmt.Fprintln(os.Stderr, "       run [flags] -e '<source>'")
		fmt.Fprintln(os.Stderr, "       run [flags] -image <file.img>")
		fmt.Fprintln(os.Stderr, "       run -i <file>  (interactive mode)")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(o, flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(o options, path string) error {
	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}

	level, err := cfg.ZapLevel()
	if err != nil {
		return err
	}
	logger := newLogger(level)
	defer func() { _ = logger.Sync() }()
	runtime.SetLogger(logger.Named("runtime"))
	engine.SetLogger(logger.Named("engine"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rt, err := runtime.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())

	if o.image != "" {
		code, err := readImage(o.image)
		if err != nil {
			return err
		}
		if o.interactive {
			return runInteractive(o.image, code)
		}
		return execute(func(w io.Writer) (*runtime.Result, error) {
			return rt.RunCode(ctx, code, w)
		})
	}

	src := []byte(o.expr)
	name := "-e"
	if o.expr == "" {
		if src, err = os.ReadFile(path); err != nil {
			return fmt.Errorf("read file: %w", err)
		}
		name = path
	}

	prog, err := rt.Compile(src)
	if err != nil {
		return err
	}

	switch {
	case o.dump:
		w := bufio.NewWriter(os.Stdout)
		if err := prog.Dump(w); err != nil {
			return err
		}
		return w.Flush()
	case o.emitBytecode != "" || o.emitWasm != "":
		return emit(o, prog)
	case o.interactive:
		code, err := bytecode.Compile(prog)
		if err != nil {
			return err
		}
		return runInteractive(name, code)
	}

	return execute(func(w io.Writer) (*runtime.Result, error) {
		return rt.Run(ctx, prog, w)
	})
}

// loadConfig applies explicitly set flags over the config file or defaults.
func loadConfig(o options) (*runtime.Config, error) {
	cfg := runtime.DefaultConfig()
	if o.configPath != "" {
		var err error
		if cfg, err = runtime.LoadConfig(o.configPath); err != nil {
			return nil, err
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			cfg.Backend = runtime.Backend(o.backend)
		case "O":
			cfg.Optimize = optimizer.Level(o.optimize)
		case "log-level":
			cfg.LogLevel = o.logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(level zapcore.Level) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level)
	return zap.New(core)
}

func readImage(path string) (bytecode.Code, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return bytecode.Unmarshal(data)
}

// emit writes the requested artifacts for prog.
func emit(o options, prog ir.Program) error {
	if o.emitBytecode != "" {
		code, err := bytecode.Compile(prog)
		if err != nil {
			return err
		}
		data, err := bytecode.Marshal(code)
		if err != nil {
			return err
		}
		if err := os.WriteFile(o.emitBytecode, data, 0o644); err != nil {
			return fmt.Errorf("write bytecode: %w", err)
		}
	}
	if o.emitWasm != "" {
		bin, err := codegen.Generate(prog)
		if err != nil {
			return err
		}
		if err := os.WriteFile(o.emitWasm, bin, 0o644); err != nil {
			return fmt.Errorf("write wasm: %w", err)
		}
	}
	return nil
}

// execute streams program output to stdout. On a terminal every write is
// flushed as it happens, and a trailing newline is added when the output did
// not end in one so the prompt stays clean.
func execute(runFn func(io.Writer) (*runtime.Result, error)) error {
	tty := term.IsTerminal(int(os.Stdout.Fd()))
	w := &tailWriter{w: bufio.NewWriter(os.Stdout), flushEach: tty}
	_, runErr := runFn(w)
	flushErr := w.w.Flush()

	if w.n > 0 && w.last != '\n' && tty {
		fmt.Fprintln(os.Stdout)
	}
	if runErr != nil {
		return runErr
	}
	return flushErr
}

// tailWriter remembers the last byte written. With flushEach set it flushes
// after every write.
type tailWriter struct {
	w         *bufio.Writer
	n         int
	last      byte
	flushEach bool
}

func (t *tailWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if n > 0 {
		t.n += n
		t.last = p[n-1]
	}
	if err == nil && t.flushEach {
		err = t.w.Flush()
	}
	return n, err
}
