package runtime

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/tape-runtime/errors"
	"github.com/wippyai/tape-runtime/optimizer"
)

// Backend names an execution strategy.
type Backend string

const (
	BackendInterp Backend = "interp" // tree walker
	BackendVM     Backend = "vm"     // bytecode VM
	BackendWasm   Backend = "wasm"   // generated WebAssembly on wazero
)

// Backends lists every backend in a stable order.
var Backends = []Backend{BackendInterp, BackendVM, BackendWasm}

// Config configures a Runtime. It is usually read from a TOML file:
//
//	backend = "wasm"
//	optimize = 2
//	log_level = "info"
//
//	[wasm]
//	memory_limit_pages = 1
//	close_on_context_done = true
type Config struct {
	Backend  Backend         `toml:"backend"`
	LogLevel string          `toml:"log_level"`
	Wasm     WasmConfig      `toml:"wasm"`
	Optimize optimizer.Level `toml:"optimize"`
}

// WasmConfig tunes the wasm backend.
type WasmConfig struct {
	// MemoryLimitPages caps guest memory; the tape needs one 64KiB page.
	MemoryLimitPages uint32 `toml:"memory_limit_pages"`

	// CloseOnContextDone lets a canceled context stop a running guest.
	CloseOnContextDone bool `toml:"close_on_context_done"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Backend:  BackendInterp,
		Optimize: optimizer.LevelFull,
		LogLevel: "warn",
		Wasm: WasmConfig{
			MemoryLimitPages:   1,
			CloseOnContextDone: true,
		},
	}
}

// LoadConfig reads a TOML config file. Keys absent from the file keep their
// defaults; unknown keys are an error.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			At(path).
			Cause(err).
			Detail("cannot read config").
			Build()
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		if rerr, ok := err.(*errors.Error); ok && rerr.At == "" {
			rerr.At = path
		}
		return nil, err
	}
	return cfg, nil
}

// ParseConfig decodes TOML over DefaultConfig and validates the result.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, errors.Config("parse error", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, errors.Config("unknown keys: "+strings.Join(keys, ", "), nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field.
func (c *Config) Validate() error {
	if !c.Backend.Valid() {
		return errors.Config(fmt.Sprintf("unknown backend %q (want interp, vm or wasm)", c.Backend), nil)
	}
	if _, err := optimizer.Passes(c.Optimize); err != nil {
		return errors.Config(fmt.Sprintf("optimize must be 0, 1 or 2, got %d", c.Optimize), err)
	}
	if _, err := c.ZapLevel(); err != nil {
		return err
	}
	if c.Wasm.MemoryLimitPages < 1 || c.Wasm.MemoryLimitPages > 65536 {
		return errors.Config(fmt.Sprintf("wasm.memory_limit_pages must be in [1, 65536], got %d", c.Wasm.MemoryLimitPages), nil)
	}
	return nil
}

// ZapLevel parses LogLevel. An empty level means warn.
func (c *Config) ZapLevel() (zapcore.Level, error) {
	if c.LogLevel == "" {
		return zapcore.WarnLevel, nil
	}
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.WarnLevel, errors.Config(fmt.Sprintf("invalid log_level %q", c.LogLevel), err)
	}
	return lvl, nil
}

// Valid reports whether b names a known backend.
func (b Backend) Valid() bool {
	for _, known := range Backends {
		if b == known {
			return true
		}
	}
	return false
}
