package runtime

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/wippyai/tape-runtime/errors"
	"github.com/wippyai/tape-runtime/optimizer"
)

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		check func(t *testing.T, c *Config)
	}{
		{
			name: "empty keeps defaults",
			data: "",
			check: func(t *testing.T, c *Config) {
				if *c != *DefaultConfig() {
					t.Errorf("config = %+v, want defaults", *c)
				}
			},
		},
		{
			name: "full",
			data: `
backend = "wasm"
optimize = 0
log_level = "debug"

[wasm]
memory_limit_pages = 4
close_on_context_done = false
`,
			check: func(t *testing.T, c *Config) {
				want := Config{
					Backend:  BackendWasm,
					Optimize: optimizer.LevelNone,
					LogLevel: "debug",
					Wasm:     WasmConfig{MemoryLimitPages: 4, CloseOnContextDone: false},
				}
				if *c != want {
					t.Errorf("config = %+v, want %+v", *c, want)
				}
			},
		},
		{
			name: "partial wasm table",
			data: "[wasm]\nmemory_limit_pages = 2\n",
			check: func(t *testing.T, c *Config) {
				if c.Wasm.MemoryLimitPages != 2 || !c.Wasm.CloseOnContextDone {
					t.Errorf("wasm = %+v", c.Wasm)
				}
				if c.Optimize != optimizer.LevelFull {
					t.Errorf("optimize = %d, want default", c.Optimize)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseConfig([]byte(tt.data))
			if err != nil {
				t.Fatal(err)
			}
			tt.check(t, c)
		})
	}
}

func TestParseConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"syntax", "backend = ", "parse error"},
		{"unknown key", "backend = \"vm\"\nspeed = 9\n", "unknown keys: speed"},
		{"unknown nested key", "[wasm]\nthreads = true\n", "unknown keys: wasm.threads"},
		{"bad backend", "backend = \"jit\"", "unknown backend"},
		{"bad level", "optimize = 3", "optimize must be"},
		{"bad log level", "log_level = \"loud\"", "invalid log_level"},
		{"zero pages", "[wasm]\nmemory_limit_pages = 0", "memory_limit_pages"},
		{"wrong type", "optimize = \"high\"", "parse error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			rerr, ok := err.(*errors.Error)
			if !ok || rerr.Phase != errors.PhaseConfig {
				t.Fatalf("err = %v (%T), want config error", err, err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tape.toml")
	if err := os.WriteFile(path, []byte("backend = \"vm\"\noptimize = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Backend != BackendVM || c.Optimize != optimizer.LevelBasic {
		t.Errorf("config = %+v", *c)
	}

	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("nope = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = LoadConfig(bad)
	if rerr, ok := err.(*errors.Error); !ok || rerr.At != bad {
		t.Errorf("err = %v, want it located at %s", err, bad)
	}

	missing := filepath.Join(dir, "missing.toml")
	_, err = LoadConfig(missing)
	rerr, ok := err.(*errors.Error)
	if !ok || rerr.Phase != errors.PhaseConfig || rerr.At != missing {
		t.Fatalf("missing file err = %v, want config error at %s", err, missing)
	}
	if !os.IsNotExist(rerr.Cause) {
		t.Errorf("cause = %v, want a not-exist error", rerr.Cause)
	}
}

func TestConfig_ZapLevel(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"", zapcore.WarnLevel},
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"error", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		c := Config{LogLevel: tt.level}
		got, err := c.ZapLevel()
		if err != nil {
			t.Fatalf("ZapLevel(%q): %v", tt.level, err)
		}
		if got != tt.want {
			t.Errorf("ZapLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}
