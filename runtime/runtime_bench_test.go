package runtime

import (
	"context"
	"fmt"
	"testing"

	"github.com/wippyai/tape-runtime/internal/corpus"
	"github.com/wippyai/tape-runtime/optimizer"
)

func BenchmarkBackends(b *testing.B) {
	ctx := context.Background()
	for _, backend := range Backends {
		for _, level := range []optimizer.Level{optimizer.LevelNone, optimizer.LevelFull} {
			cfg := DefaultConfig()
			cfg.Backend = backend
			cfg.Optimize = level
			rt, err := New(ctx, cfg)
			if err != nil {
				b.Fatal(err)
			}
			prog, err := rt.Compile([]byte(corpus.Hello))
			if err != nil {
				b.Fatal(err)
			}
			b.Run(fmt.Sprintf("%s/O%d", backend, level), func(b *testing.B) {
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					if _, err := rt.Run(ctx, prog, nil); err != nil {
						b.Fatal(err)
					}
				}
			})
			_ = rt.Close(ctx)
		}
	}
}
