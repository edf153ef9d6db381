package main

import (
	"bufio"
	"bytes"
	"testing"
)

func TestTailWriter(t *testing.T) {
	tests := []struct {
		name      string
		flushEach bool
		wantSeen  string
	}{
		{"terminal flushes each write", true, "ab"},
		{"pipe stays buffered", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sink bytes.Buffer
			w := &tailWriter{w: bufio.NewWriter(&sink), flushEach: tt.flushEach}
			for _, s := range []string{"a", "b"} {
				if _, err := w.Write([]byte(s)); err != nil {
					t.Fatal(err)
				}
			}
			if sink.String() != tt.wantSeen {
				t.Errorf("before Flush sink = %q, want %q", sink.String(), tt.wantSeen)
			}
			if w.n != 2 || w.last != 'b' {
				t.Errorf("n=%d last=%q, want 2 'b'", w.n, w.last)
			}
			if err := w.w.Flush(); err != nil {
				t.Fatal(err)
			}
			if sink.String() != "ab" {
				t.Errorf("after Flush sink = %q, want \"ab\"", sink.String())
			}
		})
	}
}
