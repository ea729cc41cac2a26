// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
)

func TestWriterSink_CRLF(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		crlf bool
		in   string
		want string
	}{
		{name: "passthrough", crlf: false, in: "line\n", want: "line\n"},
		{name: "lf translated", crlf: true, in: "line\n", want: "line\r\n"},
		{name: "crlf untouched", crlf: true, in: "line\r\n", want: "line\r\n"},
		{name: "partial untouched", crlf: true, in: "line", want: "line"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			NewWriterSink(&buf, WithCRLF(tt.crlf)).Emit(LogEvent{Text: tt.in})
			if buf.String() != tt.want {
				t.Errorf("wrote %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestWriterSink_LinesAreAtomic(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	sink := NewWriterSink(&buf)

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				sink.Emit(LogEvent{Text: fmt.Sprintf("worker-%d line-%03d %s\n", w, i, strings.Repeat("z", 200))})
			}
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 800 {
		t.Fatalf("got %d lines, want 800", len(lines))
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "worker-") || !strings.HasSuffix(line, strings.Repeat("z", 200)) {
			t.Fatalf("interleaved line: %q", line)
		}
	}
}

func TestWriterSink_Decorator(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	sink := NewWriterSink(&buf, WithDecorator(func(ev LogEvent) string {
		return ev.Stream.String() + ": " + ev.Text
	}))
	sink.Emit(LogEvent{Stream: StreamStderr, Text: "oops\n"})

	if got := buf.String(); got != "stderr: oops\n" {
		t.Errorf("wrote %q", got)
	}
}

func TestTailSink(t *testing.T) {
	t.Parallel()

	tail := NewTailSink(3)
	for i := range 5 {
		tail.Emit(LogEvent{Stream: StreamStdout, Text: fmt.Sprintf("line %d\n", i)})
	}
	tail.Emit(LogEvent{Stream: StreamInfo, Text: "milestone\n"})

	want := []string{"line 2\n", "line 3\n", "line 4\n"}
	if got := tail.Lines(); !slices.Equal(got, want) {
		t.Errorf("Lines() = %q, want %q", got, want)
	}
	if got := tail.String(); got != "line 2\nline 3\nline 4" {
		t.Errorf("String() = %q", got)
	}

	tail.Reset()
	if got := tail.Lines(); len(got) != 0 {
		t.Errorf("Lines() after Reset = %q", got)
	}
}

func TestMultiSink(t *testing.T) {
	t.Parallel()

	var a, b BufferSink
	sink := MultiSink(&a, nil, &b)
	sink.Emit(LogEvent{Text: "x\n"})

	if a.Text() != "x\n" || b.Text() != "x\n" {
		t.Errorf("fan-out failed: a=%q b=%q", a.Text(), b.Text())
	}
}
