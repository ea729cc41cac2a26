// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"io"
	"strings"
	"sync"
)

// Stream kinds carried by LogEvent.
const (
	StreamStdout StreamKind = iota
	StreamStderr
	// StreamInfo carries lines produced by zephyrup itself, such as pipeline milestones.
	StreamInfo
)

// Discard is a LogSink that drops every event.
var Discard LogSink = SinkFunc(func(LogEvent) {})

type (
	// StreamKind identifies where a LogEvent came from.
	StreamKind int

	// LogEvent is one line of output.
	LogEvent struct {
		Stream StreamKind
		// Text is the line including its terminator. The final line of a stream
		// may have no terminator.
		Text string
		// Seq orders events emitted for the same process.
		Seq uint64
	}

	// LogSink receives LogEvents. Implementations must accept concurrent calls
	// and must never interleave the bytes of two events.
	LogSink interface {
		Emit(LogEvent)
	}

	// SinkFunc adapts a function to LogSink. The function must be safe for concurrent use.
	SinkFunc func(LogEvent)

	// Decorator rewrites a line before a WriterSink writes it.
	Decorator func(LogEvent) string

	// WriterSink writes events to an io.Writer, one whole line per Write call.
	WriterSink struct {
		mu       sync.Mutex
		w        io.Writer
		crlf     bool
		decorate Decorator
	}

	// WriterSinkOption configures a WriterSink.
	WriterSinkOption func(*WriterSink)

	// TailSink keeps the last N lines it received, for failure reports.
	TailSink struct {
		mu    sync.Mutex
		limit int
		lines []string
	}

	// BufferSink records every event, for tests and captured runs.
	BufferSink struct {
		mu     sync.Mutex
		events []LogEvent
	}

	multiSink []LogSink
)

// String returns the stream name.
func (k StreamKind) String() string {
	switch k {
	case StreamStdout:
		return "stdout"
	case StreamStderr:
		return "stderr"
	case StreamInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Emit calls f(ev).
func (f SinkFunc) Emit(ev LogEvent) { f(ev) }

// WithCRLF makes the sink rewrite bare "\n" terminators to "\r\n", for raw terminals.
func WithCRLF(enabled bool) WriterSinkOption {
	return func(s *WriterSink) { s.crlf = enabled }
}

// WithDecorator sets a function that renders each event before it is written.
func WithDecorator(d Decorator) WriterSinkOption {
	return func(s *WriterSink) { s.decorate = d }
}

// NewWriterSink creates a sink writing to w.
func NewWriterSink(w io.Writer, opts ...WriterSinkOption) *WriterSink {
	s := &WriterSink{w: w}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Emit writes ev as one Write call. Write errors are dropped; the sink has no caller to report to.
func (s *WriterSink) Emit(ev LogEvent) {
	text := ev.Text
	if s.decorate != nil {
		text = s.decorate(ev)
	}
	if s.crlf {
		text = toCRLF(text)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = io.WriteString(s.w, text)
}

func toCRLF(text string) string {
	if !strings.HasSuffix(text, "\n") || strings.HasSuffix(text, "\r\n") {
		return text
	}
	return text[:len(text)-1] + "\r\n"
}

// NewTailSink creates a sink retaining at most limit lines.
func NewTailSink(limit int) *TailSink {
	return &TailSink{limit: max(limit, 1)}
}

// Emit records ev, dropping the oldest line when full.
func (t *TailSink) Emit(ev LogEvent) {
	if ev.Stream == StreamInfo {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.lines) == t.limit {
		t.lines = t.lines[1:]
	}
	t.lines = append(t.lines, ev.Text)
}

// Lines returns a copy of the retained lines, oldest first.
func (t *TailSink) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.lines...)
}

// String joins the retained lines, trimming the final terminator.
func (t *TailSink) String() string {
	return strings.TrimRight(strings.Join(t.Lines(), ""), "\r\n")
}

// Reset drops every retained line.
func (t *TailSink) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = t.lines[:0]
}

// Emit records ev.
func (b *BufferSink) Emit(ev LogEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
}

// Events returns a copy of the recorded events in arrival order.
func (b *BufferSink) Events() []LogEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]LogEvent(nil), b.events...)
}

// Text concatenates the text of events from the given streams, in arrival order.
// With no streams, every event is included.
func (b *BufferSink) Text(streams ...StreamKind) string {
	var sb strings.Builder
	for _, ev := range b.Events() {
		if len(streams) == 0 || containsStream(streams, ev.Stream) {
			sb.WriteString(ev.Text)
		}
	}
	return sb.String()
}

func containsStream(streams []StreamKind, k StreamKind) bool {
	for _, s := range streams {
		if s == k {
			return true
		}
	}
	return false
}

// MultiSink fans each event out to every non-nil sink in order.
func MultiSink(sinks ...LogSink) LogSink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multiSink) Emit(ev LogEvent) {
	for _, s := range m {
		s.Emit(ev)
	}
}
