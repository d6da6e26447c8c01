package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Sink receives payloads. Implementations must not block for long; they
// run on the caller's completion path.
type Sink interface {
	Notify(ctx context.Context, p Payload)
}

// LogSink records payloads as structured log lines.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Notify(ctx context.Context, p Payload) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "Notification",
		slog.String("type", "notify"),
		slog.String("kind", string(p.Kind())),
		slog.String("user_id", p.UserID()),
		slog.String("message", p.Message()))
}

// WriterSink prints one line per payload, styled by Render when set.
type WriterSink struct {
	mu     sync.Mutex
	W      io.Writer
	Render func(p Payload) string
}

func (s *WriterSink) Notify(_ context.Context, p Payload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := p.Message()
	if s.Render != nil {
		line = s.Render(p)
	}
	fmt.Fprintln(s.W, line)
}

// Multi fans a payload out to several sinks.
type Multi []Sink

func (m Multi) Notify(ctx context.Context, p Payload) {
	for _, s := range m {
		if s != nil {
			s.Notify(ctx, p)
		}
	}
}

// Recorder keeps payloads in memory. Useful for previews and tests.
type Recorder struct {
	mu       sync.Mutex
	payloads []Payload
}

func (r *Recorder) Notify(_ context.Context, p Payload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, p)
}

func (r *Recorder) Payloads() []Payload {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Payload(nil), r.payloads...)
}

// Count returns how many recorded payloads have kind k.
func (r *Recorder) Count(k Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.payloads {
		if p.Kind() == k {
			n++
		}
	}
	return n
}
