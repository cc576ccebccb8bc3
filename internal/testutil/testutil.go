// Package testutil holds helpers shared by package tests.
package testutil

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/vk/anvil/internal/ctxlog"
)

// SafeBuffer is a thread-safe buffer for capturing output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// Record is a simplified slog record kept by a RecordHandler.
type Record struct {
	Level   slog.Level
	Message string
	Attrs   map[string]string
}

// RecordHandler is a slog.Handler that keeps every record in memory.
type RecordHandler struct {
	mu      *sync.Mutex
	records *[]Record
	attrs   []slog.Attr
}

// NewRecordHandler creates an empty RecordHandler.
func NewRecordHandler() *RecordHandler {
	return &RecordHandler{mu: &sync.Mutex{}, records: &[]Record{}}
}

func (h *RecordHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *RecordHandler) Handle(_ context.Context, r slog.Record) error {
	rec := Record{Level: r.Level, Message: r.Message, Attrs: map[string]string{}}
	for _, a := range h.attrs {
		rec.Attrs[a.Key] = a.Value.String()
	}
	r.Attrs(func(a slog.Attr) bool {
		rec.Attrs[a.Key] = a.Value.String()
		return true
	})
	h.mu.Lock()
	defer h.mu.Unlock()
	*h.records = append(*h.records, rec)
	return nil
}

func (h *RecordHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &RecordHandler{mu: h.mu, records: h.records, attrs: merged}
}

// WithGroup is not needed by the code under test; groups are flattened.
func (h *RecordHandler) WithGroup(string) slog.Handler { return h }

// Records returns a copy of the captured records.
func (h *RecordHandler) Records() []Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Record(nil), *h.records...)
}

// Messages returns the captured records at level, as messages.
func (h *RecordHandler) Messages(level slog.Level) []string {
	var out []string
	for _, r := range h.Records() {
		if r.Level == level {
			out = append(out, r.Message)
		}
	}
	return out
}

// Context returns a background context carrying a logger. Output is
// discarded unless ANVIL_TEST_LOGS is set.
func Context(t *testing.T) context.Context {
	t.Helper()
	var w io.Writer = io.Discard
	if os.Getenv("ANVIL_TEST_LOGS") != "" {
		w = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return ctxlog.WithLogger(context.Background(), logger)
}

// RecordingContext returns a context whose logger records into the returned
// handler.
func RecordingContext(t *testing.T) (context.Context, *RecordHandler) {
	t.Helper()
	h := NewRecordHandler()
	return ctxlog.WithLogger(context.Background(), slog.New(h)), h
}
