package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"broker-scout/internal/models"
)

// JSONLinesSink appends one JSON object per record to a file.
type JSONLinesSink struct {
	mu  sync.Mutex
	w   io.WriteCloser
	enc *json.Encoder
}

// NewJSONLinesSink opens path for appending, creating parent directories.
func NewJSONLinesSink(path string) (*JSONLinesSink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}
	return NewJSONLinesSinkWithWriter(f), nil
}

// NewJSONLinesSinkWithWriter encodes records onto w.
func NewJSONLinesSinkWithWriter(w io.WriteCloser) *JSONLinesSink {
	return &JSONLinesSink{w: w, enc: json.NewEncoder(w)}
}

// Name implements Sink.
func (s *JSONLinesSink) Name() string {
	return "jsonl"
}

// Accept implements Sink.
func (s *JSONLinesSink) Accept(_ context.Context, rec models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(rec)
}

// Close implements Sink.
func (s *JSONLinesSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Close()
}
