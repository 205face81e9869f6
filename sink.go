package spanlog

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Sink receives rendered record batches from the buffered exporter. A Write
// error triggers the exporter's retry policy, so implementations should
// return errors rather than retry internally.
type Sink interface {
	Write(batch [][]byte) error
	Flush() error
}

// WriterSink writes rendered records to an io.Writer.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink wraps an io.Writer as a Sink.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Write emits every record of the batch in order.
func (s *WriterSink) Write(batch [][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range batch {
		if _, err := s.w.Write(rec); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	return nil
}

// Flush forwards to the writer if it supports flushing.
func (s *WriterSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if flusher, ok := s.w.(interface{ Flush() error }); ok {
		return flusher.Flush()
	}
	return nil
}

// FileSink writes rendered records to a file with ANSI color codes stripped,
// so colored console output can be mirrored to disk unchanged.
type FileSink struct {
	mu sync.Mutex
	f  *os.File
}

// NewFileSink creates (truncating) the file at path.
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open sink file: %w", err)
	}
	return &FileSink{f: f}, nil
}

func (s *FileSink) Write(batch [][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range batch {
		if _, err := s.f.Write(stripANSI(rec)); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	return nil
}

func (s *FileSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Sync()
}

// Close flushes and closes the underlying file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}

// MemorySink buffers rendered records in memory with ANSI codes stripped.
// Intended for tests: it records the size of every batch it receives.
type MemorySink struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	batches []int
	flushes int
}

// NewMemorySink returns an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Write(batch [][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range batch {
		s.buf.Write(stripANSI(rec))
	}
	s.batches = append(s.batches, len(batch))
	return nil
}

func (s *MemorySink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushes++
	return nil
}

// Contents returns everything written so far.
func (s *MemorySink) Contents() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// Lines splits the contents on newlines, dropping a trailing empty line.
func (s *MemorySink) Lines() []string {
	c := s.Contents()
	c = strings.TrimSuffix(c, "\n")
	if c == "" {
		return nil
	}
	return strings.Split(c, "\n")
}

// BatchSizes returns the size of each batch received, in order.
func (s *MemorySink) BatchSizes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.batches))
	copy(out, s.batches)
	return out
}

// Flushes returns how many times Flush was called.
func (s *MemorySink) Flushes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushes
}

// Reset clears the buffer and batch history.
func (s *MemorySink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf.Reset()
	s.batches = nil
	s.flushes = 0
}

// MultiSink fans a batch out to several sinks. Writes happen in registration
// order so per-sink output stays deterministic; flushes run concurrently.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink combines sinks into one.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) Write(batch [][]byte) error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Write(batch); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *MultiSink) Flush() error {
	var g errgroup.Group
	for _, s := range m.sinks {
		g.Go(s.Flush)
	}
	return g.Wait()
}

// stripANSI removes ANSI escape sequences (the color codes emitted by the
// text formatter) from a rendered record.
func stripANSI(in []byte) []byte {
	out := make([]byte, 0, len(in))
	inEscape := false
	for _, b := range in {
		switch {
		case b == 0x1b:
			inEscape = true
		case inEscape:
			if b == 'm' {
				inEscape = false
			}
		default:
			out = append(out, b)
		}
	}
	return out
}
