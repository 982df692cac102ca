package file

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/couchcryptid/forma-etl/internal/domain"
)

// RecordExt is the extension of record files written by a directory Sink.
const RecordExt = ".tsv"

// Sink writes each output event's value as one line.
// It implements pipeline.BatchLoader.
//
// A stream sink writes every line to one writer. A directory sink writes one
// file per record key (tile and period), named "h_v_period.tsv". The first
// batch of a run that touches a key truncates its file; later batches append.
// Files are closed at the end of every batch.
type Sink struct {
	mu      sync.Mutex
	out     *bufio.Writer
	dir     string
	started map[string]bool
	lines   int64
}

// NewStreamSink writes all records to w.
func NewStreamSink(w io.Writer) *Sink {
	return &Sink{out: bufio.NewWriter(w)}
}

// NewDirSink writes records under dir, creating it if needed.
func NewDirSink(dir string) (*Sink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("record dir: %w", err)
	}
	return &Sink{dir: dir, started: make(map[string]bool)}, nil
}

// LoadBatch writes the batch and flushes, so a batch is on disk before the
// pipeline commits its bundles.
func (s *Sink) LoadBatch(ctx context.Context, events []domain.OutputEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.out != nil {
		if err := writeLines(s.out, events); err != nil {
			return err
		}
		s.lines += int64(len(events))
		return nil
	}

	byKey := make(map[string][]domain.OutputEvent)
	var order []string
	for _, ev := range events {
		key := string(ev.Key)
		if _, ok := byKey[key]; !ok {
			order = append(order, key)
		}
		byKey[key] = append(byKey[key], ev)
	}
	for _, key := range order {
		if err := s.writeFile(key, byKey[key]); err != nil {
			return err
		}
		s.lines += int64(len(byKey[key]))
	}
	return nil
}

// Lines reports how many records have been written.
func (s *Sink) Lines() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines
}

// Close flushes a stream sink. It does not close the underlying writer.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out != nil {
		return s.out.Flush()
	}
	return nil
}

func (s *Sink) writeFile(key string, events []domain.OutputEvent) (err error) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if !s.started[key] {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}
	f, err := os.OpenFile(filepath.Join(s.dir, RecordFileName(key)), flags, 0o644)
	if err != nil {
		return fmt.Errorf("open record file: %w", err)
	}
	defer func() { err = errors.Join(err, f.Close()) }()
	s.started[key] = true
	return writeLines(bufio.NewWriter(f), events)
}

func writeLines(w *bufio.Writer, events []domain.OutputEvent) error {
	for _, ev := range events {
		if _, err := w.Write(ev.Value); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush records: %w", err)
	}
	return nil
}

// RecordFileName maps a record key such as "28:8:693" to "28_8_693.tsv".
func RecordFileName(key string) string {
	return strings.ReplaceAll(key, ":", "_") + RecordExt
}
