// Package file reads encoded tile bundles from a directory and writes pixel
// records as text lines, for batch runs that do not go through Kafka.
package file

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/couchcryptid/forma-etl/internal/domain"
	"github.com/fsnotify/fsnotify"
)

// BundleExt is the file extension of encoded tile bundles. Writers should
// write to a temporary name and rename into place so a watching Source never
// sees a partial file.
const BundleExt = ".bundle"

// Source yields the bundle files of a directory in lexical order.
// It implements pipeline.BatchExtractor. A bundle is offered again on every
// ExtractBatch until its event is committed.
//
// Without Watch, the source is finite and ExtractBatch returns io.EOF once
// every file present has been committed. With Watch, it waits for new files
// until the context is cancelled.
type Source struct {
	dir     string
	logger  *slog.Logger
	watcher *fsnotify.Watcher

	mu        sync.Mutex
	done      map[string]bool
	committed []string
	offset    int64
}

// NewSource creates a Source over dir. When watch is set the directory is
// monitored for new bundles.
func NewSource(dir string, watch bool, logger *slog.Logger) (*Source, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("bundle dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("bundle dir: %s is not a directory", dir)
	}

	s := &Source{dir: dir, logger: logger, done: make(map[string]bool)}
	if watch {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("watch bundle dir: %w", err)
		}
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, fmt.Errorf("watch bundle dir: %w", err)
		}
		s.watcher = w
		logger.Info("watching bundle dir", "dir", dir)
	}
	return s, nil
}

// ExtractBatch returns up to batchSize uncommitted bundles.
func (s *Source) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error) {
	for {
		batch, err := s.next(batchSize)
		if err != nil || len(batch) > 0 {
			return batch, err
		}
		if s.watcher == nil {
			return nil, io.EOF
		}
		if err := s.wait(ctx); err != nil {
			return nil, err
		}
	}
}

// Committed lists the bundles whose records were loaded, in commit order.
func (s *Source) Committed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.committed)
}

func (s *Source) Close() error {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.Close()
}

func (s *Source) next(batchSize int) ([]domain.RawEvent, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list bundle dir: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var batch []domain.RawEvent
	for _, e := range entries {
		if len(batch) == batchSize {
			break
		}
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != BundleExt || s.done[name] {
			continue
		}
		raw, err := s.read(name)
		if err != nil {
			return batch, err
		}
		batch = append(batch, raw)
	}
	return batch, nil
}

func (s *Source) read(name string) (domain.RawEvent, error) {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.RawEvent{}, fmt.Errorf("read bundle %s: %w", name, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return domain.RawEvent{}, fmt.Errorf("stat bundle %s: %w", name, err)
	}

	offset := s.offset
	s.offset++
	return domain.RawEvent{
		Key:       []byte(strings.TrimSuffix(name, BundleExt)),
		Value:     data,
		Topic:     s.dir,
		Offset:    offset,
		Timestamp: info.ModTime(),
		Commit: func(context.Context) error {
			s.mu.Lock()
			s.done[name] = true
			s.committed = append(s.committed, name)
			s.mu.Unlock()
			return nil
		},
	}, nil
}

// wait blocks until a bundle file appears in the directory.
func (s *Source) wait(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return io.EOF
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 || filepath.Ext(ev.Name) != BundleExt {
				continue
			}
			s.logger.Debug("bundle arrived", "path", ev.Name, "op", ev.Op.String())
			return nil
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return io.EOF
			}
			s.logger.Warn("bundle dir watch error", "error", err)
		}
	}
}
