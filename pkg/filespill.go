// Package pkg holds small utilities shared by weevil components.
package pkg

import (
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// FileSpill is an append-only journal of items of type T kept on disk.
type FileSpill[T any] interface {
	Len() uint64
	Path() string
	Append(item T) error
	Range(f func(index uint64, item T) error) error
	Close() error
	Remove() error
}

type fileSpill[T any] struct {
	path    string
	file    *os.File
	encoder *gob.Encoder
	mu      sync.Mutex
	length  uint64
	closed  bool
}

// NewFileSpill creates a journal file in dir. An empty dir selects the OS temp dir.
func NewFileSpill[T any](dir string) (FileSpill[T], error) {
	if dir == "" {
		dir = os.TempDir()
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		slog.Error("failed to create spill directory", "path", dir, "error", err)
		return nil, fmt.Errorf("failed to create spill directory: %w", err)
	}

	file, err := os.CreateTemp(dir, "weevil-spill-*.gob")
	if err != nil {
		slog.Error("failed to create spill file", "path", dir, "error", err)
		return nil, fmt.Errorf("failed to create spill file: %w", err)
	}

	slog.Debug("created filespill", "path", file.Name())

	return &fileSpill[T]{
		path:    file.Name(),
		file:    file,
		encoder: gob.NewEncoder(file),
	}, nil
}

func (f *fileSpill[T]) Append(item T) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return errors.New("append to closed filespill")
	}

	if err := f.encoder.Encode(item); err != nil {
		slog.Error("failed to encode item", "path", f.path, "index", f.length, "error", err)
		return fmt.Errorf("failed to encode item: %w", err)
	}

	f.length++

	return nil
}

func (f *fileSpill[T]) Path() string {
	return f.path
}

func (f *fileSpill[T]) Len() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.length
}

// Range decodes items in append order. It reads through a separate handle, so
// it works before and after Close.
func (f *fileSpill[T]) Range(fn func(index uint64, item T) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.Open(f.path)
	if err != nil {
		slog.Error("failed to open file for range", "path", f.path, "error", err)
		return fmt.Errorf("failed to open file: %w", err)
	}

	defer func() {
		if err := file.Close(); err != nil {
			slog.Error("failed to close file", "path", f.path, "error", err)
		}
	}()

	decoder := gob.NewDecoder(file)

	for i := range f.length {
		var item T
		if err := decoder.Decode(&item); err != nil {
			slog.Error("failed to decode item during range", "path", f.path, "index", i, "error", err)
			return fmt.Errorf("failed to decode item at index %d: %w", i, err)
		}

		if err := fn(i, item); err != nil {
			return err
		}
	}

	return nil
}

func (f *fileSpill[T]) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}

	f.closed = true

	if err := f.file.Close(); err != nil {
		slog.Error("failed to close file", "path", f.path, "error", err)
		return err
	}

	slog.Debug("closed filespill", "path", f.path, "length", f.length)

	return nil
}

// Remove closes the journal and deletes its file.
func (f *fileSpill[T]) Remove() error {
	if err := f.Close(); err != nil {
		return err
	}

	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove filespill: %w", err)
	}

	return nil
}
