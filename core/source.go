package core

import (
	"fmt"
	"os"
)

// View is a read-only, fixed-length byte view of a whole file.
type View interface {
	// Bytes returns the file contents. The slice must not be modified or
	// retained after Close.
	Bytes() []byte
	// Close releases the view.
	Close() error
}

// Source opens files as views.
type Source interface {
	Open(path string) (View, error)
}

// WithView opens path through src, runs fn over the file bytes and releases
// the view when fn returns.
func WithView(src Source, path string, fn func(b []byte) error) error {
	v, err := src.Open(path)
	if err != nil {
		return err
	}
	defer v.Close()
	return fn(v.Bytes())
}

// BytesView wraps an in-memory buffer.
type BytesView []byte

func (b BytesView) Bytes() []byte { return b }
func (b BytesView) Close() error  { return nil }

// FileSource reads the whole file into memory.
type FileSource struct{}

func (FileSource) Open(path string) (View, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return BytesView(data), nil
}

// MmapSource memory-maps files where the platform allows it and falls back
// to reading them into memory otherwise.
type MmapSource struct{}

func (MmapSource) Open(path string) (View, error) {
	return mapFile(path)
}

// NewSource returns the default source, honouring the mmap preference.
func NewSource(useMmap bool) Source {
	if useMmap {
		return MmapSource{}
	}
	return FileSource{}
}
