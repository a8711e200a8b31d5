//go:build unix

package core

import (
	"fmt"
	"math"
	"os"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

type mmapView struct {
	data []byte
}

func (m *mmapView) Bytes() []byte { return m.data }

func (m *mmapView) Close() error {
	if m.data == nil {
		return nil
	}
	err := unix.Munmap(m.data)
	m.data = nil
	return err
}

func mapFile(path string) (View, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	size := fi.Size()
	if size == 0 {
		// zero-length mappings are rejected by the kernel
		return BytesView(nil), nil
	}
	if size > math.MaxInt {
		return nil, fmt.Errorf("file too large to map: %d bytes", size)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		log.Debug().Str("path", path).Err(err).Msg("mmap failed, reading file instead")
		return FileSource{}.Open(path)
	}
	return &mmapView{data: data}, nil
}
