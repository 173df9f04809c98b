//go:build linux || darwin

package pointfile

import (
	"os"

	"golang.org/x/sys/unix"
)

const mmapSupported = true

func mmap(f *os.File, size int, prefault bool) ([]byte, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, err
	}

	// Points are decoded front to back. Advice is only a hint, failures
	// are ignored.
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)
	if prefault {
		_ = unix.Madvise(data, unix.MADV_WILLNEED)
	}
	return data, nil
}

func munmap(data []byte) error {
	return unix.Munmap(data)
}
