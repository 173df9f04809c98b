//go:build !linux && !darwin

package pointfile

import (
	"errors"
	"os"
)

const mmapSupported = false

func mmap(f *os.File, size int, prefault bool) ([]byte, error) {
	return nil, errors.New("mmap is not supported on this platform")
}

func munmap(data []byte) error {
	return nil
}
