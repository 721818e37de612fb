//go:build unix

package mmap

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// mapReadOnly maps size bytes of f as a shared read-only view. The file may be
// closed as soon as this returns.
func mapReadOnly(f *os.File, size int) ([]byte, func() error, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, &os.PathError{Op: "mmap", Path: f.Name(), Err: err}
	}
	return data, func() error { return unix.Munmap(data) }, nil
}

func madvise(data []byte, a Advice) error {
	advice := unix.MADV_NORMAL
	switch a {
	case AdviceRandom:
		advice = unix.MADV_RANDOM
	case AdviceSequential:
		advice = unix.MADV_SEQUENTIAL
	}
	// EINVAL only means the kernel rejected the hint.
	if err := unix.Madvise(data, advice); err != nil && !errors.Is(err, unix.EINVAL) {
		return err
	}
	return nil
}
