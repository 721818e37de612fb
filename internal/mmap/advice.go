package mmap

import "errors"

// Advice tells the kernel how a cached mapping is going to be read.
type Advice uint8

const (
	// AdviceNormal leaves readahead to the kernel.
	AdviceNormal Advice = iota
	// AdviceRandom disables readahead; the default for cached blobs, which are
	// read at scattered offsets.
	AdviceRandom
	// AdviceSequential favors aggressive readahead for full scans.
	AdviceSequential
)

func (a Advice) String() string {
	switch a {
	case AdviceRandom:
		return "random"
	case AdviceSequential:
		return "sequential"
	default:
		return "normal"
	}
}

var (
	// ErrClosed is returned by reads on an unmapped Mapping.
	ErrClosed = errors.New("mmap: mapping closed")
	// ErrInvalidSize is returned for files that do not fit the address space.
	ErrInvalidSize = errors.New("mmap: file too large to map")
	// ErrInvalidOffset is returned for negative read offsets.
	ErrInvalidOffset = errors.New("mmap: negative offset")
)
