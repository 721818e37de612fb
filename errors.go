package filecache

import (
	"errors"
	"fmt"
)

var (
	// ErrNotManaged is returned by Release for a resource the cache does not hold.
	ErrNotManaged = errors.New("resource not under cache management")

	// ErrCanceled is returned by Acquire when the context was canceled while
	// the factory opened the resource. The freshly opened resource is closed.
	ErrCanceled = errors.New("acquire canceled")

	// ErrInvalidKey is returned when a cache key cannot be used as a map key.
	ErrInvalidKey = errors.New("cache key is not comparable")

	// ErrNotComparable is returned when a factory produced a resource whose
	// dynamic type cannot be used as a map key.
	ErrNotComparable = errors.New("resource is not comparable")

	// ErrDuplicateResource is returned when a factory returned a resource that
	// is already registered under the cache.
	ErrDuplicateResource = errors.New("resource already registered")
)

// ErrInvalidConfig indicates a configuration that violates the cache limits
// ordering or contains negative values.
type ErrInvalidConfig struct {
	Field  string
	Reason string
}

func (e *ErrInvalidConfig) Error() string {
	return fmt.Sprintf("invalid config: %s %s", e.Field, e.Reason)
}

// ErrOpen wraps a factory failure with the key and location being opened.
//
// The original factory error can be accessed via errors.Unwrap.
type ErrOpen struct {
	Key      any
	Location string
	cause    error
}

func (e *ErrOpen) Error() string {
	return fmt.Sprintf("open %q (key %v): %v", e.Location, e.Key, e.cause)
}

func (e *ErrOpen) Unwrap() error { return e.cause }

func canceledError(location string, cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrCanceled, location, cause)
}
