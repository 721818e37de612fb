package filecache

import (
	"context"
	"reflect"
)

// Resource is an expensive-to-open handle managed by the cache.
//
// Implementations must have a comparable dynamic type (typically a pointer)
// because the cache indexes resources by identity.
type Resource interface {
	// Close releases the underlying handle.
	Close() error
	// Sync lets the resource detect external changes after sitting idle in
	// the pool. It is called on every cache hit.
	Sync() error
	// Location identifies the resource in logs and diagnostics.
	Location() string
}

// Factory opens resources on cache misses.
type Factory interface {
	Open(ctx context.Context, location string, params any) (Resource, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(ctx context.Context, location string, params any) (Resource, error)

// Open implements Factory.
func (f FactoryFunc) Open(ctx context.Context, location string, params any) (Resource, error) {
	return f(ctx, location, params)
}

func isComparable(v any) bool {
	return v != nil && reflect.TypeOf(v).Comparable()
}
