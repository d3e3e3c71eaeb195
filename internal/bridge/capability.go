package bridge

import "errors"

// ErrUnavailable is returned when a host service was not provided.
var ErrUnavailable = errors.New("service unavailable")

// Capability is the outcome of negotiating a host-provided service: either
// Unavailable or Available with a usable handle.
type Capability[T any] struct {
	handle T
	ok     bool
}

// Available wraps a handle the host did provide.
func Available[T any](handle T) Capability[T] {
	return Capability[T]{handle: handle, ok: true}
}

// Unavailable reports that the host did not provide the service.
func Unavailable[T any]() Capability[T] {
	return Capability[T]{}
}

// Negotiate returns Available when handle is non-nil. It is a convenience
// for wiring optional interface values.
func Negotiate[T comparable](handle T) Capability[T] {
	var zero T
	if handle == zero {
		return Unavailable[T]()
	}
	return Available(handle)
}

func (c Capability[T]) Get() (T, bool) {
	return c.handle, c.ok
}

func (c Capability[T]) Available() bool {
	return c.ok
}
