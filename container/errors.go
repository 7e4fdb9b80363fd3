package container

import (
	"github.com/pkg/errors"
)

var (
	// ErrOutOfMemory is returned when an allocator cannot provide the memory
	// a store needs to grow. The store is left untouched.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrIndexOutOfRange is returned by indexed access outside [0, Size()).
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrIteratorInvalidated is returned by an iterator whose container was
	// mutated (Add, Close) after the iterator was created.
	ErrIteratorInvalidated = errors.New("iterator invalidated")

	// ErrIteratorExhausted is returned by Current and Advance once HasNext
	// has turned false.
	ErrIteratorExhausted = errors.New("iterator exhausted")
)
