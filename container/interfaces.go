// Package container provides sequence stores sharing one Container and
// Iterator contract: ArrayStore (contiguous buffer), ListStore (singly
// linked, head insertion) and SortedStore (B-tree).
//
// Stores carry no synchronisation. Mutating one store from several
// goroutines, or iterating while another goroutine mutates it, is undefined;
// callers that share a store must hold one lock around the whole logical
// operation (the full fill, the full traversal), not around single calls.
package container

// Container is the storage-independent capability shared by every backend.
// Size always equals the number of successful Add calls since construction
// or since the last Close.
type Container[T any] interface {
	Add(item T) error
	Size() int
}

// Iterator is an external, single-pass cursor over a container.
//
// The canonical loop is:
//
//	for it.HasNext() {
//		item, err := it.Current()
//		...
//		err = it.Advance()
//	}
//	err := it.Err()
//
// HasNext has no side effects. Advance past the end fails with
// ErrIteratorExhausted. Every call fails with ErrIteratorInvalidated (and
// HasNext reports false) once the owning container has been mutated.
type Iterator[T any] interface {
	HasNext() bool
	Current() (T, error)
	Advance() error
	Err() error
}

// Iterable is a container able to hand out iterators over itself. Client
// code that only holds an Iterable never needs the concrete backend type.
type Iterable[T any] interface {
	Container[T]
	CreateIterator() Iterator[T]
}

// Growth selects how an ArrayStore enlarges its buffer.
type Growth int

const (
	// GrowExact reallocates to exactly size+1 on every Add, so the buffer
	// never has spare capacity. Each Add is O(n).
	GrowExact Growth = iota

	// GrowDoubling doubles the buffer when it is full (amortised O(1) Add).
	GrowDoubling
)

// StoreOptions configures ArrayStore and ListStore. A nil *StoreOptions
// selects GrowExact and a HeapAllocator.
type StoreOptions[T any] struct {
	Growth    Growth
	Allocator Allocator[T]
}

func (o *StoreOptions[T]) allocator() Allocator[T] {
	if o == nil || o.Allocator == nil {
		return HeapAllocator[T]{}
	}
	return o.Allocator
}

func (o *StoreOptions[T]) growth() Growth {
	if o == nil {
		return GrowExact
	}
	return o.Growth
}
