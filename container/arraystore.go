package container

import (
	"github.com/pkg/errors"
)

// ArrayStore keeps its elements in one contiguous buffer and preserves
// insertion order. The zero value is an empty store using GrowExact and a
// HeapAllocator.
//
// With GrowExact the buffer holds exactly Size() elements and is nil iff
// the store is empty. Any iterator created before an Add or Close is
// invalidated. Not safe for concurrent use.
type ArrayStore[T any] struct {
	buf        []T // len(buf) is the allocated capacity
	size       int
	growth     Growth
	alloc      Allocator[T]
	generation uint64
}

func NewArrayStore[T any](options *StoreOptions[T]) *ArrayStore[T] {
	return &ArrayStore[T]{
		growth: options.growth(),
		alloc:  options.allocator(),
	}
}

func (s *ArrayStore[T]) allocator() Allocator[T] {
	if s.alloc == nil {
		s.alloc = HeapAllocator[T]{}
	}
	return s.alloc
}

func (s *ArrayStore[T]) nextCapacity() int {
	if s.growth == GrowDoubling && s.size > 0 {
		return 2 * s.size
	}
	return s.size + 1
}

func (s *ArrayStore[T]) Add(item T) error {
	if s.size == len(s.buf) {
		n := s.nextCapacity()
		next, err := s.allocator().AllocBuffer(n)
		if err != nil {
			return errors.Wrapf(err, "array store: grow to %d", n)
		}
		copy(next, s.buf[:s.size])
		if s.buf != nil {
			s.alloc.FreeBuffer(s.buf)
		}
		s.buf = next
	}

	s.buf[s.size] = item
	s.size++
	s.generation++
	return nil
}

func (s *ArrayStore[T]) Size() int {
	return s.size
}

// Capacity returns the number of allocated slots.
func (s *ArrayStore[T]) Capacity() int {
	return len(s.buf)
}

func (s *ArrayStore[T]) Get(index int) (T, error) {
	if index < 0 || index >= s.size {
		var zero T
		return zero, errors.Wrapf(ErrIndexOutOfRange, "get %d (size %d)", index, s.size)
	}
	return s.buf[index], nil
}

// GetMut returns a pointer to the element at index for in-place updates.
// It does not change the layout, so live iterators stay valid and observe
// the new value. The pointer is only valid until the next Add or Close.
func (s *ArrayStore[T]) GetMut(index int) (*T, error) {
	if index < 0 || index >= s.size {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "get %d (size %d)", index, s.size)
	}
	return &s.buf[index], nil
}

// Set replaces the element at index, see GetMut.
func (s *ArrayStore[T]) Set(index int, item T) error {
	p, err := s.GetMut(index)
	if err != nil {
		return err
	}
	*p = item
	return nil
}

// Close releases the buffer. The store is empty and reusable afterwards.
func (s *ArrayStore[T]) Close() {
	if s.buf != nil {
		s.allocator().FreeBuffer(s.buf)
	}
	s.buf = nil
	s.size = 0
	s.generation++
}

func (s *ArrayStore[T]) CreateIterator() Iterator[T] {
	return &ArrayIterator[T]{
		store:      s,
		buf:        s.buf,
		size:       s.size,
		generation: s.generation,
	}
}

// ArrayIterator walks an ArrayStore in insertion order.
type ArrayIterator[T any] struct {
	store      *ArrayStore[T]
	buf        []T
	size       int
	index      int
	generation uint64
}

func (it *ArrayIterator[T]) stale() bool {
	return it.generation != it.store.generation
}

func (it *ArrayIterator[T]) HasNext() bool {
	return !it.stale() && it.index < it.size
}

func (it *ArrayIterator[T]) Current() (T, error) {
	var zero T
	if it.stale() {
		return zero, it.Err()
	}
	if it.index >= it.size {
		return zero, errors.Wrapf(ErrIteratorExhausted, "array iterator at %d", it.index)
	}
	return it.buf[it.index], nil
}

func (it *ArrayIterator[T]) Advance() error {
	if it.stale() {
		return it.Err()
	}
	if it.index >= it.size {
		return errors.Wrapf(ErrIteratorExhausted, "array iterator at %d", it.index)
	}
	it.index++
	return nil
}

func (it *ArrayIterator[T]) Err() error {
	if it.stale() {
		return errors.Wrapf(ErrIteratorInvalidated, "array store generation %d, iterator generation %d", it.store.generation, it.generation)
	}
	return nil
}

var _ Iterable[int] = (*ArrayStore[int])(nil)
