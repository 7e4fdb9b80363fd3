package container

import (
	"cmp"

	"github.com/google/btree"
	"github.com/pkg/errors"
)

const sortedStoreDegree = 32

type sortedItem[T any] struct {
	value T
	seq   uint64
}

// SortedStore keeps its elements ordered by less in a B-tree. Equal
// elements are all kept, in insertion order. Not safe for concurrent use.
type SortedStore[T any] struct {
	tree       *btree.BTreeG[sortedItem[T]]
	seq        uint64
	generation uint64
}

func NewSortedStore[T any](less func(a, b T) bool) *SortedStore[T] {
	return &SortedStore[T]{
		tree: btree.NewG(sortedStoreDegree, func(a, b sortedItem[T]) bool {
			if less(a.value, b.value) {
				return true
			}
			if less(b.value, a.value) {
				return false
			}
			return a.seq < b.seq
		}),
	}
}

// NewOrderedStore sorts by the natural order of T.
func NewOrderedStore[T cmp.Ordered]() *SortedStore[T] {
	return NewSortedStore(cmp.Less[T])
}

func (s *SortedStore[T]) Add(item T) error {
	s.seq++
	s.tree.ReplaceOrInsert(sortedItem[T]{value: item, seq: s.seq})
	s.generation++
	return nil
}

func (s *SortedStore[T]) Size() int {
	return s.tree.Len()
}

func (s *SortedStore[T]) Min() (T, bool) {
	item, ok := s.tree.Min()
	return item.value, ok
}

func (s *SortedStore[T]) Max() (T, bool) {
	item, ok := s.tree.Max()
	return item.value, ok
}

// Close drops every element. The store is empty and reusable afterwards.
func (s *SortedStore[T]) Close() {
	s.tree.Clear(false)
	s.generation++
}

func (s *SortedStore[T]) CreateIterator() Iterator[T] {
	first, ok := s.tree.Min()
	return &SortedIterator[T]{
		store:      s,
		current:    first,
		ok:         ok,
		generation: s.generation,
	}
}

// SortedIterator walks a SortedStore in ascending order. Each Advance is a
// O(log n) seek from the current element.
type SortedIterator[T any] struct {
	store      *SortedStore[T]
	current    sortedItem[T]
	ok         bool
	generation uint64
}

func (it *SortedIterator[T]) stale() bool {
	return it.generation != it.store.generation
}

func (it *SortedIterator[T]) HasNext() bool {
	return !it.stale() && it.ok
}

func (it *SortedIterator[T]) Current() (T, error) {
	var zero T
	if it.stale() {
		return zero, it.Err()
	}
	if !it.ok {
		return zero, errors.Wrap(ErrIteratorExhausted, "sorted iterator")
	}
	return it.current.value, nil
}

func (it *SortedIterator[T]) Advance() error {
	if it.stale() {
		return it.Err()
	}
	if !it.ok {
		return errors.Wrap(ErrIteratorExhausted, "sorted iterator")
	}

	found := false
	it.store.tree.AscendGreaterOrEqual(it.current, func(item sortedItem[T]) bool {
		if item.seq == it.current.seq {
			return true // the pivot itself
		}
		it.current = item
		found = true
		return false
	})
	if !found {
		var zero sortedItem[T]
		it.current = zero
	}
	it.ok = found
	return nil
}

func (it *SortedIterator[T]) Err() error {
	if it.stale() {
		return errors.Wrapf(ErrIteratorInvalidated, "sorted store generation %d, iterator generation %d", it.store.generation, it.generation)
	}
	return nil
}

var _ Iterable[int] = (*SortedStore[int])(nil)
