package container

import (
	"github.com/pkg/errors"
)

// Node is one link of a ListStore chain.
type Node[T any] struct {
	Data T
	next *Node[T]
}

// Next returns the following node, nil at the end of the chain.
func (n *Node[T]) Next() *Node[T] {
	return n.next
}

// ListStore is a singly linked list. Add inserts at the head, so iteration
// yields elements in reverse insertion order. The zero value is an empty
// store using a HeapAllocator. Not safe for concurrent use.
type ListStore[T any] struct {
	head       *Node[T]
	size       int
	alloc      Allocator[T]
	generation uint64
}

func NewListStore[T any](options *StoreOptions[T]) *ListStore[T] {
	return &ListStore[T]{
		alloc: options.allocator(),
	}
}

func (s *ListStore[T]) allocator() Allocator[T] {
	if s.alloc == nil {
		s.alloc = HeapAllocator[T]{}
	}
	return s.alloc
}

func (s *ListStore[T]) Add(item T) error {
	node, err := s.allocator().AllocNode()
	if err != nil {
		return errors.Wrap(err, "list store: alloc node")
	}
	node.Data = item
	node.next = s.head
	s.head = node
	s.size++
	s.generation++
	return nil
}

func (s *ListStore[T]) Size() int {
	return s.size
}

// Head returns the most recently added node.
func (s *ListStore[T]) Head() *Node[T] {
	return s.head
}

// Close frees every node exactly once, walking the chain iteratively so
// arbitrarily long lists never grow the call stack.
func (s *ListStore[T]) Close() {
	alloc := s.allocator()
	node := s.head
	s.head = nil
	for node != nil {
		next := node.next
		node.next = nil
		alloc.FreeNode(node)
		node = next
	}
	s.size = 0
	s.generation++
}

func (s *ListStore[T]) CreateIterator() Iterator[T] {
	return &ListIterator[T]{
		store:      s,
		node:       s.head,
		generation: s.generation,
	}
}

// ListIterator walks a ListStore from head to tail.
type ListIterator[T any] struct {
	store      *ListStore[T]
	node       *Node[T]
	generation uint64
}

func (it *ListIterator[T]) stale() bool {
	return it.generation != it.store.generation
}

func (it *ListIterator[T]) HasNext() bool {
	return !it.stale() && it.node != nil
}

func (it *ListIterator[T]) Current() (T, error) {
	var zero T
	if it.stale() {
		return zero, it.Err()
	}
	if it.node == nil {
		return zero, errors.Wrap(ErrIteratorExhausted, "list iterator")
	}
	return it.node.Data, nil
}

func (it *ListIterator[T]) Advance() error {
	if it.stale() {
		return it.Err()
	}
	if it.node == nil {
		return errors.Wrap(ErrIteratorExhausted, "list iterator")
	}
	it.node = it.node.next
	return nil
}

func (it *ListIterator[T]) Err() error {
	if it.stale() {
		return errors.Wrapf(ErrIteratorInvalidated, "list store generation %d, iterator generation %d", it.store.generation, it.generation)
	}
	return nil
}

var _ Iterable[int] = (*ListStore[int])(nil)
