package container

import (
	"fmt"

	"github.com/pkg/errors"
)

// Allocator provides the buffers and nodes stores are built from. Free
// methods receive memory previously handed out by the same allocator,
// exactly once.
type Allocator[T any] interface {
	AllocBuffer(n int) ([]T, error)
	FreeBuffer(buf []T)
	AllocNode() (*Node[T], error)
	FreeNode(node *Node[T])
}

// HeapAllocator allocates from the Go heap. Freed memory is cleared so the
// garbage collector can reclaim whatever the elements reference.
type HeapAllocator[T any] struct{}

func (HeapAllocator[T]) AllocBuffer(n int) (buf []T, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf = nil
			err = errors.Wrapf(ErrOutOfMemory, "buffer of %d elements (%v)", n, r)
		}
	}()
	return make([]T, n), nil
}

func (HeapAllocator[T]) FreeBuffer(buf []T) {
	clear(buf)
}

func (HeapAllocator[T]) AllocNode() (*Node[T], error) {
	return &Node[T]{}, nil
}

func (HeapAllocator[T]) FreeNode(node *Node[T]) {
	var zero T
	node.Data = zero
	node.next = nil
}

// LimitAllocator caps the number of live elements (buffer slots plus nodes)
// handed out by Parent. While an ArrayStore grows, both the old and the new
// buffer are live. Not safe for concurrent use.
type LimitAllocator[T any] struct {
	Max    int
	Parent Allocator[T]

	live int
}

func NewLimitAllocator[T any](limit int) *LimitAllocator[T] {
	return &LimitAllocator[T]{
		Max:    limit,
		Parent: HeapAllocator[T]{},
	}
}

// Live returns how many elements are currently allocated.
func (a *LimitAllocator[T]) Live() int {
	return a.live
}

func (a *LimitAllocator[T]) AllocBuffer(n int) ([]T, error) {
	if a.live+n > a.Max {
		return nil, errors.Wrap(ErrOutOfMemory, a.exhausted(n))
	}
	buf, err := a.Parent.AllocBuffer(n)
	if err != nil {
		return nil, err
	}
	a.live += n
	return buf, nil
}

func (a *LimitAllocator[T]) FreeBuffer(buf []T) {
	a.live -= len(buf)
	a.Parent.FreeBuffer(buf)
}

func (a *LimitAllocator[T]) AllocNode() (*Node[T], error) {
	if a.live+1 > a.Max {
		return nil, errors.Wrap(ErrOutOfMemory, a.exhausted(1))
	}
	node, err := a.Parent.AllocNode()
	if err != nil {
		return nil, err
	}
	a.live++
	return node, nil
}

func (a *LimitAllocator[T]) FreeNode(node *Node[T]) {
	a.live--
	a.Parent.FreeNode(node)
}

func (a *LimitAllocator[T]) exhausted(n int) string {
	return fmt.Sprintf("limit %d reached (%d live, %d requested)", a.Max, a.live, n)
}
