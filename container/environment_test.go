package container

import (
	"fmt"
)

// countingAllocator records every allocation and free so tests can check
// that stores release memory exactly once.
type countingAllocator[T any] struct {
	HeapAllocator[T]

	bufferAllocs int
	bufferFrees  int
	nodeAllocs   int
	nodeFrees    int
	freedNodes   map[*Node[T]]int
}

func newCountingAllocator[T any]() *countingAllocator[T] {
	return &countingAllocator[T]{
		freedNodes: map[*Node[T]]int{},
	}
}

func (a *countingAllocator[T]) AllocBuffer(n int) ([]T, error) {
	a.bufferAllocs++
	return a.HeapAllocator.AllocBuffer(n)
}

func (a *countingAllocator[T]) FreeBuffer(buf []T) {
	a.bufferFrees++
	a.HeapAllocator.FreeBuffer(buf)
}

func (a *countingAllocator[T]) AllocNode() (*Node[T], error) {
	a.nodeAllocs++
	return a.HeapAllocator.AllocNode()
}

func (a *countingAllocator[T]) FreeNode(node *Node[T]) {
	a.nodeFrees++
	a.freedNodes[node]++
	a.HeapAllocator.FreeNode(node)
}

func (a *countingAllocator[T]) doubleFrees() (n int) {
	for _, frees := range a.freedNodes {
		if frees > 1 {
			n++
		}
	}
	return
}

// Backends builds one empty store per backend, keyed by a human name.
func Backends() map[string]Iterable[int] {
	return map[string]Iterable[int]{
		"array":          NewArrayStore[int](nil),
		"array-doubling": NewArrayStore(&StoreOptions[int]{Growth: GrowDoubling}),
		"list":           NewListStore[int](nil),
		"sorted":         NewOrderedStore[int](),
	}
}

func fill(c Container[int], items ...int) {
	for _, item := range items {
		if err := c.Add(item); err != nil {
			panic(fmt.Sprintf("add %d: %s", item, err.Error()))
		}
	}
}
