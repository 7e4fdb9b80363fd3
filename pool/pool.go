// Package pool reuses constructed instances instead of allocating new ones.
package pool

import (
	"fmt"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const slotsPerChunk = 64

type slot[T any] struct {
	inUse    bool
	gen      uint64 // stamp of the handle currently holding the slot
	instance T
}

// chunks never move once allocated, so pointers into them stay valid while
// the arena grows.
type chunk[T any] [slotsPerChunk]slot[T]

// ObjectPool hands out reusable instances of T. Acquire reuses the first
// free slot and only constructs a new instance when every slot is in use.
//
// All methods are safe for concurrent use: one mutex guards the slot scan,
// the in-use marks and the arena growth. The instances themselves are not
// synchronised; a handle holder owns its instance until Release.
type ObjectPool[T any] struct {
	id      string
	factory func() T
	reset   func(*T)
	limit   int
	logger  log.Logger
	metrics *poolMetrics

	mu      sync.Mutex
	chunks  []*chunk[T]
	slots   int
	inUse   int
	nextGen uint64
	stats   Stats
}

// Handle is the caller's claim on one pooled instance. The zero Handle is
// not valid.
type Handle[T any] struct {
	pool  *ObjectPool[T]
	index int
	gen   uint64
}

type Stats struct {
	Slots     int    // instances constructed and owned by the pool
	InUse     int    // slots currently handed out
	Allocated uint64 // Acquire calls served by a new slot
	Reused    uint64 // Acquire calls served by a free slot
	Released  uint64 // successful Release calls
}

type Option[T any] func(p *ObjectPool[T])

// WithFactory sets how new instances are built. By default they are the
// zero value of T.
func WithFactory[T any](factory func() T) Option[T] {
	return func(p *ObjectPool[T]) {
		p.factory = factory
	}
}

// WithReset sets a hook run on an instance when it is released.
func WithReset[T any](reset func(*T)) Option[T] {
	return func(p *ObjectPool[T]) {
		p.reset = reset
	}
}

// WithLimit caps the number of slots. Zero means unlimited.
func WithLimit[T any](limit int) Option[T] {
	return func(p *ObjectPool[T]) {
		p.limit = limit
	}
}

func WithLogger[T any](logger log.Logger) Option[T] {
	return func(p *ObjectPool[T]) {
		p.logger = logger
	}
}

func New[T any](options ...Option[T]) *ObjectPool[T] {
	p := &ObjectPool[T]{
		id: uuid.NewString(),
		factory: func() T {
			var zero T
			return zero
		},
		logger: log.NewNopLogger(),
	}
	for _, option := range options {
		option(p)
	}
	p.logger = log.With(p.logger, "pool", p.id)
	return p
}

func (p *ObjectPool[T]) ID() string {
	return p.id
}

func (p *ObjectPool[T]) slot(index int) *slot[T] {
	return &p.chunks[index/slotsPerChunk][index%slotsPerChunk]
}

// Acquire returns a handle to a free instance, constructing one when no
// slot is free. It only fails with ErrOutOfMemory when the pool has a limit
// and every slot is in use.
func (p *ObjectPool[T]) Acquire() (Handle[T], error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	index := -1
	for i := 0; i < p.slots; i++ {
		if !p.slot(i).inUse {
			index = i
			break
		}
	}

	reused := index >= 0
	if !reused {
		if p.limit > 0 && p.slots >= p.limit {
			return Handle[T]{}, errors.Wrapf(ErrOutOfMemory, "pool %s: limit of %d slots reached", p.id, p.limit)
		}
		if p.slots == len(p.chunks)*slotsPerChunk {
			p.chunks = append(p.chunks, &chunk[T]{})
		}
		index = p.slots
		p.slots++
		p.slot(index).instance = p.factory()
		p.stats.Allocated++
	} else {
		p.stats.Reused++
	}

	p.nextGen++
	s := p.slot(index)
	s.inUse = true
	s.gen = p.nextGen
	p.inUse++

	p.metrics.acquired(reused, p.inUse)

	return Handle[T]{pool: p, index: index, gen: s.gen}, nil
}

// holder returns the slot h refers to while h still owns it.
func (p *ObjectPool[T]) holder(h Handle[T]) (*slot[T], bool) {
	if h.index < 0 || h.index >= p.slots {
		return nil, false
	}
	s := p.slot(h.index)
	if !s.inUse || s.gen != h.gen {
		return nil, false
	}
	return s, true
}

// Release gives the instance behind h back to the pool.
func (p *ObjectPool[T]) Release(h Handle[T]) error {
	if h.pool != p {
		p.metrics.releaseFailed()
		return errors.Wrapf(ErrForeignHandle, "pool %s: release slot %d", p.id, h.index)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.holder(h)
	if !ok {
		p.metrics.releaseFailed()
		return errors.Wrapf(ErrDoubleRelease, "pool %s: release slot %d", p.id, h.index)
	}

	if p.reset != nil {
		p.reset(&s.instance)
	}
	s.inUse = false
	p.inUse--
	p.stats.Released++

	p.metrics.released(p.inUse)

	return nil
}

// DestroyAll drops every instance. Outstanding handles become invalid. If
// some slots were still in use the returned error is a
// *StaleInstancesError listing them; it is also logged as a warning. The
// pool is empty and usable afterwards.
func (p *ObjectPool[T]) DestroyAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	stale := []int{}
	for i := 0; i < p.slots; i++ {
		s := p.slot(i)
		if s.inUse {
			stale = append(stale, i)
		}
		*s = slot[T]{}
	}
	destroyed := p.slots
	p.chunks = nil
	p.slots = 0
	p.inUse = 0

	p.metrics.destroyed()

	if len(stale) > 0 {
		err := &StaleInstancesError{PoolID: p.id, Slots: stale}
		level.Warn(p.logger).Log("msg", "destroying pool with instances still in use", "destroyed", destroyed, "stale", len(stale), "slots", fmt.Sprint(stale))
		return err
	}

	level.Debug(p.logger).Log("msg", "pool destroyed", "destroyed", destroyed)
	return nil
}

func (p *ObjectPool[T]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := p.stats
	stats.Slots = p.slots
	stats.InUse = p.inUse
	return stats
}

// Value returns the instance held by h. The pointer must not be used after
// h is released.
func (h Handle[T]) Value() (*T, error) {
	if h.pool == nil {
		return nil, errors.Wrap(ErrUseAfterRelease, "zero handle")
	}

	h.pool.mu.Lock()
	defer h.pool.mu.Unlock()

	s, ok := h.pool.holder(h)
	if !ok {
		return nil, errors.Wrapf(ErrUseAfterRelease, "pool %s: slot %d", h.pool.id, h.index)
	}
	return &s.instance, nil
}

// Slot identifies the pool slot behind h.
func (h Handle[T]) Slot() int {
	return h.index
}
