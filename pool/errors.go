package pool

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/fulldump/collections/container"
)

var (
	// ErrOutOfMemory is returned by Acquire when no slot is free and the
	// pool may not grow any further.
	ErrOutOfMemory = container.ErrOutOfMemory

	// ErrDoubleRelease is returned when a handle is released while its slot
	// is not handed out to it.
	ErrDoubleRelease = errors.New("double release")

	// ErrUseAfterRelease is returned when a released handle is dereferenced.
	ErrUseAfterRelease = errors.New("use after release")

	// ErrForeignHandle is returned when a handle is given to a pool that did
	// not create it.
	ErrForeignHandle = errors.New("handle belongs to another pool")

	// ErrStaleInstances matches the error DestroyAll returns when some
	// instances were still in use.
	ErrStaleInstances = errors.New("stale instances on teardown")
)

// StaleInstancesError lists the slots that were still in use when a pool
// was destroyed: some caller forgot to release what it borrowed.
type StaleInstancesError struct {
	PoolID string
	Slots  []int
}

func (e *StaleInstancesError) Error() string {
	return fmt.Sprintf("pool %s: %d instances still in use at teardown (slots %v)", e.PoolID, len(e.Slots), e.Slots)
}

func (e *StaleInstancesError) Is(target error) bool {
	return target == ErrStaleInstances
}
