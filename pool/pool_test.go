package pool

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fulldump/biff"
	"github.com/go-kit/log"
	"github.com/pkg/errors"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type Missile struct {
	Serial   int
	Launched bool
}

func TestObjectPool(t *testing.T) {

	biff.Alternative("ObjectPool", func(a *biff.A) {

		serial := 0
		p := New(WithFactory(func() *Missile {
			serial++
			return &Missile{Serial: serial}
		}))

		a.Alternative("acquire from empty pool allocates", func(a *biff.A) {
			h, err := p.Acquire()
			biff.AssertNil(err)
			m, err := h.Value()
			biff.AssertNil(err)
			biff.AssertEqual((*m).Serial, 1)
			biff.AssertEqual(p.Stats(), Stats{Slots: 1, InUse: 1, Allocated: 1})
		})

		a.Alternative("acquire a, acquire b, release a, acquire c", func(a *biff.A) {
			ha, _ := p.Acquire()
			hb, _ := p.Acquire()

			ma, _ := ha.Value()
			mb, _ := hb.Value()
			instanceA := *ma
			biff.AssertTrue(*ma != *mb)

			biff.AssertNil(p.Release(ha))

			hc, err := p.Acquire()
			biff.AssertNil(err)
			mc, _ := hc.Value()
			biff.AssertTrue(*mc == instanceA)
			biff.AssertEqual(hc.Slot(), ha.Slot())
			biff.AssertEqual(p.Stats(), Stats{Slots: 2, InUse: 2, Allocated: 2, Reused: 1, Released: 1})

			a.Alternative("old handle no longer owns the slot", func(a *biff.A) {
				_, err := ha.Value()
				biff.AssertTrue(errors.Is(err, ErrUseAfterRelease))

				err = p.Release(ha)
				biff.AssertTrue(errors.Is(err, ErrDoubleRelease))

				// hc is untouched
				_, err = hc.Value()
				biff.AssertNil(err)
			})
		})

		a.Alternative("first free slot is reused", func(a *biff.A) {
			h0, _ := p.Acquire()
			h1, _ := p.Acquire()
			h2, _ := p.Acquire()
			p.Release(h2)
			p.Release(h0)

			h, _ := p.Acquire()
			biff.AssertEqual(h.Slot(), 0)
			h, _ = p.Acquire()
			biff.AssertEqual(h.Slot(), 2)
			h, _ = p.Acquire()
			biff.AssertEqual(h.Slot(), 3)

			biff.AssertEqual(h1.Slot(), 1)
		})

		a.Alternative("double release", func(a *biff.A) {
			h, _ := p.Acquire()
			biff.AssertNil(p.Release(h))

			err := p.Release(h)
			biff.AssertTrue(errors.Is(err, ErrDoubleRelease))
			biff.AssertEqual(p.Stats().Released, uint64(1))
		})

		a.Alternative("foreign handle", func(a *biff.A) {
			other := New[*Missile]()
			h, _ := other.Acquire()

			err := p.Release(h)
			biff.AssertTrue(errors.Is(err, ErrForeignHandle))

			err = p.Release(Handle[*Missile]{})
			biff.AssertTrue(errors.Is(err, ErrForeignHandle))
		})

		a.Alternative("zero handle", func(a *biff.A) {
			_, err := Handle[*Missile]{}.Value()
			biff.AssertTrue(errors.Is(err, ErrUseAfterRelease))
		})

		a.Alternative("destroy all", func(a *biff.A) {
			h0, _ := p.Acquire()
			h1, _ := p.Acquire()
			h2, _ := p.Acquire()

			a.Alternative("clean", func(a *biff.A) {
				p.Release(h0)
				p.Release(h1)
				p.Release(h2)

				biff.AssertNil(p.DestroyAll())
				biff.AssertEqual(p.Stats().Slots, 0)
			})

			a.Alternative("with instances still in use", func(a *biff.A) {
				p.Release(h1)

				err := p.DestroyAll()
				biff.AssertTrue(errors.Is(err, ErrStaleInstances))

				stale := &StaleInstancesError{}
				biff.AssertTrue(errors.As(err, &stale))
				biff.AssertEqual(stale.Slots, []int{0, 2})
				biff.AssertEqual(stale.PoolID, p.ID())

				// handles from before the teardown are dead
				_, err = h0.Value()
				biff.AssertTrue(errors.Is(err, ErrUseAfterRelease))
				err = p.Release(h2)
				biff.AssertTrue(errors.Is(err, ErrDoubleRelease))

				// the pool starts over
				h, err := p.Acquire()
				biff.AssertNil(err)
				biff.AssertEqual(h.Slot(), 0)
				m, _ := h.Value()
				biff.AssertEqual((*m).Serial, 4)

				_, err = h0.Value()
				biff.AssertTrue(errors.Is(err, ErrUseAfterRelease))
			})
		})
	})
}

func TestObjectPool_ZeroValueFactory(t *testing.T) {
	p := New[Missile]()

	h, err := p.Acquire()
	biff.AssertNil(err)

	m, _ := h.Value()
	biff.AssertEqual(*m, Missile{})

	// the pointer addresses the pooled instance itself
	m.Launched = true
	again, _ := h.Value()
	biff.AssertTrue(again.Launched)
}

func TestObjectPool_Reset(t *testing.T) {
	p := New(WithReset(func(m *Missile) {
		m.Launched = false
	}))

	h, _ := p.Acquire()
	m, _ := h.Value()
	m.Serial = 7
	m.Launched = true
	p.Release(h)

	h, _ = p.Acquire()
	m, _ = h.Value()
	biff.AssertEqual(*m, Missile{Serial: 7})
}

func TestObjectPool_Limit(t *testing.T) {
	p := New(WithLimit[Missile](2))

	h0, err := p.Acquire()
	biff.AssertNil(err)
	_, err = p.Acquire()
	biff.AssertNil(err)

	_, err = p.Acquire()
	biff.AssertTrue(errors.Is(err, ErrOutOfMemory))

	p.Release(h0)
	h, err := p.Acquire()
	biff.AssertNil(err)
	biff.AssertEqual(h.Slot(), 0)
}

func TestObjectPool_StableAcrossGrowth(t *testing.T) {
	p := New[Missile]()

	first, _ := p.Acquire()
	m, _ := first.Value()
	m.Serial = 42

	for i := 0; i < 10*slotsPerChunk; i++ {
		p.Acquire()
	}

	m.Launched = true
	again, _ := first.Value()
	biff.AssertTrue(m == again)
	biff.AssertEqual(*again, Missile{Serial: 42, Launched: true})
	biff.AssertEqual(p.Stats().Slots, 10*slotsPerChunk+1)
}

func TestObjectPool_DestroyAllLogsStale(t *testing.T) {
	buf := &bytes.Buffer{}
	p := New(WithLogger[Missile](log.NewLogfmtLogger(buf)))

	p.Acquire()
	p.Acquire()

	err := p.DestroyAll()
	biff.AssertTrue(errors.Is(err, ErrStaleInstances))

	line := buf.String()
	biff.AssertTrue(strings.Contains(line, "level=warn"))
	biff.AssertTrue(strings.Contains(line, "stale=2"))
	biff.AssertTrue(strings.Contains(line, "pool="+p.ID()))
}

func TestObjectPool_Concurrency(t *testing.T) {
	p := New[Missile]()

	const workers = 32
	const rounds = 500

	g := errgroup.Group{}
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := 0; i < rounds; i++ {
				h, err := p.Acquire()
				if err != nil {
					return err
				}
				m, err := h.Value()
				if err != nil {
					return err
				}
				if m.Launched {
					return errors.Errorf("slot %d handed out twice", h.Slot())
				}
				m.Launched = true
				m.Serial++
				m.Launched = false
				if err := p.Release(h); err != nil {
					return err
				}
			}
			return nil
		})
	}
	biff.AssertNil(g.Wait())

	stats := p.Stats()
	biff.AssertEqual(stats.InUse, 0)
	biff.AssertTrue(stats.Slots <= workers)
	biff.AssertEqual(stats.Allocated+stats.Reused, uint64(workers*rounds))
	biff.AssertEqual(stats.Released, uint64(workers*rounds))
	biff.AssertNil(p.DestroyAll())
}
