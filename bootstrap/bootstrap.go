package bootstrap

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/fulldump/collections/configuration"
	"github.com/fulldump/collections/container"
	"github.com/fulldump/collections/pool"
	"github.com/fulldump/collections/registry"
)

var VERSION = "dev"

// Record is the demo element stored in containers.
type Record struct {
	N    int    `json:"n"`
	Name string `json:"name"`
}

// Missile is the demo pooled instance.
type Missile struct {
	Serial   string
	Launches int
}

type closer interface {
	Close()
}

// NewLogger returns a logfmt logger writing to w, filtered by levelName.
func NewLogger(w io.Writer, levelName string) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)

	var allow level.Option
	switch strings.ToLower(levelName) {
	case "debug":
		allow = level.AllowDebug()
	case "warn":
		allow = level.AllowWarn()
	case "error":
		allow = level.AllowError()
	default:
		allow = level.AllowInfo()
	}
	return level.NewFilter(logger, allow)
}

func newContainer(c *configuration.Configuration) (container.Iterable[Record], error) {
	options := &container.StoreOptions[Record]{}
	switch c.Growth {
	case "", "exact":
		options.Growth = container.GrowExact
	case "doubling":
		options.Growth = container.GrowDoubling
	default:
		return nil, fmt.Errorf("unknown growth policy '%s'", c.Growth)
	}

	switch c.Backend {
	case "array":
		return container.NewArrayStore(options), nil
	case "list":
		return container.NewListStore(options), nil
	case "sorted":
		return container.NewSortedStore(func(a, b Record) bool {
			return a.N < b.N
		}), nil
	}
	return nil, fmt.Errorf("unknown backend '%s'", c.Backend)
}

func parseFilter(s string) (map[string]any, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	filter := map[string]any{}
	err := json.Unmarshal([]byte(s), &filter)
	if err != nil {
		return nil, errors.Wrap(err, "parse filter")
	}
	return filter, nil
}

// Bootstrap prepares the demo described by c. start fills and prints the
// configured container to out, then runs the pool workload; stop releases
// the container and tears every pool down.
func Bootstrap(c *configuration.Configuration, out io.Writer, logger log.Logger) (start, stop func() error, err error) {

	store, err := newContainer(c)
	if err != nil {
		return nil, nil, err
	}

	filter, err := parseFilter(c.Filter)
	if err != nil {
		return nil, nil, err
	}

	gatherer := prometheus.NewRegistry()
	reg := registry.New(&registry.Config{
		Logger:  logger,
		Metrics: pool.NewMetrics(gatherer),
	})

	start = func() error {
		reg.Start()

		level.Info(logger).Log("msg", "filling container", "backend", c.Backend, "items", c.Items)
		for i := 1; i <= c.Items; i++ {
			err := store.Add(Record{N: i, Name: fmt.Sprintf("record-%d", i)})
			if err != nil {
				return errors.Wrapf(err, "add record %d", i)
			}
		}

		it := store.CreateIterator()
		if filter != nil {
			it = container.Where(it, filter)
		}
		err := container.Print(out, it)
		if err != nil {
			return errors.Wrap(err, "print container")
		}

		err = runPool(c, reg, logger)
		if err != nil {
			return err
		}

		return logMetrics(gatherer, logger)
	}

	stop = func() error {
		if s, ok := store.(closer); ok {
			s.Close()
		}
		return reg.Stop()
	}

	return start, stop, nil
}

func runPool(c *configuration.Configuration, reg *registry.Registry, logger log.Logger) error {

	missiles, err := registry.For(reg,
		pool.WithFactory(func() Missile {
			return Missile{Serial: uuid.NewString()}
		}),
		pool.WithLimit[Missile](c.PoolLimit),
	)
	if err != nil {
		return err
	}

	rejected := atomic.NewInt64(0)

	g := errgroup.Group{}
	for w := 0; w < c.Workers; w++ {
		g.Go(func() error {
			for i := 0; i < c.Rounds; i++ {
				h, err := missiles.Acquire()
				if errors.Is(err, pool.ErrOutOfMemory) {
					rejected.Inc()
					continue
				}
				if err != nil {
					return err
				}
				m, err := h.Value()
				if err != nil {
					return err
				}
				m.Launches++
				err = missiles.Release(h)
				if err != nil {
					return err
				}
			}
			return nil
		})
	}
	err = g.Wait()
	if err != nil {
		return errors.Wrap(err, "pool workload")
	}

	stats := missiles.Stats()
	level.Info(logger).Log(
		"msg", "pool workload done",
		"pool", missiles.ID(),
		"slots", stats.Slots,
		"allocated", stats.Allocated,
		"reused", stats.Reused,
		"released", stats.Released,
		"rejected", rejected.Load(),
	)

	return nil
}

// logMetrics logs every gathered family as one key, summed across labels.
func logMetrics(g prometheus.Gatherer, logger log.Logger) error {
	families, err := g.Gather()
	if err != nil {
		return errors.Wrap(err, "gather metrics")
	}

	keyvals := []any{"msg", "pool metrics"}
	for _, family := range families {
		total := 0.0
		for _, m := range family.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				total += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				total += m.GetGauge().GetValue()
			}
		}
		keyvals = append(keyvals, family.GetName(), total)
	}
	level.Info(logger).Log(keyvals...)

	return nil
}
