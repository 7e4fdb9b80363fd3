package registry

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/fulldump/collections/pool"
	"github.com/fulldump/collections/utils"
)

const (
	StatusOpening   = "opening"
	StatusOperating = "operating"
	StatusClosing   = "closing"
)

var ErrClosed = errors.New("registry is closed")

type Config struct {
	Logger  log.Logger
	Metrics *pool.Metrics // optional
}

// destroyer is the type-erased view of a *pool.ObjectPool[T].
type destroyer interface {
	ID() string
	DestroyAll() error
	Stats() pool.Stats
}

// Registry owns one object pool per element type, so independent call
// sites asking for the same type share instances.
type Registry struct {
	config *Config
	logger log.Logger

	mu     sync.Mutex
	status string
	pools  map[string]destroyer
}

func New(config *Config) *Registry {
	if config == nil {
		config = &Config{}
	}
	logger := config.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Registry{
		config: config,
		logger: logger,
		status: StatusOpening,
		pools:  map[string]destroyer{},
	}
}

func (r *Registry) GetStatus() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Registry) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status == StatusOpening {
		r.status = StatusOperating
	}
}

// For returns the pool of T, creating it with options on first use. Options
// are ignored when the pool already exists.
func For[T any](r *Registry, options ...pool.Option[T]) (*pool.ObjectPool[T], error) {
	name := reflect.TypeFor[T]().String()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status == StatusClosing {
		return nil, fmt.Errorf("pool for %s: %w", name, ErrClosed)
	}

	if existing, exists := r.pools[name]; exists {
		p, ok := existing.(*pool.ObjectPool[T])
		if !ok {
			return nil, fmt.Errorf("pool for %s: name already used by another type", name)
		}
		return p, nil
	}

	defaults := []pool.Option[T]{
		pool.WithLogger[T](log.With(r.logger, "type", name)),
	}
	if r.config.Metrics != nil {
		defaults = append(defaults, pool.WithMetrics[T](r.config.Metrics, name))
	}
	p := pool.New(append(defaults, options...)...)
	r.pools[name] = p

	level.Debug(r.logger).Log("msg", "pool created", "type", name, "pool", p.ID())

	return p, nil
}

// Names returns the element types with a pool, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return utils.GetKeys(r.pools)
}

func (r *Registry) Stats() map[string]pool.Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := make(map[string]pool.Stats, len(r.pools))
	for name, p := range r.pools {
		stats[name] = p.Stats()
	}
	return stats
}

// Stop destroys every pool. The returned error joins the stale instance
// reports of all pools that still had borrowed instances.
func (r *Registry) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status = StatusClosing

	var errs []error
	for _, name := range utils.GetKeys(r.pools) {
		err := r.pools[name].DestroyAll()
		if err != nil {
			level.Warn(r.logger).Log("msg", "pool closed with instances in use", "type", name, "err", err)
			errs = append(errs, err)
		}
	}
	r.pools = map[string]destroyer{}

	return errors.Join(errs...)
}
