package pool

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors shared by every pool registered
// against the same registerer. Each pool reports under its own "pool" label.
type Metrics struct {
	acquires      *prometheus.CounterVec
	releases      *prometheus.CounterVec
	releaseErrors *prometheus.CounterVec
	inUse         *prometheus.GaugeVec
	slots         *prometheus.GaugeVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		acquires: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "collections_pool_acquires_total",
			Help: "Total number of acquired instances, by whether a free slot was reused or a new one allocated.",
		}, []string{"pool", "result"}),
		releases: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "collections_pool_releases_total",
			Help: "Total number of instances given back to the pool.",
		}, []string{"pool"}),
		releaseErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "collections_pool_release_errors_total",
			Help: "Total number of rejected releases (double release or foreign handle).",
		}, []string{"pool"}),
		inUse: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "collections_pool_in_use",
			Help: "Number of instances currently handed out.",
		}, []string{"pool"}),
		slots: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "collections_pool_slots",
			Help: "Number of instances owned by the pool.",
		}, []string{"pool"}),
	}
}

// WithMetrics reports the pool activity under the given pool label.
func WithMetrics[T any](m *Metrics, name string) Option[T] {
	return func(p *ObjectPool[T]) {
		p.metrics = &poolMetrics{
			reused:        m.acquires.WithLabelValues(name, "reused"),
			allocated:     m.acquires.WithLabelValues(name, "allocated"),
			releases:      m.releases.WithLabelValues(name),
			releaseErrors: m.releaseErrors.WithLabelValues(name),
			inUse:         m.inUse.WithLabelValues(name),
			slots:         m.slots.WithLabelValues(name),
		}
	}
}

// poolMetrics is nil when the pool has no metrics attached.
type poolMetrics struct {
	reused        prometheus.Counter
	allocated     prometheus.Counter
	releases      prometheus.Counter
	releaseErrors prometheus.Counter
	inUse         prometheus.Gauge
	slots         prometheus.Gauge
}

func (m *poolMetrics) acquired(reused bool, inUse int) {
	if m == nil {
		return
	}
	if reused {
		m.reused.Inc()
	} else {
		m.allocated.Inc()
		m.slots.Inc()
	}
	m.inUse.Set(float64(inUse))
}

func (m *poolMetrics) released(inUse int) {
	if m == nil {
		return
	}
	m.releases.Inc()
	m.inUse.Set(float64(inUse))
}

func (m *poolMetrics) releaseFailed() {
	if m == nil {
		return
	}
	m.releaseErrors.Inc()
}

func (m *poolMetrics) destroyed() {
	if m == nil {
		return
	}
	m.inUse.Set(0)
	m.slots.Set(0)
}
