package permission

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts permission cache activity.
type Metrics struct {
	hits        prometheus.Counter
	misses      prometheus.Counter
	fetchErrors prometheus.Counter
}

// NewMetrics registers the cache counters on reg (the default registerer when nil).
// Counters that are already registered are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bizadmin_permission_cache_hits_total",
			Help: "Number of permission lookups served from the cache.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bizadmin_permission_cache_misses_total",
			Help: "Number of permission lookups that required a fetch.",
		}),
		fetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bizadmin_permission_fetch_errors_total",
			Help: "Number of failed permission fetches.",
		}),
	}

	for _, c := range []*prometheus.Counter{&m.hits, &m.misses, &m.fetchErrors} {
		if err := reg.Register(*c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return nil, err
			}

			existing, ok := already.ExistingCollector.(prometheus.Counter)
			if !ok {
				return nil, err
			}

			*c = existing
		}
	}

	return m, nil
}

func (m *Metrics) hit() {
	if m != nil {
		m.hits.Inc()
	}
}

func (m *Metrics) miss() {
	if m != nil {
		m.misses.Inc()
	}
}

func (m *Metrics) fetchError() {
	if m != nil {
		m.fetchErrors.Inc()
	}
}
