package api

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects remote api call statistics.
type Metrics struct {
	duration *prometheus.HistogramVec
}

// NewMetrics registers the api collectors on reg (the default registerer when nil).
// Collectors that are already registered are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bizadmin_remote_api_request_duration_seconds",
		Help:    "Duration of calls to the remote platform by method and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})

	if err := reg.Register(duration); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}

		existing, ok := already.ExistingCollector.(*prometheus.HistogramVec)
		if !ok {
			return nil, err
		}

		duration = existing
	}

	return &Metrics{duration: duration}, nil
}

func (m *Metrics) observe(method, status string, d time.Duration) {
	if m == nil {
		return
	}

	m.duration.WithLabelValues(method, status).Observe(d.Seconds())
}
