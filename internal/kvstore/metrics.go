package kvstore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricNamePrefix = "rentacar_kvstore_"

type storeMetrics struct {
	commits   prometheus.Counter
	conflicts prometheus.Counter
}

func newStoreMetrics(registry prometheus.Registerer) *storeMetrics {
	promautoFactory := promauto.With(registry)
	return &storeMetrics{
		commits: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: metricNamePrefix + "commits_total",
			Help: "Total number of committed read-write transactions",
		}),
		conflicts: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: metricNamePrefix + "conflicts_total",
			Help: "Total number of transactions rejected with a write conflict",
		}),
	}
}

// nil receivers are no-ops so callers need no registry guards

func (m *storeMetrics) commit() {
	if m != nil {
		m.commits.Inc()
	}
}

func (m *storeMetrics) conflict() {
	if m != nil {
		m.conflicts.Inc()
	}
}
