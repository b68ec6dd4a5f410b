package util

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	poolRents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gotis_pool_rents_total",
			Help: "Total number of buffers rented from the memory pool by element kind.",
		},
		[]string{"kind"},
	)
	poolReleases = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gotis_pool_releases_total",
			Help: "Total number of buffers returned to the memory pool by element kind.",
		},
		[]string{"kind"},
	)
	poolOutstanding = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gotis_pool_outstanding",
			Help: "Number of rented buffers not yet released, by element kind.",
		},
		[]string{"kind"},
	)
)

// Collectors returns the memory pool metrics for registration by the
// embedding program.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{poolRents, poolReleases, poolOutstanding}
}
