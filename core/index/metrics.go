package index

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	termCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gotis_term_cache_hits_total",
		Help: "Term dictionary lookups answered from the term info cache.",
	})
	termCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gotis_term_cache_misses_total",
		Help: "Term dictionary lookups not found in the term info cache.",
	})
	termSeeks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gotis_term_seeks_total",
		Help: "Term dictionary lookups that had to seek through the terms index.",
	})
	termBloomRejects = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gotis_term_bloom_rejects_total",
		Help: "Term dictionary lookups answered as absent by the bloom filter.",
	})
)

// Collectors returns the term dictionary metrics for registration by
// the embedding program.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{termCacheHits, termCacheMisses, termSeeks, termBloomRejects}
}
