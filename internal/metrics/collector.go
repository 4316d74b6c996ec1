// Package metrics exposes tiered cache statistics as Prometheus
// metrics. This package is internal and should not be imported by
// external projects.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/BaSui01/agentcache/cache"
)

// StatsSource is anything that can snapshot cache counters; the
// tiered cache facade satisfies it.
type StatsSource interface {
	Stats() cache.Stats
	Namespace() string
}

// Collector turns facade stat snapshots into Prometheus counters,
// labeled by cache namespace. Register one Collector per facade.
type Collector struct {
	source StatsSource

	hits       *prometheus.Desc
	misses     *prometheus.Desc
	evictions  *prometheus.Desc
	promotions *prometheus.Desc
}

// NewCollector creates a Collector over the given source.
func NewCollector(source StatsSource) *Collector {
	labels := []string{"namespace", "tier"}
	return &Collector{
		source: source,
		hits: prometheus.NewDesc(
			"agentcache_hits_total",
			"Total cache hits per tier",
			labels, nil,
		),
		misses: prometheus.NewDesc(
			"agentcache_misses_total",
			"Total cache misses per tier",
			labels, nil,
		),
		evictions: prometheus.NewDesc(
			"agentcache_evictions_total",
			"Total L1 evictions (capacity and TTL)",
			[]string{"namespace"}, nil,
		),
		promotions: prometheus.NewDesc(
			"agentcache_promotions_total",
			"Total promotions from a slower tier",
			[]string{"namespace"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.evictions
	ch <- c.promotions
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	stats := c.source.Stats()
	ns := c.source.Namespace()

	counter := func(desc *prometheus.Desc, v uint64, labels ...string) prometheus.Metric {
		m, err := prometheus.NewConstMetric(desc, prometheus.CounterValue, float64(v), labels...)
		if err != nil {
			return prometheus.NewInvalidMetric(desc, err)
		}
		return m
	}

	ch <- counter(c.hits, stats.L1Hits, ns, "l1")
	ch <- counter(c.hits, stats.L2Hits, ns, "l2")
	ch <- counter(c.hits, stats.L3Hits, ns, "l3")
	ch <- counter(c.misses, stats.L1Misses, ns, "l1")
	ch <- counter(c.misses, stats.L2Misses, ns, "l2")
	ch <- counter(c.misses, stats.L3Misses, ns, "l3")
	ch <- counter(c.evictions, stats.Evictions, ns)
	ch <- counter(c.promotions, stats.Promotions, ns)
}

var _ prometheus.Collector = (*Collector)(nil)
