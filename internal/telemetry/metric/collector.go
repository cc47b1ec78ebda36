package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Stats is a point-in-time view of database contents.
type Stats struct {
	Keys        int
	Subscribers int
}

// StatsFunc returns the current database statistics.
type StatsFunc func() Stats

// Collector reports key and subscriber counts at scrape time.
type Collector struct {
	stats       StatsFunc
	keys        *prometheus.Desc
	subscribers *prometheus.Desc
}

// NewCollector creates a collector backed by fn.
func NewCollector(fn StatsFunc) *Collector {
	return &Collector{
		stats: fn,
		keys: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "keys"),
			"Number of keys stored.",
			nil, nil,
		),
		subscribers: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "subscribers"),
			"Number of registered subscriptions across all keys.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keys
	ch <- c.subscribers
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	st := c.stats()
	ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(st.Keys))
	ch <- prometheus.MustNewConstMetric(c.subscribers, prometheus.GaugeValue, float64(st.Subscribers))
}
