package metric

import "github.com/prometheus/client_golang/prometheus"

// Counter reports the current number of stored items.
type Counter interface {
	Count() int
}

// RecordCollector exposes the record store size, read at scrape time.
type RecordCollector struct {
	store Counter
	desc  *prometheus.Desc
}

// NewRecordCollector creates a collector reading from store.
func NewRecordCollector(store Counter) *RecordCollector {
	return &RecordCollector{
		store: store,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "", "records"),
			"Number of records currently held in memory",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *RecordCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *RecordCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(c.store.Count()))
}
