package database

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// poolStatsCollector samples pgx pool statistics on every Prometheus scrape.
type poolStatsCollector struct {
	pool *pgxpool.Pool

	acquired *prometheus.Desc
	idle     *prometheus.Desc
	total    *prometheus.Desc
	maxConns *prometheus.Desc
}

// RegisterPoolMetrics registers a collector exposing pgx pool statistics
// under the given service label.
func RegisterPoolMetrics(pool *pgxpool.Pool, service string) {
	prometheus.DefaultRegisterer.MustRegister(NewPoolStatsCollector(pool, service))
}

// NewPoolStatsCollector builds the pool statistics collector. Stats are
// sampled lazily on every scrape, so registration is cheap and idempotent
// per registry.
func NewPoolStatsCollector(pool *pgxpool.Pool, service string) prometheus.Collector {
	labels := prometheus.Labels{"service": service}
	return &poolStatsCollector{
		pool: pool,
		acquired: prometheus.NewDesc(
			"pgx_pool_acquired_conns",
			"Number of currently acquired connections in the pool",
			nil, labels,
		),
		idle: prometheus.NewDesc(
			"pgx_pool_idle_conns",
			"Number of currently idle connections in the pool",
			nil, labels,
		),
		total: prometheus.NewDesc(
			"pgx_pool_total_conns",
			"Total number of connections in the pool",
			nil, labels,
		),
		maxConns: prometheus.NewDesc(
			"pgx_pool_max_conns",
			"Maximum size of the pool",
			nil, labels,
		),
	}
}

func (c *poolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquired
	ch <- c.idle
	ch <- c.total
	ch <- c.maxConns
}

func (c *poolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	stat := c.pool.Stat()
	ch <- prometheus.MustNewConstMetric(c.acquired, prometheus.GaugeValue, float64(stat.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(stat.IdleConns()))
	ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(stat.TotalConns()))
	ch <- prometheus.MustNewConstMetric(c.maxConns, prometheus.GaugeValue, float64(stat.MaxConns()))
}
