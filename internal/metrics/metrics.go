package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const namespace = "library"

// StatsFunc reports the current number of books and authors.
type StatsFunc func(ctx context.Context) (books, authors int64, err error)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	AuthorsCreated        prometheus.Counter
	BooksCreated          prometheus.Counter
	BooksDeleted          prometheus.Counter
	AuthorsCascadeDeleted prometheus.Counter
	WriteFailures         *prometheus.CounterVec
	RequestDuration       *prometheus.HistogramVec
}

// New registers the collectors on reg. When stats is non-nil, catalog
// size gauges are computed from it at scrape time.
func New(reg prometheus.Registerer, stats StatsFunc, log *zap.Logger) *Metrics {
	m := &Metrics{
		AuthorsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authors_created_total",
			Help:      "Authors added through the add-author form.",
		}),
		BooksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "books_created_total",
			Help:      "Books added through the add-book form.",
		}),
		BooksDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "books_deleted_total",
			Help:      "Books deleted.",
		}),
		AuthorsCascadeDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authors_cascade_deleted_total",
			Help:      "Authors removed because their last book was deleted.",
		}),
		WriteFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "write_failures_total",
			Help:      "Failed write operations by operation.",
		}, []string{"operation"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method, route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		m.AuthorsCreated,
		m.BooksCreated,
		m.BooksDeleted,
		m.AuthorsCascadeDeleted,
		m.WriteFailures,
		m.RequestDuration,
	)

	if stats != nil {
		reg.MustRegister(newCatalogCollector(stats, log))
	}

	return m
}

// catalogCollector exposes the catalog size, queried per scrape.
type catalogCollector struct {
	stats   StatsFunc
	log     *zap.Logger
	books   *prometheus.Desc
	authors *prometheus.Desc
}

func newCatalogCollector(stats StatsFunc, log *zap.Logger) *catalogCollector {
	return &catalogCollector{
		stats:   stats,
		log:     log,
		books:   prometheus.NewDesc(namespace+"_books", "Books currently in the catalog.", nil, nil),
		authors: prometheus.NewDesc(namespace+"_authors", "Authors currently in the catalog.", nil, nil),
	}
}

func (c *catalogCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.books
	ch <- c.authors
}

func (c *catalogCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	books, authors, err := c.stats(ctx)
	if err != nil {
		c.log.Warn("Failed to collect catalog stats", zap.Error(err))
		return
	}
	ch <- prometheus.MustNewConstMetric(c.books, prometheus.GaugeValue, float64(books))
	ch <- prometheus.MustNewConstMetric(c.authors, prometheus.GaugeValue, float64(authors))
}
