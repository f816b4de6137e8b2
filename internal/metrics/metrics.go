package metrics

import (
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yourorg/vms-release-bot/internal/releases"
)

// Fetch results used as the "result" label
const (
	ResultOK        = "ok"
	ResultTransport = "transport"
	ResultStatus    = "status"
	ResultParse     = "parse"
	ResultEmpty     = "empty"
)

// Metrics holds the bot's prometheus collectors
type Metrics struct {
	registry      *prometheus.Registry
	feedFetches   *prometheus.CounterVec
	feedDuration  *prometheus.HistogramVec
	announcements *prometheus.CounterVec
	lastCheck     prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		feedFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vms_release_feed_fetches_total",
				Help: "Release feed fetches by product and result.",
			},
			[]string{"product", "result"},
		),
		feedDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vms_release_feed_fetch_duration_seconds",
				Help:    "Time spent fetching and decoding a release feed.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"product"},
		),
		announcements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vms_release_announcements_total",
				Help: "Releases announced to Telegram chats.",
			},
			[]string{"product", "publication_type"},
		),
		lastCheck: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "vms_release_last_check_timestamp_seconds",
				Help: "Unix time of the last completed release check.",
			},
		),
	}

	m.registry.MustRegister(m.feedFetches, m.feedDuration, m.announcements, m.lastCheck)
	return m
}

// Result maps a feed client error to a result label
func Result(err error) string {
	var statusErr *releases.StatusError
	switch {
	case err == nil:
		return ResultOK
	case errors.As(err, &statusErr):
		return ResultStatus
	case errors.Is(err, releases.ErrMalformedFeed):
		return ResultParse
	case errors.Is(err, releases.ErrNoReleases):
		return ResultEmpty
	default:
		return ResultTransport
	}
}

// ObserveFetch records one feed fetch
func (m *Metrics) ObserveFetch(product string, took time.Duration, err error) {
	m.feedFetches.WithLabelValues(product, Result(err)).Inc()
	m.feedDuration.WithLabelValues(product).Observe(took.Seconds())
}

// ObserveAnnouncement records one announced release
func (m *Metrics) ObserveAnnouncement(product, publicationType string) {
	m.announcements.WithLabelValues(product, publicationType).Inc()
}

// ObserveCheck records the completion time of a release check
func (m *Metrics) ObserveCheck(at time.Time) {
	m.lastCheck.Set(float64(at.Unix()))
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
