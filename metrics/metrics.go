// Package metrics records what a single run saw. A run is short-lived, so the
// collectors are written once at exit as a node_exporter textfile instead of
// being scraped.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// to prevent metrics from being registered multiple times
	isMetricsInitVar uint32 = 0

	// Registry holds only this program's collectors; the textfile should not carry Go runtime metrics.
	Registry = prometheus.NewRegistry()

	// Number of messages returned by the mail source
	MessagesFetchedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mailtally_messages_fetched_total",
		Help: "The total number of messages fetched from the mail host",
	}, []string{"source", "folder"})

	// Number of messages dropped by ignore rules
	MessagesIgnoredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mailtally_messages_ignored_total",
		Help: "The total number of fetched messages dropped by ignore rules",
	})

	// Number of messages left out of the report because they had no sender
	MessagesSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mailtally_messages_skipped_total",
		Help: "The total number of messages without a sender address",
	})

	// Number of messages counted as read
	MessagesOpenedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mailtally_messages_opened_total",
		Help: "The total number of aggregated messages that were read",
	})

	// Number of distinct senders in the last report
	Senders = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mailtally_senders",
		Help: "Number of distinct senders in the last report",
	})

	// Latency of the fetch call
	FetchLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mailtally_fetch_latency_milliseconds",
		Help:    "Latency of fetching a batch from the mail host",
		Buckets: prometheus.ExponentialBuckets(50, 2, 10),
	})

	// Unix time of the last successful run
	LastSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mailtally_last_success_timestamp_seconds",
		Help: "Unix time of the last run that completed without error",
	})
)

func setIsMetricsInit() {
	atomic.StoreUint32(&isMetricsInitVar, 1)
}

func isMetricsInit() bool {
	return atomic.LoadUint32(&isMetricsInitVar) == 1
}

func InitMetrics() {
	if !isMetricsInit() {
		setIsMetricsInit()

		Registry.MustRegister(MessagesFetchedTotal)
		Registry.MustRegister(MessagesIgnoredTotal)
		Registry.MustRegister(MessagesSkippedTotal)
		Registry.MustRegister(MessagesOpenedTotal)
		Registry.MustRegister(Senders)
		Registry.MustRegister(FetchLatency)
		Registry.MustRegister(LastSuccess)
	}
}

// ObserveFetch records the duration since start.
func ObserveFetch(start time.Time) {
	FetchLatency.Observe(float64(time.Since(start).Milliseconds()))
}

// MarkSuccess stamps the last-success gauge with now.
func MarkSuccess(now time.Time) {
	LastSuccess.Set(float64(now.Unix()))
}

// WriteTextfile writes every registered collector to path atomically.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
