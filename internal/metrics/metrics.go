// Package metrics exports lookup and reload instruments to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "urlinfo"

	checksTotalMetric       = "checks_total"
	checkDurationMetric     = "check_duration_seconds"
	storeFaultsTotalMetric  = "store_faults_total"
	reloadsTotalMetric      = "reloads_total"
	storeEntriesGaugeMetric = "store_entries"
	rateLimitedTotalMetric  = "rate_limited_total"
)

// Reload results used as the "result" label.
const (
	ReloadSuccess = "success"
	ReloadFailure = "failure"
)

func init() {
	prometheus.MustRegister(checksTotal)
	prometheus.MustRegister(checkDuration)
	prometheus.MustRegister(storeFaultsTotal)
	prometheus.MustRegister(reloadsTotal)
	prometheus.MustRegister(storeEntries)
	prometheus.MustRegister(rateLimitedTotal)
}

var (
	// checksTotal counts aggregated verdicts returned by the checker.
	// Labels:
	//   - status: safe, unsafe, unknown or invalid (rejected input)
	checksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      checksTotalMetric,
			Help:      "Total number of URL checks by resulting status",
		},
		[]string{"status"},
	)

	checkDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      checkDurationMetric,
			Help:      "Time spent answering a URL check across all stores",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
	)

	// storeFaultsTotal counts data-path faults converted into a verdict by a store policy.
	// Labels:
	//   - store: configured store name
	//   - kind: encoding, read or remote
	storeFaultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      storeFaultsTotalMetric,
			Help:      "Total number of lookup faults degraded to a verdict",
		},
		[]string{"store", "kind"},
	)

	reloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      reloadsTotalMetric,
			Help:      "Total number of file store reloads by result",
		},
		[]string{"store", "result"},
	)

	storeEntries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      storeEntriesGaugeMetric,
			Help:      "Number of entries in the active snapshot of a file store",
		},
		[]string{"store"},
	)

	rateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      rateLimitedTotalMetric,
			Help:      "Total number of lookups rejected by the per-client rate limiter",
		},
	)
)

// ObserveCheck records one aggregated check.
func ObserveCheck(status string, elapsed time.Duration) {
	checksTotal.WithLabelValues(status).Inc()
	checkDuration.Observe(elapsed.Seconds())
}

// RecordFault records a lookup fault handled by a store policy.
func RecordFault(store, kind string) {
	storeFaultsTotal.WithLabelValues(store, kind).Inc()
}

// RecordReload records a reload attempt and, on success, the new snapshot size.
func RecordReload(store, result string, entries int) {
	reloadsTotal.WithLabelValues(store, result).Inc()
	if result == ReloadSuccess {
		storeEntries.WithLabelValues(store).Set(float64(entries))
	}
}

// RecordRateLimited records a lookup rejected by the rate limiter.
func RecordRateLimited() {
	rateLimitedTotal.Inc()
}
