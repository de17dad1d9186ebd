package metrics

import (
	"time"

	"github.com/chenglch/xcat3client/pkg/contrib"
	bolt "github.com/coreos/bbolt"
	"github.com/prometheus/client_golang/prometheus"
)

/**
 * Collectors describing bulk operations. The client is short lived, the
 * values are exported by writing a node_exporter textfile at the end of an
 * operation.
 */

// Batch results used as label values
const (
	BatchCompleted = "completed"
	BatchFailed    = "failed"
	BatchInDoubt   = "in_doubt"
)

var (
	batchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "xcat3_batches_total",
		Help: "Number of dispatched batches by operation and result",
	}, []string{"operation", "result"})

	batchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "xcat3_batch_duration_seconds",
		Help:    "Round trip duration of one batch request",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 16),
	}, []string{"operation"})

	nodesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "xcat3_nodes_total",
		Help: "Node outcomes reported by the service",
	}, []string{"operation", "result"})

	lastOperation = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "xcat3_last_operation_timestamp_seconds",
		Help: "Unix time of the last finished bulk operation",
	}, []string{"operation"})

	journalFreePageN = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "xcat3_journal_free_page_n",
		Help: "total number of free pages on the journal freelist",
	})
	journalFreeAlloc = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "xcat3_journal_freelist_alloc",
		Help: "total bytes allocated in free journal pages",
	})
	journalTxN = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "xcat3_journal_transactions",
		Help: "total number of started journal read transactions",
	})
)

func init() {
	prometheus.MustRegister(batchesTotal)
	prometheus.MustRegister(batchDuration)
	prometheus.MustRegister(nodesTotal)
	prometheus.MustRegister(lastOperation)

	prometheus.MustRegister(journalFreePageN)
	prometheus.MustRegister(journalFreeAlloc)
	prometheus.MustRegister(journalTxN)
}

// ObserveBatch records the result of one batch
func ObserveBatch(op contrib.Operation, result string, elapsed time.Duration) {
	batchesTotal.WithLabelValues(op.String(), result).Inc()
	if result != BatchInDoubt {
		batchDuration.WithLabelValues(op.String()).Observe(elapsed.Seconds())
	}
}

// ObserveNodes records the node tally of a finished operation
func ObserveNodes(op contrib.Operation, success, total int) {
	nodesTotal.WithLabelValues(op.String(), "success").Add(float64(success))
	nodesTotal.WithLabelValues(op.String(), "failure").Add(float64(total - success))
	lastOperation.WithLabelValues(op.String()).SetToCurrentTime()
}

// ReportBoltStats uses an instance of bolt stats and export these to prometheus
func ReportBoltStats(stats *bolt.Stats) {
	journalFreePageN.Set(float64(stats.FreePageN))
	journalFreeAlloc.Set(float64(stats.FreeAlloc))
	journalTxN.Set(float64(stats.TxN))
}

// WriteTextfile writes all registered metrics to path in the Prometheus
// text format, suitable for the node_exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
