package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Retrieval pipeline metrics.
var (
	IndexDocuments = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "index_documents",
		Help:      "Documents held by the in-memory vector index",
	})

	IndexChunks = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "index_chunks",
		Help:      "Chunks held by the in-memory vector index",
	})

	SearchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "search_duration_seconds",
		Help:      "Linear-scan similarity search duration in seconds",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})

	IngestedDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingested_documents_total",
			Help:      "Documents ingested, labeled by whether extraction produced text",
		},
		[]string{"text"}, // "extracted" / "placeholder"
	)

	PnLPackagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pnl_packages_total",
			Help:      "P&L packages generated",
		},
		[]string{"status"}, // "figures" / "empty" / "error"
	)

	TreeBuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tree_builds_total",
			Help:      "Folder trees built, labeled by who organized them",
		},
		[]string{"source"}, // "model" / "metadata"
	)
)

var pipelineOnce sync.Once

// RegisterPipelineMetrics registers index, ingestion, P&L and tree metrics. Safe to call repeatedly.
func RegisterPipelineMetrics() {
	pipelineOnce.Do(func() {
		prometheus.MustRegister(
			IndexDocuments,
			IndexChunks,
			SearchDuration,
			IngestedDocumentsTotal,
			PnLPackagesTotal,
			TreeBuildsTotal,
		)
	})
}
