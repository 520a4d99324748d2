package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "water_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline.
type Metrics struct {
	MessagesConsumed prometheus.Counter
	MessagesProduced prometheus.Counter
	TransformErrors  *prometheus.CounterVec // labels: kind={parse,invalid_input,division_by_zero}
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Chemistry metrics.
	ResultsByBalance      *prometheus.CounterVec // labels: balance
	ImplausibleResults    *prometheus.CounterVec // labels: flag
	SulfateChlorineRatio  prometheus.Histogram
	ResidualAlkalinityMgL prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.MessagesConsumed,
		m.MessagesProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.ResultsByBalance,
		m.ImplausibleResults,
		m.SulfateChlorineRatio,
		m.ResidualAlkalinityMgL,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Total messages read from the source topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "Total messages written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Total transformation failures by error kind.",
		}, []string{"kind"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		ResultsByBalance: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_by_balance_total",
			Help:      "Transformed lab results by sulfate/chlorine balance label.",
		}, []string{"balance"}),
		ImplausibleResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "implausible_results_total",
			Help:      "Lab results carrying a plausibility flag, by flag.",
		}, []string{"flag"}),
		SulfateChlorineRatio: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sulfate_chlorine_ratio",
			Help:      "Distribution of computed sulfate/chlorine ratios.",
			Buckets:   []float64{0.4, 0.6, 0.8, 1.5, 2, 4, 6, 8, 9},
		}),
		ResidualAlkalinityMgL: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "residual_alkalinity_mg_per_liter",
			Help:      "Distribution of computed residual alkalinity.",
			Buckets:   []float64{-100, -50, 0, 25, 50, 100, 150, 200, 300},
		}),
	}
}
