package spanlog

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const prometheusNamespace = "spanlog"

// PrometheusBridge exposes a pipeline's diagnostic counters on a dedicated
// Prometheus registry, labeled with the pipeline's instance id so several
// pipelines in one process stay distinguishable.
type PrometheusBridge struct {
	registry *prometheus.Registry
}

// NewPrometheusBridge registers counter views over p's stats.
func NewPrometheusBridge(p *Pipeline) *PrometheusBridge {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"instance": p.instance}

	counter := func(name, help string, read func(Stats) int64) prometheus.CounterFunc {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   prometheusNamespace,
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, func() float64 {
			return float64(read(p.Stats()))
		})
	}

	reg.MustRegister(
		counter("records_emitted_total", "Records emitted by the application.",
			func(s Stats) int64 { return s.Emitted }),
		counter("records_dropped_filtered_total", "Records dropped by level gate or filter stages.",
			func(s Stats) int64 { return s.Filtered }),
		counter("records_dropped_overflow_total", "Records dropped or evicted at the export queue.",
			func(s Stats) int64 { return s.DroppedOverflow }),
		counter("records_dropped_export_total", "Records dropped after export retries were exhausted.",
			func(s Stats) int64 { return s.DroppedExport }),
		counter("export_batches_sent_total", "Batches successfully written to the sink.",
			func(s Stats) int64 { return s.BatchesSent }),
		counter("export_retries_total", "Sink write retries.",
			func(s Stats) int64 { return s.ExportRetries }),
	)

	return &PrometheusBridge{registry: reg}
}

// Registry returns the bridge's dedicated registry.
func (b *PrometheusBridge) Registry() *prometheus.Registry {
	return b.registry
}

// Handler exposes the registry for scraping.
func (b *PrometheusBridge) Handler() http.Handler {
	return promhttp.HandlerFor(b.registry, promhttp.HandlerOpts{})
}
