package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PromRecorder exports pipeline observations as Prometheus metrics.
type PromRecorder struct {
	fetches       *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	viewRows      *prometheus.GaugeVec
	viewTotal     *prometheus.GaugeVec
	resolutions   *prometheus.CounterVec
}

// NewPromRecorder registers the pipeline metrics on reg and returns a
// recorder writing to them. Registering twice on the same registerer
// panics, as usual for prometheus collectors.
func NewPromRecorder(reg prometheus.Registerer) *PromRecorder {
	factory := promauto.With(reg)
	return &PromRecorder{
		fetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stockview_fetches_total",
			Help: "Collaborator page fetches by resource and outcome",
		}, []string{"resource", "outcome"}),
		fetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stockview_fetch_duration_seconds",
			Help:    "Collaborator fetch latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"resource"}),
		viewRows: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stockview_view_rows",
			Help: "Rows in the most recently composed window",
		}, []string{"resource"}),
		viewTotal: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stockview_view_total_filtered",
			Help: "Records remaining after filtering in the current view",
		}, []string{"resource"}),
		resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stockview_resolutions_total",
			Help: "Enrichment lookups by resource and outcome",
		}, []string{"resource", "outcome"}),
	}
}

func (p *PromRecorder) ObserveFetch(resource string, success bool, elapsed time.Duration) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	p.fetches.WithLabelValues(resource, outcome).Inc()
	p.fetchDuration.WithLabelValues(resource).Observe(elapsed.Seconds())
}

func (p *PromRecorder) ObserveCompose(resource string, rows, total int) {
	p.viewRows.WithLabelValues(resource).Set(float64(rows))
	p.viewTotal.WithLabelValues(resource).Set(float64(total))
}

func (p *PromRecorder) ObserveResolution(resource, outcome string) {
	p.resolutions.WithLabelValues(resource, outcome).Inc()
}
