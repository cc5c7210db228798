package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments pipeline runs. All collectors are registered with the
// supplied registerer; pass prometheus.DefaultRegisterer for the usual
// process-wide registry.
type Metrics struct {
	runs           *prometheus.CounterVec
	renderSeconds  prometheus.Histogram
	llmSeconds     *prometheus.HistogramVec
	turnsPersisted prometheus.Counter
}

// NewMetrics creates and registers the pipeline collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "promptmesh",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Pipeline executions by pattern and outcome.",
		}, []string{"pattern", "status"}),
		renderSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "promptmesh",
			Subsystem: "pipeline",
			Name:      "render_duration_seconds",
			Help:      "Template render latency including macro handler I/O.",
			Buckets:   prometheus.DefBuckets,
		}),
		llmSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "promptmesh",
			Subsystem: "pipeline",
			Name:      "llm_duration_seconds",
			Help:      "Provider completion latency.",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"model"}),
		turnsPersisted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "promptmesh",
			Subsystem: "pipeline",
			Name:      "turns_persisted_total",
			Help:      "Conversation turns committed to the store.",
		}),
	}
}

func (m *Metrics) observeRun(patternName string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.runs.WithLabelValues(patternName, status).Inc()
}

func (m *Metrics) observeRender(d time.Duration) {
	if m == nil {
		return
	}
	m.renderSeconds.Observe(d.Seconds())
}

func (m *Metrics) observeLLM(model string, d time.Duration) {
	if m == nil {
		return
	}
	m.llmSeconds.WithLabelValues(model).Observe(d.Seconds())
}

func (m *Metrics) addTurns(n int) {
	if m == nil {
		return
	}
	m.turnsPersisted.Add(float64(n))
}
