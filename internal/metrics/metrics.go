package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Dispatch stages.
const (
	StageCrawl    = "crawl"
	StageEvaluate = "evaluate"
	StageScore    = "score"
	StageProcess  = "process"
)

// Recorder holds the dispatch metrics on its own registry so several engines
// (and tests) never collide on the global one. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	registry *prometheus.Registry

	dispatchTotal    *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
}

// NewRecorder creates a Recorder with its metrics registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		dispatchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "searchcore",
				Name:      "dispatch_total",
				Help:      "Total number of adapter dispatches",
			},
			[]string{"stage", "type_tag", "status"},
		),
		dispatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "searchcore",
				Name:      "dispatch_duration_seconds",
				Help:      "Adapter dispatch duration in seconds",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"stage", "type_tag"},
		),
	}
	r.registry.MustRegister(r.dispatchTotal, r.dispatchDuration)
	return r
}

// Registry exposes the underlying registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveDispatch records one dispatch to the adapter typeTag in stage.
func (r *Recorder) ObserveDispatch(stage, typeTag string, took time.Duration, err error) {
	if r == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.dispatchTotal.WithLabelValues(stage, typeTag, status).Inc()
	r.dispatchDuration.WithLabelValues(stage, typeTag).Observe(took.Seconds())
}

// DispatchCount returns the counter for one label combination.
func (r *Recorder) DispatchCount(stage, typeTag, status string) prometheus.Counter {
	return r.dispatchTotal.WithLabelValues(stage, typeTag, status)
}
