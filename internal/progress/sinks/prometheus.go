package sinks

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jfalgout/examdump/internal/progress"
)

// PrometheusSink exports scrape progress via Prometheus. It owns the
// collectors for run lifecycle and per-fetch outcomes.
type PrometheusSink struct {
	runsStarted   prometheus.Counter
	runsCompleted *prometheus.CounterVec
	fetchesTotal  *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	itemsPending  prometheus.Gauge
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "examdump_runs_started_total",
			Help: "Total scrape runs that have started.",
		}),
		runsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "examdump_runs_completed_total",
			Help: "Total scrape runs completed partitioned by result.",
		}, []string{"result"}),
		fetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "examdump_fetches_total",
			Help: "Question page fetch completions partitioned by result.",
		}, []string{"result"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "examdump_fetch_duration_seconds",
			Help:    "Wall time per question page fetch.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 45, 90},
		}),
		itemsPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "examdump_items_pending",
			Help: "Dispatched items that have not yet produced a record.",
		}),
	}
	for _, collector := range []prometheus.Collector{
		s.runsStarted,
		s.runsCompleted,
		s.fetchesTotal,
		s.fetchDuration,
		s.itemsPending,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the collectors from the batch. Safe for concurrent use.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.consumeEvent(evt)
	}
	return nil
}

func (s *PrometheusSink) consumeEvent(evt progress.Event) {
	switch evt.Stage {
	case progress.StageRunStart:
		s.runsStarted.Inc()
	case progress.StageRunDone:
		s.runsCompleted.WithLabelValues("success").Inc()
	case progress.StageRunError:
		s.runsCompleted.WithLabelValues("error").Inc()
	case progress.StageFetchDone:
		result := "ok"
		if evt.Failed {
			result = "failed"
		}
		s.fetchesTotal.WithLabelValues(result).Inc()
		if evt.Dur > 0 {
			s.fetchDuration.Observe(evt.Dur.Seconds())
		}
		s.itemsPending.Set(float64(evt.Total - evt.Completed))
	}
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}
