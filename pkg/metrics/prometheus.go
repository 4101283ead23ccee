// Package metrics exports invocation metrics to Prometheus.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/okvist/invoker/pkg/api"
)

// PrometheusObserver is an api.Observer that records invocation counters
// and call durations in a Prometheus registry.
type PrometheusObserver struct {
	api.NoopObserver

	invocations  *prometheus.CounterVec
	actionCalls  *prometheus.CounterVec
	dropped      *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
}

// NewPrometheusObserver creates the observer and registers its collectors
// with reg. Use prometheus.DefaultRegisterer for the process-wide
// registry.
func NewPrometheusObserver(reg prometheus.Registerer) (*PrometheusObserver, error) {
	o := &PrometheusObserver{
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invoker_invocations_total",
				Help: "Total number of group invocations.",
			},
			[]string{"group", "outcome"},
		),
		actionCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invoker_action_calls_total",
				Help: "Total number of action calls.",
			},
			[]string{"group", "outcome"},
		),
		dropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invoker_actions_dropped_total",
				Help: "Total number of exhausted resumable actions unlinked from a group.",
			},
			[]string{"group"},
		),
		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "invoker_action_call_duration_seconds",
				Help: "Duration of individual action calls.",
			},
			[]string{"group"},
		),
	}

	for _, c := range []prometheus.Collector{o.invocations, o.actionCalls, o.dropped, o.callDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *PrometheusObserver) OnInvokeCompleted(ctx context.Context, group string, err error) {
	o.invocations.WithLabelValues(group, outcome(err)).Inc()
}

func (o *PrometheusObserver) OnActionCompleted(ctx context.Context, group string, id api.ActionID, name string, result any, err error, d time.Duration) {
	o.actionCalls.WithLabelValues(group, outcome(err)).Inc()
	o.callDuration.WithLabelValues(group).Observe(d.Seconds())
}

func (o *PrometheusObserver) OnActionDropped(ctx context.Context, group string, id api.ActionID, name string) {
	o.dropped.WithLabelValues(group).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
