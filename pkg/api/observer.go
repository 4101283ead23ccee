package api

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Observer receives callbacks from the invoker for logging and metrics.
//
// Implementations should be fast and non-blocking; heavy work should be
// done asynchronously so as not to delay invocation.
type Observer interface {
	// OnInvokeStart is called once per group targeted by an Invoke call,
	// before the first action of that group runs.
	OnInvokeStart(ctx context.Context, group string)

	// OnInvokeCompleted is called after the group's actions have run.
	// err is the error that aborted the group, if any.
	OnInvokeCompleted(ctx context.Context, group string, err error)

	// OnActionStart is called before each underlying call of a main
	// action. A foreach-wrapped action reports one start per bracket
	// cycle.
	OnActionStart(ctx context.Context, group string, id ActionID, name string)

	// OnActionCompleted is called after each underlying call, for both
	// successes and failures (err != nil). result is the value the call
	// produced, nil on failure or completion.
	OnActionCompleted(ctx context.Context, group string, id ActionID, name string, result any, err error, duration time.Duration)

	// OnActionDropped is called when an exhausted resumable action is
	// unlinked from a group.
	OnActionDropped(ctx context.Context, group string, id ActionID, name string)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnInvokeStart(ctx context.Context, group string)                {}
func (NoopObserver) OnInvokeCompleted(ctx context.Context, group string, err error) {}
func (NoopObserver) OnActionStart(ctx context.Context, group string, id ActionID, name string) {
}
func (NoopObserver) OnActionCompleted(ctx context.Context, group string, id ActionID, name string, result any, err error, d time.Duration) {
}
func (NoopObserver) OnActionDropped(ctx context.Context, group string, id ActionID, name string) {
}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnInvokeStart(ctx context.Context, group string) {
	for _, o := range c.observers {
		o.OnInvokeStart(ctx, group)
	}
}

func (c *CompositeObserver) OnInvokeCompleted(ctx context.Context, group string, err error) {
	for _, o := range c.observers {
		o.OnInvokeCompleted(ctx, group, err)
	}
}

func (c *CompositeObserver) OnActionStart(ctx context.Context, group string, id ActionID, name string) {
	for _, o := range c.observers {
		o.OnActionStart(ctx, group, id, name)
	}
}

func (c *CompositeObserver) OnActionCompleted(ctx context.Context, group string, id ActionID, name string, result any, err error, d time.Duration) {
	for _, o := range c.observers {
		o.OnActionCompleted(ctx, group, id, name, result, err, d)
	}
}

func (c *CompositeObserver) OnActionDropped(ctx context.Context, group string, id ActionID, name string) {
	for _, o := range c.observers {
		o.OnActionDropped(ctx, group, id, name)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs invocation lifecycle
// events using the provided slog.Logger. If logger is nil, slog.Default()
// is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnInvokeStart(ctx context.Context, group string) {
	o.Logger.DebugContext(ctx, "invoke_start",
		slog.String("group", group),
	)
}

func (o *LoggingObserver) OnInvokeCompleted(ctx context.Context, group string, err error) {
	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelError
	}
	o.Logger.Log(ctx, level, "invoke_completed",
		slog.String("group", group),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnActionStart(ctx context.Context, group string, id ActionID, name string) {
	o.Logger.DebugContext(ctx, "action_start",
		slog.String("group", group),
		slog.Int64("action_id", int64(id)),
		slog.String("action", name),
	)
}

func (o *LoggingObserver) OnActionCompleted(ctx context.Context, group string, id ActionID, name string, result any, err error, d time.Duration) {
	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelError
	}
	o.Logger.Log(ctx, level, "action_completed",
		slog.String("group", group),
		slog.Int64("action_id", int64(id)),
		slog.String("action", name),
		slog.Duration("duration", d),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnActionDropped(ctx context.Context, group string, id ActionID, name string) {
	o.Logger.DebugContext(ctx, "action_dropped",
		slog.String("group", group),
		slog.Int64("action_id", int64(id)),
		slog.String("action", name),
	)
}

// BasicMetrics collects simple counters and aggregate call durations.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	invocations       atomic.Int64
	invocationsFailed atomic.Int64
	actionCalls       atomic.Int64
	actionErrors      atomic.Int64
	actionsDropped    atomic.Int64
	totalCallDuration atomic.Int64 // nanoseconds
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	Invocations       int64
	InvocationsFailed int64

	ActionCalls     int64
	ActionErrors    int64
	ActionsDropped  int64
	AvgCallDuration time.Duration
}

func (m *BasicMetrics) OnInvokeStart(ctx context.Context, group string) {
	m.invocations.Add(1)
}

func (m *BasicMetrics) OnInvokeCompleted(ctx context.Context, group string, err error) {
	if err != nil {
		m.invocationsFailed.Add(1)
	}
}

func (m *BasicMetrics) OnActionCompleted(ctx context.Context, group string, id ActionID, name string, result any, err error, d time.Duration) {
	if err != nil {
		m.actionErrors.Add(1)
		return
	}
	// Only successful calls count toward the average duration.
	m.actionCalls.Add(1)
	m.totalCallDuration.Add(d.Nanoseconds())
}

func (m *BasicMetrics) OnActionDropped(ctx context.Context, group string, id ActionID, name string) {
	m.actionsDropped.Add(1)
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	calls := m.actionCalls.Load()
	totalNs := m.totalCallDuration.Load()

	var avg time.Duration
	if calls > 0 {
		avg = time.Duration(totalNs / calls)
	}

	return BasicMetricsSnapshot{
		Invocations:       m.invocations.Load(),
		InvocationsFailed: m.invocationsFailed.Load(),
		ActionCalls:       calls,
		ActionErrors:      m.actionErrors.Load(),
		ActionsDropped:    m.actionsDropped.Load(),
		AvgCallDuration:   avg,
	}
}
