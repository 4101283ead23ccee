// Package invoker provides a lightweight, embeddable action-invocation
// engine for Go.
//
// Invoker is designed for applications that assemble processing pipelines
// at runtime: plugin hosts, batch exporters, configurable task runners. It
// keeps named, ordered groups of actions and invokes each group on demand,
// fully synchronously, in registration order. It runs fully in Go and
// integrates cleanly into existing codebases.
//
// # Core Concepts
//
// The programming model is intentionally small:
//
//  1. Invoker
//  2. Action
//  3. Group
//  4. Foreach hook
//  5. Continuation
//
// # Invoker
//
// The Invoker stores registered actions, keyed by a process-unique
// ActionID, and provides APIs to:
//   - add actions to one or more groups
//   - invoke a group (or several, or all)
//   - remove, reorder and query actions
//   - introspect groups and their contents
//
// Invokers nest: an Invoker registered as an action invokes its matching
// groups when the parent group runs.
//
// # Action
//
// An action is the fundamental executable unit:
//
//	type ActionFunc func(ctx context.Context, call Call) (any, error)
//
// The Call carries positional arguments and keyword arguments captured at
// registration time; per-invocation arguments can be spliced in with
// invoke options. Actions run in list order, one at a time, on the
// caller's goroutine. The first error aborts the invocation.
//
// # Group
//
// A group is a named, ordered list of actions. The same action (same
// ActionID) may belong to several groups at once; removing it from its
// last group destroys it. The group name "default" is used when no groups
// are given, and the name "all" expands to every existing group.
//
// # Foreach hook
//
// A foreach hook brackets every main action in its group. A hook is a
// GeneratorFunc whose Continuation runs its before-segment, suspends,
// observes each action's result, and runs code between and after actions.
// A plain ActionFunc registered as a foreach hook runs after each action.
//
// # Continuation
//
// A Continuation is a resumable computation:
//
//	type Continuation interface {
//		Step(ctx context.Context, in any) (result any, done bool, err error)
//	}
//
// A main action whose function returns a Continuation is resumed once per
// invocation of its group, receiving a fresh Call each time, and is
// dropped from the group when it reports done. StepSequence, Forever and
// Times build common continuation shapes.
//
// # Observability
//
// An Observer receives invocation lifecycle events. The package ships a
// slog-based LoggingObserver, an atomic BasicMetrics collector and a
// CompositeObserver for fan-out. The metrics subpackage exports the same
// events to Prometheus, and the journal subpackage records per-call
// entries in memory or SQLite.
//
// # Summary
//
// Invoker's goal is a pipeline engine that feels like Go: easy to embed,
// easy to test, deterministic, and without operational overhead. The
// Invoker manages registration and ordering, actions contain business
// logic, foreach hooks wrap them, and continuations carry work across
// repeated invocations.
package invoker
