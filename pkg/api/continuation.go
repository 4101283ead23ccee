package api

import (
	"context"
)

// Continuation is a suspended computation driven by the engine, one step
// per matching invocation.
//
// The in value carries whatever is delivered at resumption:
//   - nil on the priming step (the first advance after creation),
//   - the freshly assembled Call when a resumable group action is resumed
//     by a later Invoke,
//   - the wrapped action's result when a foreach driver is advanced.
//
// done reports that the computation is exhausted; the accompanying result
// is discarded and the engine unlinks the action from the group (or drops
// the driver). A non-nil error aborts the invocation regardless of done.
type Continuation interface {
	Step(ctx context.Context, in any) (result any, done bool, err error)
}

// ContinuationFunc adapts a function to the Continuation interface.
type ContinuationFunc func(ctx context.Context, in any) (any, bool, error)

func (f ContinuationFunc) Step(ctx context.Context, in any) (any, bool, error) {
	return f(ctx, in)
}

// StepSequence returns a Continuation that runs one segment per advance
// and reports done on the advance that runs the final segment.
//
// It is the explicit counterpart of a generator with a yield between
// consecutive segments: a foreach hook built from StepSequence(before,
// after) runs before on the priming advance and after once the wrapped
// action has produced its result.
func StepSequence(segments ...func(ctx context.Context, in any) (any, error)) Continuation {
	i := 0
	return ContinuationFunc(func(ctx context.Context, in any) (any, bool, error) {
		if i >= len(segments) {
			return nil, true, nil
		}
		seg := segments[i]
		i++
		out, err := seg(ctx, in)
		return out, i >= len(segments), err
	})
}

// Forever returns a Continuation that never completes, running fn on every
// advance. Combined with a GeneratorFunc it models an action that keeps
// local state alive across an arbitrary number of invocations.
func Forever(fn func(ctx context.Context, in any) (any, error)) Continuation {
	return ContinuationFunc(func(ctx context.Context, in any) (any, bool, error) {
		out, err := fn(ctx, in)
		return out, false, err
	})
}

// Times returns a Continuation that runs fn on each advance and completes
// after n advances. The n-th advance still runs fn; its result is
// discarded by the engine, matching the done contract.
func Times(n int, fn func(ctx context.Context, in any) (any, error)) Continuation {
	i := 0
	return ContinuationFunc(func(ctx context.Context, in any) (any, bool, error) {
		if i >= n {
			return nil, true, nil
		}
		i++
		out, err := fn(ctx, in)
		return out, i >= n, err
	})
}
