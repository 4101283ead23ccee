package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/okvist/invoker/pkg/api"
)

// invokerImpl is a synchronous, in-process implementation of api.Invoker.
//
// The mutex guards the registry only. It is never held while an action,
// continuation or hook runs, so actions are free to mutate the engine they
// are being invoked from (the snapshot-plus-liveness rule in invokeGroup
// keeps that safe).
type invokerImpl struct {
	mu       sync.Mutex
	reg      registry
	observer api.Observer
}

// New returns an empty Invoker.
func New() api.Invoker {
	return NewWithObserver(nil)
}

// NewWithObserver returns an empty Invoker reporting invocation events to
// obs. A nil observer falls back to api.NoopObserver.
func NewWithObserver(obs api.Observer) api.Invoker {
	if obs == nil {
		obs = api.NoopObserver{}
	}
	return &invokerImpl{
		reg:      newRegistry(),
		observer: obs,
	}
}

// expandGroups maps a groups argument to concrete group names: nil or
// empty means the default group, the AllGroups sentinel means every group
// that currently exists.
func (e *invokerImpl) expandGroups(groups []string) []string {
	if len(groups) == 0 {
		return []string{api.DefaultGroup}
	}
	if len(groups) == 1 && groups[0] == api.AllGroups {
		return slices.Clone(e.reg.groupOrder)
	}
	return groups
}

func (e *invokerImpl) Add(action any, opts ...api.AddOption) (api.ActionID, error) {
	cfg := api.NewAddConfig(opts...)

	fn, factory, sub, ok := classify(action)
	if !ok {
		return api.NoID, fmt.Errorf("%w: %T is not an ActionFunc, GeneratorFunc or Invoker", api.ErrInvalidAction, action)
	}

	kind := kindAction
	switch {
	case sub != nil:
		// Nested invokers always live in the main list; to bracket a
		// group with a nested invoker, wrap it in a GeneratorFunc.
		kind = kindInvoker
	case cfg.Foreach:
		kind = kindForeach
	}

	key, _ := identityKey(action)

	e.mu.Lock()
	defer e.mu.Unlock()

	groups := e.expandGroups(cfg.Groups)

	if cfg.IgnoreIfExists {
		for _, group := range groups {
			if e.reg.refcount(kind, key, group) > 0 {
				return api.NoID, nil
			}
		}
	}

	it := &item{
		id:           nextActionID(),
		kind:         kind,
		name:         cfg.Name,
		raw:          action,
		fn:           fn,
		factory:      factory,
		sub:          sub,
		args:         slices.Clone(cfg.Args),
		kwargs:       cloneKwargs(cfg.Kwargs),
		runGenerator: cfg.RunGenerator,
		key:          key,
		groups:       make(map[string]struct{}),
		conts:        make(map[string]api.Continuation),
	}

	for _, group := range groups {
		e.reg.link(it, group, cfg.Position)
	}

	return it.id, nil
}

func (e *invokerImpl) AddToGroups(id api.ActionID, groups []string, opts ...api.AddOption) error {
	cfg := api.NewAddConfig(opts...)

	e.mu.Lock()
	defer e.mu.Unlock()

	it, ok := e.reg.items[id]
	if !ok {
		return fmt.Errorf("%w: id %d", api.ErrActionNotFound, id)
	}

	for _, group := range e.expandGroups(groups) {
		if !it.memberOf(group) {
			e.reg.link(it, group, cfg.Position)
		}
	}
	return nil
}

func (e *invokerImpl) Invoke(ctx context.Context, groups []string, opts ...api.InvokeOption) error {
	cfg := api.NewInvokeConfig(opts...)

	// Resolve and validate the whole group set before running anything.
	e.mu.Lock()
	resolved := e.expandGroups(groups)
	for _, group := range resolved {
		if group == api.DefaultGroup {
			e.reg.ensureGroup(group)
			continue
		}
		if !e.reg.groupExists(group) {
			e.mu.Unlock()
			return fmt.Errorf("%w: %q", api.ErrGroupNotFound, group)
		}
	}
	e.mu.Unlock()

	for _, group := range resolved {
		if err := e.invokeGroup(ctx, group, cfg); err != nil {
			return err
		}
	}
	return nil
}

func (e *invokerImpl) invokeGroup(ctx context.Context, group string, cfg api.InvokeConfig) (err error) {
	e.observer.OnInvokeStart(ctx, group)
	defer func() { e.observer.OnInvokeCompleted(ctx, group, err) }()

	// Snapshot the list so actions may remove themselves or siblings
	// mid-iteration; items gone from the live group by the time their
	// turn arrives are skipped.
	e.mu.Lock()
	snapshot := slices.Clone(e.reg.actions[group])
	e.mu.Unlock()

	for _, it := range snapshot {
		e.mu.Lock()
		live := it.memberOf(group)
		hasHooks := len(e.reg.foreachActions[group]) > 0
		e.mu.Unlock()

		if !live {
			continue
		}

		switch {
		case it.kind == kindInvoker:
			err = e.invokeNested(ctx, it, group, cfg)
		case hasHooks:
			err = e.invokeWithHooks(ctx, it, group, cfg)
		default:
			err = e.invokePlain(ctx, it, group, cfg)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// invokeNested delegates to the nested invoker, restricted to the single
// originating group and forwarding the additional arguments unchanged. A
// nested invoker that never saw this group has nothing to run.
func (e *invokerImpl) invokeNested(ctx context.Context, it *item, group string, cfg api.InvokeConfig) error {
	opts := []api.InvokeOption{
		api.WithAddedArgs(cfg.AddedArgs...),
		api.WithAddedKwargs(cfg.AddedKwargs),
	}
	if cfg.ArgsPosition != nil {
		opts = append(opts, api.AtArgsPosition(*cfg.ArgsPosition))
	}

	err := it.sub.Invoke(ctx, []string{group}, opts...)
	if errors.Is(err, api.ErrGroupNotFound) {
		return nil
	}
	return err
}

func (e *invokerImpl) invokePlain(ctx context.Context, it *item, group string, cfg api.InvokeConfig) error {
	_, done, err := e.observedCall(ctx, it, group, cfg)
	if err != nil {
		return err
	}
	if done {
		e.drop(ctx, it, group)
	}
	return nil
}

// invokeWithHooks runs the foreach wrap procedure: every hook is
// instantiated into a driver, all drivers drain their "before" segments,
// and the wrapped action then runs once per remaining bracket cycle until
// no driver is left alive.
func (e *invokerImpl) invokeWithHooks(ctx context.Context, it *item, group string, cfg api.InvokeConfig) error {
	e.mu.Lock()
	hooks := slices.Clone(e.reg.foreachActions[group])
	e.mu.Unlock()

	drivers := make([]api.Continuation, 0, len(hooks))
	for _, h := range hooks {
		call := assembleCall(h, cfg)
		if h.factory != nil {
			c, err := h.factory(ctx, call)
			if err != nil {
				return err
			}
			drivers = append(drivers, c)
			continue
		}
		drivers = append(drivers, afterOnly(h.fn, call))
	}

	drivers, err := advanceDrivers(ctx, drivers, nil)
	if err != nil {
		return err
	}

	for len(drivers) > 0 {
		result, done, err := e.observedCall(ctx, it, group, cfg)
		if err != nil {
			return err
		}

		// The action's result is delivered to every driver before a
		// completion is acted upon, so each driver gets exactly one
		// advance per call of the action.
		drivers, err = advanceDrivers(ctx, drivers, result)
		if err != nil {
			return err
		}

		if done {
			// Drivers still pending their "after" logic are discarded
			// without completing. See the package documentation.
			e.drop(ctx, it, group)
			return nil
		}
	}
	return nil
}

func (e *invokerImpl) observedCall(ctx context.Context, it *item, group string, cfg api.InvokeConfig) (any, bool, error) {
	e.observer.OnActionStart(ctx, group, it.id, it.name)
	start := time.Now()

	result, done, err := e.callOnce(ctx, it, group, cfg)

	e.observer.OnActionCompleted(ctx, group, it.id, it.name, result, err, time.Since(start))
	return result, done, err
}

// callOnce performs exactly one plain call of the action: either the
// function itself, or one step of its remembered continuation. done
// reports that the continuation is exhausted; its result contributes
// nothing.
func (e *invokerImpl) callOnce(ctx context.Context, it *item, group string, cfg api.InvokeConfig) (any, bool, error) {
	call := assembleCall(it, cfg)

	e.mu.Lock()
	cont := it.conts[group]
	e.mu.Unlock()

	if cont != nil {
		return stepDiscardingDone(ctx, cont, call)
	}

	if it.factory != nil {
		c, err := it.factory(ctx, call)
		if err != nil {
			return nil, false, err
		}
		if !it.runGenerator {
			return c, false, nil
		}
		return e.primeContinuation(ctx, it, group, c)
	}

	result, err := it.fn(ctx, call)
	if err != nil {
		return nil, false, err
	}
	if c, ok := result.(api.Continuation); ok && it.runGenerator {
		return e.primeContinuation(ctx, it, group, c)
	}
	return result, false, nil
}

// primeContinuation remembers the freshly produced continuation for the
// (action, group) pair and advances it once; what it first produces is
// this call's result.
func (e *invokerImpl) primeContinuation(ctx context.Context, it *item, group string, c api.Continuation) (any, bool, error) {
	e.mu.Lock()
	it.conts[group] = c
	e.mu.Unlock()

	return stepDiscardingDone(ctx, c, nil)
}

func stepDiscardingDone(ctx context.Context, c api.Continuation, in any) (any, bool, error) {
	result, done, err := c.Step(ctx, in)
	if done {
		result = nil
	}
	return result, done, err
}

func (e *invokerImpl) drop(ctx context.Context, it *item, group string) {
	e.mu.Lock()
	if it.memberOf(group) {
		e.reg.unlink(it, group)
	}
	e.mu.Unlock()

	e.observer.OnActionDropped(ctx, group, it.id, it.name)
}

// afterOnly wraps a plain foreach hook so it behaves as an implicit
// "wait, then run": nothing happens until the wrapped action has run once,
// then the hook executes with the arguments assembled at instantiation and
// the driver completes.
func afterOnly(fn api.ActionFunc, call api.Call) api.Continuation {
	primed := false
	return api.ContinuationFunc(func(ctx context.Context, in any) (any, bool, error) {
		if !primed {
			primed = true
			return nil, false, nil
		}
		_, err := fn(ctx, call)
		return nil, true, err
	})
}

// advanceDrivers advances every driver once, delivering result, and drops
// the ones that signal completion, preserving registration order.
func advanceDrivers(ctx context.Context, drivers []api.Continuation, result any) ([]api.Continuation, error) {
	alive := drivers[:0]
	for _, d := range drivers {
		_, done, err := d.Step(ctx, result)
		if err != nil {
			return nil, err
		}
		if !done {
			alive = append(alive, d)
		}
	}
	return alive, nil
}

// assembleCall concatenates the action's bound positional arguments with
// the invocation's additional arguments (appended, or spliced at the
// requested position) and merges the keyword arguments, the additional
// ones winning on collisions.
func assembleCall(it *item, cfg api.InvokeConfig) api.Call {
	kwargs := make(map[string]any, len(it.kwargs)+len(cfg.AddedKwargs))
	for k, v := range it.kwargs {
		kwargs[k] = v
	}
	for k, v := range cfg.AddedKwargs {
		kwargs[k] = v
	}
	return api.Call{
		Args:   spliceArgs(it.args, cfg.AddedArgs, cfg.ArgsPosition),
		Kwargs: kwargs,
	}
}

func spliceArgs(bound, added []any, position *int) []any {
	if position == nil {
		out := make([]any, 0, len(bound)+len(added))
		out = append(out, bound...)
		return append(out, added...)
	}
	n := len(bound)
	p := *position
	if p < 0 {
		p += n
		if p < 0 {
			p = 0
		}
	}
	if p > n {
		p = n
	}
	out := make([]any, 0, n+len(added))
	out = append(out, bound[:p]...)
	out = append(out, added...)
	return append(out, bound[p:]...)
}

func cloneKwargs(kwargs map[string]any) map[string]any {
	if kwargs == nil {
		return nil
	}
	out := make(map[string]any, len(kwargs))
	for k, v := range kwargs {
		out[k] = v
	}
	return out
}
