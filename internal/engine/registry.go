package engine

import (
	"context"
	"reflect"
	"slices"
	"sync/atomic"

	"github.com/okvist/invoker/pkg/api"
)

// Action IDs are unique for the whole process, not per engine, so an ID
// never refers to different actions in two invokers.
var lastActionID atomic.Int64

func nextActionID() api.ActionID {
	return api.ActionID(lastActionID.Add(1))
}

type actionKind int

const (
	kindAction actionKind = iota
	kindForeach
	kindInvoker
)

func (k actionKind) public() api.Kind {
	switch k {
	case kindForeach:
		return api.KindForeachFunction
	case kindInvoker:
		return api.KindNestedInvoker
	default:
		return api.KindFunction
	}
}

// item is one registered action. Its identity and variant never change
// after creation; only group membership, position and per-group resumable
// state do.
type item struct {
	id   api.ActionID
	kind actionKind
	name string

	// raw is the value passed to Add, kept for GetAction snapshots.
	raw any

	fn      api.ActionFunc
	factory api.GeneratorFunc
	sub     api.Invoker

	args         []any
	kwargs       map[string]any
	runGenerator bool

	// key matches Contains/Find lookups and the refcount maps: the code
	// pointer for functions, the interface value for nested invokers.
	key any

	groups map[string]struct{}

	// conts holds the live suspended computation per group, keyed
	// independently so a finite action finished in one group stays fresh
	// in another.
	conts map[string]api.Continuation
}

func (it *item) memberOf(group string) bool {
	_, ok := it.groups[group]
	return ok
}

// registry owns the per-group ordered lists, the ID index and the
// per-group reference counts. It does no locking; the engine serializes
// access.
type registry struct {
	groupOrder []string
	groupSet   map[string]struct{}

	actions        map[string][]*item
	foreachActions map[string][]*item

	// Reference counts per group for each underlying callable or nested
	// invoker, kept in sync with membership at every mutation so
	// containment queries stay O(1).
	actionFuncs  map[string]map[any]int
	foreachFuncs map[string]map[any]int
	invokers     map[string]map[any]int

	items map[api.ActionID]*item
}

func newRegistry() registry {
	return registry{
		groupSet:       make(map[string]struct{}),
		actions:        make(map[string][]*item),
		foreachActions: make(map[string][]*item),
		actionFuncs:    make(map[string]map[any]int),
		foreachFuncs:   make(map[string]map[any]int),
		invokers:       make(map[string]map[any]int),
		items:          make(map[api.ActionID]*item),
	}
}

func (r *registry) groupExists(group string) bool {
	_, ok := r.groupSet[group]
	return ok
}

func (r *registry) ensureGroup(group string) {
	if r.groupExists(group) {
		return
	}
	r.groupSet[group] = struct{}{}
	r.groupOrder = append(r.groupOrder, group)
	r.actions[group] = nil
	r.foreachActions[group] = nil
}

// listFor returns the ordered list and refcount map an item of the given
// kind lives in. Nested invokers share the main list with functions but
// are counted separately.
func (r *registry) listFor(kind actionKind) (map[string][]*item, map[string]map[any]int) {
	switch kind {
	case kindForeach:
		return r.foreachActions, r.foreachFuncs
	case kindInvoker:
		return r.actions, r.invokers
	default:
		return r.actions, r.actionFuncs
	}
}

// link inserts the item into the group's list at the given position
// (nil appends, negative counts from the end) and updates membership and
// reference counts.
func (r *registry) link(it *item, group string, position *int) {
	r.ensureGroup(group)

	lists, counts := r.listFor(it.kind)
	lists[group] = insertAt(lists[group], it, position)

	if counts[group] == nil {
		counts[group] = make(map[any]int)
	}
	counts[group][it.key]++

	it.groups[group] = struct{}{}
	r.items[it.id] = it
}

// unlink removes the item from the group, dropping any suspended
// computation for that group. The item is discarded the instant its last
// membership disappears.
func (r *registry) unlink(it *item, group string) {
	lists, counts := r.listFor(it.kind)
	lists[group] = slices.DeleteFunc(lists[group], func(x *item) bool { return x == it })

	counts[group][it.key]--
	if counts[group][it.key] == 0 {
		delete(counts[group], it.key)
	}

	delete(it.groups, group)
	delete(it.conts, group)

	if len(it.groups) == 0 {
		delete(r.items, it.id)
	}
}

func (r *registry) refcount(kind actionKind, key any, group string) int {
	_, counts := r.listFor(kind)
	return counts[group][key]
}

func (r *registry) dropGroup(group string) {
	if !r.groupExists(group) {
		return
	}
	for _, it := range slices.Clone(r.actions[group]) {
		r.unlink(it, group)
	}
	for _, it := range slices.Clone(r.foreachActions[group]) {
		r.unlink(it, group)
	}
	delete(r.actions, group)
	delete(r.foreachActions, group)
	delete(r.actionFuncs, group)
	delete(r.foreachFuncs, group)
	delete(r.invokers, group)
	delete(r.groupSet, group)
	r.groupOrder = slices.DeleteFunc(r.groupOrder, func(g string) bool { return g == group })
}

// insertAt inserts x at position, python-style: nil appends, negative
// positions count from the end, out-of-range positions clamp.
func insertAt(list []*item, x *item, position *int) []*item {
	if position == nil {
		return append(list, x)
	}
	n := len(list)
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
	return slices.Insert(list, p, x)
}

// identityKey derives the comparable identity of a registered callable or
// nested invoker. Function identity is the code pointer, so two distinct
// registrations of the same function (even with different bound arguments)
// match each other in Contains and Find.
func identityKey(action any) (any, bool) {
	if inv, ok := action.(api.Invoker); ok {
		return inv, true
	}
	rv := reflect.ValueOf(action)
	if rv.Kind() == reflect.Func && !rv.IsNil() {
		return rv.Pointer(), true
	}
	return nil, false
}

// classify maps the value passed to Add onto the action variants.
func classify(action any) (fn api.ActionFunc, factory api.GeneratorFunc, sub api.Invoker, ok bool) {
	switch a := action.(type) {
	case api.ActionFunc:
		return a, nil, nil, true
	case func(context.Context, api.Call) (any, error):
		return a, nil, nil, true
	case api.GeneratorFunc:
		return nil, a, nil, true
	case func(context.Context, api.Call) (api.Continuation, error):
		return nil, a, nil, true
	case api.Invoker:
		return nil, nil, a, true
	default:
		return nil, nil, nil, false
	}
}
