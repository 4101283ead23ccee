package api

import (
	"context"
)

// ActionID identifies one registered action. IDs are unique for the whole
// process, monotonically increasing and never reused, even after the action
// is removed.
type ActionID int64

// NoID is returned by Add when IfNotExists suppressed the registration.
const NoID ActionID = 0

// Reserved group names.
const (
	// DefaultGroup is the group used when no groups are specified.
	DefaultGroup = "default"

	// AllGroups expands to every group that currently exists. It never
	// creates the default group.
	AllGroups = "all"
)

// Call carries the arguments assembled for one invocation of an action:
// the positional arguments bound at registration merged with the additional
// arguments passed to Invoke, and likewise for the keyword arguments.
type Call struct {
	Args   []any
	Kwargs map[string]any
}

// Arg returns the i-th positional argument, or nil if out of range.
func (c Call) Arg(i int) any {
	if i < 0 || i >= len(c.Args) {
		return nil
	}
	return c.Args[i]
}

// Kwarg returns the named keyword argument and whether it was present.
func (c Call) Kwarg(name string) (any, bool) {
	v, ok := c.Kwargs[name]
	return v, ok
}

// ActionFunc is the basic executable unit registered into an Invoker.
//
// If the returned value implements Continuation and the action was added
// with generator support enabled (the default), the engine treats the call
// as resumable: it advances the continuation once immediately and resumes
// it on later invocations instead of calling the function again.
type ActionFunc func(ctx context.Context, call Call) (any, error)

// GeneratorFunc constructs a resumable computation. The engine calls it
// once with the assembled arguments and then drives the returned
// Continuation; see Continuation for the stepping contract.
//
// Registered as a foreach hook, a GeneratorFunc is instantiated once per
// wrapped action and its continuation becomes the hook's driver.
type GeneratorFunc func(ctx context.Context, call Call) (Continuation, error)

// Kind discriminates the variants of a registered action.
type Kind int

const (
	// KindFunction is a plain or resumable function in a group's main list.
	KindFunction Kind = iota

	// KindForeachFunction is a hook bracketing every invocation of the
	// main actions in its group.
	KindForeachFunction

	// KindNestedInvoker is a nested engine instance invoked as an action.
	KindNestedInvoker
)

func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindForeachFunction:
		return "foreach"
	case KindNestedInvoker:
		return "invoker"
	default:
		return "unknown"
	}
}

// Action is a read-only snapshot of a registered action.
type Action struct {
	ID   ActionID
	Name string
	Kind Kind

	// Callable is the value passed to Add: an ActionFunc, a GeneratorFunc
	// or a nested Invoker.
	Callable any

	// Args and Kwargs are the arguments bound at registration.
	Args   []any
	Kwargs map[string]any

	// Groups lists the groups the action currently belongs to.
	Groups []string
}

// Invoker maintains named, ordered groups of actions and invokes them.
//
// Implementations are synchronous: Invoke drives every action in the
// requested groups to completion (or to its next suspension point) before
// returning. See the package documentation of the root invoker package for
// the full execution model.
type Invoker interface {
	// Add registers an action and returns its ID. The action must be an
	// ActionFunc, a GeneratorFunc, a nested Invoker, or a bare function
	// value convertible to one of the function types.
	//
	// With IfNotExists, the call is a no-op returning NoID when the same
	// callable (matched by identity, not value) with the same foreach-ness
	// is already a member of any of the requested groups.
	Add(action any, opts ...AddOption) (ActionID, error)

	// AddToGroups attaches an existing action to more groups without
	// creating a new ID. Groups the action already belongs to are left
	// untouched. Missing groups are created on demand.
	AddToGroups(id ActionID, groups []string, opts ...AddOption) error

	// Invoke executes the actions in the given groups in order. A nil or
	// empty groups slice targets the default group; the AllGroups sentinel
	// expands to every existing group. Explicit unknown group names are an
	// error. An error returned by any action or hook aborts the remaining
	// actions of that group and propagates unmodified.
	Invoke(ctx context.Context, groups []string, opts ...InvokeOption) error

	// Remove unlinks the action from each named group. Every named group
	// must exist. When the last membership is removed the action is
	// discarded and its ID becomes invalid.
	Remove(id ActionID, groups []string, opts ...RemoveOption) error

	// RemoveGroups deletes entire groups, including their foreach hooks.
	// Unknown group names are ignored.
	RemoveGroups(groups []string)

	// Reorder moves the action within one group's list. Out-of-range
	// positions clamp; negative positions count from the end.
	Reorder(id ActionID, position int, group string) error

	// Contains reports whether the callable or nested invoker is
	// registered in at least one of the given groups. Unknown group names
	// are treated as empty.
	Contains(action any, groups []string) bool

	// ContainsForeach is Contains for foreach hooks.
	ContainsForeach(action any, groups []string) bool

	// Find returns the IDs registered for the callable or nested invoker,
	// filtered to the given groups in first-seen order. Unknown group
	// names are silently skipped.
	Find(action any, groups []string) []ActionID

	// FindForeach is Find for foreach hooks.
	FindForeach(action any, groups []string) []ActionID

	// HasAction reports whether the ID belongs to an action in at least
	// one of the given groups.
	HasAction(id ActionID, groups []string) bool

	// GetAction returns a snapshot of the action, or false for an
	// unknown ID.
	GetAction(id ActionID) (Action, bool)

	// GetPosition returns the position of the action within the group's
	// list (main or foreach, depending on the action's kind).
	GetPosition(id ActionID, group string) (int, error)

	// ListActions returns the IDs of the group's main actions in
	// invocation order, or nil if the group does not exist.
	ListActions(group string) []ActionID

	// ListForeachActions returns the IDs of the group's foreach hooks in
	// registration order, or nil if the group does not exist.
	ListForeachActions(group string) []ActionID

	// ListGroups returns all groups in creation order, including empty
	// ones.
	ListGroups() []string

	// ListGroupsNonEmpty returns the groups that hold at least one action
	// or foreach hook.
	ListGroupsNonEmpty() []string
}
