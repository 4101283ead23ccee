package engine

import (
	"fmt"
	"slices"

	"github.com/okvist/invoker/pkg/api"
)

func (e *invokerImpl) Remove(id api.ActionID, groups []string, opts ...api.RemoveOption) error {
	cfg := api.NewRemoveConfig(opts...)

	e.mu.Lock()
	defer e.mu.Unlock()

	it, ok := e.reg.items[id]
	if !ok {
		if cfg.IgnoreUnknownAction {
			return nil
		}
		return fmt.Errorf("%w: id %d", api.ErrActionNotFound, id)
	}

	// Validate the whole group set first so the unlink is all-or-nothing.
	resolved := e.expandGroups(groups)
	for _, group := range resolved {
		if !e.reg.groupExists(group) {
			return fmt.Errorf("%w: %q", api.ErrGroupNotFound, group)
		}
	}

	for _, group := range resolved {
		if it.memberOf(group) {
			e.reg.unlink(it, group)
		}
	}
	return nil
}

func (e *invokerImpl) RemoveGroups(groups []string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, group := range e.expandGroups(groups) {
		e.reg.dropGroup(group)
	}
}

func (e *invokerImpl) Reorder(id api.ActionID, position int, group string) error {
	if group == "" {
		group = api.DefaultGroup
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	it, ok := e.reg.items[id]
	if !ok {
		return fmt.Errorf("%w: id %d", api.ErrActionNotFound, id)
	}
	if !e.reg.groupExists(group) {
		return fmt.Errorf("%w: %q", api.ErrGroupNotFound, group)
	}
	if !it.memberOf(group) {
		return fmt.Errorf("%w: id %d, group %q", api.ErrActionNotInGroup, id, group)
	}

	lists, _ := e.reg.listFor(it.kind)
	list := slices.DeleteFunc(slices.Clone(lists[group]), func(x *item) bool { return x == it })

	if position < 0 {
		position = max(len(list)+position+1, 0)
	}
	if position > len(list) {
		position = len(list)
	}
	lists[group] = slices.Insert(list, position, it)
	return nil
}

func (e *invokerImpl) Contains(action any, groups []string) bool {
	return e.contains(action, groups, false)
}

func (e *invokerImpl) ContainsForeach(action any, groups []string) bool {
	return e.contains(action, groups, true)
}

func (e *invokerImpl) contains(action any, groups []string, foreach bool) bool {
	key, ok := identityKey(action)
	if !ok {
		return false
	}
	kind := queryKind(action, foreach)

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, group := range e.expandGroups(groups) {
		if e.reg.refcount(kind, key, group) > 0 {
			return true
		}
	}
	return false
}

func (e *invokerImpl) Find(action any, groups []string) []api.ActionID {
	return e.find(action, groups, false)
}

func (e *invokerImpl) FindForeach(action any, groups []string) []api.ActionID {
	return e.find(action, groups, true)
}

func (e *invokerImpl) find(action any, groups []string, foreach bool) []api.ActionID {
	key, ok := identityKey(action)
	if !ok {
		return nil
	}
	kind := queryKind(action, foreach)

	e.mu.Lock()
	defer e.mu.Unlock()

	var ids []api.ActionID
	lists, _ := e.reg.listFor(kind)
	for _, group := range e.expandGroups(groups) {
		// Unknown group names are silently skipped; Find is a query,
		// not a mutation.
		if !e.reg.groupExists(group) {
			continue
		}
		for _, it := range lists[group] {
			if it.kind == kind && it.key == key {
				ids = append(ids, it.id)
			}
		}
	}
	return ids
}

func (e *invokerImpl) HasAction(id api.ActionID, groups []string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	it, ok := e.reg.items[id]
	if !ok {
		return false
	}
	for _, group := range e.expandGroups(groups) {
		if it.memberOf(group) {
			return true
		}
	}
	return false
}

func (e *invokerImpl) GetAction(id api.ActionID) (api.Action, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	it, ok := e.reg.items[id]
	if !ok {
		return api.Action{}, false
	}

	groups := make([]string, 0, len(it.groups))
	for _, group := range e.reg.groupOrder {
		if it.memberOf(group) {
			groups = append(groups, group)
		}
	}

	return api.Action{
		ID:       it.id,
		Name:     it.name,
		Kind:     it.kind.public(),
		Callable: it.raw,
		Args:     slices.Clone(it.args),
		Kwargs:   cloneKwargs(it.kwargs),
		Groups:   groups,
	}, true
}

func (e *invokerImpl) GetPosition(id api.ActionID, group string) (int, error) {
	if group == "" {
		group = api.DefaultGroup
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	it, ok := e.reg.items[id]
	if !ok {
		return 0, fmt.Errorf("%w: id %d", api.ErrActionNotFound, id)
	}
	if !it.memberOf(group) {
		return 0, fmt.Errorf("%w: id %d, group %q", api.ErrActionNotInGroup, id, group)
	}

	lists, _ := e.reg.listFor(it.kind)
	return slices.Index(lists[group], it), nil
}

func (e *invokerImpl) ListActions(group string) []api.ActionID {
	return e.listActions(group, false)
}

func (e *invokerImpl) ListForeachActions(group string) []api.ActionID {
	return e.listActions(group, true)
}

func (e *invokerImpl) listActions(group string, foreach bool) []api.ActionID {
	if group == "" {
		group = api.DefaultGroup
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.reg.groupExists(group) {
		return nil
	}
	list := e.reg.actions[group]
	if foreach {
		list = e.reg.foreachActions[group]
	}

	ids := make([]api.ActionID, 0, len(list))
	for _, it := range list {
		ids = append(ids, it.id)
	}
	return ids
}

func (e *invokerImpl) ListGroups() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return slices.Clone(e.reg.groupOrder)
}

func (e *invokerImpl) ListGroupsNonEmpty() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	var groups []string
	for _, group := range e.reg.groupOrder {
		if len(e.reg.actions[group]) > 0 || len(e.reg.foreachActions[group]) > 0 {
			groups = append(groups, group)
		}
	}
	return groups
}

// queryKind mirrors the variant Add would assign, so queries and
// registrations agree on which reference counts to consult. The foreach
// flavor always consults the foreach counts: a nested invoker is never
// registered there, so ContainsForeach/FindForeach report nothing for it.
func queryKind(action any, foreach bool) actionKind {
	if foreach {
		return kindForeach
	}
	if _, ok := action.(api.Invoker); ok {
		return kindInvoker
	}
	return kindAction
}
