// Package manifest serializes an invoker's group layout to YAML and
// applies a stored layout back.
//
// A layout records group names and the ordered names of their actions,
// not the callables themselves: callables cannot be serialized, so the
// application re-registers them on startup and then applies the stored
// layout to restore the user's ordering. Actions are matched by the name
// given at registration; unnamed actions are exported with an empty name
// and ignored by Apply.
package manifest

import (
	"gopkg.in/yaml.v3"

	"github.com/okvist/invoker/pkg/api"
)

// Layout is the serializable snapshot of an invoker's groups.
type Layout struct {
	Groups []GroupLayout `yaml:"groups"`
}

// GroupLayout is one group's ordered action names.
type GroupLayout struct {
	Name    string   `yaml:"name"`
	Actions []string `yaml:"actions,omitempty"`
	Foreach []string `yaml:"foreach,omitempty"`
}

// Export captures the current layout of inv: every group in creation
// order, with the names of its main actions and foreach hooks in
// invocation order.
func Export(inv api.Invoker) Layout {
	var layout Layout
	for _, group := range inv.ListGroups() {
		gl := GroupLayout{
			Name:    group,
			Actions: names(inv, inv.ListActions(group)),
			Foreach: names(inv, inv.ListForeachActions(group)),
		}
		layout.Groups = append(layout.Groups, gl)
	}
	return layout
}

// Apply reorders the actions registered in inv to match the stored
// layout. For each group, the named actions are moved to the front in
// layout order; actions missing from the layout keep their relative order
// after them. Unknown groups and names are skipped; the layout is
// advisory, not authoritative.
func Apply(inv api.Invoker, layout Layout) error {
	known := make(map[string]struct{}, len(inv.ListGroups()))
	for _, group := range inv.ListGroups() {
		known[group] = struct{}{}
	}

	for _, gl := range layout.Groups {
		if _, ok := known[gl.Name]; !ok {
			continue
		}
		if err := applyOrder(inv, gl.Name, gl.Actions, false); err != nil {
			return err
		}
		if err := applyOrder(inv, gl.Name, gl.Foreach, true); err != nil {
			return err
		}
	}
	return nil
}

func applyOrder(inv api.Invoker, group string, ordered []string, foreach bool) error {
	position := 0
	for _, name := range ordered {
		if name == "" {
			continue
		}
		id, ok := findByName(inv, group, name, foreach)
		if !ok {
			continue
		}
		if err := inv.Reorder(id, position, group); err != nil {
			return err
		}
		position++
	}
	return nil
}

func findByName(inv api.Invoker, group, name string, foreach bool) (api.ActionID, bool) {
	ids := inv.ListActions(group)
	if foreach {
		ids = inv.ListForeachActions(group)
	}
	for _, id := range ids {
		if act, ok := inv.GetAction(id); ok && act.Name == name {
			return id, true
		}
	}
	return api.NoID, false
}

// Encode renders the layout as YAML.
func Encode(layout Layout) ([]byte, error) {
	return yaml.Marshal(layout)
}

// Decode parses a YAML layout produced by Encode.
func Decode(data []byte) (Layout, error) {
	var layout Layout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return Layout{}, err
	}
	return layout, nil
}

func names(inv api.Invoker, ids []api.ActionID) []string {
	var out []string
	for _, id := range ids {
		act, ok := inv.GetAction(id)
		if !ok {
			continue
		}
		out = append(out, act.Name)
	}
	return out
}
