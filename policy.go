package mrupdate

import "fmt"

// DefaultAction returns the action applied to m unless the operator
// overrides it. Incompatible and failed mods get the incompatible action.
func DefaultAction(m ResolvedMod, incompatible Action) Action {
	switch m.Status {
	case StatusUpdate:
		return ActionUpdate
	case StatusCompatible:
		return ActionKeep
	case StatusIncompatible, StatusError:
		return incompatible
	}
	panic(fmt.Sprintf("mrupdate: unhandled status %v", m.Status))
}

// ValidIncompatible reports whether a can be used as the default action
// for incompatible mods.
func ValidIncompatible(a Action) bool {
	switch a {
	case ActionKeep, ActionDisable, ActionRemove:
		return true
	case ActionUpdate:
		return false
	}
	return false
}

// Selection holds operator choices for a set of resolved mods.
type Selection struct {
	// Incompatible is applied to every incompatible or failed mod
	// that has no override.
	Incompatible Action

	// Overrides maps manifest paths to explicitly chosen actions.
	Overrides map[string]Action
}

// Dispositions returns the final action for each mod keyed by manifest path.
func (s *Selection) Dispositions(mods []ResolvedMod) (map[string]Action, error) {
	if !ValidIncompatible(s.Incompatible) {
		return nil, fmt.Errorf("%w: %v is not a default for incompatible mods", ErrActionInvariant, s.Incompatible)
	}
	actions := make(map[string]Action, len(mods))
	for _, m := range mods {
		a, ok := s.Overrides[m.Entry.Path]
		if !ok {
			a = DefaultAction(m, s.Incompatible)
		}
		if a == ActionUpdate && m.Update == nil {
			return nil, fmt.Errorf("%w: %q has no update", ErrActionInvariant, m.Entry.Path)
		}
		actions[m.Entry.Path] = a
	}
	return actions, nil
}
