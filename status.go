package mrupdate

import "fmt"

// Status is the compatibility of a mod file with the target.
type Status int

const (
	StatusError Status = iota
	StatusCompatible
	StatusUpdate
	StatusIncompatible
)

var statusNames = [...]string{
	StatusError:        "Error",
	StatusCompatible:   "Compatible",
	StatusUpdate:       "Update",
	StatusIncompatible: "Incompatible",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

func (s Status) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(statusNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStatus, int(s))
	}
	return []byte(statusNames[s]), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	v, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseStatus parses the status name as returned by Status.String.
func ParseStatus(s string) (Status, error) {
	for i, name := range statusNames {
		if name == s {
			return Status(i), nil
		}
	}
	return StatusError, fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// Action is the disposition of a mod file when rewriting the manifest.
type Action int

const (
	ActionKeep Action = iota
	ActionUpdate
	ActionDisable
	ActionRemove
)

var actionNames = [...]string{
	ActionKeep:    "keep",
	ActionUpdate:  "update",
	ActionDisable: "disable",
	ActionRemove:  "remove",
}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return fmt.Sprintf("Action(%d)", int(a))
	}
	return actionNames[a]
}

func (a Action) MarshalText() ([]byte, error) {
	if a < 0 || int(a) >= len(actionNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAction, int(a))
	}
	return []byte(actionNames[a]), nil
}

func (a *Action) UnmarshalText(b []byte) error {
	v, err := ParseAction(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// ParseAction parses the action name as returned by Action.String.
func ParseAction(s string) (Action, error) {
	for i, name := range actionNames {
		if name == s {
			return Action(i), nil
		}
	}
	return ActionKeep, fmt.Errorf("%w: %q", ErrUnknownAction, s)
}
