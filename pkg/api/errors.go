package api

import (
	"errors"
)

var (
	// ErrGroupNotFound is returned when an explicit group name supplied to
	// an invoking or mutating call does not exist.
	ErrGroupNotFound = errors.New("group not found")

	// ErrActionNotFound is returned when an ActionID does not match any
	// registered action.
	ErrActionNotFound = errors.New("action not found")

	// ErrActionNotInGroup is returned when an action exists but is not a
	// member of the named group.
	ErrActionNotInGroup = errors.New("action not in group")

	// ErrInvalidAction is returned by Add when the value is neither a
	// supported function type nor a nested Invoker.
	ErrInvalidAction = errors.New("invalid action")
)
