package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRunNotFound is returned when a run ID cannot be found in a store.
var ErrRunNotFound = errors.New("run not found")

// ErrDefinitionNotFound is returned when a loader cannot resolve a definition name.
var ErrDefinitionNotFound = errors.New("definition not found")

// ConfigurationError reports a workflow definition that failed validation.
// A definition that produces one is never executed.
type ConfigurationError struct {
	Definition string
	Problems   []string
}

func (e *ConfigurationError) Error() string {
	if len(e.Problems) == 1 {
		return fmt.Sprintf("invalid definition %q: %s", e.Definition, e.Problems[0])
	}
	return fmt.Sprintf("invalid definition %q: %d problems:\n- %s",
		e.Definition, len(e.Problems), strings.Join(e.Problems, "\n- "))
}

// NodeExecutionError wraps a failure raised inside a node's call or hooks.
// It aborts the main chain and surfaces to the caller.
type NodeExecutionError struct {
	NodeID string
	Type   string
	Err    error
}

func (e *NodeExecutionError) Error() string {
	return fmt.Sprintf("node %q (%s) failed: %v", e.NodeID, e.Type, e.Err)
}

func (e *NodeExecutionError) Unwrap() error { return e.Err }

// MethodNotFoundError reports a tool invocation against a method the registered
// group does not expose. Available lists the group's method names for diagnosis.
type MethodNotFoundError struct {
	Type      string
	Method    string
	Available []string
}

func (e *MethodNotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("tool group %q has no method %q", e.Type, e.Method)
	}
	return fmt.Sprintf("tool group %q has no method %q (available: %s)",
		e.Type, e.Method, strings.Join(e.Available, ", "))
}
