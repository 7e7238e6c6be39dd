package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoEntryPoint is reported when nothing is connected to START.
	ErrNoEntryPoint = errors.New("no entry point: add an edge from START")

	// ErrReservedName is reported when a node is named START, END or left empty.
	ErrReservedName = errors.New("reserved or empty node name")

	// ErrNilFunction is reported when a node or decision function is nil.
	ErrNilFunction = errors.New("nil function")
)

// DuplicateNodeError is returned when a node name is registered twice.
type DuplicateNodeError struct {
	Name string
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("duplicate node %q", e.Name)
}

// UnknownNodeError is returned when a transition references a node that was
// never registered.
type UnknownNodeError struct {
	// Name is the unresolved node name
	Name string
	// Edge describes the transition that referenced it, e.g. "a -> x"
	Edge string
}

func (e *UnknownNodeError) Error() string {
	if e.Edge == "" {
		return fmt.Sprintf("unknown node %q", e.Name)
	}
	return fmt.Sprintf("unknown node %q in edge %s", e.Name, e.Edge)
}

// GraphValidationError lists every violation found while compiling a graph.
type GraphValidationError struct {
	Violations []error
}

func (e *GraphValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Error()
	}
	return fmt.Sprintf("graph validation failed with %d violation(s): %s", len(e.Violations), strings.Join(msgs, "; "))
}

// Unwrap exposes the individual violations to errors.Is and errors.As.
func (e *GraphValidationError) Unwrap() []error {
	return e.Violations
}

// RoutingKeyError is returned when a decision function produces a key that is
// missing from its routing table.
type RoutingKeyError struct {
	Node string
	Key  string
}

func (e *RoutingKeyError) Error() string {
	return fmt.Sprintf("node %q produced routing key %q which is not in its routing table", e.Node, e.Key)
}

// NodeExecutionError wraps the failure of a node function. The cause is kept
// unmodified.
type NodeExecutionError struct {
	Node  string
	Cause error
}

func (e *NodeExecutionError) Error() string {
	return fmt.Sprintf("error in node %s: %v", e.Node, e.Cause)
}

func (e *NodeExecutionError) Unwrap() error {
	return e.Cause
}

// StepLimitError is returned when a run does not finish within its step budget.
type StepLimitError struct {
	Limit   int
	Pending []string
}

func (e *StepLimitError) Error() string {
	return fmt.Sprintf("run exceeded %d steps with pending nodes %v", e.Limit, e.Pending)
}

// StateError reports an update that does not fit the declared schema.
type StateError struct {
	Field  string
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("state field %q: %s", e.Field, e.Reason)
}
