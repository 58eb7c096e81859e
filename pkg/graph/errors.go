package graph

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrNodeNotFound    = errors.New("node not found")
	ErrEndpointMissing = errors.New("edge endpoint not present in graph")
)

// GraphError provides structured error information for graph operations.
type GraphError struct {
	Op    string // Operation that failed (e.g., "AddEdge")
	From  string // From-node identifier (if applicable)
	To    string // To-node identifier (if applicable)
	Cause error  // Underlying error
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	if e.From != "" && e.To != "" {
		return fmt.Sprintf("%s %s->%s: %v", e.Op, e.From, e.To, e.Cause)
	}
	if e.From != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.From, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *GraphError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error or its cause.
func (e *GraphError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}
