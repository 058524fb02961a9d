package domain

import "time"

// ExecutionStatus tracks the lifecycle of a single node execution.
type ExecutionStatus string

const (
	StatusRunning   ExecutionStatus = "running"
	StatusCompleted ExecutionStatus = "completed"
	StatusFailed    ExecutionStatus = "failed"
)

// ExecutionResult records one node execution. It is created when the node
// starts, finalized exactly once by the node lifecycle, and immutable afterwards.
type ExecutionResult struct {
	NodeID string          `json:"node_id"`
	Status ExecutionStatus `json:"status"`

	// Input is the resolved input the call function received.
	Input map[string]any `json:"input,omitempty"`

	// Output is the raw call result before output-field projection. Nil on failure.
	Output map[string]any `json:"output,omitempty"`

	// Error is the failure message as persisted. Err carries the typed error
	// for in-process callers and is never serialized.
	Error string `json:"error,omitempty"`
	Err   error  `json:"-"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// Duration returns how long the node ran.
func (r *ExecutionResult) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// RunStatus tracks the lifecycle of a whole workflow run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunRecord is the persistable summary of one workflow run: what was asked,
// what each node did, and what the caller received. After-node results are
// appended as they settle, which can be after the record first reaches a store.
type RunRecord struct {
	ID         string            `json:"id"`
	Definition string            `json:"definition"`
	Status     RunStatus         `json:"status"`
	Params     map[string]any    `json:"params,omitempty"`
	Output     map[string]any    `json:"output,omitempty"`
	Results    []ExecutionResult `json:"results,omitempty"`
	Error      string            `json:"error,omitempty"`
	StartTime  time.Time         `json:"start_time"`
	EndTime    time.Time         `json:"end_time"`
}
