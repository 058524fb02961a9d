package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeStart   EventType = "node_start"
	EventNodeFinish  EventType = "node_finish"
	EventToolInvoke  EventType = "tool_invoke"
	EventRunFinish   EventType = "run_finish"
	EventAfterFinish EventType = "after_finish"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
}

// NodeEvent marks the start or finish of a node execution.
type NodeEvent struct {
	EventBase
	NodeID   string          `json:"node_id"`
	NodeType string          `json:"node_type"`
	Category Category        `json:"category"`
	Status   ExecutionStatus `json:"status"`
	Err      error           `json:"-"`
}

// ToolEvent marks a method invocation on a tool group.
type ToolEvent struct {
	EventBase
	NodeType string `json:"node_type"`
	Method   string `json:"method"`
	IsError  bool   `json:"is_error,omitempty"`
}

// RunEvent marks the end of the caller-visible main chain, or the settling of
// the background after phase.
type RunEvent struct {
	EventBase
	Definition string    `json:"definition"`
	Status     RunStatus `json:"status"`
	Err        error     `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability. Nil hooks are
// skipped. Hooks run on the executing goroutine, so they must be fast and must
// not block; after-phase hooks may fire concurrently with the caller.
type LifecycleHooks struct {
	OnNodeStart   func(context.Context, *NodeEvent)
	OnNodeFinish  func(context.Context, *NodeEvent)
	OnToolInvoke  func(context.Context, *ToolEvent)
	OnRunFinish   func(context.Context, *RunEvent)
	OnAfterFinish func(context.Context, *RunEvent)
}

// Merge returns hooks that invoke h and then other for every callback.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnNodeStart:   chainNode(h.OnNodeStart, other.OnNodeStart),
		OnNodeFinish:  chainNode(h.OnNodeFinish, other.OnNodeFinish),
		OnToolInvoke:  chainTool(h.OnToolInvoke, other.OnToolInvoke),
		OnRunFinish:   chainRun(h.OnRunFinish, other.OnRunFinish),
		OnAfterFinish: chainRun(h.OnAfterFinish, other.OnAfterFinish),
	}
}

func chainNode(a, b func(context.Context, *NodeEvent)) func(context.Context, *NodeEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, ev *NodeEvent) {
		a(ctx, ev)
		b(ctx, ev)
	}
}

func chainTool(a, b func(context.Context, *ToolEvent)) func(context.Context, *ToolEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, ev *ToolEvent) {
		a(ctx, ev)
		b(ctx, ev)
	}
}

func chainRun(a, b func(context.Context, *RunEvent)) func(context.Context, *RunEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, ev *RunEvent) {
		a(ctx, ev)
		b(ctx, ev)
	}
}
