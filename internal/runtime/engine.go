// Package runtime contains the arbor workflow engine: the node lifecycle, the
// compiled definition and the run loop with its background after phase.
package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/arborworks/arbor/internal/logging"
	"github.com/arborworks/arbor/pkg/domain"
	"github.com/arborworks/arbor/pkg/registry"
	"github.com/arborworks/arbor/pkg/schema"
)

// Behavior supplies the logic for a node type. Exactly one of Call or Method
// is normally set: Call is a direct function, Method names a callable on the
// tool group registered for the type. A type with neither falls back to the
// default echo/project behavior.
type Behavior struct {
	Call   CallFunc
	Method string
	Before HookFunc
	After  HookFunc
}

// defaultMethod is the registry method a node type is dispatched to when its
// behavior names none.
const defaultMethod = "call"

// Engine compiles workflow documents and executes runs against them.
// It is stateless across runs; every run gets its own ExecutionContext.
type Engine struct {
	logger    *slog.Logger
	registry  *registry.Registry
	behaviors map[string]Behavior
	hooks     domain.LifecycleHooks
}

// EngineOption configures the engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRegistry injects the tool registry node types dispatch through.
func WithRegistry(r *registry.Registry) EngineOption {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithBehavior binds a behavior to a node type name.
func WithBehavior(typeName string, b Behavior) EngineOption {
	return func(e *Engine) {
		e.behaviors[typeName] = b
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// NewEngine creates an engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger:    logging.NewNop(),
		behaviors: make(map[string]Behavior),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compile validates a document and binds it into an executable Definition.
func (e *Engine) Compile(doc *schema.Document) (*Definition, error) {
	return e.compile(doc)
}

// behaviorFor resolves the behavior of a spec: an explicitly bound behavior
// wins; otherwise a registered tool group is dispatched through its "call"
// method; otherwise the node runs the default echo/project logic.
//
// A behavior that declares a Method no group can serve is a wiring mistake,
// not a reason to fall back to the default call: it fails compilation with a
// MethodNotFoundError.
func (e *Engine) behaviorFor(spec *domain.NodeSpec) (Behavior, error) {
	b := e.behaviors[spec.Type]
	if b.Call != nil {
		return b, nil
	}

	method := b.Method
	if method == "" {
		method = defaultMethod
	}

	if e.registry != nil {
		if g, ok := e.registry.Get(spec.Type); ok {
			if _, found := g[method]; !found && b.Method != "" {
				return Behavior{}, &domain.MethodNotFoundError{
					Type:      spec.Type,
					Method:    b.Method,
					Available: e.registry.Methods(spec.Type),
				}
			}
			b.Call = e.registryCall(spec.Type, method)
			return b, nil
		}
	}

	if b.Method != "" {
		return Behavior{}, &domain.MethodNotFoundError{Type: spec.Type, Method: b.Method}
	}
	return b, nil
}

// registryCall adapts a tool-group method into a CallFunc. The resolved input
// map travels as the single positional argument; the method's result is
// coerced back into an output map. Exactly one tool event is emitted per
// invocation, carrying the invocation's outcome.
func (e *Engine) registryCall(typeName, method string) CallFunc {
	return func(ctx context.Context, input map[string]any) (map[string]any, error) {
		result, err := e.registry.Invoke(ctx, typeName, method, input)
		e.emitToolInvoke(ctx, typeName, method, err != nil)
		if err != nil {
			return nil, err
		}
		return coerceOutput(result), nil
	}
}

// coerceOutput normalizes a tool result into the map shape publishing expects.
func coerceOutput(result any) map[string]any {
	switch v := result.(type) {
	case nil:
		return map[string]any{}
	case map[string]any:
		return v
	default:
		return map[string]any{"result": v}
	}
}

func (e *Engine) emitToolInvoke(ctx context.Context, typeName, method string, isErr bool) {
	if e.hooks.OnToolInvoke == nil {
		return
	}
	e.hooks.OnToolInvoke(ctx, &domain.ToolEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventToolInvoke},
		NodeType:  typeName,
		Method:    method,
		IsError:   isErr,
	})
}

func (e *Engine) emitNodeStart(ctx context.Context, runID string, n *node) {
	if e.hooks.OnNodeStart == nil {
		return
	}
	e.hooks.OnNodeStart(ctx, &domain.NodeEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventNodeStart, RunID: runID},
		NodeID:    n.spec.ID,
		NodeType:  n.spec.Type,
		Category:  n.spec.Category,
		Status:    domain.StatusRunning,
	})
}

func (e *Engine) emitNodeFinish(ctx context.Context, runID string, n *node, result *domain.ExecutionResult) {
	if e.hooks.OnNodeFinish == nil {
		return
	}
	e.hooks.OnNodeFinish(ctx, &domain.NodeEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventNodeFinish, RunID: runID},
		NodeID:    n.spec.ID,
		NodeType:  n.spec.Type,
		Category:  n.spec.Category,
		Status:    result.Status,
		Err:       result.Err,
	})
}

func (e *Engine) emitRunFinish(ctx context.Context, run *Run, status domain.RunStatus, err error) {
	if e.hooks.OnRunFinish == nil {
		return
	}
	e.hooks.OnRunFinish(ctx, &domain.RunEvent{
		EventBase:  domain.EventBase{Timestamp: time.Now(), Type: domain.EventRunFinish, RunID: run.ID},
		Definition: run.def.Name(),
		Status:     status,
		Err:        err,
	})
}

func (e *Engine) emitAfterFinish(ctx context.Context, run *Run, status domain.RunStatus, err error) {
	if e.hooks.OnAfterFinish == nil {
		return
	}
	e.hooks.OnAfterFinish(ctx, &domain.RunEvent{
		EventBase:  domain.EventBase{Timestamp: time.Now(), Type: domain.EventAfterFinish, RunID: run.ID},
		Definition: run.def.Name(),
		Status:     status,
		Err:        err,
	})
}
