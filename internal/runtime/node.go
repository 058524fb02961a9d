package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arborworks/arbor/pkg/domain"
)

// CallFunc is the one piece of real logic a node type supplies. It receives
// the resolved input and returns the raw output map; publishing filters that
// map down to the declared output fields.
type CallFunc func(ctx context.Context, input map[string]any) (map[string]any, error)

// HookFunc runs before or after a node's call. A non-nil error from a before
// hook fails the node the same way a failing call does.
type HookFunc func(ctx context.Context, fields map[string]any) error

// node binds a NodeSpec to its behavior and its publish policy.
// The policy is selected once at construction; execute never branches on
// category again.
type node struct {
	spec    *domain.NodeSpec
	call    CallFunc
	before  HookFunc
	after   HookFunc
	publish publishFunc
	logger  *slog.Logger
}

func newNode(spec *domain.NodeSpec, b Behavior, logger *slog.Logger) *node {
	n := &node{
		spec:    spec,
		call:    b.Call,
		before:  b.Before,
		after:   b.After,
		publish: policyFor(spec.Category),
		logger:  logger,
	}
	if n.call == nil {
		n.call = defaultCall(spec)
	}
	return n
}

// defaultCall is the behavior of a type that declares no custom logic: echo
// the entire resolved input when no output fields are declared (pass-through
// nodes), otherwise project the resolved input down to the declared fields.
func defaultCall(spec *domain.NodeSpec) CallFunc {
	return func(_ context.Context, input map[string]any) (map[string]any, error) {
		if len(spec.OutputFields) == 0 {
			return input, nil
		}
		out := make(map[string]any, len(spec.OutputFields))
		for _, f := range spec.OutputFields {
			if v, ok := input[f]; ok {
				out[f] = v
			}
		}
		return out, nil
	}
}

// resolveInput assembles the call input strictly from declared sources.
//
// Init params are copied from the input namespace; declared input fields are
// read from the cache with the input mapping applied. A missing field is a
// diagnostic, not a failure: the node proceeds with a partial input map.
// Resolution is pure; for a fixed context state it always yields the same map.
func (n *node) resolveInput(ec *domain.ExecutionContext) map[string]any {
	resolved := make(map[string]any, len(n.spec.InitParams)+len(n.spec.InputFields))

	for _, name := range n.spec.InitParams {
		v, ok := ec.GetInput(name)
		if !ok {
			n.logger.Warn("init param missing from run parameters, omitting",
				"node", n.spec.ID, "param", name)
			continue
		}
		resolved[name] = v
	}

	for _, name := range n.spec.InputFields {
		v, ok := ec.GetCache(name)
		if !ok && n.spec.Category == domain.CategoryAfter {
			// After nodes may consume what the exit node published to the
			// caller; the output namespace is their secondary source.
			v, ok = ec.GetOutput(name)
		}
		if !ok {
			n.logger.Warn("input field not populated upstream, omitting",
				"node", n.spec.ID, "field", name)
			continue
		}
		resolved[n.spec.MappedName(name)] = v
	}

	return resolved
}

// publishOutput writes the declared output fields to the namespace the node's
// category prescribes. Fields the call returned but did not declare are
// silently dropped.
func (n *node) publishOutput(output map[string]any, ec *domain.ExecutionContext) {
	for _, name := range n.spec.OutputFields {
		v, ok := output[name]
		if !ok {
			continue
		}
		n.publish(ec, name, v)
	}
}

// execute orchestrates resolve -> before -> call -> publish -> after and
// captures every failure (including panics) into the result. The result is
// finalized exactly once; callers treat it as immutable.
func (n *node) execute(ctx context.Context, ec *domain.ExecutionContext) (result domain.ExecutionResult) {
	result = domain.ExecutionResult{
		NodeID:    n.spec.ID,
		Status:    domain.StatusRunning,
		StartTime: time.Now(),
	}

	fail := func(err error) {
		result.Status = domain.StatusFailed
		result.Err = err
		result.Error = err.Error()
		result.EndTime = time.Now()
	}

	defer func() {
		if r := recover(); r != nil {
			fail(&domain.NodeExecutionError{
				NodeID: n.spec.ID,
				Type:   n.spec.Type,
				Err:    fmt.Errorf("panic: %v", r),
			})
		}
	}()

	resolved := n.resolveInput(ec)
	result.Input = resolved

	if n.before != nil {
		if err := n.before(ctx, resolved); err != nil {
			fail(&domain.NodeExecutionError{NodeID: n.spec.ID, Type: n.spec.Type, Err: err})
			return result
		}
	} else {
		n.logger.Debug("executing node", "node", n.spec.ID, "type", n.spec.Type)
	}

	output, err := n.call(ctx, resolved)
	if err != nil {
		fail(&domain.NodeExecutionError{NodeID: n.spec.ID, Type: n.spec.Type, Err: err})
		return result
	}
	result.Output = output

	n.publishOutput(output, ec)

	if n.after != nil {
		if err := n.after(ctx, output); err != nil {
			fail(&domain.NodeExecutionError{NodeID: n.spec.ID, Type: n.spec.Type, Err: err})
			return result
		}
	} else {
		n.logger.Debug("node finished", "node", n.spec.ID)
	}

	result.Status = domain.StatusCompleted
	result.EndTime = time.Now()
	return result
}
