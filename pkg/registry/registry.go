// Package registry maps node-type names to tool groups: the externally
// supplied implementations of a node type's domain logic. The engine invokes a
// group's methods by name and never imports the implementations themselves.
package registry

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/arborworks/arbor/internal/logging"
	"github.com/arborworks/arbor/pkg/domain"
)

// Method is one callable of a tool group. Arguments are positional; the group
// and its callers agree on arity and types out of band.
type Method func(ctx context.Context, args ...any) (any, error)

// Group is the closed set of methods a node type exposes. It is a plain map
// from method name to function, resolved at registration time rather than
// through runtime reflection.
type Group map[string]Method

// Registry associates node-type names with tool groups.
// It is built explicitly at startup and injected into the engine; nothing
// registers itself as a construction side effect.
type Registry struct {
	mu     sync.RWMutex
	groups map[string]Group
	logger *slog.Logger
}

// Option configures the Registry.
type Option func(*Registry)

// WithLogger sets the logger used by the error policy point.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		groups: make(map[string]Group),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register associates a group with a node-type name. Registration is
// idempotent: re-registering an already known type is a no-op, so construction
// order of node types never matters.
func (r *Registry) Register(typeName string, group Group) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.groups[typeName]; exists {
		r.logger.Debug("tool group already registered", "type", typeName)
		return
	}
	r.groups[typeName] = group
}

// Get returns the group registered for a node-type name.
func (r *Registry) Get(typeName string) (Group, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.groups[typeName]
	return g, ok
}

// Methods lists the method names a type exposes, sorted. Empty when the type
// is unknown.
func (r *Registry) Methods(typeName string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.groups[typeName]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(g))
	for name := range g {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Types lists the registered node-type names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.groups))
	for name := range r.groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke looks up the method on the group registered for typeName and executes
// it. An unknown method yields a MethodNotFoundError listing the group's
// available methods. A failing callable passes the single handleError policy
// point: logged, then returned to the caller, so a failing tool call always
// surfaces as an execution failure and is never silently swallowed.
func (r *Registry) Invoke(ctx context.Context, typeName, method string, args ...any) (any, error) {
	r.mu.RLock()
	group, ok := r.groups[typeName]
	fn, found := group[method]
	r.mu.RUnlock()

	if !ok || !found {
		return nil, &domain.MethodNotFoundError{
			Type:      typeName,
			Method:    method,
			Available: r.Methods(typeName),
		}
	}

	result, err := fn(ctx, args...)
	if err != nil {
		return nil, r.handleError(err, typeName, method)
	}
	return result, nil
}

// handleError is the single interception point for tool-call failures.
func (r *Registry) handleError(err error, typeName, method string) error {
	r.logger.Error("tool method failed", "type", typeName, "method", method, "error", err)
	return err
}
