package domain

import "sync"

// ExecutionContext is the per-run state container, partitioned into three
// namespaces:
//
//   - input: run parameters, seeded once at construction, read-only afterwards.
//   - cache: node-to-node handoff. Global to the run, not edge-scoped.
//   - output: written by exit nodes, read by the caller. Never read back by nodes.
//
// The main chain executes nodes strictly sequentially, so reads and writes need
// no coordination there. After-category nodes outlive the caller's return and may
// run concurrently with the caller, so all accessors take the mutex.
type ExecutionContext struct {
	mu     sync.RWMutex
	input  map[string]any
	cache  map[string]any
	output map[string]any
}

// NewExecutionContext creates a context seeded with the given run parameters.
// The parameter map is copied; later mutation by the caller does not leak in.
func NewExecutionContext(params map[string]any) *ExecutionContext {
	input := make(map[string]any, len(params))
	for k, v := range params {
		input[k] = v
	}
	return &ExecutionContext{
		input:  input,
		cache:  make(map[string]any),
		output: make(map[string]any),
	}
}

// HasInput reports whether a run parameter was supplied.
func (c *ExecutionContext) HasInput(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.input[key]
	return ok
}

// GetInput returns a run parameter, or nil and false when absent.
func (c *ExecutionContext) GetInput(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.input[key]
	return v, ok
}

// HasCache reports whether an upstream node published the field.
func (c *ExecutionContext) HasCache(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.cache[key]
	return ok
}

// GetCache returns a cache field, or nil and false when absent.
func (c *ExecutionContext) GetCache(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.cache[key]
	return v, ok
}

// SetCache publishes a field for downstream nodes. Last write wins.
func (c *ExecutionContext) SetCache(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = value
}

// SetOutput publishes a field to the caller-visible output namespace.
func (c *ExecutionContext) SetOutput(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.output[key] = value
}

// GetOutput returns an output field, or nil and false when absent.
func (c *ExecutionContext) GetOutput(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.output[key]
	return v, ok
}

// InputSnapshot returns a copy of the input namespace.
func (c *ExecutionContext) InputSnapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyMap(c.input)
}

// OutputSnapshot returns a copy of the output namespace. This is what the engine
// hands to the caller when the exit node completes.
func (c *ExecutionContext) OutputSnapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyMap(c.output)
}

// CacheSnapshot returns a copy of the cache namespace, for introspection and tests.
func (c *ExecutionContext) CacheSnapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyMap(c.cache)
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
