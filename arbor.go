package arbor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/arborworks/arbor/internal/runtime"
	fileAdapter "github.com/arborworks/arbor/pkg/adapters/file"
	"github.com/arborworks/arbor/pkg/domain"
	"github.com/arborworks/arbor/pkg/ports"
	"github.com/arborworks/arbor/pkg/registry"
	"github.com/arborworks/arbor/pkg/runs"
	"github.com/arborworks/arbor/pkg/schema"
)

// Version is the library version reported by the surfaces (CLI, HTTP, MCP).
var Version = "0.3.0"

// Re-exported runtime types so library consumers can configure node behavior
// without reaching into internal packages.
type (
	// Behavior overrides how nodes of one type execute.
	Behavior = runtime.Behavior
	// CallFunc is the unit of work a node performs.
	CallFunc = runtime.CallFunc
	// HookFunc runs around a node's call.
	HookFunc = runtime.HookFunc
	// Definition is a compiled, validated workflow.
	Definition = runtime.Definition
	// Run is the handle for one workflow execution.
	Run = runtime.Run
	// RunConfig controls the background after phase.
	RunConfig = runtime.RunConfig
)

// Engine is the high-level entry point for the arbor library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Engine struct {
	runtime *runtime.Engine
	loader  ports.DefinitionLoader
	records *runs.Manager
	locker  ports.DistributedLocker
	hooks   domain.LifecycleHooks
	logger  *slog.Logger

	runtimeOpts []runtime.EngineOption

	mu   sync.Mutex
	defs map[string]*Definition

	Name string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLoader injects a custom DefinitionLoader, bypassing the default
// filesystem initialization.
func WithLoader(l ports.DefinitionLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithRunStore enables run record persistence.
func WithRunStore(store ports.RunStore) Option {
	return func(e *Engine) {
		e.records = runs.NewManager(store)
	}
}

// WithDistributedLocker guards record writes across replicas. Only effective
// together with WithRunStore.
func WithDistributedLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithRegistry injects the tool registry nodes dispatch against.
func WithRegistry(r *registry.Registry) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithRegistry(r))
	}
}

// WithBehavior overrides execution for one node type.
func WithBehavior(typeName string, b Behavior) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithBehavior(typeName, b))
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New initializes a new arbor Engine.
// By default, it loads YAML definitions from the given directory.
// If the WithLoader option is provided, definitionsDir can be empty and the
// filesystem loader is skipped.
func New(definitionsDir string, opts ...Option) (*Engine, error) {
	eng := &Engine{
		defs: make(map[string]*Definition),
	}

	// Apply options first to check if a loader is provided
	for _, opt := range opts {
		opt(eng)
	}

	if eng.loader == nil {
		if definitionsDir == "" {
			return nil, fmt.Errorf("definitionsDir is required when no custom loader is provided")
		}

		absPath, err := filepath.Abs(definitionsDir)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}

		eng.Name = filepath.Base(absPath)

		loader, err := fileAdapter.NewLoader(absPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize definition loader: %w", err)
		}
		eng.loader = loader
	} else if definitionsDir != "" {
		// A custom loader still gets a descriptive label from the path.
		eng.Name = filepath.Base(definitionsDir)
	}

	// Ensure logger is initialized so we don't pass nil to the runtime.
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("engine", eng.Name)
	}

	if eng.records != nil {
		relock := []runs.Option{runs.WithLogger(eng.logger)}
		if eng.locker != nil {
			relock = append(relock, runs.WithLocker(eng.locker))
		}
		eng.records = runs.NewManager(eng.records.Store(), relock...)
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
	}
	runtimeOpts = append(runtimeOpts, eng.runtimeOpts...)

	eng.runtime = runtime.NewEngine(runtimeOpts...)

	return eng, nil
}

// Load retrieves a document by name and compiles it. Compiled definitions
// are cached until Invalidate is called.
func (e *Engine) Load(ctx context.Context, name string) (*Definition, error) {
	e.mu.Lock()
	if def, ok := e.defs[name]; ok {
		e.mu.Unlock()
		return def, nil
	}
	e.mu.Unlock()

	doc, err := e.loader.Load(ctx, name)
	if err != nil {
		return nil, err
	}

	def, err := e.runtime.Compile(doc)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.defs[name] = def
	e.mu.Unlock()
	return def, nil
}

// Compile validates and compiles a document built in code (e.g. via the dsl
// package) without involving the loader.
func (e *Engine) Compile(doc *schema.Document) (*Definition, error) {
	return e.runtime.Compile(doc)
}

// Invalidate drops cached definitions. With no names, the whole cache is
// cleared. Wired to Watch signals by the serve surfaces.
func (e *Engine) Invalidate(names ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(names) == 0 {
		e.defs = make(map[string]*Definition)
		return
	}
	for _, name := range names {
		delete(e.defs, name)
	}
}

// Execute loads the named definition and runs it with the given parameters.
// The returned run handle exposes the output namespace and, when the after
// phase is detached, the Wait settling point. When a run store is configured
// the record is persisted as the run settles.
func (e *Engine) Execute(ctx context.Context, name string, params map[string]any, cfg RunConfig) (*Run, error) {
	def, err := e.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	return e.ExecuteDefinition(ctx, def, params, cfg)
}

// ExecuteDefinition runs an already compiled definition.
func (e *Engine) ExecuteDefinition(ctx context.Context, def *Definition, params map[string]any, cfg RunConfig) (*Run, error) {
	run, err := e.runtime.Execute(ctx, def, params, cfg)
	if run != nil && e.records != nil {
		e.persist(ctx, run, cfg)
	}
	return run, err
}

// persist saves the settled main-chain record, then saves again once the
// detached after phase finishes appending its results.
func (e *Engine) persist(ctx context.Context, run *Run, cfg RunConfig) {
	record := run.Record()
	if err := e.records.Save(ctx, &record); err != nil {
		e.logger.Error("failed to persist run record", "run", run.ID, "error", err)
	}

	if cfg.ExecuteAfterNodes && !cfg.AwaitAfterNodes && run.Definition().HasAfterNodes() {
		go func() {
			run.Wait()
			// The caller's context may be gone by now.
			record := run.Record()
			if err := e.records.Save(context.Background(), &record); err != nil {
				e.logger.Error("failed to persist settled run record", "run", run.ID, "error", err)
			}
		}()
	}
}

// Validate loads and compiles the named definition, returning the
// configuration problems found, if any.
func (e *Engine) Validate(ctx context.Context, name string) error {
	doc, err := e.loader.Load(ctx, name)
	if err != nil {
		return err
	}
	_, err = e.runtime.Compile(doc)
	return err
}

// Definitions returns the names of all loadable documents.
func (e *Engine) Definitions(ctx context.Context) ([]string, error) {
	return e.loader.List(ctx)
}

// Document returns the raw parsed document for introspection tools.
func (e *Engine) Document(ctx context.Context, name string) (*schema.Document, error) {
	return e.loader.Load(ctx, name)
}

// Watch returns a channel that signals when the underlying definitions
// change. Returns an error if the loader does not support watching.
func (e *Engine) Watch(ctx context.Context) (<-chan struct{}, error) {
	if w, ok := e.loader.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, fmt.Errorf("current loader does not support watching")
}

// Runs returns the IDs of persisted runs. Requires WithRunStore.
func (e *Engine) Runs(ctx context.Context) ([]string, error) {
	if e.records == nil {
		return nil, fmt.Errorf("no run store configured")
	}
	return e.records.List(ctx)
}

// RunRecord returns a persisted run record. Requires WithRunStore.
func (e *Engine) RunRecord(ctx context.Context, runID string) (*domain.RunRecord, error) {
	if e.records == nil {
		return nil, fmt.Errorf("no run store configured")
	}
	return e.records.Load(ctx, runID)
}

// DeleteRun removes a persisted run record. Requires WithRunStore.
func (e *Engine) DeleteRun(ctx context.Context, runID string) error {
	if e.records == nil {
		return fmt.Errorf("no run store configured")
	}
	return e.records.Delete(ctx, runID)
}

// Loader returns the underlying DefinitionLoader used by the engine.
func (e *Engine) Loader() ports.DefinitionLoader {
	return e.loader
}

// Records returns the run record manager, or nil without a run store.
func (e *Engine) Records() *runs.Manager {
	return e.records
}
