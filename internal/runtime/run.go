package runtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arborworks/arbor/pkg/domain"
	"github.com/arborworks/arbor/pkg/schema"
)

// RunConfig controls the after phase of a run. The main chain always executes.
type RunConfig struct {
	// ExecuteAfterNodes enables the background after phase.
	ExecuteAfterNodes bool
	// AwaitAfterNodes makes Execute block until the after phase settles
	// instead of detaching it. Ignored unless ExecuteAfterNodes is set.
	AwaitAfterNodes bool
}

// Run is the handle for one workflow execution. It owns the ExecutionContext:
// when the after phase is detached, the handle keeps the context reachable
// until every after node has settled, and Wait exposes that settling point to
// the caller.
type Run struct {
	ID  string
	def *Definition
	ec  *domain.ExecutionContext

	mu     sync.Mutex
	record domain.RunRecord
	after  sync.WaitGroup
}

// Output returns the output namespace snapshot the caller received.
func (r *Run) Output() map[string]any {
	return r.ec.OutputSnapshot()
}

// Definition returns the compiled definition this run executed.
func (r *Run) Definition() *Definition {
	return r.def
}

// Wait blocks until all detached after nodes have settled. It returns
// immediately when the run had no after phase.
func (r *Run) Wait() {
	r.after.Wait()
}

// Record returns a copy of the run record accumulated so far. After-node
// results keep arriving until Wait returns.
func (r *Run) Record() domain.RunRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.record
	rec.Results = make([]domain.ExecutionResult, len(r.record.Results))
	copy(rec.Results, r.record.Results)
	return rec
}

func (r *Run) appendResult(result domain.ExecutionResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record.Results = append(r.record.Results, result)
}

func (r *Run) finalize(status domain.RunStatus, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record.Status = status
	r.record.EndTime = time.Now()
	if err != nil {
		r.record.Error = err.Error()
	}
	if status == domain.RunStatusCompleted {
		r.record.Output = r.ec.OutputSnapshot()
	}
}

// Execute runs the main chain of a compiled definition and returns the run
// handle once the exit node has completed. Fail-fast: the first failed node
// aborts the chain and its error is returned; no output is produced and no
// after node runs.
//
// When cfg.ExecuteAfterNodes is set, after nodes execute against the same
// context in declaration order on a background goroutine, after the output
// snapshot is already fixed. Their failures are logged and isolated, never
// surfaced through Execute. With cfg.AwaitAfterNodes the call blocks until
// that phase settles; otherwise Run.Wait is the synchronization point.
func (e *Engine) Execute(ctx context.Context, def *Definition, params map[string]any, cfg RunConfig) (*Run, error) {
	if err := schema.Validate(def.ParamSchema(), params); err != nil {
		return nil, fmt.Errorf("run parameters rejected: %w", err)
	}

	run := &Run{
		ID:  uuid.NewString(),
		def: def,
		ec:  domain.NewExecutionContext(params),
		record: domain.RunRecord{
			Definition: def.Name(),
			Status:     domain.RunStatusRunning,
			Params:     params,
			StartTime:  time.Now(),
		},
	}
	run.record.ID = run.ID

	e.logger.Debug("run started", "run", run.ID, "definition", def.Name())

	for _, n := range def.main {
		if err := ctx.Err(); err != nil {
			run.finalize(domain.RunStatusFailed, err)
			e.emitRunFinish(ctx, run, domain.RunStatusFailed, err)
			return run, err
		}

		e.emitNodeStart(ctx, run.ID, n)
		result := n.execute(ctx, run.ec)
		run.appendResult(result)
		e.emitNodeFinish(ctx, run.ID, n, &result)

		if result.Status == domain.StatusFailed {
			// The node lifecycle already wrapped the failure; surface it as is.
			err := result.Err
			e.logger.Error("main chain aborted", "run", run.ID, "node", n.spec.ID, "error", err)
			run.finalize(domain.RunStatusFailed, err)
			e.emitRunFinish(ctx, run, domain.RunStatusFailed, err)
			return run, err
		}

		if n.spec.Category == domain.CategoryExit {
			break
		}
	}

	// The caller-visible result is fixed here, before any after node runs.
	run.finalize(domain.RunStatusCompleted, nil)
	e.emitRunFinish(ctx, run, domain.RunStatusCompleted, nil)

	if cfg.ExecuteAfterNodes && def.HasAfterNodes() {
		run.after.Add(1)
		go e.runAfterPhase(run)
		if cfg.AwaitAfterNodes {
			run.after.Wait()
		}
	}

	return run, nil
}

// runAfterPhase executes after nodes sequentially in declaration order.
// Sequential execution is the documented answer to concurrent cache-key
// collisions between after nodes: last write wins under a total order.
// Failures are isolated per node; one failing after node does not stop the
// next one, and the caller never sees the error.
func (e *Engine) runAfterPhase(run *Run) {
	defer run.after.Done()

	// Detached from the caller's context on purpose: the caller returning (or
	// cancelling) must not tear down bookkeeping work already scheduled.
	ctx := context.Background()

	status := domain.RunStatusCompleted
	var firstErr error

	for _, n := range run.def.after {
		e.emitNodeStart(ctx, run.ID, n)
		result := n.execute(ctx, run.ec)
		run.appendResult(result)
		e.emitNodeFinish(ctx, run.ID, n, &result)

		if result.Status == domain.StatusFailed {
			status = domain.RunStatusFailed
			if firstErr == nil {
				firstErr = result.Err
			}
			e.logger.Error("after node failed (isolated)",
				"run", run.ID, "node", n.spec.ID, "error", result.Err)
		}
	}

	e.emitAfterFinish(ctx, run, status, firstErr)
}
