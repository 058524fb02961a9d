package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arborworks/arbor"
	"github.com/arborworks/arbor/internal/presentation/tui"
)

// RunWatch executes a definition in development mode, re-running on file
// changes. Each change invalidates the compiled definition cache so the next
// iteration picks up the edited YAML.
func RunWatch(opts RunOptions, params map[string]any) {
	logger := createLogger(opts.Debug)
	tui.PrintBanner(arbor.Version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := arbor.NewRunner(os.Stdout)
	runner.Quiet = opts.Quiet
	if !opts.Plain && tui.IsInteractive() {
		runner.Renderer = tui.NewRenderer()
	}

	engine, err := createEngine(opts, logger, arbor.WithLifecycleHooks(runner.Hooks()))
	if err != nil {
		logger.Error("Engine initialization failed", "err", err)
		printSystemMessage("Engine initialization failed: %v", err)
		return
	}

	watchCh, err := engine.Watch(ctx)
	if err != nil {
		logger.Error("Watcher unavailable", "err", err)
		printSystemMessage("Watcher unavailable: %v", err)
		return
	}

	logger.Info("Starting Watcher", "path", opts.Dir, "definition", opts.Definition)
	printSystemMessage("Watching '%s' for changes.", opts.Dir)

	for {
		runWatchIteration(ctx, engine, runner, opts, params, logger)

		select {
		case <-ctx.Done():
			printSystemMessage("Stopping watcher.")
			return
		case _, ok := <-watchCh:
			if !ok {
				return
			}
			// Let the filesystem settle before re-reading.
			time.Sleep(100 * time.Millisecond)
			engine.Invalidate()
			printSystemMessage("Change detected, re-running '%s'.", opts.Definition)
		}
	}
}

func runWatchIteration(ctx context.Context, engine *arbor.Engine, runner *arbor.Runner, opts RunOptions, params map[string]any, logger *slog.Logger) {
	run, err := engine.Execute(ctx, opts.Definition, params, arbor.RunConfig{
		ExecuteAfterNodes: opts.After,
		AwaitAfterNodes:   true, // keep iterations serialized in watch mode
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Run failed", "err", err)
		if run == nil {
			printSystemMessage("Run failed: %v", err)
			return
		}
	}
	if run == nil {
		return
	}
	if err := runner.PrintRecord(run.Record()); err != nil {
		logger.Error("Render failed", "err", err)
	}
	printSystemMessage("Waiting for changes...")
}
