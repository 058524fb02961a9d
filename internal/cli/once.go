package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/arborworks/arbor"
	"github.com/arborworks/arbor/internal/presentation/tui"
)

// RunOnce executes a single definition and prints the settled record.
func RunOnce(opts RunOptions, params map[string]any) error {
	logger := createLogger(opts.Debug)

	runner := arbor.NewRunner(os.Stdout)
	runner.Quiet = opts.Quiet || opts.JSON
	if !opts.Plain && !opts.JSON && tui.IsInteractive() {
		runner.Renderer = tui.NewRenderer()
	}

	engine, err := createEngine(opts, logger, arbor.WithLifecycleHooks(runner.Hooks()))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run, execErr := engine.Execute(ctx, opts.Definition, params, arbor.RunConfig{
		ExecuteAfterNodes: opts.After,
		AwaitAfterNodes:   opts.Await,
	})
	if run == nil {
		return execErr
	}

	// The process is about to exit, so detached background nodes get their
	// settling point here instead of in a long-lived host.
	if opts.After && !opts.Await {
		if !opts.Quiet && !opts.JSON {
			printSystemMessage("Waiting for background nodes...")
		}
		run.Wait()
	}

	record := run.Record()

	if opts.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(record); err != nil {
			return err
		}
	} else if err := runner.PrintRecord(record); err != nil {
		return err
	}

	if execErr != nil && !errors.Is(execErr, context.Canceled) {
		return fmt.Errorf("run %s failed: %w", run.ID, execErr)
	}
	return nil
}
