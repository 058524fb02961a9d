package arbor

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/arborworks/arbor/pkg/domain"
)

// Runner formats run progress and results for a text frontend. It produces
// lifecycle hooks that stream node progress as it happens and a summary
// printer for the settled record. This keeps the rendering concerns out of
// the engine and makes the output testable against a buffer.
type Runner struct {
	Output   io.Writer
	Renderer ContentRenderer
	Quiet    bool
}

// ContentRenderer transforms content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// NewRunner creates a new Runner writing to the given output.
func NewRunner(output io.Writer) *Runner {
	return &Runner{Output: output}
}

// Hooks returns lifecycle hooks that stream node progress to the output.
// Pass them to New via WithLifecycleHooks.
func (r *Runner) Hooks() domain.LifecycleHooks {
	if r.Quiet {
		return domain.LifecycleHooks{}
	}
	return domain.LifecycleHooks{
		OnNodeStart: func(_ context.Context, evt *domain.NodeEvent) {
			fmt.Fprintf(r.Output, "▶ %s (%s)\n", evt.NodeID, evt.NodeType)
		},
		OnNodeFinish: func(_ context.Context, evt *domain.NodeEvent) {
			if evt.Status == domain.StatusFailed {
				fmt.Fprintf(r.Output, "✖ %s failed\n", evt.NodeID)
				return
			}
			fmt.Fprintf(r.Output, "✔ %s\n", evt.NodeID)
		},
	}
}

// PrintRecord writes the settled run record as a human-readable summary.
func (r *Runner) PrintRecord(record domain.RunRecord) error {
	fmt.Fprintf(r.Output, "\nRun %s (%s): %s\n", record.ID, record.Definition, record.Status)
	if record.Error != "" {
		fmt.Fprintf(r.Output, "Error: %s\n", record.Error)
	}

	if len(record.Output) == 0 {
		return nil
	}

	fmt.Fprintln(r.Output, "Output:")
	keys := make([]string, 0, len(record.Output))
	for k := range record.Output {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := r.printValue(k, record.Output[k]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) printValue(key string, value any) error {
	text, isText := value.(string)
	if !isText {
		fmt.Fprintf(r.Output, "  %s: %v\n", key, value)
		return nil
	}

	if r.Renderer != nil {
		rendered, err := r.Renderer(text)
		if err != nil {
			return fmt.Errorf("rendering %s: %w", key, err)
		}
		text = rendered
	}

	if strings.Contains(text, "\n") {
		fmt.Fprintf(r.Output, "  %s:\n", key)
		for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
			fmt.Fprintf(r.Output, "    %s\n", line)
		}
		return nil
	}

	fmt.Fprintf(r.Output, "  %s: %s\n", key, text)
	return nil
}
