package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arborworks/arbor/internal/logging"
	"github.com/arborworks/arbor/pkg/domain"
)

// ParseParams converts repeated key=value flags into a parameter map.
// Values that parse as JSON literals (numbers, booleans, null, objects,
// arrays) keep their type; everything else stays a string.
func ParseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid --param %q, expected key=value", pair)
		}
		params[key] = coerceValue(raw)
	}
	return params, nil
}

func coerceValue(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return raw
	}
	switch trimmed[0] {
	case '{', '[', '"', 't', 'f', 'n', '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var v any
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return v
		}
	}
	return raw
}

// createLogger configures the application logger.
// In debug mode it writes to stderr so the flow output on stdout stays clean.
func createLogger(debug bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.NewNop()
}

// printSystemMessage prints a standardized system message to stdout.
func printSystemMessage(format string, args ...any) {
	fmt.Printf(">>> %s\n", fmt.Sprintf(format, args...))
}

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeStart: func(ctx context.Context, e *domain.NodeEvent) {
			logger.Debug("Node Start", "node_id", e.NodeID, "type", e.NodeType, "category", e.Category)
		},
		OnNodeFinish: func(ctx context.Context, e *domain.NodeEvent) {
			if e.Status == domain.StatusFailed {
				logger.Debug("Node Finish (Error)", "node_id", e.NodeID, "err", e.Err)
				return
			}
			logger.Debug("Node Finish", "node_id", e.NodeID)
		},
		OnToolInvoke: func(ctx context.Context, e *domain.ToolEvent) {
			logger.Debug("Tool Invoke", "type", e.NodeType, "method", e.Method, "is_error", e.IsError)
		},
		OnRunFinish: func(ctx context.Context, e *domain.RunEvent) {
			logger.Debug("Run Finish", "run_id", e.RunID, "status", e.Status)
		},
		OnAfterFinish: func(ctx context.Context, e *domain.RunEvent) {
			logger.Debug("After Phase Finish", "run_id", e.RunID, "status", e.Status)
		},
	}
}
