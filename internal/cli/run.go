package cli

import (
	"encoding/json"
	"fmt"

	"github.com/joho/godotenv"

	"github.com/arborworks/arbor"
)

// RunOptions contains all the configuration for the Run command.
type RunOptions struct {
	Dir        string
	Definition string
	Params     []string // Raw key=value pairs
	ParamsJSON string   // Raw JSON object, merged over Params
	EnvFile    string
	After      bool
	Await      bool
	Watch      bool
	JSON       bool
	Plain      bool
	Quiet      bool
	Debug      bool
	StoreDir   string
	RedisURL   string
}

// Execute handles the 'run' command logic, dispatching to Watch or single-run mode.
func Execute(opts RunOptions) error {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return err
	}

	params, err := buildParams(opts)
	if err != nil {
		return err
	}

	if opts.Watch {
		if opts.JSON {
			return fmt.Errorf("--watch and --json cannot be used together")
		}
		RunWatch(opts, params)
		return nil
	}

	return RunOnce(opts, params)
}

// loadEnvFile loads environment variables for tool groups (API keys etc).
// An explicit path must exist; the default .env is optional.
func loadEnvFile(path string) error {
	if path == "" {
		_ = godotenv.Load()
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// buildParams merges --param pairs with the raw --params JSON object.
// JSON values win on key collision.
func buildParams(opts RunOptions) (map[string]any, error) {
	params, err := ParseParams(opts.Params)
	if err != nil {
		return nil, err
	}

	if opts.ParamsJSON != "" {
		var raw map[string]any
		if err := json.Unmarshal([]byte(opts.ParamsJSON), &raw); err != nil {
			return nil, fmt.Errorf("error parsing --params JSON: %w", err)
		}
		for k, v := range raw {
			params[k] = v
		}
	}

	sanitized, err := arbor.SanitizeParams(params)
	if err != nil {
		return nil, err
	}
	return sanitized, nil
}
