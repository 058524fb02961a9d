package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arborworks/arbor/internal/cli"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [definition]",
	Short: "Execute a workflow definition",
	Long: `Executes the named workflow with the given parameters and prints the
settled output. Parameters are passed as repeated --param key=value flags;
values that parse as JSON literals keep their type.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := collectRunOptions(cmd, args)

		if opts.Definition == "" {
			fmt.Println("Error: a definition name is required (positional or --definition).")
			os.Exit(1)
		}
		if opts.Watch && opts.JSON {
			fmt.Println("Error: --watch and --json cannot be used together.")
			os.Exit(1)
		}

		if err := cli.Execute(opts); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func collectRunOptions(cmd *cobra.Command, args []string) cli.RunOptions {
	opts := cli.RunOptions{}
	opts.Dir, _ = cmd.Flags().GetString("dir")
	opts.Definition, _ = cmd.Flags().GetString("definition")
	if opts.Definition == "" && len(args) > 0 {
		opts.Definition = args[0]
	}
	opts.Params, _ = cmd.Flags().GetStringArray("param")
	opts.ParamsJSON, _ = cmd.Flags().GetString("params")
	opts.EnvFile, _ = cmd.Flags().GetString("env-file")
	opts.After, _ = cmd.Flags().GetBool("after")
	opts.Await, _ = cmd.Flags().GetBool("await")
	opts.Watch, _ = cmd.Flags().GetBool("watch")
	opts.JSON, _ = cmd.Flags().GetBool("json")
	opts.Plain, _ = cmd.Flags().GetBool("plain")
	opts.Quiet, _ = cmd.Flags().GetBool("quiet")
	opts.Debug, _ = cmd.Flags().GetBool("debug")
	opts.StoreDir, _ = cmd.Flags().GetString("store")
	opts.RedisURL, _ = cmd.Flags().GetString("redis")

	if opts.Await {
		opts.After = true
	}
	if keep, _ := cmd.Flags().GetBool("keep-runs"); keep && opts.StoreDir == "" && opts.RedisURL == "" {
		opts.StoreDir = cli.DefaultStoreDir(opts.Dir)
	}
	return opts
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("definition", "", "Name of the workflow definition to run")
	runCmd.Flags().StringArrayP("param", "p", nil, "Run parameter as key=value (repeatable)")
	runCmd.Flags().String("params", "", "Run parameters as a raw JSON object")
	runCmd.Flags().String("env-file", "", "Env file to load before running (default: .env if present)")
	runCmd.Flags().Bool("after", false, "Execute background nodes after the main chain")
	runCmd.Flags().Bool("await", false, "Block until background nodes settle (implies --after)")
	runCmd.Flags().BoolP("watch", "w", false, "Re-run on definition changes (development mode)")
	runCmd.Flags().Bool("json", false, "Print the run record as JSON instead of the summary")
	runCmd.Flags().Bool("plain", false, "Disable markdown rendering of string outputs")
	runCmd.Flags().BoolP("quiet", "q", false, "Suppress per-node progress output")
	runCmd.Flags().Bool("debug", false, "Enable debug logging to stderr")
	runCmd.Flags().Bool("keep-runs", false, "Persist run records under <dir>/.arbor/runs")
	runCmd.Flags().String("store", "", "Directory for run record persistence")
	runCmd.Flags().String("redis", "", "Redis URL for run record persistence")
}
