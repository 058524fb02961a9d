package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "arbor is a workflow engine for AI processing pipelines",
	Long: `Arbor executes declarative workflow definitions: chains of typed nodes
that read parameters, call tool groups and publish results.

Definitions are YAML files in the target directory. Use 'run' to execute one,
'validate' to check wiring without executing, and 'serve' or 'mcp' to expose
the engine to other programs.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("dir", "d", ".", "Directory containing workflow definitions")
}
