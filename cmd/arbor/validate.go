package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arborworks/arbor"
	"github.com/arborworks/arbor/pkg/domain"
)

var validateCmd = &cobra.Command{
	Use:   "validate [definition]",
	Short: "Check workflow definitions for consistency",
	Long: `Compiles definitions and reports wiring problems: unknown node types,
fields consumed before any upstream node produces them, bad mappings.
With no argument, every definition in the directory is checked.`,
	Run: func(cmd *cobra.Command, args []string) {
		dir, _ := cmd.Flags().GetString("dir")

		if err := runValidate(dir, args); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("All definitions are valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(dir string, args []string) error {
	engine, err := arbor.New(dir)
	if err != nil {
		return fmt.Errorf("failed to init engine: %w", err)
	}

	ctx := context.Background()

	names := args
	if len(names) == 0 {
		names, err = engine.Definitions(ctx)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			return fmt.Errorf("no definitions found in %s", dir)
		}
	}

	failed := false
	for _, name := range names {
		err := engine.Validate(ctx, name)
		if err == nil {
			fmt.Printf("  %s: ok\n", name)
			continue
		}
		failed = true

		var cfgErr *domain.ConfigurationError
		if errors.As(err, &cfgErr) {
			fmt.Printf("  %s:\n", name)
			for _, problem := range cfgErr.Problems {
				fmt.Printf("    - %s\n", problem)
			}
			continue
		}
		fmt.Printf("  %s: %v\n", name, err)
	}

	if failed {
		return fmt.Errorf("one or more definitions are invalid")
	}
	return nil
}
