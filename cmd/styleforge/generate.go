package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/auracore/styleforge/internal/prompt"
	"github.com/spf13/cobra"
)

func newGenerateCommand() *cobra.Command {
	var (
		dryRun bool
		count  int
	)

	cmd := &cobra.Command{
		Use:   "generate <user-id> <command...>",
		Short: "Run specificity analysis and build a prompt, optionally submitting it to a fake generator",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), args[0], strings.Join(args[1:], " "), dryRun, count)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "build the prompt without submitting it to the generator adapter")
	cmd.Flags().IntVar(&count, "count", 1, "number of images to generate, each with its own variation seed")

	return cmd
}

func runGenerate(ctx context.Context, userID, command string, dryRun bool, count int) error {
	app, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	opts := prompt.Options{Command: command}

	if dryRun {
		pkg, err := app.orch.GeneratePrompt(ctx, userID, opts)
		if err != nil {
			return fmt.Errorf("build prompt: %w", err)
		}

		return printJSON(pkg)
	}

	if count > 1 {
		batch, err := app.orch.RequestBatch(ctx, userID, opts, app.genSettings, count)
		if err != nil {
			return fmt.Errorf("request batch: %w", err)
		}

		return printJSON(batch)
	}

	outcome, err := app.orch.RequestGeneration(ctx, userID, opts, app.genSettings)
	if err != nil {
		return fmt.Errorf("request generation: %w", err)
	}

	return printJSON(outcome)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	fmt.Println(string(out))

	return nil
}
