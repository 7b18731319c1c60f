package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgerline/ledgerline/internal/cli"
	"github.com/ledgerline/ledgerline/internal/linker"
	"github.com/ledgerline/ledgerline/internal/tui"
)

func suggestionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggestions",
		Short: "Review link suggestions interactively",
		Long: `Generate link suggestions for unlinked transactions and step
through them one at a time. Accepted suggestions are committed as
manual links; rejected and skipped ones are left untouched.`,
		RunE: runSuggestions,
	}

	cmd.Flags().Float64("min-confidence", 70, "minimum confidence score to suggest (0-100)")

	return cmd
}

func runSuggestions(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	minConfidence, _ := cmd.Flags().GetFloat64("min-confidence")
	if minConfidence < 0 || minConfidence > 100 {
		return fmt.Errorf("min-confidence must be between 0 and 100, got %.1f", minConfidence)
	}

	engine := linker.NewEngine(store)
	suggestions, err := engine.Suggest(ctx, minConfidence)
	if err != nil {
		return fmt.Errorf("failed to generate suggestions: %w", err)
	}

	if len(suggestions) == 0 {
		fmt.Println(cli.FormatInfo("no link suggestions found"))
		return nil
	}

	orchestrator := linker.NewOrchestrator(store, engine)
	accepted, err := tui.Run(ctx, orchestrator, suggestions)
	if err != nil {
		return fmt.Errorf("review failed: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("%d of %d suggestions accepted", len(accepted), len(suggestions))))
	return nil
}
