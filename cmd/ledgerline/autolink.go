package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgerline/ledgerline/internal/cli"
	"github.com/ledgerline/ledgerline/internal/linker"
	"github.com/ledgerline/ledgerline/internal/tui"
)

func autolinkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autolink",
		Short: "Automatically link split charges to their parent transactions",
		Long: `Scan unlinked transactions for split-charge groups. High-confidence
matches are linked immediately; medium-confidence matches are kept as
suggestions for review.`,
		RunE: runAutoLink,
	}

	cmd.Flags().Bool("review", false, "review remaining suggestions interactively after linking")

	return cmd
}

func runAutoLink(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	orchestrator := linker.NewOrchestrator(store, linker.NewEngine(store))

	result, err := orchestrator.AutoLink(ctx)
	if err != nil {
		return fmt.Errorf("automatic linking failed: %w", err)
	}

	fmt.Println(cli.FormatTitle("Automatic Linking"))
	fmt.Printf("  matches found:  %d\n", result.TotalMatches)
	fmt.Printf("  auto-linked:    %d\n", result.AutoLinked)
	fmt.Printf("  for review:     %d\n", result.Suggested)

	for _, msg := range result.Errors {
		fmt.Println(cli.FormatError(msg))
	}

	if result.Suggested == 0 {
		return nil
	}

	review, _ := cmd.Flags().GetBool("review")
	if !review {
		fmt.Println(cli.FormatInfo("run 'ledgerline suggestions' to review remaining matches"))
		return nil
	}

	accepted, err := tui.Run(ctx, orchestrator, result.Suggestions)
	if err != nil {
		return fmt.Errorf("review failed: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("%d suggestions accepted", len(accepted))))
	return nil
}
