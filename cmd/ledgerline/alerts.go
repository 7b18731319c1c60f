package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ledgerline/ledgerline/internal/cli"
	"github.com/ledgerline/ledgerline/internal/model"
)

func alertsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Manage spending alerts",
	}

	cmd.AddCommand(alertsListCmd())
	cmd.AddCommand(alertsConfigureCmd())
	cmd.AddCommand(alertsMarkReadCmd())

	return cmd
}

func alertsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List alert events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			unreadOnly, _ := cmd.Flags().GetBool("unread")
			events, err := store.GetAlertEvents(ctx, unreadOnly)
			if err != nil {
				return fmt.Errorf("failed to list alerts: %w", err)
			}

			if len(events) == 0 {
				fmt.Println(cli.FormatInfo("no alerts"))
				return nil
			}

			fmt.Println(cli.FormatTitle(fmt.Sprintf("%s Alerts", cli.AlertIcon)))
			for _, event := range events {
				marker := " "
				if !event.Read {
					marker = "*"
				}
				fmt.Printf("%s [%d] %s %s %s  %s\n",
					marker,
					event.ID,
					event.CreatedAt.Format("2006-01-02"),
					severityLabel(event.Severity),
					event.Type,
					event.Message)
			}
			return nil
		},
	}

	cmd.Flags().Bool("unread", false, "show only unread alerts")

	return cmd
}

func alertsConfigureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Configure an alert type",
		Long: `Set the threshold and enablement for an alert type. Valid types are
large_purchase, anomaly, and budget_warning. The threshold is a dollar
amount for large_purchase and a percentage for budget_warning; the
anomaly detector has no threshold.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			typeStr, _ := cmd.Flags().GetString("type")
			alertType, err := parseAlertType(typeStr)
			if err != nil {
				return err
			}

			setting := &model.AlertSetting{Type: alertType}
			setting.Enabled, _ = cmd.Flags().GetBool("enabled")

			if cmd.Flags().Changed("threshold") {
				threshold, _ := cmd.Flags().GetFloat64("threshold")
				if threshold <= 0 {
					return fmt.Errorf("threshold must be positive, got %.2f", threshold)
				}
				setting.Threshold = &threshold
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.SaveAlertSetting(ctx, setting); err != nil {
				return fmt.Errorf("failed to save alert setting: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("%s alert updated", alertType)))
			return nil
		},
	}

	cmd.Flags().String("type", "", "alert type (large_purchase, anomaly, budget_warning)")
	cmd.Flags().Float64("threshold", 0, "alert threshold")
	cmd.Flags().Bool("enabled", true, "enable or disable the alert")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func alertsMarkReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mark-read <id>",
		Short: "Mark an alert event as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid alert ID %q: %w", args[0], err)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.MarkAlertEventRead(ctx, id); err != nil {
				return fmt.Errorf("failed to mark alert read: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("alert %d marked read", id)))
			return nil
		},
	}
}

func parseAlertType(value string) (model.AlertType, error) {
	switch model.AlertType(value) {
	case model.AlertLargePurchase, model.AlertAnomaly, model.AlertBudgetWarning:
		return model.AlertType(value), nil
	default:
		return "", fmt.Errorf("unknown alert type %q (expected large_purchase, anomaly, or budget_warning)", value)
	}
}

func severityLabel(severity model.AlertSeverity) string {
	switch severity {
	case model.SeverityHigh:
		return cli.ErrorStyle.Render("HIGH")
	case model.SeverityMedium:
		return cli.WarningStyle.Render("MED ")
	default:
		return cli.SubtleStyle.Render("LOW ")
	}
}
