package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgerline/ledgerline/internal/cli"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage transaction categories",
	}

	cmd.AddCommand(categoriesListCmd())
	cmd.AddCommand(categoriesAddCmd())
	cmd.AddCommand(categoriesRenameCmd())
	cmd.AddCommand(categoriesDeleteCmd())

	return cmd
}

func categoriesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			categories, err := store.GetCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to list categories: %w", err)
			}

			fmt.Println(cli.FormatTitle("Categories"))
			for _, category := range categories {
				kind := "system"
				if category.UserID != nil {
					kind = "user"
				}
				fmt.Printf("  [%d] %-20s %s (%s)\n", category.ID, category.Name, category.Icon, kind)
			}
			return nil
		},
	}
}

func categoriesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			color, _ := cmd.Flags().GetString("color")
			icon, _ := cmd.Flags().GetString("icon")

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			userID := "local"
			category, err := store.CreateCategory(ctx, args[0], color, icon, &userID)
			if err != nil {
				return fmt.Errorf("failed to create category: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("category %q created with ID %d", category.Name, category.ID)))
			return nil
		},
	}

	cmd.Flags().String("color", "#9e9e9e", "display color (hex)")
	cmd.Flags().String("icon", "tag", "display icon")

	return cmd
}

func categoriesRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old-name> <new-name>",
		Short: "Rename a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			category, err := store.GetCategoryByName(ctx, args[0])
			if err != nil {
				return fmt.Errorf("category %q: %w", args[0], err)
			}

			if err := store.UpdateCategory(ctx, category.ID, args[1], category.Color, category.Icon); err != nil {
				return fmt.Errorf("failed to rename category: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("category %q renamed to %q", args[0], args[1])))
			return nil
		},
	}
}

func categoriesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a category",
		Long: `Delete a user-defined category. Transactions in the category become
uncategorized and its budgets are removed. System categories cannot
be deleted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			category, err := store.GetCategoryByName(ctx, args[0])
			if err != nil {
				return fmt.Errorf("category %q: %w", args[0], err)
			}

			if err := store.DeleteCategory(ctx, category.ID); err != nil {
				return fmt.Errorf("failed to delete category: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("category %q deleted", args[0])))
			return nil
		},
	}
}
