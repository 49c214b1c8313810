package main

import (
	"fmt"
	"log/slog"

	"github.com/buildtally/buildtally/internal/keyword"
	"github.com/buildtally/buildtally/internal/model"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage budget categories",
		Long:  `View and manage the budget categories for a project.`,
	}

	cmd.AddCommand(categoriesListCmd())
	cmd.AddCommand(categoriesAddCmd())
	cmd.AddCommand(categoriesRenameCmd())
	cmd.AddCommand(categoriesDeleteCmd())
	cmd.AddCommand(categoriesSeedCmd())

	return cmd
}

func categoriesRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <category-id> <new-name>",
		Short: "Rename a budget category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenant, err := requireTenant()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.RenameCategory(ctx, tenant, args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("renamed category %s to %q\n", args[0], args[1])
			return nil
		},
	}
}

func categoriesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <category-id>",
		Short: "Delete a budget category",
		Long: `Delete a category. Line items that reference it keep their stale
category id; nothing cascades.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenant, err := requireTenant()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteCategory(ctx, tenant, args[0]); err != nil {
				return err
			}
			fmt.Printf("deleted category %s\n", args[0])
			return nil
		},
	}
}

func categoriesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List budget categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			project, _ := cmd.Flags().GetString("project")
			tenant, err := requireTenant()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			categories, err := store.GetCategories(ctx, tenant, project)
			if err != nil {
				return err
			}
			if len(categories) == 0 {
				fmt.Println("No categories yet. Try 'tally categories seed'.")
				return nil
			}

			fmt.Printf("%-36s  %-25s  %12s\n", "ID", "Name", "Budget")
			for _, cat := range categories {
				fmt.Printf("%-36s  %-25s  %12s\n", cat.ID, truncate(cat.Name, 25), cat.Budget.StringFixed(2))
			}
			return nil
		},
	}

	cmd.Flags().String("project", "default", "project identifier")

	return cmd
}

func categoriesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a budget category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, _ := cmd.Flags().GetString("project")
			budgetStr, _ := cmd.Flags().GetString("budget")
			tenant, err := requireTenant()
			if err != nil {
				return err
			}

			budget, err := decimal.NewFromString(budgetStr)
			if err != nil {
				return fmt.Errorf("invalid budget %q: %w", budgetStr, err)
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cat := &model.BudgetCategory{
				TenantID:  tenant,
				ProjectID: project,
				Name:      args[0],
				Budget:    budget,
			}
			if err := store.CreateCategory(ctx, cat); err != nil {
				return err
			}
			fmt.Printf("created category %s (%s)\n", cat.Name, cat.ID)
			return nil
		},
	}

	cmd.Flags().String("project", "default", "project identifier")
	cmd.Flags().String("budget", "0", "budget amount")

	return cmd
}

func categoriesSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed categories from the built-in dictionary",
		Long: `Create one zero-budget category for every trade in the built-in
keyword dictionary. Categories that already exist are skipped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			project, _ := cmd.Flags().GetString("project")
			tenant, err := requireTenant()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			keywords, err := keyword.NewCategorizer()
			if err != nil {
				return err
			}

			var created int
			for _, name := range keywords.Categories() {
				if _, err := store.GetCategoryByName(ctx, tenant, project, name); err == nil {
					continue
				}
				cat := &model.BudgetCategory{
					TenantID:  tenant,
					ProjectID: project,
					Name:      name,
					Budget:    decimal.Zero,
				}
				if err := store.CreateCategory(ctx, cat); err != nil {
					return fmt.Errorf("failed to create %q: %w", name, err)
				}
				created++
			}

			slog.Info("Seeded categories", "project", project, "created", created)
			return nil
		},
	}

	cmd.Flags().String("project", "default", "project identifier")

	return cmd
}
