package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func suggestionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggestions",
		Short: "Review categorization suggestions",
		Long:  `Accept, reject, or override categorization suggestions per line item.`,
	}

	cmd.AddCommand(suggestionsAcceptCmd())
	cmd.AddCommand(suggestionsRejectCmd())
	cmd.AddCommand(suggestionsAssignCmd())

	return cmd
}

func suggestionsAcceptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accept <line-item-id>",
		Short: "Accept a line item's suggestion",
		Long:  `Promote the stored suggestion to a confirmed assignment at full confidence.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenant, err := requireTenant()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			eng, store, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := eng.AcceptSuggestion(ctx, tenant, args[0]); err != nil {
				return err
			}
			fmt.Println("suggestion accepted")
			return nil
		},
	}
}

func suggestionsRejectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reject <line-item-id>",
		Short: "Reject a line item's suggestion",
		Long:  `Clear the suggestion and confidence, leaving the item uncategorized.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenant, err := requireTenant()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			eng, store, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := eng.RejectSuggestion(ctx, tenant, args[0]); err != nil {
				return err
			}
			fmt.Println("suggestion rejected")
			return nil
		},
	}
}

func suggestionsAssignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign <line-item-id> <category-id>",
		Short: "Assign a category directly",
		Long:  `Set a line item's category as a user decision, overriding any suggestion.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenant, err := requireTenant()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			eng, store, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := eng.AssignCategory(ctx, tenant, args[0], args[1]); err != nil {
				return err
			}
			fmt.Println("category assigned")
			return nil
		},
	}
}
