package main

import (
	"fmt"
	"strconv"

	"github.com/buildtally/buildtally/internal/model"
	"github.com/spf13/cobra"
)

func aiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ai",
		Short: "Manage the AI categorization assist",
		Long:  `Configure and validate the per-tenant AI credential and threshold.`,
	}

	cmd.AddCommand(aiSetKeyCmd())
	cmd.AddCommand(aiThresholdCmd())
	cmd.AddCommand(aiValidateCmd())
	cmd.AddCommand(aiSuggestCmd())

	return cmd
}

func aiSetKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-key <api-key>",
		Short: "Store the tenant's AI API key",
		Args:  cobra.ExactArgs(1),
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

			settings, err := store.GetTenantSettings(ctx, tenant)
			if err != nil {
				return err
			}
			settings.AIAPIKey = args[0]
			if err := store.SaveTenantSettings(ctx, settings); err != nil {
				return err
			}
			fmt.Println("API key stored")
			return nil
		},
	}
}

func aiThresholdCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "threshold <value>",
		Short: "Set the AI escalation threshold",
		Long: fmt.Sprintf(`Line items below this confidence are sent to the AI assist.
Must be between 0 and 1 (default %.1f).`, model.DefaultAIThreshold),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			threshold, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid threshold %q: %w", args[0], err)
			}

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

			settings, err := store.GetTenantSettings(ctx, tenant)
			if err != nil {
				return err
			}
			settings.AIThreshold = threshold
			if err := store.SaveTenantSettings(ctx, settings); err != nil {
				return err
			}
			fmt.Printf("AI threshold set to %.2f\n", threshold)
			return nil
		},
	}
}

func aiValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the stored API key against the provider",
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			ok, err := eng.ValidateAIKey(ctx, tenant)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("API key rejected by provider")
			}
			fmt.Println("API key is valid")
			return nil
		},
	}
}

func aiSuggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <invoice-id>",
		Short: "Ask for one category covering a whole invoice",
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

			suggestion, err := eng.SuggestInvoiceCategory(ctx, tenant, args[0])
			if err != nil {
				return err
			}
			if suggestion == nil {
				fmt.Println("no suggestion")
				return nil
			}
			fmt.Printf("%s (%.2f): %s\n", suggestion.Category, suggestion.Confidence, suggestion.Reason)
			return nil
		},
	}
}
