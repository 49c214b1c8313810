package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/buildtally/buildtally/internal/common"
	"github.com/buildtally/buildtally/internal/model"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func categorizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categorize [invoice-id]",
		Short: "Categorize invoice line items",
		Long: `Run the categorization pipeline over one invoice, or over every
invoice with --all. Results at or above the auto-apply threshold are
assigned directly; everything else is stored as a suggestion for
review.`,
		RunE: runCategorize,
	}

	cmd.Flags().Bool("all", false, "categorize every invoice for the tenant")

	return cmd
}

func runCategorize(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	if !all && len(args) != 1 {
		return fmt.Errorf("provide an invoice id or --all")
	}

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

	if !all {
		results, err := eng.CategorizeInvoiceItems(ctx, tenant, args[0])
		if err != nil {
			return err
		}
		printResults(results)
		return nil
	}

	invoices, err := store.GetInvoices(ctx, tenant)
	if err != nil {
		return err
	}
	if len(invoices) == 0 {
		slog.Info("No invoices to categorize")
		return nil
	}

	bar := progressbar.NewOptions(len(invoices),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Categorizing invoices..."),
	)

	var failed int
	for _, invoice := range invoices {
		if _, err := eng.CategorizeInvoiceItems(ctx, tenant, invoice.ID); err != nil {
			failed++
			common.LogError(err, "Failed to categorize invoice", common.Fields{
				"invoice_id": invoice.ID,
				"vendor":     invoice.VendorName,
			})
		}
		_ = bar.Add(1)
	}
	fmt.Fprintln(os.Stderr)

	slog.Info("Categorization run complete",
		"invoices", len(invoices),
		"failed", failed)
	return nil
}

func printResults(results []model.CategorizationResult) {
	for _, r := range results {
		status := "suggested"
		if r.AutoApplied {
			status = "applied"
		}
		if r.Source == model.SourceNone {
			status = "no match"
			fmt.Printf("  %-40s  %s\n", truncate(r.Description, 40), status)
			continue
		}
		fmt.Printf("  %-40s  %-20s %.2f  %-7s  (%s)\n",
			truncate(r.Description, 40), r.CategoryName, r.Confidence, r.Source, status)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
