package main

import (
	"fmt"
	"os"
	"time"

	"github.com/buildtally/buildtally/internal/model"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func invoicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoices",
		Short: "Manage invoices and their line items",
	}

	cmd.AddCommand(invoicesListCmd())
	cmd.AddCommand(invoicesShowCmd())
	cmd.AddCommand(invoicesImportCmd())

	return cmd
}

func invoicesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List invoices",
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			invoices, err := store.GetInvoices(ctx, tenant)
			if err != nil {
				return err
			}
			if len(invoices) == 0 {
				fmt.Println("No invoices yet.")
				return nil
			}

			fmt.Printf("%-36s  %-10s  %-25s  %-12s  %12s\n", "ID", "Date", "Vendor", "Number", "Total")
			for _, inv := range invoices {
				fmt.Printf("%-36s  %-10s  %-25s  %-12s  %12s\n",
					inv.ID,
					inv.Date.Format("2006-01-02"),
					truncate(inv.VendorName, 25),
					truncate(inv.Number, 12),
					inv.Total.StringFixed(2))
			}
			return nil
		},
	}
}

func invoicesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <invoice-id>",
		Short: "Show an invoice with its line items",
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

			invoice, err := store.GetInvoice(ctx, tenant, args[0])
			if err != nil {
				return err
			}
			items, err := store.GetLineItems(ctx, tenant, invoice.ID)
			if err != nil {
				return err
			}

			fmt.Printf("%s — %s (%s), total %s\n",
				invoice.VendorName, invoice.Number,
				invoice.Date.Format("2006-01-02"),
				invoice.Total.StringFixed(2))

			for _, item := range items {
				category := "-"
				switch {
				case item.CategoryID != nil:
					category = "assigned: " + *item.CategoryID
				case item.CategorySuggestion != nil:
					category = "suggested: " + *item.CategorySuggestion
					if item.CategoryConfidence != nil {
						category += fmt.Sprintf(" (%.2f)", *item.CategoryConfidence)
					}
				}
				fmt.Printf("  %-36s  %-40s  %10s  %s\n",
					item.ID, truncate(item.Description, 40),
					item.Amount.StringFixed(2), category)
			}
			return nil
		},
	}
}

// invoiceFile is the YAML shape accepted by 'tally invoices import'.
type invoiceFile struct {
	Project string `yaml:"project"`
	Vendor  string `yaml:"vendor"`
	Number  string `yaml:"number"`
	Date    string `yaml:"date"`
	Total   string `yaml:"total"`
	Items   []struct {
		Description string `yaml:"description"`
		Quantity    string `yaml:"quantity"`
		UnitPrice   string `yaml:"unit_price"`
		Amount      string `yaml:"amount"`
		Tax         bool   `yaml:"tax"`
	} `yaml:"items"`
}

func invoicesImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import an invoice from a YAML file",
		Long: `Import an invoice with its line items. If the vendor name does not
match any known vendor, a new vendor record is created. With
--categorize the import is followed by a categorization run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			categorize, _ := cmd.Flags().GetBool("categorize")

			tenant, err := requireTenant()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			var file invoiceFile
			if err := yaml.Unmarshal(data, &file); err != nil {
				return fmt.Errorf("failed to parse %s: %w", args[0], err)
			}
			invoice, items, err := file.toModel(tenant)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			eng, store, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SaveInvoice(ctx, invoice, items); err != nil {
				return err
			}

			// Register the vendor unless an existing record matches:
			// exact normalized-name lookup (cache-served) before the
			// fuzzy scan.
			matched, err := vendorExists(ctx, store, tenant, invoice.VendorName)
			if err != nil {
				return err
			}
			if !matched {
				vendor := &model.Vendor{TenantID: tenant, Name: invoice.VendorName}
				if err := store.SaveVendor(ctx, vendor); err != nil {
					return err
				}
				fmt.Printf("registered new vendor %s\n", vendor.Name)
			}

			fmt.Printf("imported invoice %s (%d items)\n", invoice.ID, len(items))

			if categorize {
				results, err := eng.CategorizeInvoiceItems(ctx, tenant, invoice.ID)
				if err != nil {
					return err
				}
				printResults(results)
			}
			return nil
		},
	}

	cmd.Flags().Bool("categorize", false, "run categorization after importing")

	return cmd
}

func (f *invoiceFile) toModel(tenant string) (*model.Invoice, []model.LineItem, error) {
	if f.Vendor == "" {
		return nil, nil, fmt.Errorf("invoice has no vendor name")
	}

	date, err := time.Parse("2006-01-02", f.Date)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid date %q: %w", f.Date, err)
	}
	total, err := decimal.NewFromString(f.Total)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid total %q: %w", f.Total, err)
	}

	project := f.Project
	if project == "" {
		project = "default"
	}
	invoice := &model.Invoice{
		TenantID:   tenant,
		ProjectID:  project,
		VendorName: f.Vendor,
		Number:     f.Number,
		Date:       date,
		Total:      total,
	}

	items := make([]model.LineItem, 0, len(f.Items))
	for i, it := range f.Items {
		amount, err := decimal.NewFromString(it.Amount)
		if err != nil {
			return nil, nil, fmt.Errorf("item %d: invalid amount %q: %w", i+1, it.Amount, err)
		}
		quantity := decimal.NewFromInt(1)
		if it.Quantity != "" {
			if quantity, err = decimal.NewFromString(it.Quantity); err != nil {
				return nil, nil, fmt.Errorf("item %d: invalid quantity %q: %w", i+1, it.Quantity, err)
			}
		}
		item := model.LineItem{
			Description: it.Description,
			Quantity:    quantity,
			Amount:      amount,
			IsTax:       it.Tax,
		}
		if it.UnitPrice != "" {
			unitPrice, err := decimal.NewFromString(it.UnitPrice)
			if err != nil {
				return nil, nil, fmt.Errorf("item %d: invalid unit price %q: %w", i+1, it.UnitPrice, err)
			}
			item.UnitPrice = &unitPrice
		}
		items = append(items, item)
	}

	return invoice, items, nil
}
