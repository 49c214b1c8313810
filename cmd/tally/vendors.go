package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func vendorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vendors",
		Short: "Manage vendors and their default categories",
		Long:  `View vendors, find duplicate records, and merge them.`,
	}

	cmd.AddCommand(vendorsListCmd())
	cmd.AddCommand(vendorsDupesCmd())
	cmd.AddCommand(vendorsMergeCmd())
	cmd.AddCommand(vendorsSetCategoryCmd())

	return cmd
}

func vendorsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all vendors",
		Long:  `List the tenant's vendors with invoice usage counts.`,
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

			all, err := store.GetAllVendors(ctx, tenant)
			if err != nil {
				return err
			}
			if len(all) == 0 {
				fmt.Println("No vendors yet.")
				return nil
			}

			fmt.Printf("%-36s  %-30s  %-8s\n", "ID", "Name", "Invoices")
			for _, v := range all {
				fmt.Printf("%-36s  %-30s  %-8d\n", v.ID, truncate(v.Name, 30), v.UseCount)
			}
			return nil
		},
	}
}

func vendorsDupesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dupes",
		Short: "Find duplicate vendors",
		Long: `Group vendors that share a normalized identity. The first vendor
in each group is the most-used and the default keep candidate for a merge.`,
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

			groups, err := eng.FindDuplicateVendors(ctx, tenant)
			if err != nil {
				return err
			}
			if len(groups) == 0 {
				fmt.Println("No duplicate vendors found.")
				return nil
			}

			for _, group := range groups {
				fmt.Printf("%s:\n", group.NormalizedName)
				for i, v := range group.Vendors {
					marker := "  "
					if i == 0 {
						marker = "* " // keep candidate
					}
					fmt.Printf("  %s%-36s  %-30s  %d invoices\n", marker, v.ID, truncate(v.Name, 30), v.UseCount)
				}
			}
			return nil
		},
	}
}

func vendorsMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge --keep <vendor-id> <absorb-id> [absorb-id...]",
		Short: "Merge duplicate vendors",
		Long: `Absorb one or more vendors into the keep vendor. Invoices are
reassigned and empty contact fields on the keep vendor are backfilled.
A failure stops the batch; vendors merged before it stay merged.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keepID, _ := cmd.Flags().GetString("keep")
			if keepID == "" {
				return fmt.Errorf("--keep is required")
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

			outcome, mergeErr := eng.MergeVendors(ctx, tenant, keepID, args)
			if outcome != nil {
				for _, r := range outcome.Results {
					if r.Merged {
						fmt.Printf("merged %s (%d invoices reassigned)\n", r.Name, r.InvoicesReassigned)
					} else {
						fmt.Printf("FAILED %s: %s\n", r.VendorID, r.Error)
					}
				}
				fmt.Printf("%d invoices reassigned in total\n", outcome.InvoicesReassigned)
			}
			return mergeErr
		},
	}

	cmd.Flags().String("keep", "", "id of the vendor to keep")

	return cmd
}

func vendorsSetCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-category <vendor-id> <category-id>",
		Short: "Set a vendor's default category",
		Long: `Remember a default budget category for a vendor. Future invoices
from this vendor seed every line item with it.`,
		Args: cobra.ExactArgs(2),
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

			vendor, err := store.GetVendorByID(ctx, tenant, args[0])
			if err != nil {
				return err
			}
			if _, err := store.GetCategoryByID(ctx, tenant, args[1]); err != nil {
				return err
			}

			vendor.DefaultCategoryID = &args[1]
			if err := store.SaveVendor(ctx, vendor); err != nil {
				return err
			}
			fmt.Printf("%s now defaults to category %s\n", vendor.Name, args[1])
			return nil
		},
	}
}
