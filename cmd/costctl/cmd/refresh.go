package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"delivery_costs_backend/internal/services"
)

var refreshProductID int64

var refreshCmd = &cobra.Command{
	Use:   "refresh-costs",
	Short: "Recompute cached product costs from their recipes",
	Long: `Resolve every product recipe against the current ingredient prices and store
the result as the product's unit cost. Orders already calculated keep their
figures until they are recalculated.`,
	Args: cobra.NoArgs,
	RunE: runRefresh,
}

func init() {
	rootCmd.AddCommand(refreshCmd)
	refreshCmd.Flags().Int64Var(&refreshProductID, "product", 0, "refresh a single product")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	if err := requireTenant(); err != nil {
		return err
	}
	container, closeFn, err := openServices()
	if err != nil {
		return err
	}
	defer closeFn()

	var results []services.ProductCostRefresh
	if refreshProductID > 0 {
		result, err := container.Catalog.RefreshProductCost(tenantID, refreshProductID)
		if err != nil {
			return fmt.Errorf("product %d: %w", refreshProductID, err)
		}
		results = append(results, *result)
	} else {
		results, err = container.Catalog.RefreshAllProductCosts(tenantID)
		if err != nil {
			return err
		}
	}

	if outputFormat == "json" {
		return printJSON(cmd.OutOrStdout(), results)
	}
	writeRefreshes(cmd.OutOrStdout(), results)
	return nil
}

func writeRefreshes(w io.Writer, results []services.ProductCostRefresh) {
	changed := 0
	for _, r := range results {
		marker := " "
		if r.Changed {
			marker = "*"
			changed++
		}
		fmt.Fprintf(w, "%s %6d  %-32s %10s -> %10s\n", marker, r.ProductID, r.Name, r.PreviousCost.StringFixed(4), r.UnitCost.StringFixed(4))
		for _, warning := range r.Warnings {
			fmt.Fprintf(w, "          warning: %s\n", warning)
		}
	}
	fmt.Fprintf(w, "%d products refreshed, %d changed\n", len(results), changed)
}
