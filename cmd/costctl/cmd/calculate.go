package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"delivery_costs_backend/internal/models"
	"delivery_costs_backend/pkg/utils"
)

var calculateCmd = &cobra.Command{
	Use:   "calculate <order-id>",
	Short: "Calculate and store the costs of one order",
	Args:  cobra.ExactArgs(1),
	RunE:  runCalculate,
}

func init() {
	rootCmd.AddCommand(calculateCmd)
}

func runCalculate(cmd *cobra.Command, args []string) error {
	if err := requireTenant(); err != nil {
		return err
	}
	orderID, err := utils.StrToInt64(args[0])
	if err != nil || orderID <= 0 {
		return fmt.Errorf("invalid order id %q", args[0])
	}

	container, closeFn, err := openServices()
	if err != nil {
		return err
	}
	defer closeFn()

	order, err := container.Costing.CalculateOrder(tenantID, orderID)
	if err != nil {
		return fmt.Errorf("order %d: %w", orderID, err)
	}
	if outputFormat == "json" {
		return printJSON(cmd.OutOrStdout(), order.CalculatedCosts)
	}
	writeBreakdown(cmd.OutOrStdout(), order)
	return nil
}

func writeBreakdown(w io.Writer, order *models.Order) {
	b := order.CalculatedCosts
	fmt.Fprintf(w, "Order %d (%s)\n", order.ID, order.Provider)
	if b == nil {
		fmt.Fprintln(w, "  no breakdown stored")
		return
	}
	for _, line := range b.Lines {
		fmt.Fprintf(w, "  %-14s %-32s %10s\n", line.Category, line.RuleName, line.Amount.StringFixed(2))
	}
	fmt.Fprintf(w, "  %-47s %10s\n", "revenue base", b.InitialRevenueBase.StringFixed(2))
	fmt.Fprintf(w, "  %-47s %10s\n", "net revenue", b.NetRevenue.StringFixed(2))
	fmt.Fprintf(w, "  %-47s %10s\n", "items cost", b.ItemsCost.StringFixed(2))
	fmt.Fprintf(w, "  %-47s %10s\n", "contribution margin", b.ContributionMargin.StringFixed(2))
	for _, warning := range b.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warning)
	}
}
