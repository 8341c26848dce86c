package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"delivery_costs_backend/internal/models"
	"delivery_costs_backend/internal/services"
)

var (
	recalcProvider string
	recalcStoreID  int64
	recalcFrom     string
	recalcTo       string
	recalcOrderIDs []int64
)

var recalcCmd = &cobra.Command{
	Use:   "recalc",
	Short: "Recalculate the costs of historical orders",
	Long: `Recompute the cost breakdown of a tenant's orders with the current rules.

The run happens in this process and takes the tenant lock like any other run:
if the API is already recalculating the same tenant with another filter the
command fails, and an identical run is waited for instead of repeated.
Interrupting the command stops it between orders.`,
	Args: cobra.NoArgs,
	RunE: runRecalc,
}

func init() {
	rootCmd.AddCommand(recalcCmd)

	recalcCmd.Flags().StringVarP(&recalcProvider, "provider", "p", "", "only orders of this provider")
	recalcCmd.Flags().Int64Var(&recalcStoreID, "store", 0, "only orders of this store")
	recalcCmd.Flags().StringVar(&recalcFrom, "from", "", "first placed date, YYYY-MM-DD")
	recalcCmd.Flags().StringVar(&recalcTo, "to", "", "last placed date, YYYY-MM-DD (inclusive)")
	recalcCmd.Flags().Int64SliceVar(&recalcOrderIDs, "order", nil, "only these order ids (repeatable)")
}

func recalcRequest() services.RecalculateOrdersRequest {
	req := services.RecalculateOrdersRequest{
		DateFrom: recalcFrom,
		DateTo:   recalcTo,
		OrderIDs: recalcOrderIDs,
	}
	if recalcProvider != "" {
		req.Provider = &recalcProvider
	}
	if recalcStoreID > 0 {
		req.StoreID = &recalcStoreID
	}
	return req
}

func runRecalc(cmd *cobra.Command, args []string) error {
	if err := requireTenant(); err != nil {
		return err
	}
	filter, err := recalcRequest().Filter()
	if err != nil {
		return err
	}

	container, closeFn, err := openServices()
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress, err := container.Recalculation.RunRecalculation(ctx, services.RecalculationRequest{
		TenantID: tenantID,
		Filter:   filter,
		Trigger:  services.TriggerCLI,
	})
	if err != nil {
		return fmt.Errorf("recalculation not run: %w", err)
	}

	if err := writeProgress(cmd.OutOrStdout(), progress); err != nil {
		return err
	}
	if progress.Status == models.RecalculationError {
		return fmt.Errorf("recalculation ended with errors")
	}
	return nil
}

func writeProgress(w io.Writer, p *models.RecalculationProgress) error {
	if outputFormat == "json" {
		return printJSON(w, p)
	}
	fmt.Fprintf(w, "Run:       %s\n", p.RunID)
	fmt.Fprintf(w, "Status:    %s\n", p.Status)
	fmt.Fprintf(w, "Orders:    %d\n", p.Total)
	fmt.Fprintf(w, "Processed: %d\n", p.Processed)
	fmt.Fprintf(w, "Failed:    %d\n", p.Failed)
	if p.Coalesced {
		fmt.Fprintln(w, "Joined an identical run that was already in progress.")
	}
	fmt.Fprintln(w, p.Message)
	return nil
}
