package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"delivery_costs_backend/internal/models"
	"delivery_costs_backend/internal/services"

	"github.com/shopspring/decimal"
)

func TestRecalcRequest(t *testing.T) {
	recalcProvider, recalcStoreID, recalcFrom, recalcTo = "rappi", 3, "2026-03-01", "2026-03-02"
	defer func() { recalcProvider, recalcStoreID, recalcFrom, recalcTo = "", 0, "", "" }()

	filter, err := recalcRequest().Filter()
	if err != nil {
		t.Fatalf("Filter returned error: %v", err)
	}
	if *filter.Provider != "rappi" || *filter.StoreID != 3 {
		t.Errorf("unexpected filter %+v", filter)
	}
	if !filter.DateTo.Equal(time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date_to = %v, want exclusive 2026-03-03", filter.DateTo)
	}
}

func TestWriteProgress(t *testing.T) {
	outputFormat = "text"
	var buf bytes.Buffer
	err := writeProgress(&buf, &models.RecalculationProgress{
		RunID: "run-1", Status: models.RecalculationCompleted, Total: 1000, Processed: 999, Failed: 1,
		Message: "recalculated 999 of 1000 orders; 1 failed: order 501",
	})
	if err != nil {
		t.Fatalf("writeProgress returned error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Status:    completed", "Processed: 999", "order 501"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteRefreshes(t *testing.T) {
	var buf bytes.Buffer
	writeRefreshes(&buf, []services.ProductCostRefresh{
		{ProductID: 1, Name: "Margherita", PreviousCost: decimal.RequireFromString("3.5"), UnitCost: decimal.RequireFromString("4"), Changed: true},
		{ProductID: 2, Name: "Calabresa", PreviousCost: decimal.RequireFromString("10"), UnitCost: decimal.RequireFromString("10")},
	})
	out := buf.String()
	if !strings.Contains(out, "3.5000 ->     4.0000") || !strings.HasSuffix(out, "2 products refreshed, 1 changed\n") {
		t.Errorf("unexpected output:\n%s", out)
	}
}
