package services

import (
	"errors"
	"testing"
	"time"

	"delivery_costs_backend/internal/models"
)

type fakeReportRepo struct {
	from, to time.Time
	items    []models.CostReportItem
	pending  int
}

func (f *fakeReportRepo) GetCostReportByProvider(tenantID int64, from, to time.Time, storeID *int64, provider *string) ([]models.CostReportItem, int, error) {
	f.from, f.to = from, to
	return f.items, f.pending, nil
}

func TestReportService_GetCostReport(t *testing.T) {
	repo := &fakeReportRepo{
		items: []models.CostReportItem{
			{Provider: "ifood", OrdersCount: 3, GrossTotal: dec("300"), DiscountTotal: dec("0"), TotalCosts: dec("6"), TotalCommissions: dec("36"), TotalTaxes: dec("0"), NetRevenue: dec("258")},
			{Provider: "rappi", OrdersCount: 1, GrossTotal: dec("50"), DiscountTotal: dec("5"), TotalCosts: dec("0"), TotalCommissions: dec("6.75"), TotalTaxes: dec("1.10"), NetRevenue: dec("37.15")},
		},
		pending: 2,
	}
	svc := NewReportService(repo)

	report, err := svc.GetCostReport(testTenant, models.ReportRequestParams{StartDate: "2026-03-01", EndDate: "2026-03-31"})
	if err != nil {
		t.Fatalf("GetCostReport returned error: %v", err)
	}
	if !repo.from.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) || !repo.to.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("range should include the end date: %v - %v", repo.from, repo.to)
	}
	if report.Totals.OrdersCount != 4 || !report.Totals.NetRevenue.Equal(dec("295.15")) || !report.Totals.TotalCommissions.Equal(dec("42.75")) {
		t.Errorf("unexpected totals %+v", report.Totals)
	}
	if report.Pending != 2 {
		t.Errorf("pending = %d, want 2", report.Pending)
	}
}

func TestReportService_DefaultsAndErrors(t *testing.T) {
	repo := &fakeReportRepo{}
	svc := NewReportService(repo).(*reportService)
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC) }

	report, err := svc.GetCostReport(testTenant, models.ReportRequestParams{})
	if err != nil {
		t.Fatalf("GetCostReport returned error: %v", err)
	}
	if report.StartDate != "2026-02-13" || report.EndDate != "2026-03-14" {
		t.Errorf("default range = %s..%s, want 2026-02-13..2026-03-14", report.StartDate, report.EndDate)
	}

	tests := []struct {
		name   string
		params models.ReportRequestParams
	}{
		{name: "malformed date", params: models.ReportRequestParams{StartDate: "14/03/2026"}},
		{name: "end before start", params: models.ReportRequestParams{StartDate: "2026-03-10", EndDate: "2026-03-01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.GetCostReport(testTenant, tt.params); !errors.Is(err, ErrInvalidDateRange) {
				t.Errorf("expected ErrInvalidDateRange, got %v", err)
			}
		})
	}
}
