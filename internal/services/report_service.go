package services

import (
	"errors"
	"time"

	"delivery_costs_backend/internal/models"
	"delivery_costs_backend/internal/repositories"
	"delivery_costs_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

var ErrInvalidDateRange = errors.New("invalid date range")

const defaultReportDays = 30

// ReportService builds cost reports over calculated orders.
type ReportService interface {
	GetCostReport(tenantID int64, params models.ReportRequestParams) (*models.CostReport, error)
}

type reportService struct {
	reportRepo repositories.ReportRepository
	now        func() time.Time
}

// NewReportService creates a new instance of ReportService.
func NewReportService(rr repositories.ReportRepository) ReportService {
	return &reportService{reportRepo: rr, now: time.Now}
}

// GetCostReport aggregates by provider. Dates are inclusive; the default range is the
// last 30 days.
func (s *reportService) GetCostReport(tenantID int64, params models.ReportRequestParams) (*models.CostReport, error) {
	start, err := utils.ParseDate(params.StartDate)
	if err != nil {
		return nil, errors.Join(ErrInvalidDateRange, err)
	}
	end, err := utils.ParseDate(params.EndDate)
	if err != nil {
		return nil, errors.Join(ErrInvalidDateRange, err)
	}
	if end == nil {
		today := s.now().UTC().Truncate(24 * time.Hour)
		end = &today
	}
	if start == nil {
		from := end.AddDate(0, 0, -defaultReportDays+1)
		start = &from
	}
	if end.Before(*start) {
		return nil, ErrInvalidDateRange
	}

	items, pending, err := s.reportRepo.GetCostReportByProvider(tenantID, *start, end.AddDate(0, 0, 1), params.StoreID, params.Provider)
	if err != nil {
		return nil, err
	}

	totals := models.CostReportItem{
		Provider:         "all",
		GrossTotal:       decimal.Zero,
		DiscountTotal:    decimal.Zero,
		TotalCosts:       decimal.Zero,
		TotalCommissions: decimal.Zero,
		TotalTaxes:       decimal.Zero,
		NetRevenue:       decimal.Zero,
	}
	for _, item := range items {
		totals.OrdersCount += item.OrdersCount
		totals.GrossTotal = totals.GrossTotal.Add(item.GrossTotal)
		totals.DiscountTotal = totals.DiscountTotal.Add(item.DiscountTotal)
		totals.TotalCosts = totals.TotalCosts.Add(item.TotalCosts)
		totals.TotalCommissions = totals.TotalCommissions.Add(item.TotalCommissions)
		totals.TotalTaxes = totals.TotalTaxes.Add(item.TotalTaxes)
		totals.NetRevenue = totals.NetRevenue.Add(item.NetRevenue)
	}

	return &models.CostReport{
		StartDate: start.Format(utils.DateLayout),
		EndDate:   end.Format(utils.DateLayout),
		Items:     items,
		Totals:    totals,
		Pending:   pending,
	}, nil
}
