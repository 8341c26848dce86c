package models

import "github.com/shopspring/decimal"

// CostReportItem aggregates calculated orders for one provider.
type CostReportItem struct {
	Provider         string          `json:"provider"`
	OrdersCount      int             `json:"orders_count"`
	GrossTotal       decimal.Decimal `json:"gross_total"`
	DiscountTotal    decimal.Decimal `json:"discount_total"`
	TotalCosts       decimal.Decimal `json:"total_costs"`
	TotalCommissions decimal.Decimal `json:"total_commissions"`
	TotalTaxes       decimal.Decimal `json:"total_taxes"`
	NetRevenue       decimal.Decimal `json:"net_revenue"`
}

// CostReport is the response of the cost report endpoint.
type CostReport struct {
	StartDate string           `json:"start_date"`
	EndDate   string           `json:"end_date"`
	Items     []CostReportItem `json:"items"`
	Totals    CostReportItem   `json:"totals"`
	Pending   int              `json:"pending_orders"` // orders in range without calculated costs
}

// ReportRequestParams holds common parameters for requesting reports.
type ReportRequestParams struct {
	StartDate string  `form:"start_date"` // YYYY-MM-DD
	EndDate   string  `form:"end_date"`   // YYYY-MM-DD
	StoreID   *int64  `form:"store_id"`
	Provider  *string `form:"provider"`
}
