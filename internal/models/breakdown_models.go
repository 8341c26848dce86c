package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// BreakdownLine records how a single rule contributed to an order's figures.
type BreakdownLine struct {
	RuleID             int64           `json:"rule_id"`
	RuleName           string          `json:"rule_name"`
	Category           RuleCategory    `json:"category"`
	Type               RuleValueType   `json:"type"`
	Value              decimal.Decimal `json:"value"`
	BaseUsed           decimal.Decimal `json:"base_used"`
	Amount             decimal.Decimal `json:"amount"`
	ReducesRevenueBase bool            `json:"reduces_revenue_base"`
	EntersTaxBase      bool            `json:"enters_tax_base"`
}

// CategorySubtotals holds the summed amounts per rule category.
type CategorySubtotals struct {
	Cost          decimal.Decimal `json:"cost"`
	Commission    decimal.Decimal `json:"commission"`
	Tax           decimal.Decimal `json:"tax"`
	PaymentMethod decimal.Decimal `json:"payment_method"`
}

// CostBreakdown is the persisted result of an order's cost calculation (orders.calculated_costs).
// It holds figures only; the calculation time lives in orders.costs_calculated_at.
type CostBreakdown struct {
	Lines              []BreakdownLine   `json:"lines"`
	Subtotals          CategorySubtotals `json:"subtotals"`
	InitialRevenueBase decimal.Decimal   `json:"initial_revenue_base"`
	FinalRevenueBase   decimal.Decimal   `json:"final_revenue_base"`
	TaxBase            decimal.Decimal   `json:"tax_base"`
	ItemsCost          decimal.Decimal   `json:"items_cost"`
	TotalCosts         decimal.Decimal   `json:"total_costs"`
	TotalCommissions   decimal.Decimal   `json:"total_commissions"`
	TotalTaxes         decimal.Decimal   `json:"total_taxes"`
	TotalPaymentFees   decimal.Decimal   `json:"total_payment_fees"`
	NetRevenue         decimal.Decimal   `json:"net_revenue"`
	ContributionMargin decimal.Decimal   `json:"contribution_margin"`
	Warnings           []string          `json:"warnings,omitempty"`
}

// Value stores the breakdown as jsonb.
func (b CostBreakdown) Value() (driver.Value, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan reads a jsonb breakdown column.
func (b *CostBreakdown) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into CostBreakdown", src)
	}
	return json.Unmarshal(data, b)
}
