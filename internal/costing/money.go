// Package costing holds the pure order cost and commission engine: recipe costing,
// item fraction allocation, rule matching and aggregation. Nothing here performs I/O.
package costing

import "github.com/shopspring/decimal"

const (
	// MoneyPlaces is the precision money is persisted with.
	MoneyPlaces = 2
	// FractionPlaces is the precision of mapping quantities and frozen unit costs.
	FractionPlaces = 4
)

var (
	hundred = decimal.NewFromInt(100)

	// FractionTolerance is the accepted drift of an auto-fraction group sum.
	FractionTolerance = decimal.New(1, -6)
)

// RoundMoney rounds a monetary value for persistence.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

func percentOf(value, base decimal.Decimal) decimal.Decimal {
	return base.Mul(value).Div(hundred)
}
