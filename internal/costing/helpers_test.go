package costing

import (
	"testing"

	"delivery_costs_backend/internal/models"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func flavor() *models.OptionType {
	t := models.OptionTypePizzaFlavor
	return &t
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s = %s, want %s", name, got.String(), want)
	}
}
