package costing

import (
	"strings"

	"github.com/shopspring/decimal"
)

type unitInfo struct {
	family string
	factor decimal.Decimal // multiplier to the family base unit
}

var units = map[string]unitInfo{
	"mg": {family: "mass", factor: decimal.New(1, -6)},
	"g":  {family: "mass", factor: decimal.New(1, -3)},
	"kg": {family: "mass", factor: decimal.NewFromInt(1)},
	"ml": {family: "volume", factor: decimal.New(1, -3)},
	"l":  {family: "volume", factor: decimal.NewFromInt(1)},
	"un": {family: "count", factor: decimal.NewFromInt(1)},
}

var unitAliases = map[string]string{
	"gr":      "g",
	"grams":   "g",
	"kilo":    "kg",
	"lt":      "l",
	"liter":   "l",
	"litro":   "l",
	"unit":    "un",
	"unid":    "un",
	"unidade": "un",
	"pc":      "un",
}

func normalizeUnit(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	if alias, ok := unitAliases[u]; ok {
		return alias
	}
	return u
}

// convertQuantity converts qty expressed in `from` into `to`. Empty or equal units
// are returned unchanged. ok is false when the units belong to different families.
func convertQuantity(qty decimal.Decimal, from, to string) (decimal.Decimal, bool) {
	f, t := normalizeUnit(from), normalizeUnit(to)
	if f == "" || t == "" || f == t {
		return qty, true
	}
	fi, fok := units[f]
	ti, tok := units[t]
	if !fok || !tok || fi.family != ti.family {
		return decimal.Zero, false
	}
	return qty.Mul(fi.factor).Div(ti.factor), true
}
