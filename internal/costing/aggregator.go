package costing

import (
	"sort"

	"delivery_costs_backend/internal/models"

	"github.com/shopspring/decimal"
)

var categoryRank = func() map[models.RuleCategory]int {
	rank := make(map[models.RuleCategory]int, len(models.RuleCategoryOrder))
	for i, c := range models.RuleCategoryOrder {
		rank[c] = i
	}
	return rank
}()

// Aggregate combines matched rules and item costs into the order's breakdown.
//
// Rules run by category (cost, commission, tax, payment_method) and then by id. The
// running revenue base starts at gross minus discount; a reducing rule lowers it before
// the next rule runs. Only percentage rules flagged affects_revenue_base use the running
// base; every other percentage rule uses the initial base, so a 12% commission after a
// reducing fixed cost of 2.00 on a 100.00 order is 12.00, not 11.76. Amounts are
// carried unrounded; money in the returned breakdown is rounded to two places.
func Aggregate(order models.Order, matched []models.CostCommissionRule, items ItemTotals) models.CostBreakdown {
	rules := make([]models.CostCommissionRule, 0, len(matched))
	for _, r := range matched {
		if _, ok := categoryRank[r.Category]; ok {
			rules = append(rules, r)
		}
	}
	sort.SliceStable(rules, func(i, j int) bool {
		ri, rj := categoryRank[rules[i].Category], categoryRank[rules[j].Category]
		if ri != rj {
			return ri < rj
		}
		return rules[i].ID < rules[j].ID
	})

	initialBase := order.GrossTotal.Sub(order.DiscountTotal)
	revenueBase := initialBase
	taxBase := decimal.Zero
	subtotals := map[models.RuleCategory]decimal.Decimal{}
	deducted := decimal.Zero

	lines := make([]models.BreakdownLine, 0, len(rules))
	for _, rule := range rules {
		base := initialBase
		if rule.AffectsRevenueBase {
			base = revenueBase
		}

		amount := rule.Value
		if rule.Type == models.RuleValuePercentage {
			amount = percentOf(rule.Value, base)
		}

		if rule.ReducesRevenueBase {
			revenueBase = revenueBase.Sub(amount)
		}
		if rule.EntersTaxBase {
			taxBase = taxBase.Add(amount)
		}
		subtotals[rule.Category] = subtotals[rule.Category].Add(amount)
		if rule.Category != models.RuleCategoryTax || rule.ReducesRevenueBase {
			deducted = deducted.Add(amount)
		}

		line := models.BreakdownLine{
			RuleID:             rule.ID,
			RuleName:           rule.Name,
			Category:           rule.Category,
			Type:               rule.Type,
			Value:              rule.Value,
			Amount:             RoundMoney(amount),
			ReducesRevenueBase: rule.ReducesRevenueBase,
			EntersTaxBase:      rule.EntersTaxBase,
		}
		if rule.Type == models.RuleValuePercentage {
			line.BaseUsed = RoundMoney(base)
		} else {
			line.BaseUsed = decimal.Zero
		}
		lines = append(lines, line)
	}

	netRevenue := initialBase.Sub(deducted)
	itemsCost := items.ItemsCost

	breakdown := models.CostBreakdown{
		Lines: lines,
		Subtotals: models.CategorySubtotals{
			Cost:          RoundMoney(subtotals[models.RuleCategoryCost]),
			Commission:    RoundMoney(subtotals[models.RuleCategoryCommission]),
			Tax:           RoundMoney(subtotals[models.RuleCategoryTax]),
			PaymentMethod: RoundMoney(subtotals[models.RuleCategoryPaymentMethod]),
		},
		InitialRevenueBase: RoundMoney(initialBase),
		FinalRevenueBase:   RoundMoney(revenueBase),
		TaxBase:            RoundMoney(taxBase),
		ItemsCost:          RoundMoney(itemsCost),
		TotalCosts:         RoundMoney(subtotals[models.RuleCategoryCost]),
		TotalCommissions:   RoundMoney(subtotals[models.RuleCategoryCommission]),
		TotalTaxes:         RoundMoney(subtotals[models.RuleCategoryTax]),
		TotalPaymentFees:   RoundMoney(subtotals[models.RuleCategoryPaymentMethod]),
		NetRevenue:         RoundMoney(netRevenue),
		ContributionMargin: RoundMoney(netRevenue.Sub(itemsCost)),
	}
	for _, w := range items.Warnings {
		breakdown.Warnings = append(breakdown.Warnings, w.String())
	}
	return breakdown
}
