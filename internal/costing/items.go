package costing

import (
	"fmt"

	"delivery_costs_backend/internal/models"

	"github.com/shopspring/decimal"
)

// ItemTotals carries the product cost of an order's items into the aggregator.
type ItemTotals struct {
	ItemsCost decimal.Decimal
	Warnings  []DataIntegrityWarning
}

// ItemCost returns the cost of goods of one sold item: the per-unit cost of every
// mapping (its frozen override when present) times the item quantity.
func ItemCost(item models.OrderItem, mappings []models.OrderItemMapping, resolver *RecipeResolver) (decimal.Decimal, []DataIntegrityWarning, error) {
	if len(mappings) == 0 {
		return decimal.Zero, []DataIntegrityWarning{{
			Kind:      WarningUnmappedItem,
			Reference: item.ID,
			Message:   fmt.Sprintf("item %d (%s) has no product mapping", item.ID, item.Name),
		}}, nil
	}

	rows := sortedMappings(mappings)
	lone := -1
	if i, ok := loneMain(rows); ok && !hasAutoFlavor(rows) {
		lone = i
	}

	groupSum := decimal.Zero
	groupSize := 0
	for i, m := range rows {
		if m.OrderItemID != item.ID {
			return decimal.Zero, nil, fmt.Errorf("%w: mapping %d belongs to item %d, not %d", ErrCorruptMapping, m.ID, m.OrderItemID, item.ID)
		}
		if !m.Quantity.IsPositive() && i != lone {
			return decimal.Zero, nil, fmt.Errorf("%w: mapping %d has non-positive quantity %s", ErrCorruptMapping, m.ID, m.Quantity)
		}
		if m.IsAutoFlavor() {
			groupSum = groupSum.Add(m.Quantity)
			groupSize++
		}
	}
	if groupSize > 0 && groupSum.Sub(decimal.NewFromInt(1)).Abs().GreaterThan(FractionTolerance) {
		return decimal.Zero, nil, fmt.Errorf("%w: flavor fractions of item %d sum to %s", ErrCorruptMapping, item.ID, groupSum)
	}

	size := itemSize(item)
	var warnings []DataIntegrityWarning
	perUnit := decimal.Zero
	for i, m := range rows {
		qty := m.Quantity
		if i == lone && !qty.IsPositive() {
			qty = decimal.NewFromInt(1)
		}
		if m.UnitCostOverride.Valid {
			perUnit = perUnit.Add(m.UnitCostOverride.Decimal)
			continue
		}
		if m.InternalProductID == nil {
			warnings = append(warnings, DataIntegrityWarning{
				Kind:      WarningUnmappedItem,
				Reference: m.ID,
				Message:   fmt.Sprintf("mapping %d of item %d has no internal product", m.ID, item.ID),
			})
			continue
		}
		unitCost, costWarnings := resolver.Cost(*m.InternalProductID, size)
		warnings = append(warnings, costWarnings...)
		perUnit = perUnit.Add(unitCost.Mul(qty))
	}
	return perUnit.Mul(item.Quantity), warnings, nil
}

// OrderItemTotals costs every item of an order. Mappings are matched to items by
// order_item_id; a mapping whose item is not part of the order is corrupt.
func OrderItemTotals(items []models.OrderItem, mappings []models.OrderItemMapping, resolver *RecipeResolver) (ItemTotals, error) {
	byItem := make(map[int64][]models.OrderItemMapping, len(items))
	known := make(map[int64]bool, len(items))
	for _, item := range items {
		known[item.ID] = true
	}
	for _, m := range mappings {
		if !known[m.OrderItemID] {
			return ItemTotals{}, fmt.Errorf("%w: mapping %d references unknown order item %d", ErrCorruptMapping, m.ID, m.OrderItemID)
		}
		byItem[m.OrderItemID] = append(byItem[m.OrderItemID], m)
	}

	totals := ItemTotals{ItemsCost: decimal.Zero}
	for _, item := range items {
		cost, warnings, err := ItemCost(item, byItem[item.ID], resolver)
		if err != nil {
			return ItemTotals{}, err
		}
		totals.ItemsCost = totals.ItemsCost.Add(cost)
		totals.Warnings = append(totals.Warnings, warnings...)
	}
	return totals, nil
}

func hasAutoFlavor(rows []models.OrderItemMapping) bool {
	for _, m := range rows {
		if m.IsAutoFlavor() {
			return true
		}
	}
	return false
}
