package costing

import (
	"fmt"
	"sort"

	"delivery_costs_backend/internal/models"

	"github.com/shopspring/decimal"
)

// FractionAllocator splits a composite sold item across the internal products that compose it.
type FractionAllocator struct {
	resolver *RecipeResolver
}

// NewFractionAllocator creates an allocator that freezes costs through the given resolver.
func NewFractionAllocator(resolver *RecipeResolver) *FractionAllocator {
	return &FractionAllocator{resolver: resolver}
}

// AllocationResult holds the item's mappings after allocation, ordered by id.
type AllocationResult struct {
	Mappings []models.OrderItemMapping
	Changed  []int64 // ids of rows whose quantity or unit cost override was set
	Warnings []DataIntegrityWarning
}

// Allocate assigns each auto-fraction pizza flavor row 1/N of a sold unit and freezes its
// unit cost override. Option and addon rows keep their stored quantity. The returned
// quantities of a flavor group always sum to exactly one.
func (a *FractionAllocator) Allocate(item models.OrderItem, mappings []models.OrderItemMapping) (AllocationResult, error) {
	rows := sortedMappings(mappings)
	for _, m := range rows {
		if m.OrderItemID != item.ID {
			return AllocationResult{}, fmt.Errorf("%w: mapping %d belongs to item %d, not %d", ErrCorruptMapping, m.ID, m.OrderItemID, item.ID)
		}
	}
	if err := ValidateFlavorGroup(rows, a.resolver.Catalog()); err != nil {
		return AllocationResult{}, err
	}

	result := AllocationResult{Mappings: rows}
	size := itemSize(item)

	var group []int
	for i, m := range rows {
		if m.IsAutoFlavor() {
			group = append(group, i)
		}
	}

	if len(group) == 0 {
		if i, ok := loneMain(rows); ok && !rows[i].Quantity.IsPositive() {
			rows[i].Quantity = decimal.NewFromInt(1)
			result.Changed = append(result.Changed, rows[i].ID)
		}
		return result, nil
	}

	shares := equalShares(len(group))
	for k, i := range group {
		m := &rows[i]
		m.Quantity = shares[k]
		if m.InternalProductID == nil {
			m.UnitCostOverride = decimal.NullDecimal{Decimal: decimal.Zero, Valid: true}
			result.Warnings = append(result.Warnings, DataIntegrityWarning{
				Kind:      WarningUnmappedItem,
				Reference: m.ID,
				Message:   fmt.Sprintf("flavor mapping %d of item %d has no internal product", m.ID, item.ID),
			})
		} else {
			unitCost, warnings := a.resolver.Cost(*m.InternalProductID, size)
			result.Warnings = append(result.Warnings, warnings...)
			m.UnitCostOverride = decimal.NullDecimal{Decimal: unitCost.Mul(m.Quantity).Round(FractionPlaces), Valid: true}
		}
		result.Changed = append(result.Changed, m.ID)
	}
	return result, nil
}

// ValidateFlavorGroup rejects flavor groups that mix auto_fraction flags or hold more
// flavors than the smallest non-zero max_flavors among the group's products allows.
func ValidateFlavorGroup(mappings []models.OrderItemMapping, catalog *Catalog) error {
	var flavors []models.OrderItemMapping
	for _, m := range mappings {
		if m.IsPizzaFlavor() {
			flavors = append(flavors, m)
		}
	}
	if len(flavors) == 0 {
		return nil
	}

	auto := flavors[0].AutoFraction
	for _, m := range flavors[1:] {
		if m.AutoFraction != auto {
			return &ValidationError{
				Field:   "auto_fraction",
				Message: "pizza flavor rows of one item must all share the same auto_fraction flag",
				Err:     ErrAmbiguousFractionGroup,
			}
		}
	}

	limit := 0
	for _, m := range flavors {
		if m.InternalProductID == nil || catalog == nil {
			continue
		}
		p, ok := catalog.Product(*m.InternalProductID)
		if !ok || p.MaxFlavors <= 0 {
			continue
		}
		if limit == 0 || p.MaxFlavors < limit {
			limit = p.MaxFlavors
		}
	}
	if limit > 0 && len(flavors) > limit {
		return &ValidationError{
			Field:   "mappings",
			Message: fmt.Sprintf("%d flavors selected but at most %d allowed", len(flavors), limit),
			Err:     ErrTooManyFlavors,
		}
	}
	return nil
}

// equalShares splits one unit into n shares of FractionPlaces precision; the last
// share absorbs the rounding remainder.
func equalShares(n int) []decimal.Decimal {
	shares := make([]decimal.Decimal, n)
	one := decimal.NewFromInt(1)
	share := one.Div(decimal.NewFromInt(int64(n))).Round(FractionPlaces)
	assigned := decimal.Zero
	for i := 0; i < n-1; i++ {
		shares[i] = share
		assigned = assigned.Add(share)
	}
	shares[n-1] = one.Sub(assigned)
	return shares
}

func sortedMappings(mappings []models.OrderItemMapping) []models.OrderItemMapping {
	rows := make([]models.OrderItemMapping, len(mappings))
	copy(rows, mappings)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows
}

func loneMain(rows []models.OrderItemMapping) (int, bool) {
	idx := -1
	for i, m := range rows {
		if m.MappingType == models.MappingTypeMain {
			if idx >= 0 {
				return 0, false
			}
			idx = i
		}
	}
	return idx, idx >= 0
}

func itemSize(item models.OrderItem) string {
	if item.Size == nil {
		return ""
	}
	return *item.Size
}
