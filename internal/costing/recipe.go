package costing

import (
	"fmt"
	"sort"

	"delivery_costs_backend/internal/models"

	"github.com/shopspring/decimal"
)

// Catalog is an immutable snapshot of a tenant's products, ingredients and recipes.
type Catalog struct {
	products    map[int64]models.InternalProduct
	ingredients map[int64]models.Ingredient
	recipes     map[int64][]models.ProductCost
}

// NewCatalog indexes the given rows. Recipe rows are kept ordered by id so that
// warnings come out in a stable order.
func NewCatalog(products []models.InternalProduct, ingredients []models.Ingredient, rows []models.ProductCost) *Catalog {
	c := &Catalog{
		products:    make(map[int64]models.InternalProduct, len(products)),
		ingredients: make(map[int64]models.Ingredient, len(ingredients)),
		recipes:     make(map[int64][]models.ProductCost),
	}
	for _, p := range products {
		c.products[p.ID] = p
	}
	for _, i := range ingredients {
		c.ingredients[i.ID] = i
	}
	for _, r := range rows {
		c.recipes[r.InternalProductID] = append(c.recipes[r.InternalProductID], r)
	}
	for id := range c.recipes {
		recipe := c.recipes[id]
		sort.Slice(recipe, func(i, j int) bool { return recipe[i].ID < recipe[j].ID })
	}
	return c
}

// Product returns a product from the snapshot.
func (c *Catalog) Product(id int64) (models.InternalProduct, bool) {
	p, ok := c.products[id]
	return p, ok
}

// ProductIDs returns every product id in ascending order.
func (c *Catalog) ProductIDs() []int64 {
	ids := make([]int64, 0, len(c.products))
	for id := range c.products {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// RecipeResolver computes an internal product's per-unit ingredient cost.
type RecipeResolver struct {
	catalog *Catalog
}

// NewRecipeResolver creates a resolver over a catalog snapshot.
func NewRecipeResolver(catalog *Catalog) *RecipeResolver {
	return &RecipeResolver{catalog: catalog}
}

// Catalog returns the snapshot the resolver reads from.
func (r *RecipeResolver) Catalog() *Catalog {
	return r.catalog
}

// Cost returns the per-unit cost of a product for a size. Rows for the exact size win;
// size-less rows are used when the size has none. A product without any recipe row
// resolves to its cached unit cost.
func (r *RecipeResolver) Cost(productID int64, size string) (decimal.Decimal, []DataIntegrityWarning) {
	return r.cost(productID, size, map[int64]bool{})
}

func (r *RecipeResolver) cost(productID int64, size string, visiting map[int64]bool) (decimal.Decimal, []DataIntegrityWarning) {
	product, ok := r.catalog.products[productID]
	if !ok {
		return decimal.Zero, []DataIntegrityWarning{{
			Kind:      WarningMissingProduct,
			Reference: productID,
			Message:   fmt.Sprintf("internal product %d not found", productID),
		}}
	}

	recipe := r.catalog.recipes[productID]
	if len(recipe) == 0 {
		return product.UnitCost, nil
	}

	visiting[productID] = true
	defer delete(visiting, productID)

	var warnings []DataIntegrityWarning
	total := decimal.Zero
	for _, row := range rowsForSize(recipe, size) {
		amount, rowWarnings := r.rowCost(productID, row, size, visiting)
		warnings = append(warnings, rowWarnings...)
		total = total.Add(amount)
	}
	return total, warnings
}

func (r *RecipeResolver) rowCost(productID int64, row models.ProductCost, size string, visiting map[int64]bool) (decimal.Decimal, []DataIntegrityWarning) {
	switch row.Component.Kind {
	case models.ComponentIngredient:
		ingredient, ok := r.catalog.ingredients[row.Component.ID]
		if !ok {
			return decimal.Zero, []DataIntegrityWarning{{
				Kind:      WarningMissingIngredient,
				ProductID: productID,
				Reference: row.Component.ID,
				Message:   fmt.Sprintf("product %d references missing ingredient %d", productID, row.Component.ID),
			}}
		}
		rowUnit := ""
		if row.Unit != nil {
			rowUnit = *row.Unit
		}
		qty, ok := convertQuantity(row.Quantity, rowUnit, ingredient.Unit)
		if !ok {
			return decimal.Zero, []DataIntegrityWarning{{
				Kind:      WarningUnitMismatch,
				ProductID: productID,
				Reference: ingredient.ID,
				Message:   fmt.Sprintf("product %d uses %s of ingredient %d priced per %s", productID, rowUnit, ingredient.ID, ingredient.Unit),
			}}
		}
		return qty.Mul(ingredient.UnitPrice), nil

	case models.ComponentProduct:
		if visiting[row.Component.ID] {
			return decimal.Zero, []DataIntegrityWarning{{
				Kind:      WarningRecipeCycle,
				ProductID: productID,
				Reference: row.Component.ID,
				Message:   fmt.Sprintf("product %d recipe loops back to product %d", productID, row.Component.ID),
			}}
		}
		if _, ok := r.catalog.products[row.Component.ID]; !ok {
			return decimal.Zero, []DataIntegrityWarning{{
				Kind:      WarningMissingProduct,
				ProductID: productID,
				Reference: row.Component.ID,
				Message:   fmt.Sprintf("product %d references missing product %d", productID, row.Component.ID),
			}}
		}
		unitCost, warnings := r.cost(row.Component.ID, size, visiting)
		return row.Quantity.Mul(unitCost), warnings

	default:
		return decimal.Zero, []DataIntegrityWarning{{
			Kind:      WarningMissingIngredient,
			ProductID: productID,
			Reference: row.Component.ID,
			Message:   fmt.Sprintf("product %d has recipe row %d with unknown component kind %q", productID, row.ID, row.Component.Kind),
		}}
	}
}

func rowsForSize(recipe []models.ProductCost, size string) []models.ProductCost {
	var sized, generic []models.ProductCost
	for _, row := range recipe {
		switch {
		case row.Size == nil || *row.Size == "":
			generic = append(generic, row)
		case size != "" && *row.Size == size:
			sized = append(sized, row)
		}
	}
	if len(sized) > 0 {
		return sized
	}
	return generic
}
