package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ingredient is a purchasable raw material with a unit price.
type Ingredient struct {
	ID        int64           `json:"id" db:"id"`
	TenantID  int64           `json:"tenant_id" db:"tenant_id"`
	Name      string          `json:"name" db:"name"`
	Unit      string          `json:"unit" db:"unit"` // e.g., kg, g, l, ml, un
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// InternalProduct is a product the store physically prepares or resells.
type InternalProduct struct {
	ID              int64           `json:"id" db:"id"`
	TenantID        int64           `json:"tenant_id" db:"tenant_id"`
	Name            string          `json:"name" db:"name"`
	UnitCost        decimal.Decimal `json:"unit_cost" db:"unit_cost"` // cached recipe cost
	SalePrice       decimal.Decimal `json:"sale_price" db:"sale_price"`
	MaxFlavors      int             `json:"max_flavors" db:"max_flavors"`
	Size            *string         `json:"size,omitempty" db:"size"`
	CostRefreshedAt *time.Time      `json:"cost_refreshed_at,omitempty" db:"cost_refreshed_at"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// ComponentKind tags what a recipe row points at.
type ComponentKind string

const (
	ComponentIngredient ComponentKind = "ingredient"
	ComponentProduct    ComponentKind = "product"
)

// ComponentRef is either an ingredient or another internal product.
type ComponentRef struct {
	Kind ComponentKind `json:"kind" db:"component_kind"`
	ID   int64         `json:"id" db:"component_id"`
}

// IngredientRef builds a component reference to an ingredient.
func IngredientRef(id int64) ComponentRef {
	return ComponentRef{Kind: ComponentIngredient, ID: id}
}

// ProductRef builds a component reference to an internal product.
func ProductRef(id int64) ComponentRef {
	return ComponentRef{Kind: ComponentProduct, ID: id}
}

// ProductCost is one recipe row: how much of a component a product uses for a size.
type ProductCost struct {
	ID                int64           `json:"id" db:"id"`
	InternalProductID int64           `json:"internal_product_id" db:"internal_product_id"`
	Component         ComponentRef    `json:"component"`
	Size              *string         `json:"size,omitempty" db:"size"` // nil applies to every size
	Quantity          decimal.Decimal `json:"quantity" db:"quantity"`
	Unit              *string         `json:"unit,omitempty" db:"unit"` // nil means the component's own unit
}
