package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderOrigin tells how the customer receives the order.
type OrderOrigin string

const (
	OrderOriginDelivery OrderOrigin = "delivery"
	OrderOriginPickup   OrderOrigin = "pickup"
)

// MappingType is the role of a mapping row inside a sold item.
type MappingType string

const (
	MappingTypeMain   MappingType = "main"
	MappingTypeOption MappingType = "option"
	MappingTypeAddon  MappingType = "addon"
)

// OptionType classifies option rows; pizza_flavor rows can be auto-fractioned.
type OptionType string

const (
	OptionTypePizzaFlavor OptionType = "pizza_flavor"
	OptionTypeRegular     OptionType = "regular"
	OptionTypeAddon       OptionType = "addon"
	OptionTypeObservation OptionType = "observation"
	OptionTypeDrink       OptionType = "drink"
)

// Order is a normalized marketplace order together with its calculated figures.
type Order struct {
	ID                int64               `json:"id" db:"id"`
	TenantID          int64               `json:"tenant_id" db:"tenant_id"`
	StoreID           int64               `json:"store_id" db:"store_id"`
	Provider          string              `json:"provider" db:"provider"`
	ExternalID        string              `json:"external_id" db:"external_id"`
	Status            string              `json:"status" db:"status"`
	GrossTotal        decimal.Decimal     `json:"gross_total" db:"gross_total"`
	DiscountTotal     decimal.Decimal     `json:"discount_total" db:"discount_total"`
	DeliveryFee       decimal.Decimal     `json:"delivery_fee" db:"delivery_fee"`
	Tip               decimal.Decimal     `json:"tip" db:"tip"`
	PaymentMethod     string              `json:"payment_method" db:"payment_method"`
	PaymentType       PaymentType         `json:"payment_type" db:"payment_type"`
	Origin            OrderOrigin         `json:"origin" db:"origin"`
	DeliveredBy       *DeliveryParty      `json:"delivered_by,omitempty" db:"delivered_by"`
	CalculatedCosts   *CostBreakdown      `json:"calculated_costs,omitempty" db:"calculated_costs"`
	TotalCosts        decimal.NullDecimal `json:"total_costs" db:"total_costs"`
	TotalCommissions  decimal.NullDecimal `json:"total_commissions" db:"total_commissions"`
	TotalTaxes        decimal.NullDecimal `json:"total_taxes" db:"total_taxes"`
	NetRevenue        decimal.NullDecimal `json:"net_revenue" db:"net_revenue"` // set iff CostsCalculatedAt is set
	CostsCalculatedAt *time.Time          `json:"costs_calculated_at,omitempty" db:"costs_calculated_at"`
	PlacedAt          time.Time           `json:"placed_at" db:"placed_at"`
	CreatedAt         time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at" db:"updated_at"`
	OrderItems        []OrderItem         `json:"order_items,omitempty"`
}

// OrderItem is a sold line inside an order.
type OrderItem struct {
	ID        int64              `json:"id" db:"id"`
	OrderID   int64              `json:"order_id" db:"order_id"`
	Name      string             `json:"name" db:"name"`
	Quantity  decimal.Decimal    `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal    `json:"unit_price" db:"unit_price"`
	Total     decimal.Decimal    `json:"total" db:"total"`
	Size      *string            `json:"size,omitempty" db:"size"`
	CreatedAt time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" db:"updated_at"`
	Mappings  []OrderItemMapping `json:"mappings,omitempty"`
}

// OrderItemMapping links a sold item to the internal product that physically composes it.
type OrderItemMapping struct {
	ID                int64               `json:"id" db:"id"`
	OrderItemID       int64               `json:"order_item_id" db:"order_item_id"`
	InternalProductID *int64              `json:"internal_product_id,omitempty" db:"internal_product_id"`
	Quantity          decimal.Decimal     `json:"quantity" db:"quantity"` // share of one sold unit
	MappingType       MappingType         `json:"mapping_type" db:"mapping_type"`
	OptionType        *OptionType         `json:"option_type,omitempty" db:"option_type"`
	AutoFraction      bool                `json:"auto_fraction" db:"auto_fraction"`
	UnitCostOverride  decimal.NullDecimal `json:"unit_cost_override" db:"unit_cost_override"`
	CreatedAt         time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at" db:"updated_at"`
}

// IsAutoFlavor reports whether the row takes part in the equal-split flavor group.
func (m OrderItemMapping) IsAutoFlavor() bool {
	return m.AutoFraction && m.IsPizzaFlavor()
}

// IsPizzaFlavor reports whether the row is a pizza flavor option.
func (m OrderItemMapping) IsPizzaFlavor() bool {
	return m.OptionType != nil && *m.OptionType == OptionTypePizzaFlavor
}

// OrderFilters defines the available filters for querying orders.
type OrderFilters struct {
	StoreID    *int64     `form:"store_id"`
	Provider   *string    `form:"provider"`
	Status     *string    `form:"status"`
	DateFrom   *time.Time `form:"date_from"`
	DateTo     *time.Time `form:"date_to"`
	Calculated *bool      `form:"calculated"`
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
}
