package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RuleCategory groups rules for processing order and reporting.
type RuleCategory string

const (
	RuleCategoryCost          RuleCategory = "cost"
	RuleCategoryCommission    RuleCategory = "commission"
	RuleCategoryTax           RuleCategory = "tax"
	RuleCategoryPaymentMethod RuleCategory = "payment_method"
)

// RuleCategoryOrder is the fixed order in which the aggregator applies categories.
var RuleCategoryOrder = []RuleCategory{
	RuleCategoryCost,
	RuleCategoryCommission,
	RuleCategoryTax,
	RuleCategoryPaymentMethod,
}

// RuleValueType defines how a rule value is interpreted.
type RuleValueType string

const (
	RuleValuePercentage RuleValueType = "percentage"
	RuleValueFixed      RuleValueType = "fixed"
)

// RuleAppliesTo selects which orders a rule targets.
type RuleAppliesTo string

const (
	AppliesToAllOrders     RuleAppliesTo = "all_orders"
	AppliesToDeliveryOnly  RuleAppliesTo = "delivery_only"
	AppliesToPickupOnly    RuleAppliesTo = "pickup_only"
	AppliesToPaymentMethod RuleAppliesTo = "payment_method"
	AppliesToCustom        RuleAppliesTo = "custom"
)

// PaymentType tells whether an order was paid through the marketplace or on delivery.
type PaymentType string

const (
	PaymentTypeAll     PaymentType = "all"
	PaymentTypeOnline  PaymentType = "online"
	PaymentTypeOffline PaymentType = "offline"
)

// DeliveryParty is the party responsible for delivering an order.
type DeliveryParty string

const (
	DeliveryByAll         DeliveryParty = "all"
	DeliveryByStore       DeliveryParty = "store"
	DeliveryByMarketplace DeliveryParty = "marketplace"
)

// IsValidRuleCategory checks if the provided string is a known rule category.
func IsValidRuleCategory(category string) bool {
	switch RuleCategory(category) {
	case RuleCategoryCost, RuleCategoryCommission, RuleCategoryTax, RuleCategoryPaymentMethod:
		return true
	default:
		return false
	}
}

// CostCommissionRule is a tenant-configured financial rule applied to marketplace orders.
type CostCommissionRule struct {
	ID                 int64           `json:"id" db:"id"`
	TenantID           int64           `json:"tenant_id" db:"tenant_id"`
	Name               string          `json:"name" db:"name"`
	Category           RuleCategory    `json:"category" db:"category"`
	Provider           *string         `json:"provider,omitempty" db:"provider"` // nil matches any provider
	Type               RuleValueType   `json:"type" db:"type"`
	Value              decimal.Decimal `json:"value" db:"value"`
	AppliesTo          RuleAppliesTo   `json:"applies_to" db:"applies_to"`
	PaymentType        PaymentType     `json:"payment_type" db:"payment_type"`
	DeliveryBy         DeliveryParty   `json:"delivery_by" db:"delivery_by"`
	ConditionValues    []string        `json:"condition_values" db:"condition_values"`
	CustomCondition    *string         `json:"custom_condition,omitempty" db:"custom_condition"` // evaluated outside the engine
	AffectsRevenueBase bool            `json:"affects_revenue_base" db:"affects_revenue_base"`
	EntersTaxBase      bool            `json:"enters_tax_base" db:"enters_tax_base"`
	ReducesRevenueBase bool            `json:"reduces_revenue_base" db:"reduces_revenue_base"`
	Active             bool            `json:"active" db:"active"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// CostRuleFilters defines the available filters for listing rules.
type CostRuleFilters struct {
	Category *string `form:"category"`
	Provider *string `form:"provider"`
	Active   *bool   `form:"active"`
	Page     int     `form:"page"`
	PageSize int     `form:"page_size"`
}
