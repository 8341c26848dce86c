package costing

import (
	"sort"
	"strings"

	"delivery_costs_backend/internal/models"

	"github.com/shopspring/decimal"
)

// NormalizeRule fills defaults and canonicalizes free-form fields before validation.
func NormalizeRule(rule *models.CostCommissionRule) {
	rule.Name = strings.TrimSpace(rule.Name)
	if rule.Provider != nil {
		p := strings.TrimSpace(*rule.Provider)
		if p == "" {
			rule.Provider = nil
		} else {
			rule.Provider = &p
		}
	}
	if rule.AppliesTo == "" {
		rule.AppliesTo = models.AppliesToAllOrders
	}
	if rule.PaymentType == "" {
		rule.PaymentType = models.PaymentTypeAll
	}
	if rule.DeliveryBy == "" {
		rule.DeliveryBy = models.DeliveryByAll
	}

	seen := map[string]bool{}
	values := make([]string, 0, len(rule.ConditionValues))
	for _, v := range rule.ConditionValues {
		key := NormalizePaymentKey(v)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		values = append(values, key)
	}
	sort.Strings(values)
	rule.ConditionValues = values
}

// ValidateRule checks a rule at save time. Malformed rules never reach the engine.
func ValidateRule(rule models.CostCommissionRule) error {
	if rule.Name == "" {
		return newValidationError("name", "is required")
	}
	if !models.IsValidRuleCategory(string(rule.Category)) {
		return newValidationError("category", "must be one of cost, commission, tax, payment_method")
	}
	switch rule.Type {
	case models.RuleValuePercentage:
		if rule.Value.GreaterThan(decimal.NewFromInt(100)) {
			return newValidationError("value", "percentage cannot exceed 100")
		}
	case models.RuleValueFixed:
	default:
		return newValidationError("type", "must be percentage or fixed")
	}
	if rule.Value.IsNegative() {
		return newValidationError("value", "cannot be negative")
	}

	switch rule.AppliesTo {
	case models.AppliesToAllOrders, models.AppliesToDeliveryOnly, models.AppliesToPickupOnly, models.AppliesToPaymentMethod:
	case models.AppliesToCustom:
		if rule.CustomCondition == nil || strings.TrimSpace(*rule.CustomCondition) == "" {
			return newValidationError("custom_condition", "is required when applies_to is custom")
		}
	default:
		return newValidationError("applies_to", "must be one of all_orders, delivery_only, pickup_only, payment_method, custom")
	}

	if rule.AppliesTo == models.AppliesToPaymentMethod && len(rule.ConditionValues) == 0 {
		return newValidationError("condition_values", "at least one payment method is required when applies_to is payment_method")
	}
	if rule.AppliesTo != models.AppliesToPaymentMethod && len(rule.ConditionValues) > 0 {
		return newValidationError("condition_values", "only allowed when applies_to is payment_method")
	}

	switch rule.PaymentType {
	case models.PaymentTypeAll, models.PaymentTypeOnline, models.PaymentTypeOffline:
	default:
		return newValidationError("payment_type", "must be one of all, online, offline")
	}
	switch rule.DeliveryBy {
	case models.DeliveryByAll, models.DeliveryByStore, models.DeliveryByMarketplace:
	default:
		return newValidationError("delivery_by", "must be one of all, store, marketplace")
	}
	return nil
}
