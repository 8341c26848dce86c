package costing

import (
	"sort"
	"strings"

	"delivery_costs_backend/internal/models"
)

// compositeSeparators split "X-via-Y" style providers into the sub-provider X and the
// outer platform Y.
var compositeSeparators = []string{"-via-", "_via_"}

// MatchContext is everything the matcher needs about one order.
type MatchContext struct {
	Order models.Order
	// CustomMatches holds the external evaluator's verdict per rule id for
	// applies_to=custom rules. A missing entry does not match.
	CustomMatches map[int64]bool
}

// MatchRules returns every active rule that applies to the order, sorted by id.
// All matches apply together; the result does not depend on the input order.
func MatchRules(ctx MatchContext, rules []models.CostCommissionRule) []models.CostCommissionRule {
	order := ctx.Order
	outer, composite := OuterProvider(order.Provider)

	var exact, fallback []models.CostCommissionRule
	// An exact composite-provider rule shadows bare outer-platform rules of its category.
	shadowed := map[models.RuleCategory]bool{}
	for _, rule := range rules {
		if !rule.Active {
			continue
		}
		scope := providerScopeFor(rule, order.Provider, outer, composite)
		if scope == scopeNone {
			continue
		}
		if !appliesTo(rule, ctx) || !deliveryMatches(rule, order) {
			continue
		}
		switch scope {
		case scopeOuter:
			fallback = append(fallback, rule)
		case scopeExact:
			if composite {
				shadowed[rule.Category] = true
			}
			exact = append(exact, rule)
		default:
			exact = append(exact, rule)
		}
	}

	matched := exact
	for _, rule := range fallback {
		if !shadowed[rule.Category] {
			matched = append(matched, rule)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return matched
}

// OuterProvider returns the outer platform of a composite provider string.
func OuterProvider(provider string) (string, bool) {
	lower := strings.ToLower(provider)
	for _, sep := range compositeSeparators {
		if idx := strings.LastIndex(lower, sep); idx > 0 && idx+len(sep) < len(provider) {
			return provider[idx+len(sep):], true
		}
	}
	return "", false
}

// ResolveDeliveryParty returns who delivers the order: the ingested value when known,
// the store for pickups, the marketplace otherwise.
func ResolveDeliveryParty(order models.Order) models.DeliveryParty {
	if order.DeliveredBy != nil && *order.DeliveredBy != "" && *order.DeliveredBy != models.DeliveryByAll {
		return *order.DeliveredBy
	}
	if order.Origin == models.OrderOriginPickup {
		return models.DeliveryByStore
	}
	return models.DeliveryByMarketplace
}

type providerScope int

const (
	scopeNone providerScope = iota
	scopeAny
	scopeExact
	scopeOuter
)

func providerScopeFor(rule models.CostCommissionRule, provider, outer string, composite bool) providerScope {
	if rule.Provider == nil || *rule.Provider == "" {
		return scopeAny
	}
	if *rule.Provider == provider {
		return scopeExact
	}
	if composite && *rule.Provider == outer {
		return scopeOuter
	}
	return scopeNone
}

func appliesTo(rule models.CostCommissionRule, ctx MatchContext) bool {
	order := ctx.Order
	switch rule.AppliesTo {
	case models.AppliesToAllOrders:
		return true
	case models.AppliesToDeliveryOnly:
		return order.Origin == models.OrderOriginDelivery
	case models.AppliesToPickupOnly:
		return order.Origin == models.OrderOriginPickup
	case models.AppliesToPaymentMethod:
		return paymentTypeMatches(rule.PaymentType, order.PaymentType) &&
			containsPaymentKey(rule.ConditionValues, order.PaymentMethod)
	case models.AppliesToCustom:
		return ctx.CustomMatches[rule.ID]
	default:
		return false
	}
}

func paymentTypeMatches(ruleType, orderType models.PaymentType) bool {
	return ruleType == "" || ruleType == models.PaymentTypeAll || ruleType == orderType
}

func deliveryMatches(rule models.CostCommissionRule, order models.Order) bool {
	if rule.DeliveryBy == "" || rule.DeliveryBy == models.DeliveryByAll {
		return true
	}
	return rule.DeliveryBy == ResolveDeliveryParty(order)
}

func containsPaymentKey(values []string, method string) bool {
	key := NormalizePaymentKey(method)
	if key == "" {
		return false
	}
	for _, v := range values {
		if NormalizePaymentKey(v) == key {
			return true
		}
	}
	return false
}

// NormalizePaymentKey canonicalizes a payment-method key for comparison.
func NormalizePaymentKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}
