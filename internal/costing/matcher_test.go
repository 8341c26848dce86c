package costing

import (
	"math/rand"
	"reflect"
	"testing"

	"delivery_costs_backend/internal/models"
)

func rule(id int64, category models.RuleCategory, provider *string) models.CostCommissionRule {
	return models.CostCommissionRule{
		ID:          id,
		Name:        "rule",
		Category:    category,
		Provider:    provider,
		Type:        models.RuleValuePercentage,
		Value:       dec("1"),
		AppliesTo:   models.AppliesToAllOrders,
		PaymentType: models.PaymentTypeAll,
		DeliveryBy:  models.DeliveryByAll,
		Active:      true,
	}
}

func matchedIDs(rules []models.CostCommissionRule) []int64 {
	ids := make([]int64, 0, len(rules))
	for _, r := range rules {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestMatchRulesPaymentMethodIgnoresProvider(t *testing.T) {
	pix := rule(1, models.RuleCategoryPaymentMethod, nil)
	pix.AppliesTo = models.AppliesToPaymentMethod
	pix.PaymentType = models.PaymentTypeOnline
	pix.ConditionValues = []string{"PIX"}

	order := models.Order{Provider: "ifood", PaymentMethod: " pix ", PaymentType: models.PaymentTypeOnline, Origin: models.OrderOriginDelivery}
	got := MatchRules(MatchContext{Order: order}, []models.CostCommissionRule{pix})
	if !reflect.DeepEqual(matchedIDs(got), []int64{1}) {
		t.Fatalf("matched = %v, want [1]", matchedIDs(got))
	}

	order.PaymentType = models.PaymentTypeOffline
	if got := MatchRules(MatchContext{Order: order}, []models.CostCommissionRule{pix}); len(got) != 0 {
		t.Errorf("offline order matched online-only rule: %v", matchedIDs(got))
	}

	order.PaymentType = models.PaymentTypeOnline
	order.PaymentMethod = "CREDIT"
	if got := MatchRules(MatchContext{Order: order}, []models.CostCommissionRule{pix}); len(got) != 0 {
		t.Errorf("credit order matched pix rule: %v", matchedIDs(got))
	}
}

func TestMatchRulesFilters(t *testing.T) {
	delivery := models.Order{Provider: "ifood", Origin: models.OrderOriginDelivery, PaymentMethod: "CREDIT", PaymentType: models.PaymentTypeOnline}
	pickup := delivery
	pickup.Origin = models.OrderOriginPickup
	store := models.DeliveryByStore
	ownFleet := delivery
	ownFleet.DeliveredBy = &store

	inactive := rule(1, models.RuleCategoryCost, nil)
	inactive.Active = false
	deliveryOnly := rule(2, models.RuleCategoryCost, nil)
	deliveryOnly.AppliesTo = models.AppliesToDeliveryOnly
	pickupOnly := rule(3, models.RuleCategoryCost, nil)
	pickupOnly.AppliesTo = models.AppliesToPickupOnly
	otherProvider := rule(4, models.RuleCategoryCommission, strPtr("rappi"))
	sameProvider := rule(5, models.RuleCategoryCommission, strPtr("ifood"))
	byMarketplace := rule(6, models.RuleCategoryCost, nil)
	byMarketplace.DeliveryBy = models.DeliveryByMarketplace
	custom := rule(7, models.RuleCategoryCost, nil)
	custom.AppliesTo = models.AppliesToCustom
	custom.CustomCondition = strPtr("subtotal > 50")
	emptyProvider := rule(8, models.RuleCategoryTax, strPtr(""))

	rules := []models.CostCommissionRule{inactive, deliveryOnly, pickupOnly, otherProvider, sameProvider, byMarketplace, custom, emptyProvider}

	tests := []struct {
		name   string
		ctx    MatchContext
		wanted []int64
	}{
		{"delivery by marketplace", MatchContext{Order: delivery}, []int64{2, 5, 6, 8}},
		{"pickup is delivered by the store", MatchContext{Order: pickup}, []int64{3, 5, 8}},
		{"own fleet delivery", MatchContext{Order: ownFleet}, []int64{2, 5, 8}},
		{"custom predicate true", MatchContext{Order: delivery, CustomMatches: map[int64]bool{7: true}}, []int64{2, 5, 6, 7, 8}},
		{"custom predicate false", MatchContext{Order: delivery, CustomMatches: map[int64]bool{7: false}}, []int64{2, 5, 6, 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matchedIDs(MatchRules(tt.ctx, rules))
			if !reflect.DeepEqual(got, tt.wanted) {
				t.Errorf("matched = %v, want %v", got, tt.wanted)
			}
		})
	}
}

func TestMatchRulesCompositeProvider(t *testing.T) {
	order := models.Order{Provider: "delivery_direto-via-ifood", Origin: models.OrderOriginDelivery}

	outerCommission := rule(1, models.RuleCategoryCommission, strPtr("ifood"))
	outerCost := rule(2, models.RuleCategoryCost, strPtr("ifood"))
	exactCommission := rule(3, models.RuleCategoryCommission, strPtr("delivery_direto-via-ifood"))
	anyTax := rule(4, models.RuleCategoryTax, nil)
	unrelated := rule(5, models.RuleCategoryCommission, strPtr("rappi"))

	got := matchedIDs(MatchRules(MatchContext{Order: order}, []models.CostCommissionRule{outerCommission, outerCost, exactCommission, anyTax, unrelated}))
	// the exact commission rule shadows the outer platform commission; the outer cost rule still applies
	if want := []int64{2, 3, 4}; !reflect.DeepEqual(got, want) {
		t.Errorf("matched = %v, want %v", got, want)
	}

	got = matchedIDs(MatchRules(MatchContext{Order: order}, []models.CostCommissionRule{outerCommission, anyTax}))
	if want := []int64{1, 4}; !reflect.DeepEqual(got, want) {
		t.Errorf("fallback matched = %v, want %v", got, want)
	}
}

func TestMatchRulesDeterministic(t *testing.T) {
	order := models.Order{Provider: "ifood", Origin: models.OrderOriginDelivery, PaymentMethod: "PIX", PaymentType: models.PaymentTypeOnline}
	var rules []models.CostCommissionRule
	for i := int64(1); i <= 40; i++ {
		category := models.RuleCategoryOrder[i%4]
		var provider *string
		if i%3 == 0 {
			provider = strPtr("ifood")
		}
		rules = append(rules, rule(i, category, provider))
	}
	want := matchedIDs(MatchRules(MatchContext{Order: order}, rules))

	rng := rand.New(rand.NewSource(42))
	for run := 0; run < 20; run++ {
		shuffled := append([]models.CostCommissionRule(nil), rules...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got := matchedIDs(MatchRules(MatchContext{Order: order}, shuffled))
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("run %d: matched = %v, want %v", run, got, want)
		}
	}
}

func TestOuterProvider(t *testing.T) {
	tests := []struct {
		provider string
		outer    string
		ok       bool
	}{
		{"ifood", "", false},
		{"delivery_direto-via-ifood", "ifood", true},
		{"menu_via_rappi", "rappi", true},
		{"-via-ifood", "", false},
		{"x-via-", "", false},
	}
	for _, tt := range tests {
		outer, ok := OuterProvider(tt.provider)
		if outer != tt.outer || ok != tt.ok {
			t.Errorf("OuterProvider(%q) = %q, %v; want %q, %v", tt.provider, outer, ok, tt.outer, tt.ok)
		}
	}
}
