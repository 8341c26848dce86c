package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"delivery_costs_backend/internal/models"
	"delivery_costs_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// fakeTransactor runs the unit of work without a database.
type fakeTransactor struct {
	mu      sync.Mutex
	commits int
}

func (f *fakeTransactor) WithinTransaction(fn func(executor repositories.SQLExecutor) error) error {
	if err := fn(nil); err != nil {
		return err
	}
	f.mu.Lock()
	f.commits++
	f.mu.Unlock()
	return nil
}

// fakeTenantLocker stands in for the database lock. hold simulates another process.
type fakeTenantLocker struct {
	mu   sync.Mutex
	held map[int64]bool
}

func newFakeTenantLocker() *fakeTenantLocker {
	return &fakeTenantLocker{held: map[int64]bool{}}
}

func (f *fakeTenantLocker) hold(tenantID int64, held bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.held[tenantID] = held
}

func (f *fakeTenantLocker) TryLock(_ context.Context, tenantID int64) (func() error, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held[tenantID] {
		return nil, repositories.ErrLockNotAcquired
	}
	f.held[tenantID] = true
	return func() error {
		f.hold(tenantID, false)
		return nil
	}, nil
}

type fakeOrderRepo struct {
	mu         sync.Mutex
	orders     map[int64]models.Order
	items      map[int64][]models.OrderItem // by order id
	predicates map[int64]map[int64]bool
	saved      map[int64]models.CostBreakdown
	saves      int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders:     map[int64]models.Order{},
		items:      map[int64][]models.OrderItem{},
		predicates: map[int64]map[int64]bool{},
		saved:      map[int64]models.CostBreakdown{},
	}
}

func (f *fakeOrderRepo) GetOrderByID(tenantID, orderID int64) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok || o.TenantID != tenantID {
		return nil, repositories.ErrNotFound
	}
	return &o, nil
}

func (f *fakeOrderRepo) GetOrders(tenantID int64, filters models.OrderFilters) ([]models.Order, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.orders {
		if o.TenantID == tenantID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f *fakeOrderRepo) ListOrderIDs(tenantID int64, filter models.RecalculationFilter) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := []int64{}
	for id, o := range f.orders {
		if o.TenantID != tenantID {
			continue
		}
		if filter.Provider != nil && o.Provider != *filter.Provider {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *fakeOrderRepo) SaveCalculatedCosts(_ repositories.SQLExecutor, orderID int64, breakdown models.CostBreakdown, calculatedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return repositories.ErrNotFound
	}
	b := breakdown
	o.CalculatedCosts = &b
	o.TotalCosts = decimal.NewNullDecimal(breakdown.TotalCosts)
	o.TotalCommissions = decimal.NewNullDecimal(breakdown.TotalCommissions)
	o.TotalTaxes = decimal.NewNullDecimal(breakdown.TotalTaxes)
	o.NetRevenue = decimal.NewNullDecimal(breakdown.NetRevenue)
	at := calculatedAt
	o.CostsCalculatedAt = &at
	f.orders[orderID] = o
	f.saved[orderID] = breakdown
	f.saves++
	return nil
}

func (f *fakeOrderRepo) GetCustomPredicates(orderID int64) (map[int64]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.predicates[orderID], nil
}

func (f *fakeOrderRepo) GetOrderItemByID(tenantID, itemID int64) (*models.OrderItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for orderID, items := range f.items {
		for _, item := range items {
			if item.ID == itemID && f.orders[orderID].TenantID == tenantID {
				it := item
				return &it, nil
			}
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeOrderRepo) GetOrderItemsByOrderID(orderID int64) ([]models.OrderItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.OrderItem(nil), f.items[orderID]...), nil
}

type fakeMappingRepo struct {
	mu      sync.Mutex
	byOrder map[int64][]models.OrderItemMapping
	byItem  map[int64][]models.OrderItemMapping
	updated map[int64]models.OrderItemMapping
}

func newFakeMappingRepo() *fakeMappingRepo {
	return &fakeMappingRepo{
		byOrder: map[int64][]models.OrderItemMapping{},
		byItem:  map[int64][]models.OrderItemMapping{},
		updated: map[int64]models.OrderItemMapping{},
	}
}

func (f *fakeMappingRepo) add(orderID int64, m models.OrderItemMapping) {
	f.byOrder[orderID] = append(f.byOrder[orderID], m)
	f.byItem[m.OrderItemID] = append(f.byItem[m.OrderItemID], m)
}

func (f *fakeMappingRepo) GetMappingsByOrderID(orderID int64) ([]models.OrderItemMapping, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.OrderItemMapping(nil), f.byOrder[orderID]...), nil
}

func (f *fakeMappingRepo) GetMappingsByItemID(itemID int64) ([]models.OrderItemMapping, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.OrderItemMapping(nil), f.byItem[itemID]...), nil
}

func (f *fakeMappingRepo) UpdateMappingAllocation(_ repositories.SQLExecutor, m models.OrderItemMapping) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated[m.ID] = m
	return nil
}

type fakeRuleRepo struct {
	mu     sync.Mutex
	rules  map[int64]models.CostCommissionRule
	nextID int64
}

func newFakeRuleRepo(rules ...models.CostCommissionRule) *fakeRuleRepo {
	f := &fakeRuleRepo{rules: map[int64]models.CostCommissionRule{}}
	for _, r := range rules {
		f.rules[r.ID] = r
		if r.ID > f.nextID {
			f.nextID = r.ID
		}
	}
	return f
}

func (f *fakeRuleRepo) CreateRule(_ repositories.SQLExecutor, rule *models.CostCommissionRule) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rules {
		if r.TenantID == rule.TenantID && r.Name == rule.Name {
			return 0, repositories.ErrDuplicateKey
		}
	}
	f.nextID++
	rule.ID = f.nextID
	f.rules[rule.ID] = *rule
	return rule.ID, nil
}

func (f *fakeRuleRepo) GetRuleByID(tenantID, ruleID int64) (*models.CostCommissionRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rules[ruleID]
	if !ok || r.TenantID != tenantID {
		return nil, repositories.ErrNotFound
	}
	return &r, nil
}

func (f *fakeRuleRepo) GetRules(tenantID int64, _ models.CostRuleFilters) ([]models.CostCommissionRule, int, error) {
	rules, _ := f.list(tenantID, false)
	return rules, len(rules), nil
}

func (f *fakeRuleRepo) GetActiveRules(tenantID int64) ([]models.CostCommissionRule, error) {
	return f.list(tenantID, true)
}

func (f *fakeRuleRepo) list(tenantID int64, activeOnly bool) ([]models.CostCommissionRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.CostCommissionRule
	for _, r := range f.rules {
		if r.TenantID == tenantID && (!activeOnly || r.Active) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRuleRepo) UpdateRule(_ repositories.SQLExecutor, rule *models.CostCommissionRule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.rules[rule.ID]; !ok || existing.TenantID != rule.TenantID {
		return repositories.ErrNotFound
	}
	f.rules[rule.ID] = *rule
	return nil
}

func (f *fakeRuleRepo) DeleteRule(_ repositories.SQLExecutor, tenantID, ruleID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.rules[ruleID]; !ok || r.TenantID != tenantID {
		return repositories.ErrNotFound
	}
	delete(f.rules, ruleID)
	return nil
}

type fakeCatalogRepo struct {
	mu          sync.Mutex
	products    []models.InternalProduct
	ingredients []models.Ingredient
	recipes     []models.ProductCost
	costs       map[int64]decimal.Decimal
}

func (f *fakeCatalogRepo) GetProductByID(tenantID, productID int64) (*models.InternalProduct, error) {
	for _, p := range f.products {
		if p.ID == productID && p.TenantID == tenantID {
			product := p
			return &product, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeCatalogRepo) ListProducts(tenantID int64) ([]models.InternalProduct, error) {
	return f.products, nil
}

func (f *fakeCatalogRepo) ListIngredients(tenantID int64) ([]models.Ingredient, error) {
	return f.ingredients, nil
}

func (f *fakeCatalogRepo) ListRecipeRows(tenantID int64) ([]models.ProductCost, error) {
	return f.recipes, nil
}

func (f *fakeCatalogRepo) UpdateProductUnitCost(_ repositories.SQLExecutor, productID int64, unitCost decimal.Decimal, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.costs == nil {
		f.costs = map[int64]decimal.Decimal{}
	}
	f.costs[productID] = unitCost
	return nil
}

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
