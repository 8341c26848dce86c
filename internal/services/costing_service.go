package services

import (
	"errors"
	"fmt"
	"time"

	"delivery_costs_backend/internal/costing"
	"delivery_costs_backend/internal/models"
	"delivery_costs_backend/internal/repositories"
	"delivery_costs_backend/pkg/utils"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrCostsNotCalculated = errors.New("order costs have not been calculated yet")
	ErrInvalidTenant      = errors.New("invalid tenant")
)

// CostingSnapshot is the rule set and catalog a calculation reads. A batch loads it once
// and shares it read-only between workers.
type CostingSnapshot struct {
	TenantID int64
	Rules    []models.CostCommissionRule
	Resolver *costing.RecipeResolver
	LoadedAt time.Time
}

// CostingService calculates and persists order cost breakdowns.
type CostingService interface {
	CalculateOrder(tenantID, orderID int64) (*models.Order, error)
	GetOrderCosts(tenantID, orderID int64) (*models.Order, error)
	GetOrders(tenantID int64, filters models.OrderFilters) ([]models.Order, int, error)
	LoadSnapshot(tenantID int64) (*CostingSnapshot, error)
	CalculateWithSnapshot(snapshot *CostingSnapshot, orderID int64) (*models.CostBreakdown, error)
}

type costingService struct {
	orderRepo   repositories.OrderRepository
	mappingRepo repositories.MappingRepository
	ruleRepo    repositories.CostRuleRepository
	catalog     CatalogService
	tx          repositories.Transactor
	now         func() time.Time
}

// NewCostingService creates a new instance of CostingService.
func NewCostingService(
	or repositories.OrderRepository,
	mr repositories.MappingRepository,
	rr repositories.CostRuleRepository,
	cs CatalogService,
	tx repositories.Transactor,
) CostingService {
	return &costingService{
		orderRepo:   or,
		mappingRepo: mr,
		ruleRepo:    rr,
		catalog:     cs,
		tx:          tx,
		now:         time.Now,
	}
}

func (s *costingService) LoadSnapshot(tenantID int64) (*CostingSnapshot, error) {
	if tenantID <= 0 {
		return nil, ErrInvalidTenant
	}
	rules, err := s.ruleRepo.GetActiveRules(tenantID)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}
	catalog, err := s.catalog.LoadCatalog(tenantID)
	if err != nil {
		return nil, err
	}
	return &CostingSnapshot{
		TenantID: tenantID,
		Rules:    rules,
		Resolver: costing.NewRecipeResolver(catalog),
		LoadedAt: s.now(),
	}, nil
}

func (s *costingService) CalculateOrder(tenantID, orderID int64) (*models.Order, error) {
	snapshot, err := s.LoadSnapshot(tenantID)
	if err != nil {
		return nil, err
	}
	if _, err := s.CalculateWithSnapshot(snapshot, orderID); err != nil {
		return nil, err
	}
	return s.GetOrderCosts(tenantID, orderID)
}

// CalculateWithSnapshot costs one order and writes the result in a single transaction.
// Recalculating an unchanged order produces the same figures.
func (s *costingService) CalculateWithSnapshot(snapshot *CostingSnapshot, orderID int64) (*models.CostBreakdown, error) {
	order, err := s.orderRepo.GetOrderByID(snapshot.TenantID, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	items, err := s.orderRepo.GetOrderItemsByOrderID(orderID)
	if err != nil {
		return nil, err
	}
	mappings, err := s.mappingRepo.GetMappingsByOrderID(orderID)
	if err != nil {
		return nil, err
	}
	predicates, err := s.orderRepo.GetCustomPredicates(orderID)
	if err != nil {
		return nil, err
	}

	totals, err := costing.OrderItemTotals(items, mappings, snapshot.Resolver)
	if err != nil {
		return nil, fmt.Errorf("order %d: %w", orderID, err)
	}
	matched := costing.MatchRules(costing.MatchContext{Order: *order, CustomMatches: predicates}, snapshot.Rules)
	breakdown := costing.Aggregate(*order, matched, totals)

	calculatedAt := s.now().UTC()

	err = s.tx.WithinTransaction(func(executor repositories.SQLExecutor) error {
		return s.orderRepo.SaveCalculatedCosts(executor, orderID, breakdown, calculatedAt)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if len(breakdown.Warnings) > 0 {
		utils.LogDebug("Order costed with data integrity warnings", map[string]interface{}{
			"tenant_id": snapshot.TenantID,
			"order_id":  orderID,
			"warnings":  len(breakdown.Warnings),
		})
	}
	return &breakdown, nil
}

func (s *costingService) GetOrderCosts(tenantID, orderID int64) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderByID(tenantID, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.CostsCalculatedAt == nil {
		return nil, ErrCostsNotCalculated
	}
	items, err := s.orderRepo.GetOrderItemsByOrderID(orderID)
	if err != nil {
		return nil, err
	}
	order.OrderItems = items
	return order, nil
}

func (s *costingService) GetOrders(tenantID int64, filters models.OrderFilters) ([]models.Order, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 || filters.PageSize > 200 {
		filters.PageSize = 50
	}
	return s.orderRepo.GetOrders(tenantID, filters)
}
