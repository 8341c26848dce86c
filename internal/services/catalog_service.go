package services

import (
	"errors"
	"fmt"
	"time"

	"delivery_costs_backend/internal/costing"
	"delivery_costs_backend/internal/repositories"
	"delivery_costs_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound = errors.New("internal product not found")
)

// ProductCostRefresh reports the outcome of refreshing one product's recipe cost.
type ProductCostRefresh struct {
	ProductID    int64           `json:"product_id"`
	Name         string          `json:"name"`
	PreviousCost decimal.Decimal `json:"previous_cost"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	Changed      bool            `json:"changed"`
	Warnings     []string        `json:"warnings,omitempty"`
	RefreshedAt  time.Time       `json:"refreshed_at"`
}

// CatalogService exposes the explicit recipe cost refresh. Calculation never refreshes
// costs on its own.
type CatalogService interface {
	RefreshProductCost(tenantID, productID int64) (*ProductCostRefresh, error)
	RefreshAllProductCosts(tenantID int64) ([]ProductCostRefresh, error)
	LoadCatalog(tenantID int64) (*costing.Catalog, error)
}

type catalogService struct {
	catalogRepo repositories.CatalogRepository
	tx          repositories.Transactor
	now         func() time.Time
}

// NewCatalogService creates a new instance of CatalogService.
func NewCatalogService(cr repositories.CatalogRepository, tx repositories.Transactor) CatalogService {
	return &catalogService{catalogRepo: cr, tx: tx, now: time.Now}
}

// LoadCatalog reads an immutable snapshot of the tenant's products, ingredients and recipes.
func (s *catalogService) LoadCatalog(tenantID int64) (*costing.Catalog, error) {
	products, err := s.catalogRepo.ListProducts(tenantID)
	if err != nil {
		return nil, fmt.Errorf("loading products: %w", err)
	}
	ingredients, err := s.catalogRepo.ListIngredients(tenantID)
	if err != nil {
		return nil, fmt.Errorf("loading ingredients: %w", err)
	}
	rows, err := s.catalogRepo.ListRecipeRows(tenantID)
	if err != nil {
		return nil, fmt.Errorf("loading recipes: %w", err)
	}
	return costing.NewCatalog(products, ingredients, rows), nil
}

func (s *catalogService) RefreshProductCost(tenantID, productID int64) (*ProductCostRefresh, error) {
	if _, err := s.catalogRepo.GetProductByID(tenantID, productID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	catalog, err := s.LoadCatalog(tenantID)
	if err != nil {
		return nil, err
	}
	results, err := s.refresh(catalog, []int64{productID})
	if err != nil {
		return nil, err
	}
	return &results[0], nil
}

func (s *catalogService) RefreshAllProductCosts(tenantID int64) ([]ProductCostRefresh, error) {
	catalog, err := s.LoadCatalog(tenantID)
	if err != nil {
		return nil, err
	}
	results, err := s.refresh(catalog, catalog.ProductIDs())
	if err != nil {
		return nil, err
	}
	changed := 0
	for _, r := range results {
		if r.Changed {
			changed++
		}
	}
	utils.LogInfo("Product costs refreshed", map[string]interface{}{"tenant_id": tenantID, "products": len(results), "changed": changed})
	return results, nil
}

// refresh resolves every product against the same snapshot and stores the costs in one transaction.
func (s *catalogService) refresh(catalog *costing.Catalog, productIDs []int64) ([]ProductCostRefresh, error) {
	resolver := costing.NewRecipeResolver(catalog)
	now := s.now()

	results := make([]ProductCostRefresh, 0, len(productIDs))
	for _, id := range productIDs {
		product, ok := catalog.Product(id)
		if !ok {
			return nil, ErrProductNotFound
		}
		cost, warnings := resolver.Cost(id, "")
		cost = cost.Round(costing.FractionPlaces)

		result := ProductCostRefresh{
			ProductID:    id,
			Name:         product.Name,
			PreviousCost: product.UnitCost,
			UnitCost:     cost,
			Changed:      !cost.Equal(product.UnitCost),
			RefreshedAt:  now,
		}
		for _, w := range warnings {
			result.Warnings = append(result.Warnings, w.String())
		}
		results = append(results, result)
	}

	err := s.tx.WithinTransaction(func(executor repositories.SQLExecutor) error {
		for _, r := range results {
			if err := s.catalogRepo.UpdateProductUnitCost(executor, r.ProductID, r.UnitCost, now); err != nil {
				return fmt.Errorf("storing cost of product %d: %w", r.ProductID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
