package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"delivery_costs_backend/internal/models"

	"github.com/shopspring/decimal"
)

// CatalogRepository reads the tenant's products, ingredients and recipes, and stores
// refreshed product costs.
type CatalogRepository interface {
	GetProductByID(tenantID, productID int64) (*models.InternalProduct, error)
	ListProducts(tenantID int64) ([]models.InternalProduct, error)
	ListIngredients(tenantID int64) ([]models.Ingredient, error)
	ListRecipeRows(tenantID int64) ([]models.ProductCost, error)
	UpdateProductUnitCost(executor SQLExecutor, productID int64, unitCost decimal.Decimal, refreshedAt time.Time) error
}

type catalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates a new instance of CatalogRepository.
func NewCatalogRepository(db *sql.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

// --- InternalProduct Methods ---

const productColumns = `id, tenant_id, name, unit_cost, sale_price, max_flavors, size, cost_refreshed_at, created_at, updated_at`

func scanProduct(s scanner, p *models.InternalProduct) error {
	return s.Scan(&p.ID, &p.TenantID, &p.Name, &p.UnitCost, &p.SalePrice, &p.MaxFlavors, &p.Size,
		&p.CostRefreshedAt, &p.CreatedAt, &p.UpdatedAt)
}

func (r *catalogRepository) GetProductByID(tenantID, productID int64) (*models.InternalProduct, error) {
	product := &models.InternalProduct{}
	query := `SELECT ` + productColumns + ` FROM internal_products WHERE id = $1 AND tenant_id = $2`
	if err := scanProduct(r.db.QueryRow(query, productID, tenantID), product); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting internal product by ID %d: %v", ErrDatabaseError, productID, err)
	}
	return product, nil
}

func (r *catalogRepository) ListProducts(tenantID int64) ([]models.InternalProduct, error) {
	rows, err := r.db.Query(`SELECT `+productColumns+` FROM internal_products WHERE tenant_id = $1 ORDER BY id`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying internal products for tenant %d: %v", ErrDatabaseError, tenantID, err)
	}
	defer rows.Close()

	products := []models.InternalProduct{}
	for rows.Next() {
		var p models.InternalProduct
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("%w: scanning internal product: %v", ErrDatabaseError, err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating internal product rows: %v", ErrDatabaseError, err)
	}
	return products, nil
}

func (r *catalogRepository) UpdateProductUnitCost(executor SQLExecutor, productID int64, unitCost decimal.Decimal, refreshedAt time.Time) error {
	query := `UPDATE internal_products SET unit_cost = $1, cost_refreshed_at = $2, updated_at = $2 WHERE id = $3`
	result, err := executor.Exec(query, unitCost, refreshedAt, productID)
	if err != nil {
		return fmt.Errorf("%w: updating unit cost of product ID %d: %v", ErrDatabaseError, productID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for product ID %d: %v", ErrDatabaseError, productID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Ingredient Methods ---

func (r *catalogRepository) ListIngredients(tenantID int64) ([]models.Ingredient, error) {
	query := `SELECT id, tenant_id, name, unit, unit_price, created_at, updated_at
	          FROM ingredients WHERE tenant_id = $1 ORDER BY id`
	rows, err := r.db.Query(query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying ingredients for tenant %d: %v", ErrDatabaseError, tenantID, err)
	}
	defer rows.Close()

	ingredients := []models.Ingredient{}
	for rows.Next() {
		var i models.Ingredient
		if err := rows.Scan(&i.ID, &i.TenantID, &i.Name, &i.Unit, &i.UnitPrice, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning ingredient: %v", ErrDatabaseError, err)
		}
		ingredients = append(ingredients, i)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating ingredient rows: %v", ErrDatabaseError, err)
	}
	return ingredients, nil
}

// --- ProductCost Methods ---

func (r *catalogRepository) ListRecipeRows(tenantID int64) ([]models.ProductCost, error) {
	query := `
		SELECT pc.id, pc.internal_product_id, pc.component_kind, pc.component_id, pc.size, pc.quantity, pc.unit
		FROM product_costs pc
		JOIN internal_products p ON p.id = pc.internal_product_id
		WHERE p.tenant_id = $1
		ORDER BY pc.internal_product_id, pc.id`
	rows, err := r.db.Query(query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying recipe rows for tenant %d: %v", ErrDatabaseError, tenantID, err)
	}
	defer rows.Close()

	recipe := []models.ProductCost{}
	for rows.Next() {
		var pc models.ProductCost
		err := rows.Scan(&pc.ID, &pc.InternalProductID, &pc.Component.Kind, &pc.Component.ID, &pc.Size, &pc.Quantity, &pc.Unit)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning recipe row: %v", ErrDatabaseError, err)
		}
		recipe = append(recipe, pc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating recipe rows: %v", ErrDatabaseError, err)
	}
	return recipe, nil
}
