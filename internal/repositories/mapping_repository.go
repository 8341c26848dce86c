package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"delivery_costs_backend/internal/models"
)

// MappingRepository reads order item mappings and writes back allocated fractions.
type MappingRepository interface {
	GetMappingsByOrderID(orderID int64) ([]models.OrderItemMapping, error)
	GetMappingsByItemID(itemID int64) ([]models.OrderItemMapping, error)
	UpdateMappingAllocation(executor SQLExecutor, mapping models.OrderItemMapping) error
}

type mappingRepository struct {
	db *sql.DB
}

// NewMappingRepository creates a new instance of MappingRepository.
func NewMappingRepository(db *sql.DB) MappingRepository {
	return &mappingRepository{db: db}
}

const mappingColumns = `m.id, m.order_item_id, m.internal_product_id, m.quantity, m.mapping_type,
	m.option_type, m.auto_fraction, m.unit_cost_override, m.created_at, m.updated_at`

func (r *mappingRepository) queryMappings(query string, arg int64) ([]models.OrderItemMapping, error) {
	rows, err := r.db.Query(query, arg)
	if err != nil {
		return nil, fmt.Errorf("%w: querying order item mappings: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	mappings := []models.OrderItemMapping{}
	for rows.Next() {
		var m models.OrderItemMapping
		err := rows.Scan(
			&m.ID, &m.OrderItemID, &m.InternalProductID, &m.Quantity, &m.MappingType,
			&m.OptionType, &m.AutoFraction, &m.UnitCostOverride, &m.CreatedAt, &m.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning order item mapping: %v", ErrDatabaseError, err)
		}
		mappings = append(mappings, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order item mapping rows: %v", ErrDatabaseError, err)
	}
	return mappings, nil
}

func (r *mappingRepository) GetMappingsByOrderID(orderID int64) ([]models.OrderItemMapping, error) {
	query := `SELECT ` + mappingColumns + `
		FROM order_item_mappings m
		JOIN order_items oi ON oi.id = m.order_item_id
		WHERE oi.order_id = $1
		ORDER BY m.order_item_id, m.id`
	return r.queryMappings(query, orderID)
}

func (r *mappingRepository) GetMappingsByItemID(itemID int64) ([]models.OrderItemMapping, error) {
	query := `SELECT ` + mappingColumns + ` FROM order_item_mappings m WHERE m.order_item_id = $1 ORDER BY m.id`
	return r.queryMappings(query, itemID)
}

// UpdateMappingAllocation persists the quantity and frozen unit cost chosen by the allocator.
func (r *mappingRepository) UpdateMappingAllocation(executor SQLExecutor, mapping models.OrderItemMapping) error {
	query := `UPDATE order_item_mappings SET quantity = $1, unit_cost_override = $2, updated_at = $3 WHERE id = $4`
	result, err := executor.Exec(query, mapping.Quantity, mapping.UnitCostOverride, time.Now(), mapping.ID)
	if err != nil {
		return fmt.Errorf("%w: updating allocation of mapping ID %d: %v", ErrDatabaseError, mapping.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for mapping ID %d: %v", ErrDatabaseError, mapping.ID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
