package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"delivery_costs_backend/internal/models"

	"github.com/lib/pq"
)

// OrderRepository defines the interface for order-related database operations.
// Orders, items and mappings are written by ingestion; this service only writes
// calculated figures back.
type OrderRepository interface {
	// Order methods
	GetOrderByID(tenantID, orderID int64) (*models.Order, error)
	GetOrders(tenantID int64, filters models.OrderFilters) ([]models.Order, int, error) // orders, total count, error
	ListOrderIDs(tenantID int64, filter models.RecalculationFilter) ([]int64, error)
	SaveCalculatedCosts(executor SQLExecutor, orderID int64, breakdown models.CostBreakdown, calculatedAt time.Time) error
	GetCustomPredicates(orderID int64) (map[int64]bool, error)

	// OrderItem methods
	GetOrderItemByID(tenantID, itemID int64) (*models.OrderItem, error)
	GetOrderItemsByOrderID(orderID int64) ([]models.OrderItem, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository.
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `o.id, o.tenant_id, o.store_id, o.provider, o.external_id, o.status,
	o.gross_total, o.discount_total, o.delivery_fee, o.tip, o.payment_method, o.payment_type,
	o.origin, o.delivered_by, o.calculated_costs, o.total_costs, o.total_commissions,
	o.total_taxes, o.net_revenue, o.costs_calculated_at, o.placed_at, o.created_at, o.updated_at`

func orderScanDest(o *models.Order, costs *[]byte) []interface{} {
	return []interface{}{
		&o.ID, &o.TenantID, &o.StoreID, &o.Provider, &o.ExternalID, &o.Status,
		&o.GrossTotal, &o.DiscountTotal, &o.DeliveryFee, &o.Tip, &o.PaymentMethod, &o.PaymentType,
		&o.Origin, &o.DeliveredBy, costs, &o.TotalCosts, &o.TotalCommissions,
		&o.TotalTaxes, &o.NetRevenue, &o.CostsCalculatedAt, &o.PlacedAt, &o.CreatedAt, &o.UpdatedAt,
	}
}

func decodeBreakdown(o *models.Order, costs []byte) error {
	if len(costs) == 0 {
		return nil
	}
	breakdown := &models.CostBreakdown{}
	if err := breakdown.Scan(costs); err != nil {
		return err
	}
	o.CalculatedCosts = breakdown
	return nil
}

// --- Order Methods ---

func (r *orderRepository) GetOrderByID(tenantID, orderID int64) (*models.Order, error) {
	order := &models.Order{}
	var costs []byte
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.id = $1 AND o.tenant_id = $2`
	err := r.db.QueryRow(query, orderID, tenantID).Scan(orderScanDest(order, &costs)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order by ID %d: %v", ErrDatabaseError, orderID, err)
	}
	if err := decodeBreakdown(order, costs); err != nil {
		return nil, fmt.Errorf("%w: decoding calculated costs of order %d: %v", ErrDatabaseError, orderID, err)
	}
	return order, nil
}

func (r *orderRepository) GetOrders(tenantID int64, filters models.OrderFilters) ([]models.Order, int, error) {
	orders := []models.Order{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + orderColumns + `, COUNT(*) OVER() AS total_count FROM orders o`)

	conditions := []string{"o.tenant_id = $1"}
	args := []interface{}{tenantID}
	argCounter := 2

	if filters.StoreID != nil {
		conditions = append(conditions, fmt.Sprintf("o.store_id = $%d", argCounter))
		args = append(args, *filters.StoreID)
		argCounter++
	}
	if filters.Provider != nil && *filters.Provider != "" {
		conditions = append(conditions, fmt.Sprintf("o.provider = $%d", argCounter))
		args = append(args, *filters.Provider)
		argCounter++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", argCounter))
		args = append(args, *filters.Status)
		argCounter++
	}
	if filters.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("o.placed_at >= $%d", argCounter))
		args = append(args, *filters.DateFrom)
		argCounter++
	}
	if filters.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("o.placed_at < $%d", argCounter))
		args = append(args, *filters.DateTo)
		argCounter++
	}
	if filters.Calculated != nil {
		if *filters.Calculated {
			conditions = append(conditions, "o.costs_calculated_at IS NOT NULL")
		} else {
			conditions = append(conditions, "o.costs_calculated_at IS NULL")
		}
	}

	queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	queryBuilder.WriteString(" ORDER BY o.placed_at DESC, o.id DESC")

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCounter))
		args = append(args, filters.PageSize)
		argCounter++
		if filters.Page > 0 {
			offset := (filters.Page - 1) * filters.PageSize
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCounter))
			args = append(args, offset)
		}
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var o models.Order
		var costs []byte
		dest := append(orderScanDest(&o, &costs), &totalCount)
		if err := rows.Scan(dest...); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning order: %v", ErrDatabaseError, err)
		}
		if err := decodeBreakdown(&o, costs); err != nil {
			return nil, 0, fmt.Errorf("%w: decoding calculated costs of order %d: %v", ErrDatabaseError, o.ID, err)
		}
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating order rows: %v", ErrDatabaseError, err)
	}
	return orders, totalCount, nil
}

// ListOrderIDs returns the ids of the tenant's orders selected by a recalculation filter, ascending.
func (r *orderRepository) ListOrderIDs(tenantID int64, filter models.RecalculationFilter) ([]int64, error) {
	conditions := []string{"tenant_id = $1"}
	args := []interface{}{tenantID}
	argCounter := 2

	if filter.StoreID != nil {
		conditions = append(conditions, fmt.Sprintf("store_id = $%d", argCounter))
		args = append(args, *filter.StoreID)
		argCounter++
	}
	if filter.Provider != nil && *filter.Provider != "" {
		// a rule scoped to an outer platform also concerns its composite providers
		conditions = append(conditions, fmt.Sprintf("(provider = $%d OR provider LIKE '%%-via-' || $%d OR provider LIKE '%%\\_via\\_' || $%d)", argCounter, argCounter, argCounter))
		args = append(args, *filter.Provider)
		argCounter++
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("placed_at >= $%d", argCounter))
		args = append(args, *filter.DateFrom)
		argCounter++
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("placed_at < $%d", argCounter))
		args = append(args, *filter.DateTo)
		argCounter++
	}
	if len(filter.OrderIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("id = ANY($%d)", argCounter))
		args = append(args, pq.Array(filter.OrderIDs))
	}

	query := `SELECT id FROM orders WHERE ` + strings.Join(conditions, " AND ") + ` ORDER BY id`
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: listing order ids for tenant %d: %v", ErrDatabaseError, tenantID, err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scanning order id: %v", ErrDatabaseError, err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order id rows: %v", ErrDatabaseError, err)
	}
	return ids, nil
}

// SaveCalculatedCosts writes the breakdown and every derived column in one statement so
// net_revenue and costs_calculated_at are always set together.
func (r *orderRepository) SaveCalculatedCosts(executor SQLExecutor, orderID int64, breakdown models.CostBreakdown, calculatedAt time.Time) error {
	query := `UPDATE orders SET
	            calculated_costs = $1, total_costs = $2, total_commissions = $3, total_taxes = $4,
	            net_revenue = $5, costs_calculated_at = $6, updated_at = $6
	          WHERE id = $7`
	result, err := executor.Exec(query,
		breakdown, breakdown.TotalCosts, breakdown.TotalCommissions, breakdown.TotalTaxes,
		breakdown.NetRevenue, calculatedAt, orderID,
	)
	if err != nil {
		return fmt.Errorf("%w: saving calculated costs for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for calculated costs of order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetCustomPredicates returns the external evaluator's verdict per rule id for an order.
func (r *orderRepository) GetCustomPredicates(orderID int64) (map[int64]bool, error) {
	rows, err := r.db.Query(`SELECT rule_id, matched FROM order_rule_predicates WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying rule predicates for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	defer rows.Close()

	predicates := map[int64]bool{}
	for rows.Next() {
		var ruleID int64
		var matched bool
		if err := rows.Scan(&ruleID, &matched); err != nil {
			return nil, fmt.Errorf("%w: scanning rule predicate: %v", ErrDatabaseError, err)
		}
		predicates[ruleID] = matched
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating rule predicate rows: %v", ErrDatabaseError, err)
	}
	return predicates, nil
}

// --- OrderItem Methods ---

func (r *orderRepository) GetOrderItemByID(tenantID, itemID int64) (*models.OrderItem, error) {
	item := &models.OrderItem{}
	query := `
		SELECT oi.id, oi.order_id, oi.name, oi.quantity, oi.unit_price, oi.total, oi.size,
		       oi.created_at, oi.updated_at
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE oi.id = $1 AND o.tenant_id = $2`
	err := r.db.QueryRow(query, itemID, tenantID).Scan(
		&item.ID, &item.OrderID, &item.Name, &item.Quantity, &item.UnitPrice, &item.Total, &item.Size,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order item by ID %d: %v", ErrDatabaseError, itemID, err)
	}
	return item, nil
}

func (r *orderRepository) GetOrderItemsByOrderID(orderID int64) ([]models.OrderItem, error) {
	items := []models.OrderItem{}
	query := `
		SELECT id, order_id, name, quantity, unit_price, total, size, created_at, updated_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`

	rows, err := r.db.Query(query, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying order items for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.Name, &item.Quantity, &item.UnitPrice, &item.Total, &item.Size,
			&item.CreatedAt, &item.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning order item for order ID %d: %v", ErrDatabaseError, orderID, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order item rows for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return items, nil
}
