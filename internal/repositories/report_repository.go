package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"delivery_costs_backend/internal/models"
)

// ReportRepository aggregates calculated order figures.
type ReportRepository interface {
	GetCostReportByProvider(tenantID int64, from, to time.Time, storeID *int64, provider *string) ([]models.CostReportItem, int, error) // items, orders pending calculation, error
}

type reportRepository struct {
	db *sql.DB
}

// NewReportRepository creates a new instance of ReportRepository.
func NewReportRepository(db *sql.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) GetCostReportByProvider(tenantID int64, from, to time.Time, storeID *int64, provider *string) ([]models.CostReportItem, int, error) {
	conditions := []string{"tenant_id = $1", "placed_at >= $2", "placed_at < $3"}
	args := []interface{}{tenantID, from, to}
	argCounter := 4
	if storeID != nil {
		conditions = append(conditions, fmt.Sprintf("store_id = $%d", argCounter))
		args = append(args, *storeID)
		argCounter++
	}
	if provider != nil && *provider != "" {
		conditions = append(conditions, fmt.Sprintf("provider = $%d", argCounter))
		args = append(args, *provider)
	}
	where := strings.Join(conditions, " AND ")

	query := `
		SELECT provider,
		       COUNT(*),
		       COALESCE(SUM(gross_total), 0),
		       COALESCE(SUM(discount_total), 0),
		       COALESCE(SUM(total_costs), 0),
		       COALESCE(SUM(total_commissions), 0),
		       COALESCE(SUM(total_taxes), 0),
		       COALESCE(SUM(net_revenue), 0)
		FROM orders
		WHERE ` + where + ` AND costs_calculated_at IS NOT NULL
		GROUP BY provider
		ORDER BY provider`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying cost report: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	items := []models.CostReportItem{}
	for rows.Next() {
		var item models.CostReportItem
		err := rows.Scan(&item.Provider, &item.OrdersCount, &item.GrossTotal, &item.DiscountTotal,
			&item.TotalCosts, &item.TotalCommissions, &item.TotalTaxes, &item.NetRevenue)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning cost report row: %v", ErrDatabaseError, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating cost report rows: %v", ErrDatabaseError, err)
	}

	var pending int
	pendingQuery := `SELECT COUNT(*) FROM orders WHERE ` + where + ` AND costs_calculated_at IS NULL`
	if err := r.db.QueryRow(pendingQuery, args...).Scan(&pending); err != nil {
		return nil, 0, fmt.Errorf("%w: counting orders pending calculation: %v", ErrDatabaseError, err)
	}
	return items, pending, nil
}
