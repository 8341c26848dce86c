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

// CostRuleRepository defines the interface for cost/commission rule database operations.
type CostRuleRepository interface {
	CreateRule(executor SQLExecutor, rule *models.CostCommissionRule) (int64, error)
	GetRuleByID(tenantID, ruleID int64) (*models.CostCommissionRule, error)
	GetRules(tenantID int64, filters models.CostRuleFilters) ([]models.CostCommissionRule, int, error) // rules, total count, error
	GetActiveRules(tenantID int64) ([]models.CostCommissionRule, error)
	UpdateRule(executor SQLExecutor, rule *models.CostCommissionRule) error
	DeleteRule(executor SQLExecutor, tenantID, ruleID int64) error
}

type costRuleRepository struct {
	db *sql.DB
}

// NewCostRuleRepository creates a new instance of CostRuleRepository.
func NewCostRuleRepository(db *sql.DB) CostRuleRepository {
	return &costRuleRepository{db: db}
}

const ruleColumns = `id, tenant_id, name, category, provider, type, value, applies_to, payment_type,
	delivery_by, condition_values, custom_condition, affects_revenue_base, enters_tax_base,
	reduces_revenue_base, active, created_at, updated_at`

func scanRule(s scanner, rule *models.CostCommissionRule) error {
	var values pq.StringArray
	err := s.Scan(
		&rule.ID, &rule.TenantID, &rule.Name, &rule.Category, &rule.Provider, &rule.Type, &rule.Value,
		&rule.AppliesTo, &rule.PaymentType, &rule.DeliveryBy, &values, &rule.CustomCondition,
		&rule.AffectsRevenueBase, &rule.EntersTaxBase, &rule.ReducesRevenueBase, &rule.Active,
		&rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return err
	}
	rule.ConditionValues = []string(values)
	return nil
}

func (r *costRuleRepository) CreateRule(executor SQLExecutor, rule *models.CostCommissionRule) (int64, error) {
	query := `INSERT INTO cost_commission_rules
	            (tenant_id, name, category, provider, type, value, applies_to, payment_type, delivery_by,
	             condition_values, custom_condition, affects_revenue_base, enters_tax_base,
	             reduces_revenue_base, active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	          RETURNING id`

	now := time.Now()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now

	err := executor.QueryRow(query,
		rule.TenantID, rule.Name, rule.Category, rule.Provider, rule.Type, rule.Value, rule.AppliesTo,
		rule.PaymentType, rule.DeliveryBy, pq.Array(rule.ConditionValues), rule.CustomCondition,
		rule.AffectsRevenueBase, rule.EntersTaxBase, rule.ReducesRevenueBase, rule.Active,
		rule.CreatedAt, rule.UpdatedAt,
	).Scan(&rule.ID)
	if err != nil {
		if constraint, ok := isUniqueViolation(err); ok {
			return 0, fmt.Errorf("%w: rule name '%s' already exists (constraint: %s)", ErrDuplicateKey, rule.Name, constraint)
		}
		return 0, fmt.Errorf("%w: creating cost rule: %v", ErrDatabaseError, err)
	}
	return rule.ID, nil
}

func (r *costRuleRepository) GetRuleByID(tenantID, ruleID int64) (*models.CostCommissionRule, error) {
	rule := &models.CostCommissionRule{}
	query := `SELECT ` + ruleColumns + ` FROM cost_commission_rules WHERE id = $1 AND tenant_id = $2`
	if err := scanRule(r.db.QueryRow(query, ruleID, tenantID), rule); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting cost rule by ID %d: %v", ErrDatabaseError, ruleID, err)
	}
	return rule, nil
}

func (r *costRuleRepository) GetRules(tenantID int64, filters models.CostRuleFilters) ([]models.CostCommissionRule, int, error) {
	rules := []models.CostCommissionRule{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + ruleColumns + `, COUNT(*) OVER() AS total_count FROM cost_commission_rules`)

	conditions := []string{"tenant_id = $1"}
	args := []interface{}{tenantID}
	argCounter := 2

	if filters.Category != nil && *filters.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argCounter))
		args = append(args, *filters.Category)
		argCounter++
	}
	if filters.Provider != nil && *filters.Provider != "" {
		conditions = append(conditions, fmt.Sprintf("provider = $%d", argCounter))
		args = append(args, *filters.Provider)
		argCounter++
	}
	if filters.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", argCounter))
		args = append(args, *filters.Active)
		argCounter++
	}

	queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	queryBuilder.WriteString(" ORDER BY id")

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCounter))
		args = append(args, filters.PageSize)
		argCounter++
		if filters.Page > 0 {
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCounter))
			args = append(args, (filters.Page-1)*filters.PageSize)
		}
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying cost rules: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var rule models.CostCommissionRule
		var values pq.StringArray
		err := rows.Scan(
			&rule.ID, &rule.TenantID, &rule.Name, &rule.Category, &rule.Provider, &rule.Type, &rule.Value,
			&rule.AppliesTo, &rule.PaymentType, &rule.DeliveryBy, &values, &rule.CustomCondition,
			&rule.AffectsRevenueBase, &rule.EntersTaxBase, &rule.ReducesRevenueBase, &rule.Active,
			&rule.CreatedAt, &rule.UpdatedAt, &totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning cost rule: %v", ErrDatabaseError, err)
		}
		rule.ConditionValues = []string(values)
		rules = append(rules, rule)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating cost rule rows: %v", ErrDatabaseError, err)
	}
	return rules, totalCount, nil
}

func (r *costRuleRepository) GetActiveRules(tenantID int64) ([]models.CostCommissionRule, error) {
	rules := []models.CostCommissionRule{}
	query := `SELECT ` + ruleColumns + ` FROM cost_commission_rules WHERE tenant_id = $1 AND active ORDER BY id`
	rows, err := r.db.Query(query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying active cost rules for tenant %d: %v", ErrDatabaseError, tenantID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var rule models.CostCommissionRule
		if err := scanRule(rows, &rule); err != nil {
			return nil, fmt.Errorf("%w: scanning active cost rule: %v", ErrDatabaseError, err)
		}
		rules = append(rules, rule)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating active cost rule rows: %v", ErrDatabaseError, err)
	}
	return rules, nil
}

func (r *costRuleRepository) UpdateRule(executor SQLExecutor, rule *models.CostCommissionRule) error {
	query := `UPDATE cost_commission_rules SET
	            name = $1, category = $2, provider = $3, type = $4, value = $5, applies_to = $6,
	            payment_type = $7, delivery_by = $8, condition_values = $9, custom_condition = $10,
	            affects_revenue_base = $11, enters_tax_base = $12, reduces_revenue_base = $13,
	            active = $14, updated_at = $15
	          WHERE id = $16 AND tenant_id = $17`
	rule.UpdatedAt = time.Now()

	result, err := executor.Exec(query,
		rule.Name, rule.Category, rule.Provider, rule.Type, rule.Value, rule.AppliesTo,
		rule.PaymentType, rule.DeliveryBy, pq.Array(rule.ConditionValues), rule.CustomCondition,
		rule.AffectsRevenueBase, rule.EntersTaxBase, rule.ReducesRevenueBase,
		rule.Active, rule.UpdatedAt, rule.ID, rule.TenantID,
	)
	if err != nil {
		if constraint, ok := isUniqueViolation(err); ok {
			return fmt.Errorf("%w: rule name '%s' already exists (constraint: %s)", ErrDuplicateKey, rule.Name, constraint)
		}
		return fmt.Errorf("%w: updating cost rule ID %d: %v", ErrDatabaseError, rule.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for cost rule update ID %d: %v", ErrDatabaseError, rule.ID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *costRuleRepository) DeleteRule(executor SQLExecutor, tenantID, ruleID int64) error {
	query := `DELETE FROM cost_commission_rules WHERE id = $1 AND tenant_id = $2`
	result, err := executor.Exec(query, ruleID, tenantID)
	if err != nil {
		if constraint, ok := isForeignKeyViolation(err); ok {
			return fmt.Errorf("%w: cost rule ID %d is still referenced (constraint: %s)", ErrForeignKey, ruleID, constraint)
		}
		return fmt.Errorf("%w: deleting cost rule ID %d: %v", ErrDatabaseError, ruleID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for deleting cost rule ID %d: %v", ErrDatabaseError, ruleID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
