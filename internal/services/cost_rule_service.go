package services

import (
	"errors"
	"fmt"
	"net/http"

	"delivery_costs_backend/internal/costing"
	"delivery_costs_backend/internal/models"
	"delivery_costs_backend/internal/repositories"
	"delivery_costs_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

var (
	ErrRuleNotFound  = errors.New("cost rule not found")
	ErrRuleNameTaken = errors.New("a cost rule with this name already exists")
)

// --- Data Transfer Objects (DTOs) ---

// CostRuleRequest carries the editable fields of a rule.
type CostRuleRequest struct {
	Name               string          `json:"name" binding:"required"`
	Category           string          `json:"category" binding:"required"`
	Provider           *string         `json:"provider"`
	Type               string          `json:"type" binding:"required"`
	Value              decimal.Decimal `json:"value"`
	AppliesTo          string          `json:"applies_to"`
	PaymentType        string          `json:"payment_type"`
	DeliveryBy         string          `json:"delivery_by"`
	ConditionValues    []string        `json:"condition_values"`
	CustomCondition    *string         `json:"custom_condition"`
	AffectsRevenueBase bool            `json:"affects_revenue_base"`
	EntersTaxBase      bool            `json:"enters_tax_base"`
	ReducesRevenueBase bool            `json:"reduces_revenue_base"`
	Active             *bool           `json:"active"` // defaults to true
}

// CreateCostRuleRequest is used for creating a rule.
type CreateCostRuleRequest struct {
	CostRuleRequest
	ApplyToExistingOrders bool `json:"apply_to_existing_orders"`
}

// UpdateCostRuleRequest replaces a rule's fields.
type UpdateCostRuleRequest struct {
	CostRuleRequest
	ApplyRetroactively bool `json:"apply_retroactively"`
}

// CostRuleResult is returned by writes. Recalculation is set when a run was started or
// queued; RecalculationError when the tenant could not take one.
type CostRuleResult struct {
	Rule               *models.CostCommissionRule    `json:"rule"`
	Recalculation      *models.RecalculationProgress `json:"recalculation,omitempty"`
	RecalculationError *utils.APIError               `json:"recalculation_error,omitempty"`
}

// --- End of DTOs ---

// CostRuleService manages tenant rules and triggers recalculation when asked to.
type CostRuleService interface {
	CreateRule(tenantID int64, req CreateCostRuleRequest) (*CostRuleResult, error)
	GetRule(tenantID, ruleID int64) (*models.CostCommissionRule, error)
	ListRules(tenantID int64, filters models.CostRuleFilters) ([]models.CostCommissionRule, int, error)
	UpdateRule(tenantID, ruleID int64, req UpdateCostRuleRequest) (*CostRuleResult, error)
	DeleteRule(tenantID, ruleID int64) error
}

type costRuleService struct {
	ruleRepo      repositories.CostRuleRepository
	tx            repositories.Transactor
	recalculation RecalculationStarter
}

// NewCostRuleService creates a new instance of CostRuleService.
func NewCostRuleService(rr repositories.CostRuleRepository, tx repositories.Transactor, recalculation RecalculationStarter) CostRuleService {
	return &costRuleService{ruleRepo: rr, tx: tx, recalculation: recalculation}
}

func (req CostRuleRequest) toRule(tenantID int64) models.CostCommissionRule {
	rule := models.CostCommissionRule{
		TenantID:           tenantID,
		Name:               req.Name,
		Category:           models.RuleCategory(req.Category),
		Provider:           req.Provider,
		Type:               models.RuleValueType(req.Type),
		Value:              req.Value,
		AppliesTo:          models.RuleAppliesTo(req.AppliesTo),
		PaymentType:        models.PaymentType(req.PaymentType),
		DeliveryBy:         models.DeliveryParty(req.DeliveryBy),
		ConditionValues:    req.ConditionValues,
		CustomCondition:    req.CustomCondition,
		AffectsRevenueBase: req.AffectsRevenueBase,
		EntersTaxBase:      req.EntersTaxBase,
		ReducesRevenueBase: req.ReducesRevenueBase,
		Active:             true,
	}
	if req.Active != nil {
		rule.Active = *req.Active
	}
	costing.NormalizeRule(&rule)
	return rule
}

func (s *costRuleService) CreateRule(tenantID int64, req CreateCostRuleRequest) (*CostRuleResult, error) {
	if tenantID <= 0 {
		return nil, ErrInvalidTenant
	}
	rule := req.toRule(tenantID)
	if err := costing.ValidateRule(rule); err != nil {
		return nil, err
	}

	err := s.tx.WithinTransaction(func(executor repositories.SQLExecutor) error {
		_, err := s.ruleRepo.CreateRule(executor, &rule)
		return err
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrRuleNameTaken
		}
		return nil, fmt.Errorf("creating cost rule: %w", err)
	}

	utils.LogInfo("Cost rule created", map[string]interface{}{"tenant_id": tenantID, "rule_id": rule.ID, "category": rule.Category})

	result := &CostRuleResult{Rule: &rule}
	if req.ApplyToExistingOrders {
		s.triggerRecalculation(result, TriggerRuleCreated, models.RecalculationFilter{Provider: rule.Provider})
	}
	return result, nil
}

func (s *costRuleService) GetRule(tenantID, ruleID int64) (*models.CostCommissionRule, error) {
	rule, err := s.ruleRepo.GetRuleByID(tenantID, ruleID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRuleNotFound
		}
		return nil, err
	}
	return rule, nil
}

func (s *costRuleService) ListRules(tenantID int64, filters models.CostRuleFilters) ([]models.CostCommissionRule, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 || filters.PageSize > 200 {
		filters.PageSize = 50
	}
	return s.ruleRepo.GetRules(tenantID, filters)
}

func (s *costRuleService) UpdateRule(tenantID, ruleID int64, req UpdateCostRuleRequest) (*CostRuleResult, error) {
	existing, err := s.GetRule(tenantID, ruleID)
	if err != nil {
		return nil, err
	}

	rule := req.toRule(tenantID)
	rule.ID = existing.ID
	rule.CreatedAt = existing.CreatedAt
	if err := costing.ValidateRule(rule); err != nil {
		return nil, err
	}

	err = s.tx.WithinTransaction(func(executor repositories.SQLExecutor) error {
		return s.ruleRepo.UpdateRule(executor, &rule)
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil, ErrRuleNotFound
		case errors.Is(err, repositories.ErrDuplicateKey):
			return nil, ErrRuleNameTaken
		}
		return nil, fmt.Errorf("updating cost rule: %w", err)
	}

	utils.LogInfo("Cost rule updated", map[string]interface{}{"tenant_id": tenantID, "rule_id": rule.ID})

	result := &CostRuleResult{Rule: &rule}
	if req.ApplyRetroactively {
		// a provider change affects the orders of both providers
		filter := models.RecalculationFilter{Provider: rule.Provider}
		if !sameProvider(existing.Provider, rule.Provider) {
			filter.Provider = nil
		}
		s.triggerRecalculation(result, TriggerRuleUpdated, filter)
	}
	return result, nil
}

func (s *costRuleService) DeleteRule(tenantID, ruleID int64) error {
	err := s.tx.WithinTransaction(func(executor repositories.SQLExecutor) error {
		return s.ruleRepo.DeleteRule(executor, tenantID, ruleID)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrRuleNotFound
		}
		return fmt.Errorf("deleting cost rule: %w", err)
	}
	utils.LogInfo("Cost rule deleted", map[string]interface{}{"tenant_id": tenantID, "rule_id": ruleID})
	return nil
}

// triggerRecalculation starts a run for the saved rule, queued behind the tenant's current
// run when there is one. The rule write stands even when no run can be taken; the
// reason is reported in the result.
func (s *costRuleService) triggerRecalculation(result *CostRuleResult, trigger string, filter models.RecalculationFilter) {
	if s.recalculation == nil {
		return
	}
	progress, err := s.recalculation.StartRecalculation(RecalculationRequest{
		TenantID:      result.Rule.TenantID,
		Filter:        filter,
		Trigger:       trigger,
		QueueWhenBusy: true,
	})
	if err != nil {
		utils.LogWarn("Rule saved but recalculation was not started", map[string]interface{}{
			"tenant_id": result.Rule.TenantID,
			"rule_id":   result.Rule.ID,
			"error":     err.Error(),
		})
		if errors.Is(err, ErrRecalculationInProgress) {
			result.RecalculationError = utils.NewAPIError(http.StatusConflict, utils.ErrCodeRecalculationInProgress,
				"Rule saved, but its recalculation was not started. Retry the recalculation later.", err.Error())
		} else {
			result.RecalculationError = utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError,
				"Rule saved, but its recalculation could not be started.", err.Error())
		}
		return
	}
	result.Recalculation = progress
}

func sameProvider(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
