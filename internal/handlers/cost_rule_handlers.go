package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"delivery_costs_backend/internal/models"
	"delivery_costs_backend/internal/services"
	"delivery_costs_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// CostRuleHandler holds the cost rule service.
type CostRuleHandler struct {
	costRuleService services.CostRuleService
}

// NewCostRuleHandler creates a new CostRuleHandler.
func NewCostRuleHandler(crs services.CostRuleService) *CostRuleHandler {
	return &CostRuleHandler{costRuleService: crs}
}

// CreateCostRule handles the creation of a new cost rule.
func (h *CostRuleHandler) CreateCostRule(c *gin.Context) {
	tenantID, ok := tenantIDFromContext(c)
	if !ok {
		return
	}
	var req services.CreateCostRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateCostRule: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	result, err := h.costRuleService.CreateRule(tenantID, req)
	if err != nil {
		if respondCostingError(c, err) {
			return
		}
		utils.LogError(err, "CreateCostRule: Error from costRuleService.CreateRule")
		if errors.Is(err, services.ErrRuleNameTaken) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "A cost rule with this name already exists.", err.Error()))
		} else {
			respondInternalError(c, "Failed to create cost rule.")
		}
		return
	}
	respondRuleResult(c, http.StatusCreated, result)
}

// GetCostRules lists the tenant's rules with optional category, provider and active filters.
func (h *CostRuleHandler) GetCostRules(c *gin.Context) {
	tenantID, ok := tenantIDFromContext(c)
	if !ok {
		return
	}
	var filters models.CostRuleFilters
	filters.Category = utils.NewNullString(c.Query("category"))
	filters.Provider = utils.NewNullString(c.Query("provider"))
	if activeStr := c.Query("active"); activeStr != "" {
		active, err := strconv.ParseBool(activeStr)
		if err != nil {
			utils.RespondValidationFailed(c, "active must be true or false")
			return
		}
		filters.Active = &active
	}
	filters.Page, filters.PageSize = pageParams(c)

	rules, total, err := h.costRuleService.ListRules(tenantID, filters)
	if err != nil {
		utils.LogError(err, "GetCostRules: Error from costRuleService.ListRules")
		respondInternalError(c, "Failed to fetch cost rules.")
		return
	}
	if rules == nil {
		rules = []models.CostCommissionRule{}
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      rules,
		"total":     total,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

// GetCostRuleByID handles fetching a single rule.
func (h *CostRuleHandler) GetCostRuleByID(c *gin.Context) {
	tenantID, ok := tenantIDFromContext(c)
	if !ok {
		return
	}
	ruleID, ok := parseIDParam(c, "id", "cost rule")
	if !ok {
		return
	}

	rule, err := h.costRuleService.GetRule(tenantID, ruleID)
	if err != nil {
		if errors.Is(err, services.ErrRuleNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Cost rule not found.", err.Error()))
			return
		}
		utils.LogError(err, "GetCostRuleByID: Error from costRuleService.GetRule", map[string]interface{}{"rule_id": ruleID})
		respondInternalError(c, "Failed to fetch cost rule.")
		return
	}
	c.JSON(http.StatusOK, rule)
}

// UpdateCostRule replaces a rule and optionally recalculates the affected orders.
func (h *CostRuleHandler) UpdateCostRule(c *gin.Context) {
	tenantID, ok := tenantIDFromContext(c)
	if !ok {
		return
	}
	ruleID, ok := parseIDParam(c, "id", "cost rule")
	if !ok {
		return
	}
	var req services.UpdateCostRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "UpdateCostRule: Failed to bind JSON", map[string]interface{}{"rule_id": ruleID})
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	result, err := h.costRuleService.UpdateRule(tenantID, ruleID, req)
	if err != nil {
		if respondCostingError(c, err) {
			return
		}
		switch {
		case errors.Is(err, services.ErrRuleNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Cost rule not found to update.", err.Error()))
		case errors.Is(err, services.ErrRuleNameTaken):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "A cost rule with this name already exists.", err.Error()))
		default:
			utils.LogError(err, "UpdateCostRule: Error from costRuleService.UpdateRule", map[string]interface{}{"rule_id": ruleID})
			respondInternalError(c, "Failed to update cost rule.")
		}
		return
	}
	respondRuleResult(c, http.StatusOK, result)
}

// respondRuleResult writes a saved rule. A recalculation the tenant could not take yet
// carries the same Retry-After hint as a 409 from the recalculation endpoint.
func respondRuleResult(c *gin.Context, status int, result *services.CostRuleResult) {
	if result.RecalculationError != nil && result.RecalculationError.Code == utils.ErrCodeRecalculationInProgress {
		c.Header("Retry-After", retryAfterSeconds)
	}
	c.JSON(status, result)
}

// DeleteCostRule handles deleting a rule. Orders keep the figures already calculated.
func (h *CostRuleHandler) DeleteCostRule(c *gin.Context) {
	tenantID, ok := tenantIDFromContext(c)
	if !ok {
		return
	}
	ruleID, ok := parseIDParam(c, "id", "cost rule")
	if !ok {
		return
	}

	if err := h.costRuleService.DeleteRule(tenantID, ruleID); err != nil {
		if errors.Is(err, services.ErrRuleNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Cost rule not found to delete.", err.Error()))
			return
		}
		utils.LogError(err, "DeleteCostRule: Error from costRuleService.DeleteRule", map[string]interface{}{"rule_id": ruleID})
		respondInternalError(c, "Failed to delete cost rule.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cost rule deleted successfully"})
}
