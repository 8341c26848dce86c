package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"delivery_costs_backend/internal/costing"
	"delivery_costs_backend/internal/services"
	"delivery_costs_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// retryAfterSeconds is sent with 409 responses while a tenant recalculation is running.
const retryAfterSeconds = "5"

// tenantIDFromContext reads the tenant set by AuthMiddleware and responds 401 when it is missing.
func tenantIDFromContext(c *gin.Context) (int64, bool) {
	raw, exists := c.Get("tenantID")
	if !exists {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Tenant not authenticated.", "Missing tenant ID in context"))
		return 0, false
	}
	tenantID, ok := raw.(int64)
	if !ok || tenantID <= 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Tenant ID format incorrect.", "Invalid tenant ID in context"))
		return 0, false
	}
	return tenantID, true
}

func parseIDParam(c *gin.Context, param, label string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		details := "must be a positive integer"
		if err != nil {
			details = err.Error()
		}
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid "+label+" ID format.", details))
		return 0, false
	}
	return id, true
}

// respondCostingError writes the response for errors shared by the costing endpoints.
// It returns false when err is none of them and the caller must respond itself.
func respondCostingError(c *gin.Context, err error) bool {
	var validationErr *costing.ValidationError
	switch {
	case errors.As(err, &validationErr):
		code := utils.ErrCodeValidationFailed
		if errors.Is(err, costing.ErrAmbiguousFractionGroup) {
			code = utils.ErrCodeAmbiguousFractionGroup
		} else if errors.Is(err, costing.ErrTooManyFlavors) {
			code = utils.ErrCodeTooManyFlavors
		}
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, code, "Validation failed: "+validationErr.Message, validationErr.Field))
	case errors.Is(err, costing.ErrCorruptMapping):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnprocessableEntity, utils.ErrCodeCorruptMapping, "Order item mappings are corrupt.", err.Error()))
	case errors.Is(err, services.ErrRecalculationInProgress):
		c.Header("Retry-After", retryAfterSeconds)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeRecalculationInProgress, "A recalculation is already running for this tenant. Retry later.", err.Error()))
	case errors.Is(err, services.ErrInvalidTenant):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid tenant.", err.Error()))
	default:
		return false
	}
	return true
}

func respondInternalError(c *gin.Context, message string) {
	utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, message, "Internal error"))
}

// pageParams reads page and page_size the way every list endpoint does.
func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}
	return page, pageSize
}
