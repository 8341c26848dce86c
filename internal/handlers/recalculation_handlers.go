package handlers

import (
	"errors"
	"io"
	"net/http"

	"delivery_costs_backend/internal/services"
	"delivery_costs_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// RecalculationHandler starts recalculation runs and reports their progress.
type RecalculationHandler struct {
	recalculationService services.RecalculationService
}

// NewRecalculationHandler creates a new RecalculationHandler.
func NewRecalculationHandler(rs services.RecalculationService) *RecalculationHandler {
	return &RecalculationHandler{recalculationService: rs}
}

// StartRecalculation queues a run over the tenant's historical orders and answers 202
// with the run id to poll. An empty body recalculates every order.
func (h *RecalculationHandler) StartRecalculation(c *gin.Context) {
	tenantID, ok := tenantIDFromContext(c)
	if !ok {
		return
	}
	var req services.RecalculateOrdersRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.LogError(err, "StartRecalculation: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	filter, err := req.Filter()
	if err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	progress, err := h.recalculationService.StartRecalculation(services.RecalculationRequest{
		TenantID: tenantID,
		Filter:   filter,
		Trigger:  services.TriggerManual,
	})
	if err != nil {
		if respondCostingError(c, err) {
			return
		}
		if errors.Is(err, services.ErrInvalidRecalculation) {
			utils.RespondValidationFailed(c, err.Error())
			return
		}
		utils.LogError(err, "StartRecalculation: Error from recalculationService.StartRecalculation")
		respondInternalError(c, "Failed to start recalculation.")
		return
	}
	c.Header("Location", "/api/v1/recalculations/"+progress.RunID)
	c.JSON(http.StatusAccepted, progress)
}

// GetRecalculationProgress returns the progress document of a run.
func (h *RecalculationHandler) GetRecalculationProgress(c *gin.Context) {
	tenantID, ok := tenantIDFromContext(c)
	if !ok {
		return
	}
	runID := c.Param("run_id")
	if utils.IsEmpty(runID) {
		utils.RespondValidationFailed(c, "run_id is required")
		return
	}

	progress, err := h.recalculationService.GetProgress(tenantID, runID)
	if err != nil {
		if errors.Is(err, services.ErrRecalculationNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Recalculation run not found.", err.Error()))
			return
		}
		utils.LogError(err, "GetRecalculationProgress: Error from recalculationService.GetProgress", map[string]interface{}{"run_id": runID})
		respondInternalError(c, "Failed to fetch recalculation progress.")
		return
	}
	c.JSON(http.StatusOK, progress)
}
