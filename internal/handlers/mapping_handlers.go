package handlers

import (
	"errors"
	"net/http"

	"delivery_costs_backend/internal/services"
	"delivery_costs_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// MappingHandler holds the mapping service.
type MappingHandler struct {
	mappingService services.MappingService
}

// NewMappingHandler creates a new MappingHandler.
func NewMappingHandler(ms services.MappingService) *MappingHandler {
	return &MappingHandler{mappingService: ms}
}

// AllocateItemFractions splits a sold item's pizza flavors and freezes their unit costs.
func (h *MappingHandler) AllocateItemFractions(c *gin.Context) {
	tenantID, ok := tenantIDFromContext(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "id", "order item")
	if !ok {
		return
	}

	result, err := h.mappingService.AllocateItemFractions(tenantID, itemID)
	if err != nil {
		if respondCostingError(c, err) {
			return
		}
		if errors.Is(err, services.ErrOrderItemNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order item not found.", err.Error()))
			return
		}
		utils.LogError(err, "AllocateItemFractions: Error from mappingService.AllocateItemFractions for item "+utils.Int64ToStr(itemID))
		respondInternalError(c, "Failed to allocate item fractions.")
		return
	}
	c.JSON(http.StatusOK, result)
}
