package handlers

import (
	"errors"
	"net/http"

	"delivery_costs_backend/internal/services"
	"delivery_costs_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// CatalogHandler exposes the recipe cost refresh.
type CatalogHandler struct {
	catalogService services.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(cs services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: cs}
}

func (h *CatalogHandler) RefreshProductCost(c *gin.Context) {
	tenantID, ok := tenantIDFromContext(c)
	if !ok {
		return
	}
	productID, ok := parseIDParam(c, "id", "product")
	if !ok {
		return
	}

	result, err := h.catalogService.RefreshProductCost(tenantID, productID)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Product not found.", err.Error()))
			return
		}
		utils.LogError(err, "RefreshProductCost: Error from catalogService.RefreshProductCost", map[string]interface{}{"product_id": productID})
		respondInternalError(c, "Failed to refresh product cost.")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *CatalogHandler) RefreshAllProductCosts(c *gin.Context) {
	tenantID, ok := tenantIDFromContext(c)
	if !ok {
		return
	}

	results, err := h.catalogService.RefreshAllProductCosts(tenantID)
	if err != nil {
		utils.LogError(err, "RefreshAllProductCosts: Error from catalogService.RefreshAllProductCosts")
		respondInternalError(c, "Failed to refresh product costs.")
		return
	}
	if results == nil {
		results = []services.ProductCostRefresh{}
	}
	changed := 0
	for _, r := range results {
		if r.Changed {
			changed++
		}
	}
	c.JSON(http.StatusOK, gin.H{"data": results, "total": len(results), "changed": changed})
}
