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

// OrderHandler exposes order cost calculation and the order listing.
type OrderHandler struct {
	costingService services.CostingService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(cs services.CostingService) *OrderHandler {
	return &OrderHandler{costingService: cs}
}

// CalculateOrderCosts calculates one order now with the current rules and catalog.
func (h *OrderHandler) CalculateOrderCosts(c *gin.Context) {
	tenantID, ok := tenantIDFromContext(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id", "order")
	if !ok {
		return
	}

	order, err := h.costingService.CalculateOrder(tenantID, orderID)
	if err != nil {
		if respondCostingError(c, err) {
			utils.LogWarn("CalculateOrderCosts: order rejected", map[string]interface{}{"order_id": orderID, "error": err.Error()})
			return
		}
		if errors.Is(err, services.ErrOrderNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order not found.", err.Error()))
			return
		}
		utils.LogError(err, "CalculateOrderCosts: Error from costingService.CalculateOrder", map[string]interface{}{"order_id": orderID})
		respondInternalError(c, "Failed to calculate order costs.")
		return
	}
	c.JSON(http.StatusOK, order)
}

// GetOrderCosts returns the persisted breakdown of an order.
func (h *OrderHandler) GetOrderCosts(c *gin.Context) {
	tenantID, ok := tenantIDFromContext(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id", "order")
	if !ok {
		return
	}

	order, err := h.costingService.GetOrderCosts(tenantID, orderID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order not found.", err.Error()))
		case errors.Is(err, services.ErrCostsNotCalculated):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeCalculationNotPerformed, "Order costs have not been calculated yet.", err.Error()))
		default:
			utils.LogError(err, "GetOrderCosts: Error from costingService.GetOrderCosts", map[string]interface{}{"order_id": orderID})
			respondInternalError(c, "Failed to fetch order costs.")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_id":            order.ID,
		"provider":            order.Provider,
		"gross_total":         order.GrossTotal,
		"discount_total":      order.DiscountTotal,
		"total_costs":         order.TotalCosts,
		"total_commissions":   order.TotalCommissions,
		"total_taxes":         order.TotalTaxes,
		"net_revenue":         order.NetRevenue,
		"costs_calculated_at": order.CostsCalculatedAt,
		"calculated_costs":    order.CalculatedCosts,
		"order_items":         order.OrderItems,
	})
}

// GetOrders lists orders with their cost columns.
func (h *OrderHandler) GetOrders(c *gin.Context) {
	tenantID, ok := tenantIDFromContext(c)
	if !ok {
		return
	}
	filters, err := parseOrderFilters(c)
	if err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	orders, total, err := h.costingService.GetOrders(tenantID, filters)
	if err != nil {
		utils.LogError(err, "GetOrders: Error from costingService.GetOrders")
		respondInternalError(c, "Failed to fetch orders.")
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      orders,
		"total":     total,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

// parseOrderFilters reads the listing query. date_to is inclusive.
func parseOrderFilters(c *gin.Context) (models.OrderFilters, error) {
	var filters models.OrderFilters
	if storeIDStr := c.Query("store_id"); storeIDStr != "" {
		storeID, err := strconv.ParseInt(storeIDStr, 10, 64)
		if err != nil {
			return filters, errors.New("store_id must be an integer")
		}
		filters.StoreID = &storeID
	}
	filters.Provider = utils.NewNullString(c.Query("provider"))
	filters.Status = utils.NewNullString(c.Query("status"))
	from, err := utils.ParseDate(c.Query("date_from"))
	if err != nil {
		return filters, err
	}
	filters.DateFrom = from
	to, err := utils.ParseDate(c.Query("date_to"))
	if err != nil {
		return filters, err
	}
	if to != nil {
		next := to.AddDate(0, 0, 1)
		filters.DateTo = &next
	}
	if calculatedStr := c.Query("calculated"); calculatedStr != "" {
		calculated, err := strconv.ParseBool(calculatedStr)
		if err != nil {
			return filters, errors.New("calculated must be true or false")
		}
		filters.Calculated = &calculated
	}
	filters.Page, filters.PageSize = pageParams(c)
	return filters, nil
}
