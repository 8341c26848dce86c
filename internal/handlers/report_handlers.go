package handlers

import (
	"errors"
	"net/http"

	"delivery_costs_backend/internal/models"
	"delivery_costs_backend/internal/services"
	"delivery_costs_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ReportHandler holds the report service.
type ReportHandler struct {
	reportService services.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(rs services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: rs}
}

// parseReportRequestParams helps parse common query parameters for reports.
func parseReportRequestParams(c *gin.Context) models.ReportRequestParams {
	var params models.ReportRequestParams
	params.StartDate = c.Query("start_date")
	params.EndDate = c.Query("end_date")

	if storeIDStr := c.Query("store_id"); storeIDStr != "" {
		if id, err := utils.StrToInt64(storeIDStr); err == nil {
			params.StoreID = &id
		}
	}
	params.Provider = utils.NewNullString(c.Query("provider"))
	return params
}

// GetCostReport aggregates calculated figures by provider over a date range.
func (h *ReportHandler) GetCostReport(c *gin.Context) {
	tenantID, ok := tenantIDFromContext(c)
	if !ok {
		return
	}
	params := parseReportRequestParams(c)

	report, err := h.reportService.GetCostReport(tenantID, params)
	if err != nil {
		if errors.Is(err, services.ErrInvalidDateRange) {
			utils.RespondValidationFailed(c, err.Error())
			return
		}
		utils.LogError(err, "GetCostReport: Error from reportService.GetCostReport")
		respondInternalError(c, "Failed to build cost report.")
		return
	}
	if report.Items == nil {
		report.Items = []models.CostReportItem{}
	}
	c.JSON(http.StatusOK, report)
}
