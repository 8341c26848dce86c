package router

import (
	"net/http"

	"delivery_costs_backend/internal/handlers"
	"delivery_costs_backend/internal/middleware"
	"delivery_costs_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, container *services.Container) {
	costRuleHandler := handlers.NewCostRuleHandler(container.CostRules)
	orderHandler := handlers.NewOrderHandler(container.Costing)
	recalculationHandler := handlers.NewRecalculationHandler(container.Recalculation)
	mappingHandler := handlers.NewMappingHandler(container.Mapping)
	catalogHandler := handlers.NewCatalogHandler(container.Catalog)
	reportHandler := handlers.NewReportHandler(container.Reports)

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := engine.Group("/api/v1")

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupCostRuleRoutes(authenticated, costRuleHandler)
		SetupOrderRoutes(authenticated, orderHandler, recalculationHandler)
		SetupRecalculationRoutes(authenticated, recalculationHandler)
		SetupOrderItemRoutes(authenticated, mappingHandler)
		SetupProductRoutes(authenticated, catalogHandler)
		SetupReportRoutes(authenticated, reportHandler)
	}
}
