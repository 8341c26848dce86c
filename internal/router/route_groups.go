package router

import (
	"delivery_costs_backend/internal/handlers"
	"delivery_costs_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupCostRuleRoutes sets up the cost rule routes. Only admins change rules.
func SetupCostRuleRoutes(authenticatedGroup *gin.RouterGroup, costRuleHandler *handlers.CostRuleHandler) {
	costRuleRoutes := authenticatedGroup.Group("/cost-rules")
	costRuleRoutes.Use(middleware.RoleAuthMiddleware(middleware.RoleAdmin, middleware.RoleStaff))
	{
		costRuleRoutes.GET("", costRuleHandler.GetCostRules)
		costRuleRoutes.GET("/:id", costRuleHandler.GetCostRuleByID)

		adminRoutes := costRuleRoutes.Group("")
		adminRoutes.Use(middleware.RoleAuthMiddleware(middleware.RoleAdmin))
		{
			adminRoutes.POST("", costRuleHandler.CreateCostRule)
			adminRoutes.PUT("/:id", costRuleHandler.UpdateCostRule)
			adminRoutes.DELETE("/:id", costRuleHandler.DeleteCostRule)
		}
	}
}

// SetupOrderRoutes sets up the order routes.
func SetupOrderRoutes(authenticatedGroup *gin.RouterGroup, orderHandler *handlers.OrderHandler, recalculationHandler *handlers.RecalculationHandler) {
	orderRoutes := authenticatedGroup.Group("/orders")
	orderRoutes.Use(middleware.RoleAuthMiddleware(middleware.RoleAdmin, middleware.RoleStaff))
	{
		orderRoutes.GET("", orderHandler.GetOrders)
		orderRoutes.POST("/recalculate", recalculationHandler.StartRecalculation)
		orderRoutes.POST("/:id/calculate-costs", orderHandler.CalculateOrderCosts)
		orderRoutes.GET("/:id/costs", orderHandler.GetOrderCosts)
	}
}

// SetupRecalculationRoutes sets up the recalculation progress routes.
func SetupRecalculationRoutes(authenticatedGroup *gin.RouterGroup, recalculationHandler *handlers.RecalculationHandler) {
	recalculationRoutes := authenticatedGroup.Group("/recalculations")
	recalculationRoutes.Use(middleware.RoleAuthMiddleware(middleware.RoleAdmin, middleware.RoleStaff))
	{
		recalculationRoutes.GET("/:run_id", recalculationHandler.GetRecalculationProgress)
	}
}

// SetupOrderItemRoutes sets up the order item routes.
func SetupOrderItemRoutes(authenticatedGroup *gin.RouterGroup, mappingHandler *handlers.MappingHandler) {
	orderItemRoutes := authenticatedGroup.Group("/order-items")
	orderItemRoutes.Use(middleware.RoleAuthMiddleware(middleware.RoleAdmin, middleware.RoleStaff))
	{
		orderItemRoutes.POST("/:id/allocate-fractions", mappingHandler.AllocateItemFractions)
	}
}

// SetupProductRoutes sets up the internal product routes.
func SetupProductRoutes(authenticatedGroup *gin.RouterGroup, catalogHandler *handlers.CatalogHandler) {
	productRoutes := authenticatedGroup.Group("/products")
	productRoutes.Use(middleware.RoleAuthMiddleware(middleware.RoleAdmin))
	{
		productRoutes.POST("/refresh-costs", catalogHandler.RefreshAllProductCosts)
		productRoutes.POST("/:id/refresh-cost", catalogHandler.RefreshProductCost)
	}
}

// SetupReportRoutes sets up the report routes.
func SetupReportRoutes(authenticatedGroup *gin.RouterGroup, reportHandler *handlers.ReportHandler) {
	reportRoutes := authenticatedGroup.Group("/reports")
	reportRoutes.Use(middleware.RoleAuthMiddleware(middleware.RoleAdmin))
	{
		reportRoutes.GET("/costs", reportHandler.GetCostReport)
	}
}
