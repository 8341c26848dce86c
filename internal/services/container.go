package services

import (
	"database/sql"
	"time"

	"delivery_costs_backend/internal/repositories"
)

// Container wires repositories into the services shared by the HTTP server and the CLI.
type Container struct {
	Catalog       CatalogService
	Costing       CostingService
	Recalculation RecalculationService
	CostRules     CostRuleService
	Mapping       MappingService
	Reports       ReportService
}

// NewContainer builds every service over one connection pool.
func NewContainer(db *sql.DB, workers int, retention time.Duration) *Container {
	orderRepo := repositories.NewOrderRepository(db)
	mappingRepo := repositories.NewMappingRepository(db)
	ruleRepo := repositories.NewCostRuleRepository(db)
	catalogRepo := repositories.NewCatalogRepository(db)
	reportRepo := repositories.NewReportRepository(db)
	tx := repositories.NewTransactor(db)

	catalog := NewCatalogService(catalogRepo, tx)
	costing := NewCostingService(orderRepo, mappingRepo, ruleRepo, catalog, tx)
	recalculation := NewRecalculationService(orderRepo, costing, repositories.NewTenantLocker(db), workers, retention)

	return &Container{
		Catalog:       catalog,
		Costing:       costing,
		Recalculation: recalculation,
		CostRules:     NewCostRuleService(ruleRepo, tx, recalculation),
		Mapping:       NewMappingService(orderRepo, mappingRepo, catalog, tx),
		Reports:       NewReportService(reportRepo),
	}
}
