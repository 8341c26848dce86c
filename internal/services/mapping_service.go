package services

import (
	"errors"
	"fmt"

	"delivery_costs_backend/internal/costing"
	"delivery_costs_backend/internal/models"
	"delivery_costs_backend/internal/repositories"
	"delivery_costs_backend/pkg/utils"
)

var (
	ErrOrderItemNotFound = errors.New("order item not found")
)

// AllocationResponse is the outcome of allocating an item's flavor fractions.
type AllocationResponse struct {
	OrderItemID int64                     `json:"order_item_id"`
	Mappings    []models.OrderItemMapping `json:"mappings"`
	Changed     []int64                   `json:"changed_mapping_ids"`
	Warnings    []string                  `json:"warnings,omitempty"`
}

// MappingService runs the fraction allocator at mapping time and stores its result.
type MappingService interface {
	AllocateItemFractions(tenantID, itemID int64) (*AllocationResponse, error)
}

type mappingService struct {
	orderRepo   repositories.OrderRepository
	mappingRepo repositories.MappingRepository
	catalog     CatalogService
	tx          repositories.Transactor
}

// NewMappingService creates a new instance of MappingService.
func NewMappingService(or repositories.OrderRepository, mr repositories.MappingRepository, cs CatalogService, tx repositories.Transactor) MappingService {
	return &mappingService{orderRepo: or, mappingRepo: mr, catalog: cs, tx: tx}
}

func (s *mappingService) AllocateItemFractions(tenantID, itemID int64) (*AllocationResponse, error) {
	item, err := s.orderRepo.GetOrderItemByID(tenantID, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderItemNotFound
		}
		return nil, err
	}
	mappings, err := s.mappingRepo.GetMappingsByItemID(itemID)
	if err != nil {
		return nil, err
	}
	catalog, err := s.catalog.LoadCatalog(tenantID)
	if err != nil {
		return nil, err
	}

	result, err := costing.NewFractionAllocator(costing.NewRecipeResolver(catalog)).Allocate(*item, mappings)
	if err != nil {
		return nil, err
	}

	changed := make(map[int64]bool, len(result.Changed))
	for _, id := range result.Changed {
		changed[id] = true
	}
	err = s.tx.WithinTransaction(func(executor repositories.SQLExecutor) error {
		for _, m := range result.Mappings {
			if !changed[m.ID] {
				continue
			}
			if err := s.mappingRepo.UpdateMappingAllocation(executor, m); err != nil {
				return fmt.Errorf("storing allocation of mapping %d: %w", m.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	response := &AllocationResponse{
		OrderItemID: itemID,
		Mappings:    result.Mappings,
		Changed:     result.Changed,
	}
	if response.Changed == nil {
		response.Changed = []int64{}
	}
	for _, w := range result.Warnings {
		response.Warnings = append(response.Warnings, w.String())
	}
	utils.LogDebug("Item fractions allocated", map[string]interface{}{"tenant_id": tenantID, "order_item_id": itemID, "changed": len(result.Changed)})
	return response, nil
}
