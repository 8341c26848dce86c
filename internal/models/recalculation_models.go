package models

import "time"

// RecalculationStatus is the state of a recalculation run.
type RecalculationStatus string

const (
	RecalculationIdle       RecalculationStatus = "idle"
	RecalculationProcessing RecalculationStatus = "processing"
	RecalculationCompleted  RecalculationStatus = "completed"
	RecalculationError      RecalculationStatus = "error"
)

// IsTerminal reports whether the run will not change anymore.
func (s RecalculationStatus) IsTerminal() bool {
	return s == RecalculationCompleted || s == RecalculationError
}

// RecalculationFilter selects the historical orders a run recomputes.
type RecalculationFilter struct {
	StoreID  *int64     `json:"store_id,omitempty"`
	Provider *string    `json:"provider,omitempty"`
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`
	OrderIDs []int64    `json:"order_ids,omitempty"`
}

// RecalculationProgress is the document polled by clients while a run is active.
type RecalculationProgress struct {
	RunID          string              `json:"run_id"`
	TenantID       int64               `json:"tenant_id"`
	Status         RecalculationStatus `json:"status"`
	Trigger        string              `json:"trigger,omitempty"`
	Total          int                 `json:"total"`
	Processed      int                 `json:"processed"`
	Failed         int                 `json:"failed"`
	Percentage     float64             `json:"percentage"`
	FailedOrderIDs []int64             `json:"failed_order_ids,omitempty"`
	StartedAt      *time.Time          `json:"started_at,omitempty"`
	CompletedAt    *time.Time          `json:"completed_at,omitempty"`
	Message        string              `json:"message"`
	Coalesced      bool                `json:"coalesced,omitempty"`
	Queued         bool                `json:"queued,omitempty"` // waits for the tenant's current run to end
}
