package costing

import (
	"errors"
	"fmt"
)

var (
	// ErrCorruptMapping is returned when an item's mappings cannot be costed safely.
	ErrCorruptMapping = errors.New("corrupt order item mapping")

	// ErrAmbiguousFractionGroup is returned when a pizza flavor group mixes auto_fraction flags.
	ErrAmbiguousFractionGroup = errors.New("ambiguous auto-fraction group")

	// ErrTooManyFlavors is returned when a flavor group exceeds the product's max_flavors.
	ErrTooManyFlavors = errors.New("too many flavors for product")
)

// ValidationError describes malformed configuration rejected before it reaches the engine.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Message
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// WarningKind identifies the kind of data integrity problem.
type WarningKind string

const (
	WarningMissingIngredient WarningKind = "missing_ingredient"
	WarningMissingProduct    WarningKind = "missing_product"
	WarningUnitMismatch      WarningKind = "unit_mismatch"
	WarningRecipeCycle       WarningKind = "recipe_cycle"
	WarningUnmappedItem      WarningKind = "unmapped_item"
)

// DataIntegrityWarning is a non-fatal problem found while costing. The contribution is zero.
type DataIntegrityWarning struct {
	Kind      WarningKind `json:"kind"`
	ProductID int64       `json:"product_id,omitempty"`
	Reference int64       `json:"reference,omitempty"`
	Message   string      `json:"message"`
}

func (w DataIntegrityWarning) String() string {
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}

// OrderCalculationFailure wraps an unexpected error for one order inside a batch.
type OrderCalculationFailure struct {
	OrderID int64
	Err     error
}

func (f *OrderCalculationFailure) Error() string {
	return fmt.Sprintf("order %d: %v", f.OrderID, f.Err)
}

func (f *OrderCalculationFailure) Unwrap() error {
	return f.Err
}
