package ledger

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrRecipeNotFound = errors.New("product has no recipe")
	ErrConflict       = errors.New("stock ledger conflict")
	ErrOrderInFlight  = errors.New("an order for this session is already being confirmed")
	ErrInvalidDemand  = errors.New("demand quantities must be positive")
	ErrStockNotFound  = errors.New("stock item not found")
	ErrDemandOverflow = errors.New("quantity too large")
	ErrOrderTooLarge  = errors.New("order total exceeds the receipt limit")
	// ErrNotFound is returned by collaborator stores for missing rows.
	ErrNotFound = errors.New("record not found")
	// ErrReferenceUsed is returned by stores when a reference already deducted stock.
	ErrReferenceUsed = errors.New("reference already applied")
)

// ValidationError is user-correctable and raised before the ledger is touched.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid order: " + strings.Join(parts, ", ")
}

func newValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// InsufficientStockError names the first stock item the order cannot cover.
type InsufficientStockError struct {
	StockID   uint `json:"stock_id"`
	Required  int  `json:"required"`
	Available int  `json:"available"`
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %d: required %d, available %d", e.StockID, e.Required, e.Available)
}

// ConflictError is surfaced once the ledger's retry budget is spent.
type ConflictError struct {
	Attempts int
	Err      error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("stock ledger conflict after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ConflictError) Unwrap() error { return e.Err }

// ProductUnavailableError is returned for disabled products.
type ProductUnavailableError struct {
	ProductID uint
	Name      string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %q is disabled and cannot be sold", e.Name)
}

// DuplicateOrderError reports a replayed order key whose receipt already exists.
type DuplicateOrderError struct {
	OrderKey  string
	ReceiptID uuid.UUID
}

func (e *DuplicateOrderError) Error() string {
	return fmt.Sprintf("order %q was already confirmed as receipt %s", e.OrderKey, e.ReceiptID)
}

// Stages at which a committed deduction can fail to be recorded.
const (
	StageReceipt = "receipt"
	StageAudit   = "audit"
	StageReplay  = "replay"
)

// PartialFailureError means stock was deducted but the receipt or audit entry
// was not written. The deduction must never be re-attempted for the same
// order; an operator has to reconcile it.
type PartialFailureError struct {
	Reference string
	ReceiptID uuid.UUID
	Stage     string
	Err       error
}

func (e *PartialFailureError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("order %s deducted stock but was not recorded (%s)", e.Reference, e.Stage)
	}
	return fmt.Sprintf("order %s deducted stock but %s write failed: %v", e.Reference, e.Stage, e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }
