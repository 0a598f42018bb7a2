package workorder

import (
	"context"
	"errors"

	"github.com/Additional-Code/orderdesk/internal/entity"
)

var (
	// ErrNotFound is returned when no work order matches the identifier.
	ErrNotFound = errors.New("work order not found")
	// ErrConflict is returned when an order id is already taken.
	ErrConflict = errors.New("work order already exists")
	// ErrUnavailable wraps transient backend failures (network, timeouts).
	ErrUnavailable = errors.New("work order store unavailable")
	// ErrMalformedRecord is returned when a stored record cannot be decoded at all.
	ErrMalformedRecord = errors.New("malformed work order record")
)

// Store is the storage-agnostic CRUD surface over work orders.
type Store interface {
	// List returns up to the configured limit of the most recent orders, newest
	// first. Each raw record keeps its slot, even when it could not be decoded.
	List(ctx context.Context) ([]Record, error)
	// GetByID returns the order whose id exactly matches the trimmed input.
	GetByID(ctx context.Context, id string) (Record, error)
	// Create inserts a new order and returns it as it was written.
	Create(ctx context.Context, order *entity.WorkOrder) (*entity.WorkOrder, error)
	// Update replaces the whole stored order and returns the stored result.
	Update(ctx context.Context, order *entity.WorkOrder) (*entity.WorkOrder, error)
	// Delete removes matching orders. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
}

// Record is a single read result.
type Record struct {
	Order  *entity.WorkOrder
	Issues []FieldIssue
	Err    error
}

// Degraded reports whether any field fell back to a default while decoding.
func (r Record) Degraded() bool {
	return len(r.Issues) > 0
}

// OK reports whether the record carries a decoded order.
func (r Record) OK() bool {
	return r.Err == nil && r.Order != nil
}
