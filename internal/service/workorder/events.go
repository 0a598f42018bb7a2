package workorder

import (
	"time"

	"github.com/Additional-Code/orderdesk/internal/entity"
)

// EventType names a work order lifecycle change.
type EventType string

const (
	EventCreated EventType = "workorder.created"
	EventUpdated EventType = "workorder.updated"
	EventDeleted EventType = "workorder.deleted"
)

// Event is emitted after a work order is written.
type Event struct {
	ID         string            `json:"id"`
	Type       EventType         `json:"type"`
	OrderID    string            `json:"order_id"`
	Order      *entity.WorkOrder `json:"order,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}
