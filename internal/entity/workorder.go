package entity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// ErrInvalidWorkOrder is wrapped by Validate failures.
var ErrInvalidWorkOrder = errors.New("invalid work order")

// WorkOrder is a trade order record. The same shape is stored as a document
// (bson tags) or as a row in the relational fallback (bun tags).
type WorkOrder struct {
	bun.BaseModel `bson:"-" json:"-" bun:"table:work_orders"`

	OrderID      string    `bson:"orderId" json:"order_id" bun:"order_id,pk"`
	Size         string    `bson:"size" json:"size" bun:"size,notnull"`
	Filled       string    `bson:"filled" json:"filled" bun:"filled,notnull"`
	Status       string    `bson:"status" json:"status" bun:"status,notnull"`
	Ticker       string    `bson:"ticker" json:"ticker" bun:"ticker,notnull"`
	MIC          string    `bson:"mic" json:"mic" bun:"mic,notnull"`
	Action       string    `bson:"action" json:"action" bun:"action,notnull"`
	Timestamp    time.Time `bson:"timestamp" json:"timestamp" bun:"timestamp,notnull"`
	LastModified time.Time `bson:"lastModified" json:"last_modified" bun:"last_modified,notnull"`
}

// Normalize trims the identifier and pins both datetimes to UTC at millisecond
// precision, which is what the document store keeps.
func (w *WorkOrder) Normalize() {
	w.OrderID = strings.TrimSpace(w.OrderID)
	w.Timestamp = normalizeTime(w.Timestamp)
	w.LastModified = normalizeTime(w.LastModified)
}

// Validate checks the invariants every persisted work order must hold.
func (w *WorkOrder) Validate() error {
	if w == nil {
		return fmt.Errorf("%w: nil work order", ErrInvalidWorkOrder)
	}
	if strings.TrimSpace(w.OrderID) == "" {
		return fmt.Errorf("%w: order id is required", ErrInvalidWorkOrder)
	}
	if w.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is required", ErrInvalidWorkOrder)
	}
	if w.LastModified.Before(w.Timestamp) {
		return fmt.Errorf("%w: last modified %s precedes timestamp %s", ErrInvalidWorkOrder,
			w.LastModified.Format(time.RFC3339Nano), w.Timestamp.Format(time.RFC3339Nano))
	}
	return nil
}

// Touch stamps LastModified, never letting it fall behind Timestamp.
func (w *WorkOrder) Touch(now time.Time) {
	now = normalizeTime(now)
	if now.Before(w.Timestamp) {
		now = w.Timestamp
	}
	w.LastModified = now
}

func (w WorkOrder) String() string {
	return fmt.Sprintf("[order_id: %s, size: %s, filled: %s, status: %s, ticker: %s, mic: %s, action: %s, timestamp: %s, last_modified: %s]",
		w.OrderID, w.Size, w.Filled, w.Status, w.Ticker, w.MIC, w.Action,
		w.Timestamp.Format(time.RFC3339Nano), w.LastModified.Format(time.RFC3339Nano))
}

func normalizeTime(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC().Truncate(time.Millisecond)
}
