package dto

import "time"

// WorkOrderRequest is the payload accepted when creating or replacing a work order.
type WorkOrderRequest struct {
	OrderID      string     `json:"order_id" validate:"omitempty,max=64"`
	Size         string     `json:"size" validate:"required,numeric"`
	Filled       string     `json:"filled" validate:"omitempty,numeric"`
	Status       string     `json:"status" validate:"required,max=32"`
	Ticker       string     `json:"ticker" validate:"required,max=32"`
	MIC          string     `json:"mic" validate:"required,len=4,alphanum"`
	Action       string     `json:"action" validate:"required,oneof=BUY SELL"`
	Timestamp    *time.Time `json:"timestamp,omitempty"`
	LastModified *time.Time `json:"last_modified,omitempty"`
}

// WorkOrderResponse represents a work order as exposed via transport layers.
type WorkOrderResponse struct {
	OrderID      string    `json:"order_id"`
	Size         string    `json:"size"`
	Filled       string    `json:"filled"`
	Status       string    `json:"status"`
	Ticker       string    `json:"ticker"`
	MIC          string    `json:"mic"`
	Action       string    `json:"action"`
	Timestamp    time.Time `json:"timestamp"`
	LastModified time.Time `json:"last_modified"`
}

// FieldIssueResponse describes a field that could not be read cleanly.
type FieldIssueResponse struct {
	Field string `json:"field"`
	State string `json:"state"`
}

// WorkOrderListItem is one slot of the list response; Order is nil when the
// stored record could not be decoded.
type WorkOrderListItem struct {
	Order  *WorkOrderResponse   `json:"order"`
	Issues []FieldIssueResponse `json:"issues,omitempty"`
	Error  string               `json:"error,omitempty"`
}
