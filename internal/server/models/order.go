package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// OrderStatus is the purchase-order state. Pending transitions exactly once
// to Approved or Rejected; both are terminal.
type OrderStatus string

const (
	StatusPending  OrderStatus = "pending"
	StatusApproved OrderStatus = "approved"
	StatusRejected OrderStatus = "rejected"
)

// Terminal reports whether no further review is allowed.
func (s OrderStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// PurchaseOrder is the persisted order record. SummaryEnvelope holds the
// human-readable rendering, DetailEnvelope the structured payload; both are
// serialized cryptox envelopes and are only ever replaced whole, during a
// state transition. PurchaserID is set if and only if Status is Approved.
type PurchaseOrder struct {
	ID              string
	Number          int64
	SenderID        string
	SupervisorID    string
	PurchaserID     *string
	SummaryEnvelope []byte
	DetailEnvelope  []byte
	Status          OrderStatus
	SentAt          time.Time
	ReviewedAt      *time.Time
}

// LineItem is one position of an order.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// OrderDetails is the plaintext order content as entered by the sender.
// It renders into the two representations that get signed and encrypted.
type OrderDetails struct {
	Supplier string     `json:"supplier"`
	Items    []LineItem `json:"items"`
	Note     string     `json:"note,omitempty"`
}

// Validate checks an order for the minimum a supervisor needs to review it.
func (d *OrderDetails) Validate() error {
	if d.Supplier == "" {
		return fmt.Errorf("order requires a supplier")
	}
	if len(d.Items) == 0 {
		return fmt.Errorf("order requires at least one line item")
	}
	for i, item := range d.Items {
		if item.Description == "" {
			return fmt.Errorf("line item %d requires a description", i+1)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("line item %d requires a positive quantity", i+1)
		}
		if item.UnitPrice < 0 {
			return fmt.Errorf("line item %d has a negative unit price", i+1)
		}
	}
	return nil
}

// Total returns the order total across all line items.
func (d *OrderDetails) Total() float64 {
	var total float64
	for _, item := range d.Items {
		total += float64(item.Quantity) * item.UnitPrice
	}
	return total
}

// RenderSummary produces the human-readable representation of the order.
func (d *OrderDetails) RenderSummary() []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "Purchase order for %s\n", d.Supplier)
	for _, item := range d.Items {
		fmt.Fprintf(&b, "  %d x %s @ %.2f\n", item.Quantity, item.Description, item.UnitPrice)
	}
	fmt.Fprintf(&b, "Total: %.2f\n", d.Total())
	if d.Note != "" {
		fmt.Fprintf(&b, "Note: %s\n", d.Note)
	}
	return []byte(b.String())
}

// RenderDetail produces the structured, machine-parseable representation.
func (d *OrderDetails) RenderDetail() ([]byte, error) {
	return json.Marshal(d)
}

// ParseOrderDetails decodes the structured representation back into details.
func ParseOrderDetails(data []byte) (*OrderDetails, error) {
	d := &OrderDetails{}
	if err := json.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("parse order details: %w", err)
	}
	return d, nil
}
