// Package queue defines the domain events exchanged over the message
// broker, the publisher that emits them and the consumer that records
// them.
package queue

import "time"

// Event types.
const (
	BookingCreated       = "booking.created"
	BookingStatusChanged = "booking.status_changed"
	PaymentRecorded      = "payment.recorded"
	PaymentStatusChanged = "payment.status_changed"
	InvoiceGenerated     = "invoice.generated"
	StaffAssigned        = "staff.assigned"
	StaffUnassigned      = "staff.unassigned"
)

// Event is published after a state change commits. It carries enough
// context for downstream consumers to log or notify without querying
// the primary database. Zero ids are omitted.
type Event struct {
	Type       string    `json:"type"`
	BookingID  uint64    `json:"booking_id"`
	PaymentID  uint64    `json:"payment_id,omitempty"`
	InvoiceID  uint64    `json:"invoice_id,omitempty"`
	StaffID    uint64    `json:"staff_id,omitempty"`
	ActorID    uint64    `json:"actor_id"`
	Status     string    `json:"status,omitempty"`
	Amount     int64     `json:"amount,omitempty"`
	Reference  string    `json:"reference,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
