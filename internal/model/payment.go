package model

import "time"

type PaymentType string

const (
	PaymentAdvance PaymentType = "advance"
	PaymentBalance PaymentType = "balance"
	PaymentFull    PaymentType = "full"
)

func (t PaymentType) Valid() bool {
	return t == PaymentAdvance || t == PaymentBalance || t == PaymentFull
}

type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodCard         PaymentMethod = "card"
	MethodBankTransfer PaymentMethod = "bank-transfer"
	MethodUPI          PaymentMethod = "upi"
	MethodOnline       PaymentMethod = "online"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodCard, MethodBankTransfer, MethodUPI, MethodOnline:
		return true
	}
	return false
}

// PaymentStatus is the state of a single transaction. Only completed
// payments count toward the booking's paid amount.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPartial   PaymentStatus = "partial"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPartial, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// Payment is one monetary transaction against a booking. Rows are never
// deleted; refunds and failures are status changes.
type Payment struct {
	ID            uint64        `json:"id"`            // payments.id
	BookingID     uint64        `json:"bookingId"`     // payments.booking_id
	PayerID       uint64        `json:"payerId"`       // payments.payer_id
	Amount        int64         `json:"amount"`        // payments.amount (minor units, > 0)
	Type          PaymentType   `json:"type"`          // payments.type
	Method        PaymentMethod `json:"method"`        // payments.method
	Status        PaymentStatus `json:"status"`        // payments.status
	TransactionID string        `json:"transactionId"` // payments.transaction_id, unique per booking
	CreatedAt     time.Time     `json:"createdAt"`     // payments.created_at
	UpdatedAt     time.Time     `json:"updatedAt"`     // payments.updated_at
}

// SettlementStatus is the derived payment state of a booking, also used
// as the invoice status.
type SettlementStatus string

const (
	SettlementPending SettlementStatus = "pending"
	SettlementPartial SettlementStatus = "partial"
	SettlementPaid    SettlementStatus = "paid"
)

// PaymentSummary aggregates a booking's ledger.
type PaymentSummary struct {
	Quoted       int64            `json:"quoted"`
	CompletedSum int64            `json:"completedSum"`
	PendingSum   int64            `json:"pendingSum"`
	Status       SettlementStatus `json:"status"`
}

// Summarize derives the payment summary from the quoted price and the
// booking's payments: paid iff completed == quoted, partial iff strictly
// between zero and quoted, pending otherwise.
func Summarize(quoted int64, payments []Payment) PaymentSummary {
	s := PaymentSummary{Quoted: quoted}
	for _, p := range payments {
		switch p.Status {
		case PaymentCompleted:
			s.CompletedSum += p.Amount
		case PaymentPending, PaymentPartial:
			s.PendingSum += p.Amount
		}
	}
	switch {
	case s.CompletedSum == quoted:
		s.Status = SettlementPaid
	case s.CompletedSum > 0 && s.CompletedSum < quoted:
		s.Status = SettlementPartial
	default:
		s.Status = SettlementPending
	}
	return s
}

// LedgerChange is what a ledger callback asks the store to apply while
// the booking is still locked. Nil fields are left alone.
type LedgerChange struct {
	Insert        *Payment // new payment; the store fills ID and timestamps
	Update        *Payment // existing payment whose Status is rewritten
	QuotedPrice   *int64
	InternalNotes *string
	// InvoiceStatus, when set, is written to every invoice of the booking
	// in the same unit of work as the payment change.
	InvoiceStatus *SettlementStatus
}
