package model

import "time"

type InvoiceType string

const (
	InvoiceQuotation InvoiceType = "quotation"
	InvoiceProforma  InvoiceType = "proforma"
	InvoiceFinal     InvoiceType = "final"
)

// NumberPrefix is the leading segment of invoice numbers of this type.
func (t InvoiceType) NumberPrefix() string {
	switch t {
	case InvoiceQuotation:
		return "QUO"
	case InvoiceProforma:
		return "PRO"
	default:
		return "INV"
	}
}

// LineItem is one invoice row. LineTotal is always Quantity*UnitPrice.
type LineItem struct {
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   int64  `json:"unitPrice"`
	LineTotal   int64  `json:"lineTotal"`
}

// Invoice is a snapshot document derived from a booking. Final invoices
// never change items or totals; only Status and SupersededBy move.
type Invoice struct {
	ID             uint64           `json:"id"`                     // invoices.id
	BookingID      uint64           `json:"bookingId"`              // invoices.booking_id
	InvoiceNumber  string           `json:"invoiceNumber"`          // invoices.invoice_number (unique)
	Type           InvoiceType      `json:"type"`                   // invoices.type
	Items          []LineItem       `json:"items"`                  // invoices.items (JSON)
	TaxRate        float64          `json:"taxRate"`                // invoices.tax_rate (percent)
	Subtotal       int64            `json:"subtotal"`               // invoices.subtotal
	TaxAmount      int64            `json:"taxAmount"`              // invoices.tax_amount
	TotalAmount    int64            `json:"totalAmount"`            // invoices.total_amount
	FormattedTotal string           `json:"formattedTotal"`         // rendered on read
	Status         SettlementStatus `json:"status"`                 // invoices.status
	IssueDate      time.Time        `json:"issueDate"`              // invoices.issue_date
	Notes          string           `json:"notes"`                  // invoices.notes
	Terms          string           `json:"terms"`                  // invoices.terms
	SupersededBy   *uint64          `json:"supersededBy,omitempty"` // invoices.superseded_by (nullable)
	CreatedAt      time.Time        `json:"createdAt"`              // invoices.created_at
	UpdatedAt      time.Time        `json:"updatedAt"`              // invoices.updated_at
}
