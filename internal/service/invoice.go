package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/model"
	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/queue"
	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/repository"
)

// InvoiceService produces quotation, proforma and final invoice
// snapshots. Generating an invoice never touches the ledger. Invoice
// status follows the ledger: payment writes restamp it in the same unit
// of work, and SyncBookingInvoices recomputes it on demand.
type InvoiceService struct {
	invoices InvoiceStore
	bookings BookingStore
	ledger   LedgerStore
	pub      EventPublisher
	log      *slog.Logger
	printer  *message.Printer
	currency string
	now      func() time.Time
	suffix   func() string
}

// InvoiceOptions controls how totals are rendered.
type InvoiceOptions struct {
	Locale   string // BCP 47 tag, e.g. en-US
	Currency string // ISO 4217 code shown before amounts
}

func NewInvoiceService(invoices InvoiceStore, bookings BookingStore, ledger LedgerStore, pub EventPublisher, log *slog.Logger, opts InvoiceOptions) *InvoiceService {
	if invoices == nil || bookings == nil || ledger == nil {
		panic("nil dependency passed to NewInvoiceService")
	}
	if pub == nil {
		pub = nopPublisher{}
	}
	if log == nil {
		log = slog.Default()
	}
	tag, err := language.Parse(opts.Locale)
	if err != nil {
		tag = language.AmericanEnglish
	}
	if opts.Currency == "" {
		opts.Currency = "USD"
	}
	return &InvoiceService{
		invoices: invoices,
		bookings: bookings,
		ledger:   ledger,
		pub:      pub,
		log:      log,
		printer:  message.NewPrinter(tag),
		currency: strings.ToUpper(opts.Currency),
		now:      func() time.Time { return time.Now().UTC() },
		suffix:   func() string { return strings.ReplaceAll(uuid.NewString(), "-", "")[:8] },
	}
}

// GenerateQuotation snapshots the booking's item and quoted price into a
// new quotation. Each call yields a new document and number.
func (is *InvoiceService) GenerateQuotation(ctx context.Context, actor model.Actor, bookingID uint64, taxRate float64, notes string) (*model.Invoice, error) {
	return is.generateFromQuote(ctx, actor, model.InvoiceQuotation, bookingID, taxRate, notes)
}

// GenerateProforma is a quotation issued once the booking is Quoted or later.
func (is *InvoiceService) GenerateProforma(ctx context.Context, actor model.Actor, bookingID uint64, taxRate float64, notes string) (*model.Invoice, error) {
	return is.generateFromQuote(ctx, actor, model.InvoiceProforma, bookingID, taxRate, notes)
}

func (is *InvoiceService) generateFromQuote(ctx context.Context, actor model.Actor, typ model.InvoiceType, bookingID uint64, taxRate float64, notes string) (*model.Invoice, error) {
	if err := RequireRole(actor, privileged...); err != nil {
		return nil, err
	}
	if err := validateTaxRate(taxRate); err != nil {
		return nil, err
	}
	b, err := is.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status == model.StatusCancelled {
		return nil, errInvalidState("booking %d is cancelled", bookingID)
	}
	if typ == model.InvoiceProforma && !b.Status.AtLeast(model.StatusQuoted) {
		return nil, errInvalidState("proforma requires a quoted booking, booking %d is %s", bookingID, b.Status)
	}
	items := []model.LineItem{{Description: b.ItemName, Quantity: 1, UnitPrice: b.QuotedPrice}}
	return is.create(ctx, actor, b, typ, items, taxRate, notes, "")
}

type FinalInvoiceInput struct {
	BookingID uint64
	Items     []model.LineItem
	TaxRate   float64
	Notes     string
	Terms     string
}

// GenerateFinalInvoice issues a frozen invoice for a Confirmed (or later)
// booking. Line totals and amounts are computed here; client totals are
// ignored. Earlier finals of the booking are marked superseded.
func (is *InvoiceService) GenerateFinalInvoice(ctx context.Context, actor model.Actor, in FinalInvoiceInput) (*model.Invoice, error) {
	if err := RequireRole(actor, privileged...); err != nil {
		return nil, err
	}
	if err := validateTaxRate(in.TaxRate); err != nil {
		return nil, err
	}
	if len(in.Items) == 0 {
		return nil, errValidation("final invoice needs at least one line item")
	}
	for i, it := range in.Items {
		if strings.TrimSpace(it.Description) == "" {
			return nil, errValidation("items[%d]: description is required", i)
		}
		if it.Quantity <= 0 {
			return nil, errValidation("items[%d]: quantity must be positive", i)
		}
		if it.UnitPrice < 0 {
			return nil, errValidation("items[%d]: unitPrice must not be negative", i)
		}
	}
	b, err := is.loadBooking(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}
	if !b.Status.AtLeast(model.StatusConfirmed) {
		return nil, errInvalidState("final invoice requires a confirmed booking, booking %d is %s", b.ID, b.Status)
	}
	return is.create(ctx, actor, b, model.InvoiceFinal, in.Items, in.TaxRate, in.Notes, in.Terms)
}

func (is *InvoiceService) create(ctx context.Context, actor model.Actor, b *model.Booking, typ model.InvoiceType, items []model.LineItem, taxRate float64, notes, terms string) (*model.Invoice, error) {
	summary, err := is.summary(ctx, b)
	if err != nil {
		return nil, err
	}
	now := is.now()
	inv := &model.Invoice{
		BookingID:     b.ID,
		InvoiceNumber: fmt.Sprintf("%s-%s-%s", typ.NumberPrefix(), now.Format("20060102"), strings.ToUpper(is.suffix())),
		Type:          typ,
		TaxRate:       taxRate,
		Status:        summary.Status,
		IssueDate:     now,
		Notes:         notes,
		Terms:         terms,
	}
	inv.Items, inv.Subtotal, inv.TaxAmount, inv.TotalAmount, err = computeTotals(items, taxRate)
	if err != nil {
		return nil, err
	}
	if err := is.invoices.CreateInvoice(ctx, inv); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errConflict("invoice number %s already issued", inv.InvoiceNumber)
		}
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	is.decorate(inv)
	is.log.Info("invoice generated",
		slog.Uint64("invoice_id", inv.ID), slog.String("number", inv.InvoiceNumber), slog.String("type", string(typ)), slog.Int64("total", inv.TotalAmount))
	publish(ctx, is.pub, is.log, queue.Event{Type: queue.InvoiceGenerated, BookingID: b.ID, InvoiceID: inv.ID, ActorID: actor.UserID, Status: string(inv.Status), Amount: inv.TotalAmount, Reference: inv.InvoiceNumber})
	return inv, nil
}

// computeTotals prices each line and applies tax once on the subtotal:
// total = round(subtotal * (1 + taxRate/100)). Amounts that do not fit
// in int64 minor units are a validation error.
func computeTotals(items []model.LineItem, taxRate float64) ([]model.LineItem, int64, int64, int64, error) {
	out := make([]model.LineItem, len(items))
	var subtotal int64
	for i, it := range items {
		it.Description = strings.TrimSpace(it.Description)
		if it.UnitPrice != 0 && it.Quantity > math.MaxInt64/it.UnitPrice {
			return nil, 0, 0, 0, errValidation("items[%d]: quantity * unitPrice is too large", i)
		}
		it.LineTotal = it.Quantity * it.UnitPrice
		if it.LineTotal > math.MaxInt64-subtotal {
			return nil, 0, 0, 0, errValidation("invoice subtotal is too large")
		}
		subtotal += it.LineTotal
		out[i] = it
	}
	tax := math.Round(float64(subtotal) * taxRate / 100)
	if tax >= float64(math.MaxInt64-subtotal) {
		return nil, 0, 0, 0, errValidation("invoice total is too large")
	}
	return out, subtotal, int64(tax), subtotal + int64(tax), nil
}

func validateTaxRate(rate float64) error {
	if math.IsNaN(rate) || rate < 0 || rate > 100 {
		return errValidation("taxRate must be between 0 and 100")
	}
	return nil
}

func (is *InvoiceService) GetInvoice(ctx context.Context, actor model.Actor, id uint64) (*model.Invoice, error) {
	if err := RequireRole(actor, anyRole...); err != nil {
		return nil, err
	}
	inv, err := is.invoices.GetInvoice(ctx, id)
	if err != nil {
		return nil, translate(err, "invoice", id)
	}
	b, err := is.loadBooking(ctx, inv.BookingID)
	if err != nil {
		return nil, err
	}
	if !canSee(actor, b.CustomerID) {
		return nil, errForbidden("invoice %d belongs to another customer", id)
	}
	is.decorate(inv)
	return inv, nil
}

func (is *InvoiceService) ListInvoices(ctx context.Context, actor model.Actor, bookingID uint64) ([]model.Invoice, error) {
	if err := RequireRole(actor, anyRole...); err != nil {
		return nil, err
	}
	b, err := is.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !canSee(actor, b.CustomerID) {
		return nil, errForbidden("booking %d belongs to another customer", bookingID)
	}
	invs, err := is.invoices.ListInvoices(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	for i := range invs {
		is.decorate(&invs[i])
	}
	return invs, nil
}

// UpdateInvoiceStatus recomputes one invoice's status from its booking's
// current payment summary.
func (is *InvoiceService) UpdateInvoiceStatus(ctx context.Context, actor model.Actor, invoiceID uint64) (*model.Invoice, error) {
	if err := RequireRole(actor, privileged...); err != nil {
		return nil, err
	}
	inv, err := is.invoices.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, translate(err, "invoice", invoiceID)
	}
	b, err := is.loadBooking(ctx, inv.BookingID)
	if err != nil {
		return nil, err
	}
	summary, err := is.summary(ctx, b)
	if err != nil {
		return nil, err
	}
	if inv.Status != summary.Status {
		if err := is.invoices.UpdateInvoiceStatus(ctx, inv.ID, summary.Status); err != nil {
			return nil, translate(err, "invoice", inv.ID)
		}
		inv.Status = summary.Status
	}
	is.decorate(inv)
	return inv, nil
}

// SyncBookingInvoices applies the booking's payment status to every one
// of its invoices, superseded ones included, and returns them.
func (is *InvoiceService) SyncBookingInvoices(ctx context.Context, actor model.Actor, bookingID uint64) ([]model.Invoice, error) {
	if err := RequireRole(actor, privileged...); err != nil {
		return nil, err
	}
	b, err := is.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	summary, err := is.summary(ctx, b)
	if err != nil {
		return nil, err
	}
	invs, err := is.invoices.ListInvoices(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	for i := range invs {
		if invs[i].Status != summary.Status {
			if err := is.invoices.UpdateInvoiceStatus(ctx, invs[i].ID, summary.Status); err != nil {
				return nil, fmt.Errorf("update invoice %d: %w", invs[i].ID, err)
			}
			invs[i].Status = summary.Status
		}
		is.decorate(&invs[i])
	}
	return invs, nil
}

func (is *InvoiceService) summary(ctx context.Context, b *model.Booking) (model.PaymentSummary, error) {
	payments, err := is.ledger.ListPayments(ctx, b.ID)
	if err != nil {
		return model.PaymentSummary{}, fmt.Errorf("list payments: %w", err)
	}
	return model.Summarize(b.QuotedPrice, payments), nil
}

func (is *InvoiceService) loadBooking(ctx context.Context, id uint64) (*model.Booking, error) {
	b, err := is.bookings.GetBooking(ctx, id)
	if err != nil {
		return nil, translate(err, "booking", id)
	}
	return b, nil
}

func (is *InvoiceService) decorate(inv *model.Invoice) {
	inv.FormattedTotal = is.FormatAmount(inv.TotalAmount)
}

// FormatAmount renders minor units in the configured locale, e.g.
// "USD 1,180.00".
func (is *InvoiceService) FormatAmount(minor int64) string {
	return is.printer.Sprintf("%s %v", is.currency, number.Decimal(float64(minor)/100, number.Scale(2)))
}
