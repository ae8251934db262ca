package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/model"
	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/service"
)

// InvoiceHandler serves /v1/invoices.
type InvoiceHandler struct {
	Invoices *service.InvoiceService
	Log      *slog.Logger
}

func NewInvoiceHandler(invoices *service.InvoiceService, log *slog.Logger) *InvoiceHandler {
	if invoices == nil {
		panic("nil service passed to NewInvoiceHandler")
	}
	if log == nil {
		log = slog.Default()
	}
	return &InvoiceHandler{Invoices: invoices, Log: log}
}

type quoteInvoiceRequest struct {
	BookingID uint64  `json:"bookingId" validate:"required"`
	TaxRate   float64 `json:"taxRate" validate:"gte=0,lte=100"`
	Notes     string  `json:"notes" validate:"max=2000"`
}

type lineItemRequest struct {
	Description string `json:"description" validate:"required,max=255"`
	Quantity    int64  `json:"quantity" validate:"gt=0"`
	UnitPrice   int64  `json:"unitPrice" validate:"gte=0"`
}

type finalInvoiceRequest struct {
	BookingID uint64            `json:"bookingId" validate:"required"`
	Items     []lineItemRequest `json:"items" validate:"required,min=1,dive"`
	TaxRate   float64           `json:"taxRate" validate:"gte=0,lte=100"`
	Notes     string            `json:"notes" validate:"max=2000"`
	Terms     string            `json:"terms" validate:"max=2000"`
}

// Quotation handles POST /v1/invoices/quotation.
func (h *InvoiceHandler) Quotation(c echo.Context) error {
	return h.fromQuote(c, h.Invoices.GenerateQuotation)
}

// Proforma handles POST /v1/invoices/proforma.
func (h *InvoiceHandler) Proforma(c echo.Context) error {
	return h.fromQuote(c, h.Invoices.GenerateProforma)
}

type quoteGenerator func(ctx context.Context, actor model.Actor, bookingID uint64, taxRate float64, notes string) (*model.Invoice, error)

func (h *InvoiceHandler) fromQuote(c echo.Context, generate quoteGenerator) error {
	actor, err := getActor(c)
	if err != nil {
		return unauthorized(c)
	}
	var body quoteInvoiceRequest
	if msg := bind(c, &body); msg != "" {
		return badRequest(c, "%s", msg)
	}
	inv, err := generate(c.Request().Context(), actor, body.BookingID, body.TaxRate, body.Notes)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, inv)
}

// Final handles POST /v1/invoices/final. Line totals sent by the client
// are ignored and recomputed.
func (h *InvoiceHandler) Final(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return unauthorized(c)
	}
	var body finalInvoiceRequest
	if msg := bind(c, &body); msg != "" {
		return badRequest(c, "%s", msg)
	}
	lines := make([]model.LineItem, 0, len(body.Items))
	for _, it := range body.Items {
		lines = append(lines, model.LineItem{Description: it.Description, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	inv, err := h.Invoices.GenerateFinalInvoice(c.Request().Context(), actor, service.FinalInvoiceInput{
		BookingID: body.BookingID,
		Items:     lines,
		TaxRate:   body.TaxRate,
		Notes:     body.Notes,
		Terms:     body.Terms,
	})
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, inv)
}

// Get handles GET /v1/invoices/:id.
func (h *InvoiceHandler) Get(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid invoice id")
	}
	inv, err := h.Invoices.GetInvoice(c.Request().Context(), actor, id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, inv)
}

// RefreshStatus handles POST /v1/invoices/:id/refresh-status.
func (h *InvoiceHandler) RefreshStatus(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid invoice id")
	}
	inv, err := h.Invoices.UpdateInvoiceStatus(c.Request().Context(), actor, id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, inv)
}
