package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/model"
	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/service"
)

// BookingHandler serves /v1/bookings and the per-booking ledger and
// invoice reads hanging off it.
type BookingHandler struct {
	Bookings *service.BookingService
	Ledger   *service.LedgerService
	Invoices *service.InvoiceService
	Log      *slog.Logger
}

// NewBookingHandler panics if any service is nil.
func NewBookingHandler(bookings *service.BookingService, ledger *service.LedgerService, invoices *service.InvoiceService, log *slog.Logger) *BookingHandler {
	if bookings == nil || ledger == nil || invoices == nil {
		panic("nil service passed to NewBookingHandler")
	}
	if log == nil {
		log = slog.Default()
	}
	return &BookingHandler{Bookings: bookings, Ledger: ledger, Invoices: invoices, Log: log}
}

type createBookingRequest struct {
	ServiceID       *uint64  `json:"serviceId"`
	PackageID       *uint64  `json:"packageId"`
	EventType       string   `json:"eventType" validate:"max=100"`
	EventDate       string   `json:"eventDate"`
	EventDates      []string `json:"eventDates" validate:"max=31"`
	Location        string   `json:"location" validate:"max=255"`
	GuestCount      int      `json:"guestCount" validate:"gte=0"`
	SpecialRequests string   `json:"specialRequests" validate:"max=2000"`
	Notes           string   `json:"notes" validate:"max=2000"`
	CustomerID      uint64   `json:"customerId"`
}

// dates merges eventDate and eventDates.
func (r createBookingRequest) dates() ([]time.Time, error) {
	raw := r.EventDates
	if r.EventDate != "" {
		raw = append([]string{r.EventDate}, raw...)
	}
	out := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		t, err := parseTime(s)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Create handles POST /v1/bookings.
func (h *BookingHandler) Create(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return unauthorized(c)
	}
	var body createBookingRequest
	if msg := bind(c, &body); msg != "" {
		return badRequest(c, "%s", msg)
	}
	dates, err := body.dates()
	if err != nil {
		return badRequest(c, "%s", err.Error())
	}
	requests := body.SpecialRequests
	if notes := strings.TrimSpace(body.Notes); notes != "" {
		requests = strings.TrimSpace(requests + "\n" + notes)
	}
	b, err := h.Bookings.CreateBooking(c.Request().Context(), actor, service.CreateBookingInput{
		CustomerID:      body.CustomerID,
		ServiceID:       body.ServiceID,
		PackageID:       body.PackageID,
		EventType:       body.EventType,
		EventDates:      dates,
		Location:        body.Location,
		GuestCount:      body.GuestCount,
		SpecialRequests: requests,
	})
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// List handles GET /v1/bookings?status=&customerId=&from=&to=&limit=&offset=.
func (h *BookingHandler) List(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return unauthorized(c)
	}
	f := model.BookingFilter{Status: model.BookingStatus(c.QueryParam("status"))}
	if f.Status != "" && !f.Status.Valid() {
		return badRequest(c, "unknown status %q", f.Status)
	}
	if raw := c.QueryParam("customerId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return badRequest(c, "customerId must be a positive integer")
		}
		f.CustomerID = id
	}
	if f.From, err = optionalTime(c, "from"); err != nil {
		return badRequest(c, "%s", err.Error())
	}
	if f.To, err = optionalTime(c, "to"); err != nil {
		return badRequest(c, "%s", err.Error())
	}
	if f.Limit, err = queryInt(c, "limit"); err != nil {
		return badRequest(c, "%s", err.Error())
	}
	if f.Offset, err = queryInt(c, "offset"); err != nil {
		return badRequest(c, "%s", err.Error())
	}

	seq, err := h.Bookings.ListBookings(c.Request().Context(), actor, f)
	if err != nil {
		return fail(c, h.Log, err)
	}
	out := []model.Booking{}
	for b, err := range seq {
		if err != nil {
			return fail(c, h.Log, err)
		}
		out = append(out, b)
	}
	return c.JSON(http.StatusOK, list(out))
}

// Get handles GET /v1/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	b, err := h.Bookings.GetBooking(c.Request().Context(), actor, id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateStatus handles PATCH /v1/bookings/:id/status.
func (h *BookingHandler) UpdateStatus(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	var body statusRequest
	if msg := bind(c, &body); msg != "" {
		return badRequest(c, "%s", msg)
	}
	b, err := h.Bookings.TransitionStatus(c.Request().Context(), actor, id, model.BookingStatus(body.Status))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

type assignStaffRequest struct {
	StaffID uint64 `json:"staffId" validate:"required"`
}

// AssignStaff handles PATCH /v1/bookings/:id/assign-staff.
func (h *BookingHandler) AssignStaff(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	var body assignStaffRequest
	if msg := bind(c, &body); msg != "" {
		return badRequest(c, "%s", msg)
	}
	b, err := h.Bookings.AssignStaff(c.Request().Context(), actor, id, body.StaffID)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

// UnassignStaff handles DELETE /v1/bookings/:id/assign-staff/:staffId.
func (h *BookingHandler) UnassignStaff(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	staffID, ok := parseID(c, "staffId")
	if !ok {
		return badRequest(c, "invalid staff id")
	}
	b, err := h.Bookings.UnassignStaff(c.Request().Context(), actor, id, staffID)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

type quoteRequest struct {
	QuotedPrice   *int64  `json:"quotedPrice" validate:"required,gte=0"`
	InternalNotes *string `json:"internalNotes" validate:"omitempty,max=2000"`
}

// UpdateQuote handles PATCH /v1/bookings/:id/quote.
func (h *BookingHandler) UpdateQuote(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	var body quoteRequest
	if msg := bind(c, &body); msg != "" {
		return badRequest(c, "%s", msg)
	}
	b, err := h.Bookings.UpdateQuote(c.Request().Context(), actor, id, *body.QuotedPrice, body.InternalNotes)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

// PaymentSummary handles GET /v1/bookings/:id/payment-summary.
func (h *BookingHandler) PaymentSummary(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	s, err := h.Ledger.GetBookingPaymentSummary(c.Request().Context(), actor, id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, s)
}

// ListPayments handles GET /v1/bookings/:id/payments.
func (h *BookingHandler) ListPayments(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	ps, err := h.Ledger.ListPayments(c.Request().Context(), actor, id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list(ps))
}

// ListInvoices handles GET /v1/bookings/:id/invoices.
func (h *BookingHandler) ListInvoices(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	invs, err := h.Invoices.ListInvoices(c.Request().Context(), actor, id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list(invs))
}

// SyncInvoices handles POST /v1/bookings/:id/invoices/sync.
func (h *BookingHandler) SyncInvoices(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	invs, err := h.Invoices.SyncBookingInvoices(c.Request().Context(), actor, id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list(invs))
}
