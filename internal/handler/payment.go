package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/model"
	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/service"
)

// PaymentHandler serves /v1/payments.
type PaymentHandler struct {
	Ledger *service.LedgerService
	Log    *slog.Logger
}

func NewPaymentHandler(ledger *service.LedgerService, log *slog.Logger) *PaymentHandler {
	if ledger == nil {
		panic("nil service passed to NewPaymentHandler")
	}
	if log == nil {
		log = slog.Default()
	}
	return &PaymentHandler{Ledger: ledger, Log: log}
}

type recordPaymentRequest struct {
	BookingID     uint64 `json:"bookingId" validate:"required"`
	Amount        int64  `json:"amount" validate:"required,gt=0"`
	Method        string `json:"method" validate:"required"`
	Type          string `json:"type" validate:"required"`
	TransactionID string `json:"transactionId" validate:"max=100"`
	Status        string `json:"status"`
}

// Record handles POST /v1/payments. Enum values are checked by the
// ledger so unknown methods and types come back as validation errors
// with the offending value named.
func (h *PaymentHandler) Record(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return unauthorized(c)
	}
	var body recordPaymentRequest
	if msg := bind(c, &body); msg != "" {
		return badRequest(c, "%s", msg)
	}
	status := model.PaymentStatus(body.Status)
	if status == "" {
		status = model.PaymentPending
	}
	p, err := h.Ledger.RecordPayment(c.Request().Context(), actor, service.PaymentInput{
		BookingID:     body.BookingID,
		Amount:        body.Amount,
		Method:        model.PaymentMethod(body.Method),
		Type:          model.PaymentType(body.Type),
		TransactionID: body.TransactionID,
		Status:        status,
	})
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// UpdateStatus handles PATCH /v1/payments/:id/status.
func (h *PaymentHandler) UpdateStatus(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid payment id")
	}
	var body statusRequest
	if msg := bind(c, &body); msg != "" {
		return badRequest(c, "%s", msg)
	}
	p, err := h.Ledger.MarkPaymentStatus(c.Request().Context(), actor, id, model.PaymentStatus(body.Status))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, p)
}
