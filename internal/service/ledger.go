package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/model"
	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/queue"
	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/repository"
)

// LedgerService records payments against bookings and derives each
// booking's payment status. Every write runs the read-validate-write
// sequence inside LedgerStore.WithLedger, so completed payments can
// never sum past the quoted price.
type LedgerService struct {
	ledger   LedgerStore
	bookings BookingStore
	pub      EventPublisher
	log      *slog.Logger
	newTxID  func() string
}

func NewLedgerService(ledger LedgerStore, bookings BookingStore, pub EventPublisher, log *slog.Logger) *LedgerService {
	if ledger == nil || bookings == nil {
		panic("nil dependency passed to NewLedgerService")
	}
	if pub == nil {
		pub = nopPublisher{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &LedgerService{
		ledger:   ledger,
		bookings: bookings,
		pub:      pub,
		log:      log,
		newTxID:  uuid.NewString,
	}
}

type PaymentInput struct {
	BookingID     uint64
	Amount        int64
	Method        model.PaymentMethod
	Type          model.PaymentType
	TransactionID string
	Status        model.PaymentStatus // pending when empty; staff may record completed
}

func (in PaymentInput) validate(actor model.Actor) error {
	if in.BookingID == 0 {
		return errValidation("bookingId is required")
	}
	if in.Amount <= 0 {
		return errValidation("amount must be positive")
	}
	if !in.Method.Valid() {
		return errValidation("unknown payment method %q", in.Method)
	}
	if !in.Type.Valid() {
		return errValidation("unknown payment type %q", in.Type)
	}
	switch in.Status {
	case model.PaymentPending:
	case model.PaymentCompleted:
		if !actor.Privileged() {
			return errForbidden("customers may only record pending payments")
		}
	default:
		return errValidation("payments are recorded as pending or completed, not %q", in.Status)
	}
	return nil
}

// RecordPayment appends a payment to the booking's ledger. A repeated
// transaction id on the same booking is rejected, as is any amount that
// would take completed payments past the quoted price.
func (ls *LedgerService) RecordPayment(ctx context.Context, actor model.Actor, in PaymentInput) (*model.Payment, error) {
	if err := RequireRole(actor, anyRole...); err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = model.PaymentPending
	}
	if err := in.validate(actor); err != nil {
		return nil, err
	}
	in.TransactionID = strings.TrimSpace(in.TransactionID)
	if in.TransactionID == "" {
		in.TransactionID = ls.newTxID()
	}

	var created *model.Payment
	err := ls.ledger.WithLedger(ctx, in.BookingID, func(b *model.Booking, payments []model.Payment) (*model.LedgerChange, error) {
		if !canSee(actor, b.CustomerID) {
			return nil, errForbidden("booking %d belongs to another customer", b.ID)
		}
		if b.Status == model.StatusInquiry || b.Status == model.StatusCancelled {
			return nil, errInvalidState("booking %d does not accept payments while %s", b.ID, b.Status)
		}
		for _, p := range payments {
			if p.TransactionID == in.TransactionID {
				return nil, duplicateTransaction(b.ID, in.TransactionID)
			}
		}
		if err := checkOverpayment(b, payments, in.Amount); err != nil {
			return nil, err
		}
		created = &model.Payment{
			BookingID:     b.ID,
			PayerID:       actor.UserID,
			Amount:        in.Amount,
			Type:          in.Type,
			Method:        in.Method,
			Status:        in.Status,
			TransactionID: in.TransactionID,
		}
		change := &model.LedgerChange{Insert: created}
		if created.Status == model.PaymentCompleted {
			change.InvoiceStatus = settlement(b, append(payments[:len(payments):len(payments)], *created))
		}
		return change, nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, duplicateTransaction(in.BookingID, in.TransactionID)
		}
		return nil, translate(err, "booking", in.BookingID)
	}

	ls.log.Info("payment recorded",
		slog.Uint64("payment_id", created.ID), slog.Uint64("booking_id", created.BookingID), slog.Int64("amount", created.Amount), slog.String("status", string(created.Status)))
	publish(ctx, ls.pub, ls.log, queue.Event{Type: queue.PaymentRecorded, BookingID: created.BookingID, PaymentID: created.ID, ActorID: actor.UserID, Status: string(created.Status), Amount: created.Amount, Reference: created.TransactionID})
	return created, nil
}

// MarkPaymentStatus lets an admin move a payment to any other status,
// except completed back to pending. Completing a payment re-checks the
// overpayment rule under the ledger lock.
func (ls *LedgerService) MarkPaymentStatus(ctx context.Context, actor model.Actor, paymentID uint64, to model.PaymentStatus) (*model.Payment, error) {
	if err := RequireRole(actor, model.RoleAdmin); err != nil {
		return nil, err
	}
	if !to.Valid() {
		return nil, errValidation("unknown payment status %q", to)
	}
	p, err := ls.ledger.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, translate(err, "payment", paymentID)
	}

	var (
		updated model.Payment
		from    model.PaymentStatus
	)
	err = ls.ledger.WithLedger(ctx, p.BookingID, func(b *model.Booking, payments []model.Payment) (*model.LedgerChange, error) {
		idx := -1
		for i := range payments {
			if payments[i].ID == paymentID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, errNotFound("payment", paymentID)
		}
		cur := payments[idx]
		from = cur.Status
		updated = cur
		if cur.Status == to {
			return nil, nil
		}
		if cur.Status == model.PaymentCompleted && to == model.PaymentPending {
			return nil, newError(KindInvalidTransition, "a completed payment cannot return to pending; mark it refunded or failed")
		}
		if to == model.PaymentCompleted {
			others := append(payments[:idx:idx], payments[idx+1:]...)
			if err := checkOverpayment(b, others, cur.Amount); err != nil {
				return nil, err
			}
		}
		updated.Status = to
		change := &model.LedgerChange{Update: &updated}
		if cur.Status == model.PaymentCompleted || to == model.PaymentCompleted {
			after := append([]model.Payment(nil), payments...)
			after[idx] = updated
			change.InvoiceStatus = settlement(b, after)
		}
		return change, nil
	})
	if err != nil {
		return nil, translate(err, "payment", paymentID)
	}
	if from == to {
		return &updated, nil
	}

	ls.log.Info("payment status changed",
		slog.Uint64("payment_id", paymentID), slog.String("from", string(from)), slog.String("to", string(to)), slog.Uint64("actor_id", actor.UserID))
	publish(ctx, ls.pub, ls.log, queue.Event{Type: queue.PaymentStatusChanged, BookingID: updated.BookingID, PaymentID: paymentID, ActorID: actor.UserID, Status: string(to), Amount: updated.Amount, Reference: string(from)})
	return &updated, nil
}

// GetBookingPaymentSummary is a pure read of the booking's ledger.
func (ls *LedgerService) GetBookingPaymentSummary(ctx context.Context, actor model.Actor, bookingID uint64) (model.PaymentSummary, error) {
	b, payments, err := ls.read(ctx, actor, bookingID)
	if err != nil {
		return model.PaymentSummary{}, err
	}
	return model.Summarize(b.QuotedPrice, payments), nil
}

func (ls *LedgerService) ListPayments(ctx context.Context, actor model.Actor, bookingID uint64) ([]model.Payment, error) {
	_, payments, err := ls.read(ctx, actor, bookingID)
	return payments, err
}

func (ls *LedgerService) read(ctx context.Context, actor model.Actor, bookingID uint64) (*model.Booking, []model.Payment, error) {
	if err := RequireRole(actor, anyRole...); err != nil {
		return nil, nil, err
	}
	b, err := ls.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, nil, translate(err, "booking", bookingID)
	}
	if !canSee(actor, b.CustomerID) {
		return nil, nil, errForbidden("booking %d belongs to another customer", bookingID)
	}
	payments, err := ls.ledger.ListPayments(ctx, bookingID)
	if err != nil {
		return nil, nil, fmt.Errorf("list payments: %w", err)
	}
	return b, payments, nil
}

// settlement is the status the booking's invoices take once payments
// are committed. It is written in the ledger's unit of work so that two
// completions of one booking cannot leave invoices on the older status.
func settlement(b *model.Booking, payments []model.Payment) *model.SettlementStatus {
	st := model.Summarize(b.QuotedPrice, payments).Status
	return &st
}

// checkOverpayment compares against the remaining balance rather than
// adding amount to the completed sum, which could overflow.
func checkOverpayment(b *model.Booking, payments []model.Payment, amount int64) error {
	sum := model.Summarize(b.QuotedPrice, payments)
	if amount > b.QuotedPrice-sum.CompletedSum {
		return newError(KindOverpayment, "payment of %d would exceed quoted price %d of booking %d (already completed %d)",
			amount, b.QuotedPrice, b.ID, sum.CompletedSum)
	}
	return nil
}

func duplicateTransaction(bookingID uint64, txID string) error {
	return newError(KindDuplicateTransaction, "transaction %q is already recorded for booking %d", txID, bookingID)
}
