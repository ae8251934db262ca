// Package service implements the booking lifecycle, the payment ledger,
// invoice generation, staff scheduling and the catalog on top of storage
// ports. Every exported operation takes the calling model.Actor and runs
// RequireRole once before touching storage.
package service

import (
	"context"
	"iter"
	"log/slog"

	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/model"
	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/queue"
)

// Storage ports return repository.ErrNotFound, ErrDuplicate and ErrStale
// for the outcomes services care about.

type CatalogStore interface {
	CreateService(ctx context.Context, s *model.Service) error
	UpdateService(ctx context.Context, s *model.Service) error
	GetService(ctx context.Context, id uint64) (*model.Service, error)
	ListServices(ctx context.Context, activeOnly bool) ([]model.Service, error)
	CreatePackage(ctx context.Context, p *model.Package) error
	UpdatePackage(ctx context.Context, p *model.Package) error
	GetPackage(ctx context.Context, id uint64) (*model.Package, error)
	ListPackages(ctx context.Context, activeOnly bool) ([]model.Package, error)
}

type BookingStore interface {
	CreateBooking(ctx context.Context, b *model.Booking) error
	GetBooking(ctx context.Context, id uint64) (*model.Booking, error)
	// ListBookings yields matching bookings ordered by creation time, then id.
	ListBookings(ctx context.Context, f model.BookingFilter) iter.Seq2[model.Booking, error]
	// UpdateBookingStatus moves the booking from -> to only if it is still
	// in from, returning ErrStale otherwise. Moving to Cancelled removes the
	// booking's schedule entries in the same unit of work.
	UpdateBookingStatus(ctx context.Context, id uint64, from, to model.BookingStatus) (*model.Booking, error)
}

type LedgerStore interface {
	// WithLedger runs fn with the booking's ledger held exclusively, then
	// applies the returned change before releasing it. An error from fn
	// aborts without writing.
	WithLedger(ctx context.Context, bookingID uint64, fn func(b *model.Booking, payments []model.Payment) (*model.LedgerChange, error)) error
	GetPayment(ctx context.Context, id uint64) (*model.Payment, error)
	ListPayments(ctx context.Context, bookingID uint64) ([]model.Payment, error)
}

type InvoiceStore interface {
	// CreateInvoice inserts inv. For final invoices every earlier final of
	// the same booking is marked superseded by the new one atomically.
	CreateInvoice(ctx context.Context, inv *model.Invoice) error
	GetInvoice(ctx context.Context, id uint64) (*model.Invoice, error)
	ListInvoices(ctx context.Context, bookingID uint64) ([]model.Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, id uint64, status model.SettlementStatus) error
}

type ScheduleStore interface {
	// WithStaffSchedule serializes schedule writes per staff member so the
	// conflict check and the insert cannot interleave. Unknown staff ids
	// yield ErrNotFound.
	WithStaffSchedule(ctx context.Context, staffID uint64, fn func(existing []model.Schedule) (*model.ScheduleChange, error)) error
	GetSchedule(ctx context.Context, id uint64) (*model.Schedule, error)
	ListSchedules(ctx context.Context, f model.ScheduleFilter) ([]model.Schedule, error)
	DeleteSchedule(ctx context.Context, id uint64) error
}

type UserStore interface {
	GetUser(ctx context.Context, id uint64) (*model.User, error)
}

// EventPublisher emits domain events after commits. Failures are logged
// by the caller and never fail the operation.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, queue.Event) error { return nil }

func publish(ctx context.Context, pub EventPublisher, log *slog.Logger, ev queue.Event) {
	if err := pub.Publish(ctx, ev); err != nil {
		log.Warn("event publish failed", slog.String("type", ev.Type), slog.Uint64("booking_id", ev.BookingID), slog.Any("error", err))
	}
}
