package service

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/model"
	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/queue"
	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/repository"
)

// BookingService creates bookings and drives them through the status
// graph. Staff assignment is delegated to the ScheduleService.
type BookingService struct {
	bookings BookingStore
	catalog  CatalogStore
	ledger   LedgerStore
	schedule *ScheduleService
	pub      EventPublisher
	log      *slog.Logger
	now      func() time.Time
}

func NewBookingService(bookings BookingStore, catalog CatalogStore, ledger LedgerStore, schedule *ScheduleService, pub EventPublisher, log *slog.Logger) *BookingService {
	if bookings == nil || catalog == nil || ledger == nil || schedule == nil {
		panic("nil dependency passed to NewBookingService")
	}
	if pub == nil {
		pub = nopPublisher{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &BookingService{
		bookings: bookings,
		catalog:  catalog,
		ledger:   ledger,
		schedule: schedule,
		pub:      pub,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type CreateBookingInput struct {
	CustomerID      uint64 // ignored for user actors
	ServiceID       *uint64
	PackageID       *uint64
	EventType       string
	EventDates      []time.Time
	Location        string
	GuestCount      int
	SpecialRequests string
}

// CreateBooking validates the catalog reference and dates and stores an
// Inquiry booking whose price, name and duration are copied from the
// catalog item as it is now.
func (bs *BookingService) CreateBooking(ctx context.Context, actor model.Actor, in CreateBookingInput) (*model.Booking, error) {
	if err := RequireRole(actor, anyRole...); err != nil {
		return nil, err
	}
	customerID := actor.UserID
	if actor.Privileged() && in.CustomerID != 0 {
		customerID = in.CustomerID
	} else if in.CustomerID != 0 && in.CustomerID != actor.UserID {
		return nil, errForbidden("customers may only book for themselves")
	}
	if (in.ServiceID == nil) == (in.PackageID == nil) {
		return nil, errValidation("exactly one of serviceId and packageId is required")
	}
	if in.GuestCount < 0 {
		return nil, errValidation("guestCount must not be negative")
	}
	dates, err := bs.normalizeDates(in.EventDates)
	if err != nil {
		return nil, err
	}
	item, err := bs.catalogItem(ctx, in.ServiceID, in.PackageID)
	if err != nil {
		return nil, err
	}
	if !item.IsActive {
		return nil, errValidation("%s is not available for booking", item.Name)
	}

	b := &model.Booking{
		CustomerID:      customerID,
		ServiceID:       in.ServiceID,
		PackageID:       in.PackageID,
		ItemName:        item.Name,
		EventType:       strings.TrimSpace(in.EventType),
		EventDates:      dates,
		Location:        strings.TrimSpace(in.Location),
		GuestCount:      in.GuestCount,
		SpecialRequests: in.SpecialRequests,
		Status:          model.StatusInquiry,
		QuotedPrice:     item.Price,
		DurationMinutes: item.DurationMinutes,
	}
	if err := bs.bookings.CreateBooking(ctx, b); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	bs.log.Info("booking created", slog.Uint64("booking_id", b.ID), slog.Uint64("customer_id", b.CustomerID), slog.Int64("quoted_price", b.QuotedPrice))
	publish(ctx, bs.pub, bs.log, queue.Event{Type: queue.BookingCreated, BookingID: b.ID, ActorID: actor.UserID, Status: string(b.Status), Amount: b.QuotedPrice})
	return b, nil
}

// normalizeDates rejects empty lists and days before today (UTC), then
// returns the dates deduplicated and sorted.
func (bs *BookingService) normalizeDates(in []time.Time) ([]time.Time, error) {
	if len(in) == 0 {
		return nil, errValidation("at least one event date is required")
	}
	now := bs.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, 0, len(in))
	for _, d := range in {
		if d.IsZero() {
			return nil, errValidation("event date is required")
		}
		d = d.UTC()
		if d.Before(today) {
			return nil, errValidation("event date %s is in the past", d.Format(time.DateOnly))
		}
		if !slices.ContainsFunc(out, d.Equal) {
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b time.Time) int { return a.Compare(b) })
	return out, nil
}

func (bs *BookingService) catalogItem(ctx context.Context, serviceID, packageID *uint64) (model.CatalogItem, error) {
	if serviceID != nil {
		s, err := bs.catalog.GetService(ctx, *serviceID)
		if err != nil {
			return model.CatalogItem{}, translate(err, "service", *serviceID)
		}
		return s.Item(), nil
	}
	p, err := bs.catalog.GetPackage(ctx, *packageID)
	if err != nil {
		return model.CatalogItem{}, translate(err, "package", *packageID)
	}
	return p.Item(), nil
}

// GetBooking returns a booking the actor may see.
func (bs *BookingService) GetBooking(ctx context.Context, actor model.Actor, id uint64) (*model.Booking, error) {
	if err := RequireRole(actor, anyRole...); err != nil {
		return nil, err
	}
	b, err := bs.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSee(actor, b.CustomerID) {
		return nil, errForbidden("booking %d belongs to another customer", id)
	}
	return b, nil
}

// ListBookings yields bookings in creation order. Users only ever see
// their own bookings, whatever the filter says.
func (bs *BookingService) ListBookings(ctx context.Context, actor model.Actor, f model.BookingFilter) (iter.Seq2[model.Booking, error], error) {
	if err := RequireRole(actor, anyRole...); err != nil {
		return nil, err
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, errValidation("unknown status %q", f.Status)
	}
	if f.Limit < 0 || f.Offset < 0 {
		return nil, errValidation("limit and offset must not be negative")
	}
	if !actor.Privileged() {
		f.CustomerID = actor.UserID
	}
	return bs.bookings.ListBookings(ctx, f), nil
}

// TransitionStatus moves a booking along the status graph. Users may
// only cancel their own bookings while they are Inquiry or Quoted.
// Cancelling frees the booking's staff schedule; payments and invoices
// stay untouched.
func (bs *BookingService) TransitionStatus(ctx context.Context, actor model.Actor, id uint64, to model.BookingStatus) (*model.Booking, error) {
	if err := RequireRole(actor, anyRole...); err != nil {
		return nil, err
	}
	if !to.Valid() {
		return nil, errValidation("unknown status %q", to)
	}
	b, err := bs.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == model.RoleUser {
		if b.CustomerID != actor.UserID {
			return nil, errForbidden("booking %d belongs to another customer", id)
		}
		if to != model.StatusCancelled {
			return nil, errForbidden("customers may only cancel bookings")
		}
		if b.Status != model.StatusInquiry && b.Status != model.StatusQuoted {
			return nil, errForbidden("customers may only cancel pending bookings")
		}
	}
	if !b.Status.CanTransitionTo(to) {
		return nil, newError(KindInvalidTransition, "cannot move booking from %s to %s", b.Status, to)
	}

	updated, err := bs.bookings.UpdateBookingStatus(ctx, id, b.Status, to)
	if err != nil {
		if errors.Is(err, repository.ErrStale) {
			return nil, newError(KindInvalidTransition, "booking %d changed status concurrently", id)
		}
		return nil, translate(err, "booking", id)
	}
	bs.log.Info("booking status changed",
		slog.Uint64("booking_id", id), slog.String("from", string(b.Status)), slog.String("to", string(to)), slog.Uint64("actor_id", actor.UserID))
	publish(ctx, bs.pub, bs.log, queue.Event{Type: queue.BookingStatusChanged, BookingID: id, ActorID: actor.UserID, Status: string(to), Reference: string(b.Status)})
	return updated, nil
}

// AssignStaff schedules staffID on every event date of a Confirmed or
// In Progress booking. Overlap with the staff member's other blocking
// entries is a conflict; repeating the same assignment changes nothing.
func (bs *BookingService) AssignStaff(ctx context.Context, actor model.Actor, id, staffID uint64) (*model.Booking, error) {
	if err := RequireRole(actor, privileged...); err != nil {
		return nil, err
	}
	b, err := bs.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status != model.StatusConfirmed && b.Status != model.StatusInProgress {
		return nil, errInvalidState("staff can only be assigned to confirmed or in-progress bookings, booking %d is %s", id, b.Status)
	}
	created, err := bs.schedule.assign(ctx, b, staffID)
	if err != nil {
		return nil, err
	}
	if created > 0 {
		bs.log.Info("staff assigned", slog.Uint64("booking_id", id), slog.Uint64("staff_id", staffID), slog.Int("entries", created))
		publish(ctx, bs.pub, bs.log, queue.Event{Type: queue.StaffAssigned, BookingID: id, StaffID: staffID, ActorID: actor.UserID})
	}
	return bs.load(ctx, id)
}

// UnassignStaff removes staffID's schedule entries for the booking.
func (bs *BookingService) UnassignStaff(ctx context.Context, actor model.Actor, id, staffID uint64) (*model.Booking, error) {
	if err := RequireRole(actor, privileged...); err != nil {
		return nil, err
	}
	b, err := bs.load(ctx, id)
	if err != nil {
		return nil, err
	}
	removed, err := bs.schedule.unassign(ctx, b, staffID)
	if err != nil {
		return nil, err
	}
	if removed > 0 {
		publish(ctx, bs.pub, bs.log, queue.Event{Type: queue.StaffUnassigned, BookingID: id, StaffID: staffID, ActorID: actor.UserID})
	}
	return bs.load(ctx, id)
}

// UpdateQuote sets a custom quoted price. It runs under the ledger lock
// so it cannot race a first payment; once any payment exists the price
// is frozen.
func (bs *BookingService) UpdateQuote(ctx context.Context, actor model.Actor, id uint64, price int64, notes *string) (*model.Booking, error) {
	if err := RequireRole(actor, privileged...); err != nil {
		return nil, err
	}
	if price <= 0 {
		return nil, errValidation("quotedPrice must be positive")
	}
	err := bs.ledger.WithLedger(ctx, id, func(b *model.Booking, payments []model.Payment) (*model.LedgerChange, error) {
		if b.Status.Terminal() {
			return nil, errInvalidState("booking %d is %s", id, b.Status)
		}
		if len(payments) > 0 {
			return nil, errInvalidState("quoted price of booking %d is frozen once payments exist", id)
		}
		return &model.LedgerChange{QuotedPrice: &price, InternalNotes: notes}, nil
	})
	if err != nil {
		return nil, translate(err, "booking", id)
	}
	bs.log.Info("booking quote updated", slog.Uint64("booking_id", id), slog.Int64("quoted_price", price), slog.Uint64("actor_id", actor.UserID))
	return bs.load(ctx, id)
}

func (bs *BookingService) load(ctx context.Context, id uint64) (*model.Booking, error) {
	b, err := bs.bookings.GetBooking(ctx, id)
	if err != nil {
		return nil, translate(err, "booking", id)
	}
	return b, nil
}
