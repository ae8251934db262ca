package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/model"
	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/queue"
	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/repository/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.Event
}

func (r *recordingPublisher) Publish(_ context.Context, ev queue.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	store    *memory.Store
	pub      *recordingPublisher
	catalog  *CatalogService
	schedule *ScheduleService
	bookings *BookingService
	invoices *InvoiceService
	ledger   *LedgerService

	admin, staff, user, other model.Actor
	staff2                    model.Actor
}

var eventDay = time.Date(2031, 6, 1, 10, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	pub := &recordingPublisher{}

	f := &fixture{store: store, pub: pub}
	f.catalog = NewCatalogService(store, nil)
	f.schedule = NewScheduleService(store, store, store, nil)
	f.bookings = NewBookingService(store, store, store, f.schedule, pub, nil)
	f.invoices = NewInvoiceService(store, store, store, pub, nil, InvoiceOptions{Locale: "en-US", Currency: "usd"})
	f.ledger = NewLedgerService(store, store, pub, nil)

	mk := func(email string, role model.Role) model.Actor {
		u := &model.User{Email: email, Role: role, IsActive: true}
		require.NoError(t, store.CreateUser(ctx, u))
		return model.Actor{UserID: u.ID, Role: role}
	}
	f.admin = mk("admin@example.com", model.RoleAdmin)
	f.staff = mk("staff@example.com", model.RoleStaff)
	f.staff2 = mk("staff2@example.com", model.RoleStaff)
	f.user = mk("user@example.com", model.RoleUser)
	f.other = mk("other@example.com", model.RoleUser)
	return f
}

func (f *fixture) service(t *testing.T, price int64) *model.Service {
	t.Helper()
	svc, err := f.catalog.CreateService(context.Background(), f.admin, ServiceInput{
		Name: "Wedding photography", Category: "photo", BasePrice: price, DurationMinutes: 120,
	})
	require.NoError(t, err)
	return svc
}

// booking creates a user-owned booking for a fresh service at eventDay.
func (f *fixture) booking(t *testing.T, price int64, dates ...time.Time) *model.Booking {
	t.Helper()
	if len(dates) == 0 {
		dates = []time.Time{eventDay}
	}
	svc := f.service(t, price)
	b, err := f.bookings.CreateBooking(context.Background(), f.user, CreateBookingInput{
		ServiceID: &svc.ID, EventType: "wedding", EventDates: dates, Location: "Hall A", GuestCount: 120,
	})
	require.NoError(t, err)
	return b
}

// advance walks a booking forward with the admin actor until it reaches to.
func (f *fixture) advance(t *testing.T, id uint64, to model.BookingStatus) *model.Booking {
	t.Helper()
	ctx := context.Background()
	b, err := f.bookings.GetBooking(ctx, f.admin, id)
	require.NoError(t, err)
	for b.Status != to {
		next, ok := b.Status.Next()
		require.True(t, ok, "cannot advance past %s", b.Status)
		b, err = f.bookings.TransitionStatus(ctx, f.admin, id, next)
		require.NoError(t, err)
	}
	return b
}

func (f *fixture) pay(t *testing.T, bookingID uint64, amount int64, txID string, status model.PaymentStatus) *model.Payment {
	t.Helper()
	p, err := f.ledger.RecordPayment(context.Background(), f.admin, PaymentInput{
		BookingID: bookingID, Amount: amount, Method: model.MethodCash, Type: model.PaymentAdvance, TransactionID: txID, Status: status,
	})
	require.NoError(t, err)
	return p
}
