// Package memory is an in-process implementation of every storage port.
// It backs STORE_DRIVER=memory and the service and handler tests. A
// single mutex stands in for the row locks the MySQL store takes, so
// ledger and schedule callbacks run with the whole store held.
package memory

import (
	"context"
	"iter"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/model"
	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/repository"
)

type Store struct {
	mu  sync.Mutex
	now func() time.Time
	seq map[string]uint64

	users     map[uint64]model.User
	services  map[uint64]model.Service
	packages  map[uint64]model.Package
	bookings  map[uint64]model.Booking
	payments  map[uint64]model.Payment
	invoices  map[uint64]model.Invoice
	schedules map[uint64]model.Schedule
}

func New() *Store {
	return &Store{
		now:       func() time.Time { return time.Now().UTC() },
		seq:       map[string]uint64{},
		users:     map[uint64]model.User{},
		services:  map[uint64]model.Service{},
		packages:  map[uint64]model.Package{},
		bookings:  map[uint64]model.Booking{},
		payments:  map[uint64]model.Payment{},
		invoices:  map[uint64]model.Invoice{},
		schedules: map[uint64]model.Schedule{},
	}
}

func (s *Store) nextID(table string) uint64 {
	s.seq[table]++
	return s.seq[table]
}

// Users

func (s *Store) CreateUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range s.users {
		if existing.Email == email {
			return repository.ErrDuplicate
		}
	}
	now := s.now()
	u.ID = s.nextID("users")
	u.Email = email
	u.CreatedAt, u.UpdatedAt = now, now
	s.users[u.ID] = *u
	return nil
}

func (s *Store) GetUser(_ context.Context, id uint64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

// Catalog

func (s *Store) CreateService(_ context.Context, svc *model.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	svc.ID = s.nextID("services")
	svc.CreatedAt, svc.UpdatedAt = now, now
	s.services[svc.ID] = *svc
	return nil
}

func (s *Store) UpdateService(_ context.Context, svc *model.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.services[svc.ID]
	if !ok {
		return repository.ErrNotFound
	}
	svc.CreatedAt = cur.CreatedAt
	svc.UpdatedAt = s.now()
	s.services[svc.ID] = *svc
	return nil
}

func (s *Store) GetService(_ context.Context, id uint64) (*model.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	svc, ok := s.services[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &svc, nil
}

func (s *Store) ListServices(_ context.Context, activeOnly bool) ([]model.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Service, 0, len(s.services))
	for _, svc := range s.services {
		if activeOnly && !svc.IsActive {
			continue
		}
		out = append(out, svc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreatePackage(_ context.Context, p *model.Package) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	p.ID = s.nextID("packages")
	p.CreatedAt, p.UpdatedAt = now, now
	s.packages[p.ID] = clonePackage(*p)
	return nil
}

func (s *Store) UpdatePackage(_ context.Context, p *model.Package) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.packages[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = s.now()
	s.packages[p.ID] = clonePackage(*p)
	return nil
}

func (s *Store) GetPackage(_ context.Context, id uint64) (*model.Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.packages[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p = clonePackage(p)
	return &p, nil
}

func (s *Store) ListPackages(_ context.Context, activeOnly bool) ([]model.Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Package, 0, len(s.packages))
	for _, p := range s.packages {
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, clonePackage(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Bookings

func (s *Store) CreateBooking(_ context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	b.ID = s.nextID("bookings")
	b.CreatedAt, b.UpdatedAt = now, now
	b.AssignedStaff = []uint64{}
	s.bookings[b.ID] = cloneBooking(*b)
	return nil
}

func (s *Store) GetBooking(_ context.Context, id uint64) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	b = s.hydrate(b)
	return &b, nil
}

func (s *Store) ListBookings(ctx context.Context, f model.BookingFilter) iter.Seq2[model.Booking, error] {
	s.mu.Lock()
	matched := make([]model.Booking, 0)
	for _, b := range s.bookings {
		if f.Matches(b) {
			matched = append(matched, s.hydrate(b))
		}
	}
	s.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})
	matched = page(matched, f.Offset, f.Limit)

	return func(yield func(model.Booking, error) bool) {
		for _, b := range matched {
			if err := ctx.Err(); err != nil {
				yield(model.Booking{}, err)
				return
			}
			if !yield(b, nil) {
				return
			}
		}
	}
}

func (s *Store) UpdateBookingStatus(_ context.Context, id uint64, from, to model.BookingStatus) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if b.Status != from {
		return nil, repository.ErrStale
	}
	b.Status = to
	b.UpdatedAt = s.now()
	s.bookings[id] = b
	if to == model.StatusCancelled {
		for sid, sch := range s.schedules {
			if sch.ForBooking(id) {
				delete(s.schedules, sid)
			}
		}
	}
	b = s.hydrate(b)
	return &b, nil
}

// hydrate fills derived fields; caller holds mu.
func (s *Store) hydrate(b model.Booking) model.Booking {
	b = cloneBooking(b)
	staff := []uint64{}
	for _, sch := range s.schedules {
		if sch.ForBooking(b.ID) && !slices.Contains(staff, sch.StaffID) {
			staff = append(staff, sch.StaffID)
		}
	}
	slices.Sort(staff)
	b.AssignedStaff = staff
	return b
}

// Ledger

func (s *Store) WithLedger(ctx context.Context, bookingID uint64, fn func(b *model.Booking, payments []model.Payment) (*model.LedgerChange, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	stored, ok := s.bookings[bookingID]
	if !ok {
		return repository.ErrNotFound
	}
	b := s.hydrate(stored)
	payments := s.paymentsOf(bookingID)

	change, err := fn(&b, payments)
	if err != nil || change == nil {
		return err
	}
	now := s.now()

	if p := change.Insert; p != nil {
		for _, existing := range payments {
			if existing.TransactionID == p.TransactionID {
				return repository.ErrDuplicate
			}
		}
		p.ID = s.nextID("payments")
		p.BookingID = bookingID
		p.CreatedAt, p.UpdatedAt = now, now
		s.payments[p.ID] = *p
	}
	if p := change.Update; p != nil {
		cur, ok := s.payments[p.ID]
		if !ok || cur.BookingID != bookingID {
			return repository.ErrNotFound
		}
		cur.Status = p.Status
		cur.UpdatedAt = now
		s.payments[p.ID] = cur
		*p = cur
	}
	if change.QuotedPrice != nil || change.InternalNotes != nil {
		if change.QuotedPrice != nil {
			stored.QuotedPrice = *change.QuotedPrice
		}
		if change.InternalNotes != nil {
			stored.InternalNotes = *change.InternalNotes
		}
		stored.UpdatedAt = now
		s.bookings[bookingID] = stored
	}
	if st := change.InvoiceStatus; st != nil {
		for id, inv := range s.invoices {
			if inv.BookingID == bookingID && inv.Status != *st {
				inv.Status = *st
				inv.UpdatedAt = now
				s.invoices[id] = inv
			}
		}
	}
	return nil
}

func (s *Store) GetPayment(_ context.Context, id uint64) (*model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (s *Store) ListPayments(_ context.Context, bookingID uint64) ([]model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paymentsOf(bookingID), nil
}

func (s *Store) paymentsOf(bookingID uint64) []model.Payment {
	out := []model.Payment{}
	for _, p := range s.payments {
		if p.BookingID == bookingID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Invoices

func (s *Store) CreateInvoice(_ context.Context, inv *model.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.invoices {
		if existing.InvoiceNumber == inv.InvoiceNumber {
			return repository.ErrDuplicate
		}
	}
	now := s.now()
	inv.ID = s.nextID("invoices")
	inv.CreatedAt, inv.UpdatedAt = now, now
	if inv.Type == model.InvoiceFinal {
		for id, existing := range s.invoices {
			if existing.BookingID == inv.BookingID && existing.Type == model.InvoiceFinal && existing.SupersededBy == nil {
				by := inv.ID
				existing.SupersededBy = &by
				existing.UpdatedAt = now
				s.invoices[id] = existing
			}
		}
	}
	s.invoices[inv.ID] = cloneInvoice(*inv)
	return nil
}

func (s *Store) GetInvoice(_ context.Context, id uint64) (*model.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	inv = cloneInvoice(inv)
	return &inv, nil
}

func (s *Store) ListInvoices(_ context.Context, bookingID uint64) ([]model.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Invoice{}
	for _, inv := range s.invoices {
		if inv.BookingID == bookingID {
			out = append(out, cloneInvoice(inv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateInvoiceStatus(_ context.Context, id uint64, status model.SettlementStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok {
		return repository.ErrNotFound
	}
	inv.Status = status
	inv.UpdatedAt = s.now()
	s.invoices[id] = inv
	return nil
}

// Schedules

func (s *Store) WithStaffSchedule(ctx context.Context, staffID uint64, fn func(existing []model.Schedule) (*model.ScheduleChange, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := s.users[staffID]; !ok {
		return repository.ErrNotFound
	}
	existing := s.schedulesOf(model.ScheduleFilter{StaffID: staffID})

	change, err := fn(existing)
	if err != nil || change == nil {
		return err
	}
	if id := change.GuardBooking; id != 0 {
		b, ok := s.bookings[id]
		if !ok {
			return repository.ErrNotFound
		}
		if !change.Admits(b.Status) {
			return repository.ErrStale
		}
	}
	now := s.now()
	for _, id := range change.DeleteIDs {
		if sch, ok := s.schedules[id]; ok && sch.StaffID == staffID {
			delete(s.schedules, id)
		}
	}
	if u := change.Update; u != nil {
		cur, ok := s.schedules[u.ID]
		if !ok || cur.StaffID != staffID {
			return repository.ErrNotFound
		}
		cur.Status = u.Status
		s.schedules[u.ID] = cur
		*u = cloneSchedule(cur)
	}
	for _, sch := range change.Insert {
		sch.ID = s.nextID("schedules")
		sch.StaffID = staffID
		sch.CreatedAt = now
		s.schedules[sch.ID] = cloneSchedule(*sch)
	}
	return nil
}

func (s *Store) GetSchedule(_ context.Context, id uint64) (*model.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sch, ok := s.schedules[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	sch = cloneSchedule(sch)
	return &sch, nil
}

func (s *Store) ListSchedules(_ context.Context, f model.ScheduleFilter) ([]model.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedulesOf(f), nil
}

func (s *Store) DeleteSchedule(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schedules[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.schedules, id)
	return nil
}

func (s *Store) schedulesOf(f model.ScheduleFilter) []model.Schedule {
	out := []model.Schedule{}
	for _, sch := range s.schedules {
		if f.Matches(sch) {
			out = append(out, cloneSchedule(sch))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartAt.Equal(out[j].StartAt) {
			return out[i].StartAt.Before(out[j].StartAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func page[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func cloneBooking(b model.Booking) model.Booking {
	b.EventDates = slices.Clone(b.EventDates)
	b.AssignedStaff = slices.Clone(b.AssignedStaff)
	if b.ServiceID != nil {
		id := *b.ServiceID
		b.ServiceID = &id
	}
	if b.PackageID != nil {
		id := *b.PackageID
		b.PackageID = &id
	}
	return b
}

func clonePackage(p model.Package) model.Package {
	p.ServiceIDs = slices.Clone(p.ServiceIDs)
	return p
}

func cloneInvoice(inv model.Invoice) model.Invoice {
	inv.Items = slices.Clone(inv.Items)
	if inv.SupersededBy != nil {
		id := *inv.SupersededBy
		inv.SupersededBy = &id
	}
	return inv
}

func cloneSchedule(sch model.Schedule) model.Schedule {
	if sch.BookingID != nil {
		id := *sch.BookingID
		sch.BookingID = &id
	}
	return sch
}
