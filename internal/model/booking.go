package model

import "time"

// BookingStatus is the single authoritative lifecycle state of a booking.
type BookingStatus string

const (
	StatusInquiry    BookingStatus = "Inquiry"
	StatusQuoted     BookingStatus = "Quoted"
	StatusConfirmed  BookingStatus = "Confirmed"
	StatusInProgress BookingStatus = "In Progress"
	StatusCompleted  BookingStatus = "Completed"
	StatusCancelled  BookingStatus = "Cancelled"
)

// bookingFlow lists the forward path. Cancelled sits outside it.
var bookingFlow = []BookingStatus{
	StatusInquiry,
	StatusQuoted,
	StatusConfirmed,
	StatusInProgress,
	StatusCompleted,
}

func (s BookingStatus) rank() int {
	for i, st := range bookingFlow {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is a known status.
func (s BookingStatus) Valid() bool { return s == StatusCancelled || s.rank() >= 0 }

// Terminal is true for Completed and Cancelled.
func (s BookingStatus) Terminal() bool { return s == StatusCompleted || s == StatusCancelled }

// Next returns the single forward successor of s, if any.
func (s BookingStatus) Next() (BookingStatus, bool) {
	r := s.rank()
	if r < 0 || r+1 >= len(bookingFlow) {
		return "", false
	}
	return bookingFlow[r+1], true
}

// CanTransitionTo reports whether the graph allows s -> to: one step
// forward, or Cancelled from any non-terminal state.
func (s BookingStatus) CanTransitionTo(to BookingStatus) bool {
	if s.Terminal() {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	next, ok := s.Next()
	return ok && next == to
}

// AtLeast reports whether s has reached min on the forward path.
// Cancelled has reached nothing.
func (s BookingStatus) AtLeast(min BookingStatus) bool {
	r := s.rank()
	return r >= 0 && r >= min.rank()
}

// Booking is a customer's request for a catalog item on one or more
// dates. Exactly one of ServiceID and PackageID is set. ItemName,
// QuotedPrice and DurationMinutes are snapshots taken at creation.
//
// Fields:
//
//	ID              – primary key identifier.
//	CustomerID      – user the booking belongs to.
//	ServiceID       – referenced service (nullable).
//	PackageID       – referenced package (nullable).
//	ItemName        – catalog item name at booking time.
//	EventType       – free-text category (wedding, birthday...).
//	EventDates      – start of each event day, UTC.
//	Location        – venue.
//	GuestCount      – expected guests.
//	SpecialRequests – customer notes.
//	Status          – lifecycle state.
//	QuotedPrice     – price in minor units; frozen once paid against.
//	DurationMinutes – slot length per event date.
//	InternalNotes   – staff-only notes.
//	AssignedStaff   – staff ids derived from schedule entries.
//	CreatedAt       – creation timestamp.
//	UpdatedAt       – last update timestamp.
type Booking struct {
	ID              uint64        `json:"id"`                  // bookings.id
	CustomerID      uint64        `json:"customerId"`          // bookings.customer_id
	ServiceID       *uint64       `json:"serviceId,omitempty"` // bookings.service_id (nullable)
	PackageID       *uint64       `json:"packageId,omitempty"` // bookings.package_id (nullable)
	ItemName        string        `json:"itemName"`            // bookings.item_name
	EventType       string        `json:"eventType"`           // bookings.event_type
	EventDates      []time.Time   `json:"eventDates"`          // bookings.event_dates (JSON)
	Location        string        `json:"location"`            // bookings.location
	GuestCount      int           `json:"guestCount"`          // bookings.guest_count
	SpecialRequests string        `json:"specialRequests"`     // bookings.special_requests
	Status          BookingStatus `json:"status"`              // bookings.status
	QuotedPrice     int64         `json:"quotedPrice"`         // bookings.quoted_price
	DurationMinutes int           `json:"durationMinutes"`     // bookings.duration_minutes
	InternalNotes   string        `json:"internalNotes"`       // bookings.internal_notes
	AssignedStaff   []uint64      `json:"assignedStaff"`       // derived from schedules.staff_id
	CreatedAt       time.Time     `json:"createdAt"`           // bookings.created_at
	UpdatedAt       time.Time     `json:"updatedAt"`           // bookings.updated_at
}

// FirstEventAt and LastEventAt bound the booking's event dates.
func (b Booking) FirstEventAt() time.Time {
	var first time.Time
	for i, d := range b.EventDates {
		if i == 0 || d.Before(first) {
			first = d
		}
	}
	return first
}

func (b Booking) LastEventAt() time.Time {
	var last time.Time
	for i, d := range b.EventDates {
		if i == 0 || d.After(last) {
			last = d
		}
	}
	return last
}

// Windows returns one schedule window per event date.
func (b Booking) Windows() []Window {
	out := make([]Window, 0, len(b.EventDates))
	for _, d := range b.EventDates {
		out = append(out, NewWindow(d, b.DurationMinutes))
	}
	return out
}

// BookingFilter narrows ListBookings. Zero values mean "any". From/To
// select bookings whose event dates touch [From, To).
type BookingFilter struct {
	Status     BookingStatus
	CustomerID uint64
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// Matches applies the filter to a single booking, ignoring paging.
func (f BookingFilter) Matches(b Booking) bool {
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	if f.CustomerID != 0 && b.CustomerID != f.CustomerID {
		return false
	}
	if f.From != nil && b.LastEventAt().Before(*f.From) {
		return false
	}
	if f.To != nil && !b.FirstEventAt().Before(*f.To) {
		return false
	}
	return true
}
