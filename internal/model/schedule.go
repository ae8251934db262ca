package model

import (
	"slices"
	"time"
)

// ScheduleStatus marks whether a staff slot blocks other work.
type ScheduleStatus string

const (
	ScheduleScheduled ScheduleStatus = "Scheduled"
	ScheduleBusy      ScheduleStatus = "Busy"
	ScheduleAvailable ScheduleStatus = "Available"
)

func (s ScheduleStatus) Valid() bool {
	return s == ScheduleScheduled || s == ScheduleBusy || s == ScheduleAvailable
}

// Blocking is true for every status except Available.
func (s ScheduleStatus) Blocking() bool { return s != ScheduleAvailable }

// Window is a half-open time interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

func NewWindow(start time.Time, durationMinutes int) Window {
	return Window{Start: start, End: start.Add(time.Duration(durationMinutes) * time.Minute)}
}

// Overlaps reports whether two half-open windows intersect. Touching
// boundaries do not overlap.
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && o.Start.Before(w.End)
}

// Schedule links a staff member to a time window, optionally for a
// booking. Entries without a booking are plain availability or busy slots.
type Schedule struct {
	ID              uint64         `json:"id"`                  // schedules.id
	BookingID       *uint64        `json:"bookingId,omitempty"` // schedules.booking_id (nullable)
	StaffID         uint64         `json:"staffId"`             // schedules.staff_id
	StartAt         time.Time      `json:"startAt"`             // schedules.start_at
	DurationMinutes int            `json:"durationMinutes"`     // schedules.duration_minutes
	Status          ScheduleStatus `json:"status"`              // schedules.status
	CreatedAt       time.Time      `json:"createdAt"`           // schedules.created_at
}

func (s Schedule) Window() Window { return NewWindow(s.StartAt, s.DurationMinutes) }

// ForBooking reports whether the entry belongs to the given booking.
func (s Schedule) ForBooking(id uint64) bool { return s.BookingID != nil && *s.BookingID == id }

// ScheduleFilter narrows schedule listings. From/To select entries whose
// window touches [From, To).
type ScheduleFilter struct {
	StaffID   uint64
	BookingID uint64
	From      *time.Time
	To        *time.Time
}

func (f ScheduleFilter) Matches(s Schedule) bool {
	if f.StaffID != 0 && s.StaffID != f.StaffID {
		return false
	}
	if f.BookingID != 0 && !s.ForBooking(f.BookingID) {
		return false
	}
	w := s.Window()
	if f.From != nil && !w.End.After(*f.From) {
		return false
	}
	if f.To != nil && !w.Start.Before(*f.To) {
		return false
	}
	return true
}

// ScheduleChange is applied by the store while the staff member's
// schedule is locked.
type ScheduleChange struct {
	Insert    []*Schedule // the store fills ID and CreatedAt
	Update    *Schedule   // existing entry whose Status is rewritten
	DeleteIDs []uint64

	// GuardBooking, when non-zero, is re-read inside the same unit of
	// work. The change is dropped with ErrStale unless the booking is in
	// one of GuardStatuses.
	GuardBooking  uint64
	GuardStatuses []BookingStatus
}

// Admits reports whether a guarded booking in status s lets the change
// through. Unguarded changes admit everything.
func (c ScheduleChange) Admits(s BookingStatus) bool {
	return c.GuardBooking == 0 || slices.Contains(c.GuardStatuses, s)
}
