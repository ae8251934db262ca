package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/model"
	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/repository"
)

// ScheduleService owns staff schedule entries and the overlap rule: no
// two blocking entries of one staff member may intersect.
type ScheduleService struct {
	schedules ScheduleStore
	users     UserStore
	bookings  BookingStore
	log       *slog.Logger
}

func NewScheduleService(schedules ScheduleStore, users UserStore, bookings BookingStore, log *slog.Logger) *ScheduleService {
	if schedules == nil || users == nil || bookings == nil {
		panic("nil store passed to NewScheduleService")
	}
	if log == nil {
		log = slog.Default()
	}
	return &ScheduleService{schedules: schedules, users: users, bookings: bookings, log: log}
}

var (
	// openStatuses accept booking-linked entries.
	openStatuses = []model.BookingStatus{model.StatusInquiry, model.StatusQuoted, model.StatusConfirmed, model.StatusInProgress, model.StatusCompleted}
	// assignableStatuses accept staff assignment.
	assignableStatuses = []model.BookingStatus{model.StatusConfirmed, model.StatusInProgress}
)

// findConflicts returns the blocking entries in existing that overlap w.
// Entries for which skip returns true are ignored.
func findConflicts(existing []model.Schedule, w model.Window, skip func(model.Schedule) bool) []model.Schedule {
	var out []model.Schedule
	for _, e := range existing {
		if !e.Status.Blocking() || (skip != nil && skip(e)) {
			continue
		}
		if e.Window().Overlaps(w) {
			out = append(out, e)
		}
	}
	return out
}

func conflictError(staffID uint64, hits []model.Schedule) error {
	spans := make([]string, 0, len(hits))
	for _, h := range hits {
		w := h.Window()
		spans = append(spans, fmt.Sprintf("%s..%s", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339)))
	}
	return errConflict("staff %d is already scheduled at %s", staffID, strings.Join(spans, ", "))
}

// CheckConflict reports whether [start, start+duration) intersects any
// blocking entry of the staff member, returning the offending entries.
func (ss *ScheduleService) CheckConflict(ctx context.Context, actor model.Actor, staffID uint64, start time.Time, durationMinutes int) (bool, []model.Schedule, error) {
	if err := RequireRole(actor, privileged...); err != nil {
		return false, nil, err
	}
	if staffID == 0 {
		return false, nil, errValidation("staffId is required")
	}
	if durationMinutes <= 0 {
		return false, nil, errValidation("duration must be positive")
	}
	existing, err := ss.schedules.ListSchedules(ctx, model.ScheduleFilter{StaffID: staffID})
	if err != nil {
		return false, nil, fmt.Errorf("list schedules: %w", err)
	}
	hits := findConflicts(existing, model.NewWindow(start.UTC(), durationMinutes), nil)
	if hits == nil {
		hits = []model.Schedule{}
	}
	return len(hits) > 0, hits, nil
}

type EntryInput struct {
	BookingID       *uint64
	StaffID         uint64
	StartAt         time.Time
	DurationMinutes int
	Status          model.ScheduleStatus
}

// CreateEntry records a schedule slot. Blocking slots that overlap an
// existing blocking slot fail with a conflict; check and insert happen
// under the staff member's schedule lock.
func (ss *ScheduleService) CreateEntry(ctx context.Context, actor model.Actor, in EntryInput) (*model.Schedule, error) {
	if err := RequireRole(actor, privileged...); err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = model.ScheduleScheduled
	}
	if !in.Status.Valid() {
		return nil, errValidation("unknown schedule status %q", in.Status)
	}
	if in.StartAt.IsZero() {
		return nil, errValidation("date is required")
	}
	if in.DurationMinutes <= 0 {
		return nil, errValidation("duration must be positive")
	}
	if err := ss.requireStaff(ctx, in.StaffID); err != nil {
		return nil, err
	}
	if in.BookingID != nil {
		b, err := ss.bookings.GetBooking(ctx, *in.BookingID)
		if err != nil {
			return nil, translate(err, "booking", *in.BookingID)
		}
		if b.Status == model.StatusCancelled {
			return nil, errInvalidState("booking %d is cancelled", b.ID)
		}
	}

	entry := &model.Schedule{
		BookingID:       in.BookingID,
		StaffID:         in.StaffID,
		StartAt:         in.StartAt.UTC(),
		DurationMinutes: in.DurationMinutes,
		Status:          in.Status,
	}
	err := ss.schedules.WithStaffSchedule(ctx, in.StaffID, func(existing []model.Schedule) (*model.ScheduleChange, error) {
		if entry.Status.Blocking() {
			if hits := findConflicts(existing, entry.Window(), nil); len(hits) > 0 {
				return nil, conflictError(in.StaffID, hits)
			}
		}
		change := &model.ScheduleChange{Insert: []*model.Schedule{entry}}
		if in.BookingID != nil {
			change.GuardBooking = *in.BookingID
			change.GuardStatuses = openStatuses
		}
		return change, nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrStale) {
			return nil, errInvalidState("booking %d is cancelled", *in.BookingID)
		}
		return nil, translate(err, "staff", in.StaffID)
	}
	ss.log.Info("schedule entry created", slog.Uint64("schedule_id", entry.ID), slog.Uint64("staff_id", entry.StaffID), slog.String("status", string(entry.Status)))
	return entry, nil
}

// UpdateEntryStatus changes an entry's status, re-checking overlaps when
// the new status blocks.
func (ss *ScheduleService) UpdateEntryStatus(ctx context.Context, actor model.Actor, id uint64, status model.ScheduleStatus) (*model.Schedule, error) {
	if err := RequireRole(actor, privileged...); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, errValidation("unknown schedule status %q", status)
	}
	cur, err := ss.schedules.GetSchedule(ctx, id)
	if err != nil {
		return nil, translate(err, "schedule", id)
	}
	var updated *model.Schedule
	err = ss.schedules.WithStaffSchedule(ctx, cur.StaffID, func(existing []model.Schedule) (*model.ScheduleChange, error) {
		var found *model.Schedule
		for i := range existing {
			if existing[i].ID == id {
				found = &existing[i]
				break
			}
		}
		if found == nil {
			return nil, errNotFound("schedule", id)
		}
		if found.Status == status {
			updated = found
			return nil, nil
		}
		if status.Blocking() {
			hits := findConflicts(existing, found.Window(), func(e model.Schedule) bool { return e.ID == id })
			if len(hits) > 0 {
				return nil, conflictError(found.StaffID, hits)
			}
		}
		next := *found
		next.Status = status
		updated = &next
		return &model.ScheduleChange{Update: updated}, nil
	})
	if err != nil {
		return nil, translate(err, "schedule", id)
	}
	return updated, nil
}

func (ss *ScheduleService) DeleteEntry(ctx context.Context, actor model.Actor, id uint64) error {
	if err := RequireRole(actor, privileged...); err != nil {
		return err
	}
	if err := ss.schedules.DeleteSchedule(ctx, id); err != nil {
		return translate(err, "schedule", id)
	}
	return nil
}

// ListStaffSchedule returns a staff member's entries touching [from, to).
// Staff may only read their own schedule.
func (ss *ScheduleService) ListStaffSchedule(ctx context.Context, actor model.Actor, staffID uint64, from, to *time.Time) ([]model.Schedule, error) {
	if err := RequireRole(actor, privileged...); err != nil {
		return nil, err
	}
	if actor.Role == model.RoleStaff && actor.UserID != staffID {
		return nil, errForbidden("staff may only read their own schedule")
	}
	return ss.schedules.ListSchedules(ctx, model.ScheduleFilter{StaffID: staffID, From: from, To: to})
}

// assign creates one Scheduled entry per event date of b for staffID.
// Dates already covered for this booking are skipped, so repeating an
// assignment is a no-op. It returns the number of entries created.
func (ss *ScheduleService) assign(ctx context.Context, b *model.Booking, staffID uint64) (int, error) {
	if err := ss.requireStaff(ctx, staffID); err != nil {
		return 0, err
	}
	var created []*model.Schedule
	err := ss.schedules.WithStaffSchedule(ctx, staffID, func(existing []model.Schedule) (*model.ScheduleChange, error) {
		sameBooking := func(e model.Schedule) bool { return e.ForBooking(b.ID) }
		for _, w := range b.Windows() {
			covered := false
			for _, e := range existing {
				if sameBooking(e) && e.StartAt.Equal(w.Start) {
					covered = true
					break
				}
			}
			if covered {
				continue
			}
			if hits := findConflicts(existing, w, sameBooking); len(hits) > 0 {
				return nil, conflictError(staffID, hits)
			}
			bid := b.ID
			created = append(created, &model.Schedule{
				BookingID:       &bid,
				StaffID:         staffID,
				StartAt:         w.Start,
				DurationMinutes: b.DurationMinutes,
				Status:          model.ScheduleScheduled,
			})
		}
		if len(created) == 0 {
			return nil, nil
		}
		return &model.ScheduleChange{Insert: created, GuardBooking: b.ID, GuardStatuses: assignableStatuses}, nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrStale) {
			return 0, errInvalidState("booking %d left confirmed/in-progress while staff was being assigned", b.ID)
		}
		return 0, translate(err, "staff", staffID)
	}
	return len(created), nil
}

// unassign removes every entry linking staffID to b.
func (ss *ScheduleService) unassign(ctx context.Context, b *model.Booking, staffID uint64) (int, error) {
	removed := 0
	err := ss.schedules.WithStaffSchedule(ctx, staffID, func(existing []model.Schedule) (*model.ScheduleChange, error) {
		var ids []uint64
		for _, e := range existing {
			if e.ForBooking(b.ID) {
				ids = append(ids, e.ID)
			}
		}
		removed = len(ids)
		if removed == 0 {
			return nil, nil
		}
		return &model.ScheduleChange{DeleteIDs: ids}, nil
	})
	if err != nil {
		return 0, translate(err, "staff", staffID)
	}
	return removed, nil
}

func (ss *ScheduleService) requireStaff(ctx context.Context, staffID uint64) error {
	if staffID == 0 {
		return errValidation("staffId is required")
	}
	u, err := ss.users.GetUser(ctx, staffID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errValidation("user %d does not exist", staffID)
		}
		return fmt.Errorf("get staff: %w", err)
	}
	if u.Role != model.RoleStaff || !u.IsActive {
		return errValidation("user %d is not active staff", staffID)
	}
	return nil
}
