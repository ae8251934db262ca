package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/model"
)

// ScheduleRepo stores staff schedule entries. end_at is persisted next to
// start_at so overlap and range filters stay index friendly.
type ScheduleRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewScheduleRepo(db *sql.DB) *ScheduleRepo { return &ScheduleRepo{db: db, now: utcNow} }

const scheduleColumns = `id, booking_id, staff_id, start_at, duration_minutes, status, created_at`

func scanSchedule(row scanner) (*model.Schedule, error) {
	var (
		s         model.Schedule
		bookingID sql.NullInt64
		status    string
	)
	if err := row.Scan(&s.ID, &bookingID, &s.StaffID, &s.StartAt, &s.DurationMinutes, &status, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.BookingID = idPtr(bookingID)
	s.Status = model.ScheduleStatus(status)
	s.StartAt = s.StartAt.UTC()
	return &s, nil
}

func listSchedules(ctx context.Context, q queryer, f model.ScheduleFilter) ([]model.Schedule, error) {
	var (
		where []string
		args  []any
	)
	if f.StaffID != 0 {
		where = append(where, "staff_id = ?")
		args = append(args, f.StaffID)
	}
	if f.BookingID != 0 {
		where = append(where, "booking_id = ?")
		args = append(args, f.BookingID)
	}
	if f.From != nil {
		where = append(where, "end_at > ?")
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		where = append(where, "start_at < ?")
		args = append(args, f.To.UTC())
	}
	query := "SELECT " + scheduleColumns + " FROM schedules"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	rows, err := q.QueryContext(ctx, query+" ORDER BY start_at, id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Schedule{}
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// WithStaffSchedule locks the staff member's users row so that check and
// insert for one staff member never interleave.
func (r *ScheduleRepo) WithStaffSchedule(ctx context.Context, staffID uint64, fn func(existing []model.Schedule) (*model.ScheduleChange, error)) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockRow(ctx, tx, "users", staffID); err != nil {
			return err
		}
		existing, err := listSchedules(ctx, tx, model.ScheduleFilter{StaffID: staffID})
		if err != nil {
			return fmt.Errorf("load schedule: %w", err)
		}
		change, err := fn(existing)
		if err != nil || change == nil {
			return err
		}
		return r.apply(ctx, tx, staffID, change)
	})
}

func (r *ScheduleRepo) apply(ctx context.Context, tx *sql.Tx, staffID uint64, change *model.ScheduleChange) error {
	if change.GuardBooking != 0 {
		// Shared lock so a concurrent cancel waits for this insert and
		// then releases it, or commits first and is seen here.
		var status string
		err := tx.QueryRowContext(ctx, "SELECT status FROM bookings WHERE id = ? FOR SHARE", change.GuardBooking).Scan(&status)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load booking status: %w", err)
		}
		if !change.Admits(model.BookingStatus(status)) {
			return ErrStale
		}
	}
	if len(change.DeleteIDs) > 0 {
		args := make([]any, 0, len(change.DeleteIDs)+1)
		args = append(args, staffID)
		for _, id := range change.DeleteIDs {
			args = append(args, id)
		}
		q := "DELETE FROM schedules WHERE staff_id = ? AND id IN (" + placeholders(len(change.DeleteIDs)) + ")"
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("delete schedules: %w", err)
		}
	}
	if u := change.Update; u != nil {
		res, err := tx.ExecContext(ctx, "UPDATE schedules SET status = ? WHERE id = ? AND staff_id = ?", string(u.Status), u.ID, staffID)
		if err != nil {
			return fmt.Errorf("update schedule: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ErrNotFound
		}
	}
	now := r.now()
	for _, s := range change.Insert {
		w := s.Window()
		res, err := tx.ExecContext(ctx,
			`INSERT INTO schedules (booking_id, staff_id, start_at, end_at, duration_minutes, status, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			nullID(s.BookingID), staffID, w.Start, w.End, s.DurationMinutes, string(s.Status), now)
		if err != nil {
			return fmt.Errorf("insert schedule: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		s.ID = uint64(id)
		s.StaffID = staffID
		s.CreatedAt = now
	}
	return nil
}

func (r *ScheduleRepo) GetSchedule(ctx context.Context, id uint64) (*model.Schedule, error) {
	s, err := scanSchedule(r.db.QueryRowContext(ctx, "SELECT "+scheduleColumns+" FROM schedules WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return s, err
}

func (r *ScheduleRepo) ListSchedules(ctx context.Context, f model.ScheduleFilter) ([]model.Schedule, error) {
	return listSchedules(ctx, r.db, f)
}

func (r *ScheduleRepo) DeleteSchedule(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM schedules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
