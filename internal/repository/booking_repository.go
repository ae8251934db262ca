package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/model"
)

// BookingRepo stores bookings. Event dates live in a JSON column, with
// first_event_at and last_event_at kept alongside for range filters.
// Assigned staff is derived from schedules on every read.
type BookingRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db, now: utcNow} }

const bookingColumns = `b.id, b.customer_id, b.service_id, b.package_id, b.item_name, b.event_type, b.event_dates,
	b.location, b.guest_count, b.special_requests, b.status, b.quoted_price, b.duration_minutes, b.internal_notes,
	b.created_at, b.updated_at,
	(SELECT GROUP_CONCAT(DISTINCT sc.staff_id ORDER BY sc.staff_id) FROM schedules sc WHERE sc.booking_id = b.id)`

func scanBooking(row scanner) (*model.Booking, error) {
	var (
		b                    model.Booking
		serviceID, packageID sql.NullInt64
		dates                []byte
		status               string
		staff                sql.NullString
	)
	err := row.Scan(&b.ID, &b.CustomerID, &serviceID, &packageID, &b.ItemName, &b.EventType, &dates,
		&b.Location, &b.GuestCount, &b.SpecialRequests, &status, &b.QuotedPrice, &b.DurationMinutes, &b.InternalNotes,
		&b.CreatedAt, &b.UpdatedAt, &staff)
	if err != nil {
		return nil, err
	}
	b.ServiceID = idPtr(serviceID)
	b.PackageID = idPtr(packageID)
	b.Status = model.BookingStatus(status)
	b.AssignedStaff = splitIDs(staff)
	if err := json.Unmarshal(dates, &b.EventDates); err != nil {
		return nil, fmt.Errorf("decode booking %d event dates: %w", b.ID, err)
	}
	for i := range b.EventDates {
		b.EventDates[i] = b.EventDates[i].UTC()
	}
	return &b, nil
}

func getBooking(ctx context.Context, q queryer, id uint64) (*model.Booking, error) {
	b, err := scanBooking(q.QueryRowContext(ctx, "SELECT "+bookingColumns+" FROM bookings b WHERE b.id = ?", id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return b, err
}

func (r *BookingRepo) CreateBooking(ctx context.Context, b *model.Booking) error {
	dates, err := json.Marshal(b.EventDates)
	if err != nil {
		return err
	}
	now := r.now()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO bookings (customer_id, service_id, package_id, item_name, event_type, event_dates, first_event_at, last_event_at,
		   location, guest_count, special_requests, status, quoted_price, duration_minutes, internal_notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.CustomerID, nullID(b.ServiceID), nullID(b.PackageID), b.ItemName, b.EventType, dates, b.FirstEventAt(), b.LastEventAt(),
		b.Location, b.GuestCount, b.SpecialRequests, string(b.Status), b.QuotedPrice, b.DurationMinutes, b.InternalNotes, now, now)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	b.CreatedAt, b.UpdatedAt = now, now
	b.AssignedStaff = []uint64{}
	return nil
}

func (r *BookingRepo) GetBooking(ctx context.Context, id uint64) (*model.Booking, error) {
	return getBooking(ctx, r.db, id)
}

// ListBookings streams matching rows; the query runs when iteration
// starts and the cursor closes when the loop ends.
func (r *BookingRepo) ListBookings(ctx context.Context, f model.BookingFilter) iter.Seq2[model.Booking, error] {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, "b.status = ?")
		args = append(args, string(f.Status))
	}
	if f.CustomerID != 0 {
		where = append(where, "b.customer_id = ?")
		args = append(args, f.CustomerID)
	}
	if f.From != nil {
		where = append(where, "b.last_event_at >= ?")
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		where = append(where, "b.first_event_at < ?")
		args = append(args, f.To.UTC())
	}
	q := "SELECT " + bookingColumns + " FROM bookings b"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY b.created_at, b.id" + pageClause(f.Limit, f.Offset)

	return func(yield func(model.Booking, error) bool) {
		rows, err := r.db.QueryContext(ctx, q, args...)
		if err != nil {
			yield(model.Booking{}, err)
			return
		}
		defer rows.Close()
		for rows.Next() {
			b, err := scanBooking(rows)
			if err != nil {
				yield(model.Booking{}, err)
				return
			}
			if !yield(*b, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(model.Booking{}, err)
		}
	}
}

// UpdateBookingStatus is a compare-and-set on status. Cancelling also
// releases the booking's schedule entries in the same transaction.
func (r *BookingRepo) UpdateBookingStatus(ctx context.Context, id uint64, from, to model.BookingStatus) (*model.Booking, error) {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status = ?",
			string(to), r.now(), id, string(from))
		if err != nil {
			return fmt.Errorf("update booking status: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			var got uint64
			err := tx.QueryRowContext(ctx, "SELECT id FROM bookings WHERE id = ?", id).Scan(&got)
			if err == sql.ErrNoRows {
				return ErrNotFound
			}
			if err != nil {
				return err
			}
			return ErrStale
		}
		if to == model.StatusCancelled {
			if _, err := tx.ExecContext(ctx, "DELETE FROM schedules WHERE booking_id = ?", id); err != nil {
				return fmt.Errorf("release schedules: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetBooking(ctx, id)
}
