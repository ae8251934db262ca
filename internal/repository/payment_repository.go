package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/model"
)

// LedgerRepo stores payments. Every ledger write goes through WithLedger,
// which holds the booking row lock for the duration of the callback.
type LedgerRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewLedgerRepo(db *sql.DB) *LedgerRepo { return &LedgerRepo{db: db, now: utcNow} }

const paymentColumns = `id, booking_id, payer_id, amount, type, method, status, transaction_id, created_at, updated_at`

func scanPayment(row scanner) (*model.Payment, error) {
	var (
		p                   model.Payment
		typ, method, status string
	)
	err := row.Scan(&p.ID, &p.BookingID, &p.PayerID, &p.Amount, &typ, &method, &status, &p.TransactionID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Type = model.PaymentType(typ)
	p.Method = model.PaymentMethod(method)
	p.Status = model.PaymentStatus(status)
	return &p, nil
}

func listPayments(ctx context.Context, q queryer, bookingID uint64) ([]model.Payment, error) {
	rows, err := q.QueryContext(ctx, "SELECT "+paymentColumns+" FROM payments WHERE booking_id = ? ORDER BY id", bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// WithLedger locks the booking row (SELECT ... FOR UPDATE), loads the
// booking with its payments, and applies fn's change in the same
// transaction. Concurrent writers for one booking queue on the lock.
func (r *LedgerRepo) WithLedger(ctx context.Context, bookingID uint64, fn func(b *model.Booking, payments []model.Payment) (*model.LedgerChange, error)) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockRow(ctx, tx, "bookings", bookingID); err != nil {
			return err
		}
		b, err := getBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		payments, err := listPayments(ctx, tx, bookingID)
		if err != nil {
			return fmt.Errorf("load ledger: %w", err)
		}
		change, err := fn(b, payments)
		if err != nil || change == nil {
			return err
		}
		return r.apply(ctx, tx, bookingID, change)
	})
}

func (r *LedgerRepo) apply(ctx context.Context, tx *sql.Tx, bookingID uint64, change *model.LedgerChange) error {
	now := r.now()
	if p := change.Insert; p != nil {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO payments (booking_id, payer_id, amount, type, method, status, transaction_id, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			bookingID, p.PayerID, p.Amount, string(p.Type), string(p.Method), string(p.Status), p.TransactionID, now, now)
		if err != nil {
			if isDuplicateKey(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("insert payment: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		p.ID = uint64(id)
		p.BookingID = bookingID
		p.CreatedAt, p.UpdatedAt = now, now
	}
	if p := change.Update; p != nil {
		res, err := tx.ExecContext(ctx,
			"UPDATE payments SET status = ?, updated_at = ? WHERE id = ? AND booking_id = ?",
			string(p.Status), now, p.ID, bookingID)
		if err != nil {
			return fmt.Errorf("update payment: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ErrNotFound
		}
		p.UpdatedAt = now
	}
	if change.QuotedPrice != nil || change.InternalNotes != nil {
		var price, notes any
		if change.QuotedPrice != nil {
			price = *change.QuotedPrice
		}
		if change.InternalNotes != nil {
			notes = *change.InternalNotes
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE bookings SET quoted_price = COALESCE(?, quoted_price), internal_notes = COALESCE(?, internal_notes), updated_at = ?
			 WHERE id = ?`,
			price, notes, now, bookingID)
		if err != nil {
			return fmt.Errorf("update quote: %w", err)
		}
	}
	if st := change.InvoiceStatus; st != nil {
		_, err := tx.ExecContext(ctx,
			"UPDATE invoices SET status = ?, updated_at = ? WHERE booking_id = ? AND status <> ?",
			string(*st), now, bookingID, string(*st))
		if err != nil {
			return fmt.Errorf("sync invoice status: %w", err)
		}
	}
	return nil
}

func (r *LedgerRepo) GetPayment(ctx context.Context, id uint64) (*model.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx, "SELECT "+paymentColumns+" FROM payments WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *LedgerRepo) ListPayments(ctx context.Context, bookingID uint64) ([]model.Payment, error) {
	return listPayments(ctx, r.db, bookingID)
}
