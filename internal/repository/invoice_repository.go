package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/model"
)

// InvoiceRepo stores invoice snapshots. Line items are a JSON column and
// are never rewritten after insert.
type InvoiceRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewInvoiceRepo(db *sql.DB) *InvoiceRepo { return &InvoiceRepo{db: db, now: utcNow} }

const invoiceColumns = `id, booking_id, invoice_number, type, items, tax_rate, subtotal, tax_amount, total_amount,
	status, issue_date, notes, terms, superseded_by, created_at, updated_at`

func scanInvoice(row scanner) (*model.Invoice, error) {
	var (
		inv          model.Invoice
		typ, status  string
		items        []byte
		supersededBy sql.NullInt64
	)
	err := row.Scan(&inv.ID, &inv.BookingID, &inv.InvoiceNumber, &typ, &items, &inv.TaxRate, &inv.Subtotal, &inv.TaxAmount, &inv.TotalAmount,
		&status, &inv.IssueDate, &inv.Notes, &inv.Terms, &supersededBy, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	inv.Type = model.InvoiceType(typ)
	inv.Status = model.SettlementStatus(status)
	inv.SupersededBy = idPtr(supersededBy)
	if err := json.Unmarshal(items, &inv.Items); err != nil {
		return nil, fmt.Errorf("decode invoice %d items: %w", inv.ID, err)
	}
	return &inv, nil
}

// CreateInvoice inserts inv under the booking row lock. A final invoice
// supersedes every earlier final of the booking in the same transaction.
func (r *InvoiceRepo) CreateInvoice(ctx context.Context, inv *model.Invoice) error {
	items, err := json.Marshal(inv.Items)
	if err != nil {
		return err
	}
	now := r.now()
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockRow(ctx, tx, "bookings", inv.BookingID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO invoices (booking_id, invoice_number, type, items, tax_rate, subtotal, tax_amount, total_amount,
			   status, issue_date, notes, terms, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			inv.BookingID, inv.InvoiceNumber, string(inv.Type), items, inv.TaxRate, inv.Subtotal, inv.TaxAmount, inv.TotalAmount,
			string(inv.Status), inv.IssueDate, inv.Notes, inv.Terms, now, now)
		if err != nil {
			if isDuplicateKey(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("insert invoice: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		inv.ID = uint64(id)
		inv.CreatedAt, inv.UpdatedAt = now, now
		if inv.Type != model.InvoiceFinal {
			return nil
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE invoices SET superseded_by = ?, updated_at = ?
			 WHERE booking_id = ? AND type = ? AND superseded_by IS NULL AND id <> ?`,
			inv.ID, now, inv.BookingID, string(model.InvoiceFinal), inv.ID)
		if err != nil {
			return fmt.Errorf("supersede finals: %w", err)
		}
		return nil
	})
}

func (r *InvoiceRepo) GetInvoice(ctx context.Context, id uint64) (*model.Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRowContext(ctx, "SELECT "+invoiceColumns+" FROM invoices WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return inv, err
}

func (r *InvoiceRepo) ListInvoices(ctx context.Context, bookingID uint64) ([]model.Invoice, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+invoiceColumns+" FROM invoices WHERE booking_id = ? ORDER BY id", bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

func (r *InvoiceRepo) UpdateInvoiceStatus(ctx context.Context, id uint64, status model.SettlementStatus) error {
	res, err := r.db.ExecContext(ctx, "UPDATE invoices SET status = ?, updated_at = ? WHERE id = ?", string(status), r.now(), id)
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
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
