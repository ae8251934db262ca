package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/model"
)

var (
	fixedNow = time.Date(2031, 5, 1, 9, 0, 0, 0, time.UTC)
	day      = time.Date(2031, 6, 1, 10, 0, 0, 0, time.UTC)
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

var bookingCols = []string{"id", "customer_id", "service_id", "package_id", "item_name", "event_type", "event_dates",
	"location", "guest_count", "special_requests", "status", "quoted_price", "duration_minutes", "internal_notes",
	"created_at", "updated_at", "staff"}

func bookingRow(id uint64, status model.BookingStatus, staff any) *sqlmock.Rows {
	return sqlmock.NewRows(bookingCols).AddRow(id, 7, 3, nil, "Photography", "wedding", []byte(`["2031-06-01T10:00:00Z"]`),
		"Hall A", 120, "", string(status), 10000, 120, "", fixedNow, fixedNow, staff)
}

var paymentCols = []string{"id", "booking_id", "payer_id", "amount", "type", "method", "status", "transaction_id", "created_at", "updated_at"}

func TestGetBookingDecodesRow(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)

	mock.ExpectQuery(q("FROM bookings b WHERE b.id = ?")).WithArgs(5).
		WillReturnRows(bookingRow(5, model.StatusConfirmed, "2,9"))

	b, err := repo.GetBooking(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), b.CustomerID)
	require.NotNil(t, b.ServiceID)
	assert.Equal(t, uint64(3), *b.ServiceID)
	assert.Nil(t, b.PackageID)
	assert.Equal(t, []time.Time{day}, b.EventDates)
	assert.Equal(t, []uint64{2, 9}, b.AssignedStaff)
	assert.Equal(t, model.StatusConfirmed, b.Status)

	mock.ExpectQuery(q("FROM bookings b WHERE b.id = ?")).WithArgs(6).WillReturnRows(sqlmock.NewRows(bookingCols))
	_, err = repo.GetBooking(context.Background(), 6)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateBookingStoresEventBounds(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)
	repo.now = func() time.Time { return fixedNow }
	later := day.AddDate(0, 0, 2)
	sid := uint64(3)

	mock.ExpectExec(q("INSERT INTO bookings")).
		WithArgs(uint64(7), uint64(3), nil, "Photography", "wedding", sqlmock.AnyArg(), day, later,
			"Hall A", 50, "", "Inquiry", int64(10000), 120, "", fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(11, 1))

	b := &model.Booking{CustomerID: 7, ServiceID: &sid, ItemName: "Photography", EventType: "wedding",
		EventDates: []time.Time{day, later}, Location: "Hall A", GuestCount: 50, Status: model.StatusInquiry,
		QuotedPrice: 10000, DurationMinutes: 120}
	require.NoError(t, repo.CreateBooking(context.Background(), b))
	assert.Equal(t, uint64(11), b.ID)
	assert.Equal(t, fixedNow, b.CreatedAt)
	assert.Empty(t, b.AssignedStaff)
}

func TestListBookingsBuildsFilter(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)
	from := day

	mock.ExpectQuery(q("WHERE b.status = ? AND b.customer_id = ? AND b.last_event_at >= ? ORDER BY b.created_at, b.id LIMIT 10 OFFSET 20")).
		WithArgs("Quoted", uint64(7), day).
		WillReturnRows(bookingRow(1, model.StatusQuoted, nil))

	var got []model.Booking
	for b, err := range repo.ListBookings(context.Background(), model.BookingFilter{
		Status: model.StatusQuoted, CustomerID: 7, From: &from, Limit: 10, Offset: 20,
	}) {
		require.NoError(t, err)
		got = append(got, b)
	}
	require.Len(t, got, 1)
	assert.Empty(t, got[0].AssignedStaff)
}

func TestUpdateBookingStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("cancel releases schedules", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewBookingRepo(db)
		mock.ExpectBegin()
		mock.ExpectExec(q("UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status = ?")).
			WithArgs("Cancelled", sqlmock.AnyArg(), 5, "Confirmed").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(q("DELETE FROM schedules WHERE booking_id = ?")).WithArgs(5).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()
		mock.ExpectQuery(q("FROM bookings b WHERE b.id = ?")).WillReturnRows(bookingRow(5, model.StatusCancelled, nil))

		b, err := repo.UpdateBookingStatus(ctx, 5, model.StatusConfirmed, model.StatusCancelled)
		require.NoError(t, err)
		assert.Equal(t, model.StatusCancelled, b.Status)
	})

	t.Run("stale", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewBookingRepo(db)
		mock.ExpectBegin()
		mock.ExpectExec(q("UPDATE bookings SET status")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(q("SELECT id FROM bookings WHERE id = ?")).WithArgs(5).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
		mock.ExpectRollback()

		_, err := repo.UpdateBookingStatus(ctx, 5, model.StatusInquiry, model.StatusQuoted)
		assert.ErrorIs(t, err, ErrStale)
	})

	t.Run("missing", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewBookingRepo(db)
		mock.ExpectBegin()
		mock.ExpectExec(q("UPDATE bookings SET status")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(q("SELECT id FROM bookings WHERE id = ?")).WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectRollback()

		_, err := repo.UpdateBookingStatus(ctx, 5, model.StatusInquiry, model.StatusQuoted)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func expectLedgerLoad(mock sqlmock.Sqlmock, bookingID uint64, payments *sqlmock.Rows) {
	mock.ExpectBegin()
	mock.ExpectQuery(q("SELECT id FROM bookings WHERE id = ? FOR UPDATE")).WithArgs(bookingID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(bookingID))
	mock.ExpectQuery(q("FROM bookings b WHERE b.id = ?")).WillReturnRows(bookingRow(bookingID, model.StatusConfirmed, nil))
	mock.ExpectQuery(q("FROM payments WHERE booking_id = ? ORDER BY id")).WithArgs(bookingID).WillReturnRows(payments)
}

func TestWithLedgerInsertsUnderLock(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLedgerRepo(db)
	repo.now = func() time.Time { return fixedNow }

	expectLedgerLoad(mock, 5, sqlmock.NewRows(paymentCols).
		AddRow(1, 5, 7, 6000, "advance", "card", "completed", "tx-1", fixedNow, fixedNow))
	mock.ExpectExec(q("INSERT INTO payments")).
		WithArgs(uint64(5), uint64(7), int64(4000), "balance", "cash", "completed", "tx-2", fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	p := &model.Payment{PayerID: 7, Amount: 4000, Type: model.PaymentBalance, Method: model.MethodCash, Status: model.PaymentCompleted, TransactionID: "tx-2"}
	err := repo.WithLedger(context.Background(), 5, func(b *model.Booking, payments []model.Payment) (*model.LedgerChange, error) {
		assert.Equal(t, int64(10000), b.QuotedPrice)
		require.Len(t, payments, 1)
		assert.Equal(t, model.PaymentCompleted, payments[0].Status)
		return &model.LedgerChange{Insert: p}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), p.ID)
	assert.Equal(t, uint64(5), p.BookingID)
}

func TestWithLedgerRestampsInvoicesInSameTx(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLedgerRepo(db)
	repo.now = func() time.Time { return fixedNow }

	expectLedgerLoad(mock, 5, sqlmock.NewRows(paymentCols).
		AddRow(1, 5, 7, 6000, "advance", "card", "pending", "tx-1", fixedNow, fixedNow))
	mock.ExpectExec(q("UPDATE payments SET status = ?, updated_at = ? WHERE id = ? AND booking_id = ?")).
		WithArgs("completed", fixedNow, uint64(1), uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("UPDATE invoices SET status = ?, updated_at = ? WHERE booking_id = ? AND status <> ?")).
		WithArgs("partial", fixedNow, uint64(5), "partial").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	partial := model.SettlementPartial
	err := repo.WithLedger(context.Background(), 5, func(_ *model.Booking, payments []model.Payment) (*model.LedgerChange, error) {
		p := payments[0]
		p.Status = model.PaymentCompleted
		return &model.LedgerChange{Update: &p, InvoiceStatus: &partial}, nil
	})
	require.NoError(t, err)
}

func TestWithLedgerDuplicateTransactionRollsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLedgerRepo(db)

	expectLedgerLoad(mock, 5, sqlmock.NewRows(paymentCols))
	mock.ExpectExec(q("INSERT INTO payments")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '5-tx-1' for key 'uq_payments_booking_tx'"})
	mock.ExpectRollback()

	err := repo.WithLedger(context.Background(), 5, func(*model.Booking, []model.Payment) (*model.LedgerChange, error) {
		return &model.LedgerChange{Insert: &model.Payment{Amount: 1, TransactionID: "tx-1"}}, nil
	})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestWithLedgerCallbackErrorWritesNothing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLedgerRepo(db)
	boom := errors.New("overpaid")

	expectLedgerLoad(mock, 5, sqlmock.NewRows(paymentCols))
	mock.ExpectRollback()

	err := repo.WithLedger(context.Background(), 5, func(*model.Booking, []model.Payment) (*model.LedgerChange, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestWithLedgerUpdatesQuote(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLedgerRepo(db)
	price := int64(12000)

	expectLedgerLoad(mock, 5, sqlmock.NewRows(paymentCols))
	mock.ExpectExec(q("UPDATE bookings SET quoted_price = COALESCE(?, quoted_price)")).
		WithArgs(int64(12000), nil, sqlmock.AnyArg(), uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.WithLedger(context.Background(), 5, func(*model.Booking, []model.Payment) (*model.LedgerChange, error) {
		return &model.LedgerChange{QuotedPrice: &price}, nil
	})
	require.NoError(t, err)
}

func TestWithLedgerUnknownBooking(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLedgerRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(q("SELECT id FROM bookings WHERE id = ? FOR UPDATE")).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := repo.WithLedger(context.Background(), 99, func(*model.Booking, []model.Payment) (*model.LedgerChange, error) {
		t.Fatal("callback must not run")
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateFinalInvoiceSupersedesEarlier(t *testing.T) {
	db, mock := newMock(t)
	repo := NewInvoiceRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(q("SELECT id FROM bookings WHERE id = ? FOR UPDATE")).WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectExec(q("INSERT INTO invoices")).WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectExec(q("UPDATE invoices SET superseded_by = ?")).
		WithArgs(uint64(9), sqlmock.AnyArg(), uint64(5), "final", uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	inv := &model.Invoice{BookingID: 5, InvoiceNumber: "INV-20310501-ABCDEF12", Type: model.InvoiceFinal,
		Items: []model.LineItem{{Description: "Photography", Quantity: 1, UnitPrice: 10000, LineTotal: 10000}},
		Subtotal: 10000, TotalAmount: 10000, Status: model.SettlementPending, IssueDate: fixedNow}
	require.NoError(t, repo.CreateInvoice(context.Background(), inv))
	assert.Equal(t, uint64(9), inv.ID)
}

func TestCreateInvoiceDuplicateNumber(t *testing.T) {
	db, mock := newMock(t)
	repo := NewInvoiceRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(q("FOR UPDATE")).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectExec(q("INSERT INTO invoices")).WillReturnError(&mysql.MySQLError{Number: 1062})
	mock.ExpectRollback()

	err := repo.CreateInvoice(context.Background(), &model.Invoice{BookingID: 5, Type: model.InvoiceQuotation, Items: []model.LineItem{}})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestGetInvoiceDecodesItems(t *testing.T) {
	db, mock := newMock(t)
	repo := NewInvoiceRepo(db)
	cols := []string{"id", "booking_id", "invoice_number", "type", "items", "tax_rate", "subtotal", "tax_amount", "total_amount",
		"status", "issue_date", "notes", "terms", "superseded_by", "created_at", "updated_at"}
	mock.ExpectQuery(q("FROM invoices WHERE id = ?")).WithArgs(3).WillReturnRows(sqlmock.NewRows(cols).
		AddRow(3, 5, "QUO-20310501-ABCDEF12", "quotation", []byte(`[{"description":"Photography","quantity":1,"unitPrice":10000,"lineTotal":10000}]`),
			"18.00", 10000, 1800, 11800, "pending", fixedNow, "", "", 4, fixedNow, fixedNow))

	inv, err := repo.GetInvoice(context.Background(), 3)
	require.NoError(t, err)
	assert.InDelta(t, 18.0, inv.TaxRate, 1e-9)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, int64(10000), inv.Items[0].LineTotal)
	require.NotNil(t, inv.SupersededBy)
	assert.Equal(t, uint64(4), *inv.SupersededBy)
}

var scheduleCols = []string{"id", "booking_id", "staff_id", "start_at", "duration_minutes", "status", "created_at"}

func TestWithStaffScheduleInserts(t *testing.T) {
	db, mock := newMock(t)
	repo := NewScheduleRepo(db)
	repo.now = func() time.Time { return fixedNow }
	bid := uint64(5)

	mock.ExpectBegin()
	mock.ExpectQuery(q("SELECT id FROM users WHERE id = ? FOR UPDATE")).WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectQuery(q("FROM schedules WHERE staff_id = ? ORDER BY start_at, id")).WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows(scheduleCols).AddRow(1, nil, 2, day.Add(-3*time.Hour), 60, "Busy", fixedNow))
	mock.ExpectExec(q("INSERT INTO schedules")).
		WithArgs(uint64(5), uint64(2), day, day.Add(2*time.Hour), 120, "Scheduled", fixedNow).
		WillReturnResult(sqlmock.NewResult(8, 1))
	mock.ExpectCommit()

	entry := &model.Schedule{BookingID: &bid, StartAt: day, DurationMinutes: 120, Status: model.ScheduleScheduled}
	err := repo.WithStaffSchedule(context.Background(), 2, func(existing []model.Schedule) (*model.ScheduleChange, error) {
		require.Len(t, existing, 1)
		assert.Nil(t, existing[0].BookingID)
		return &model.ScheduleChange{Insert: []*model.Schedule{entry}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(8), entry.ID)
	assert.Equal(t, uint64(2), entry.StaffID)
}

func TestWithStaffScheduleDeletesAndUpdates(t *testing.T) {
	db, mock := newMock(t)
	repo := NewScheduleRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(q("FOR UPDATE")).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectQuery(q("FROM schedules WHERE staff_id = ?")).WillReturnRows(sqlmock.NewRows(scheduleCols))
	mock.ExpectExec(q("DELETE FROM schedules WHERE staff_id = ? AND id IN (?, ?)")).
		WithArgs(uint64(2), uint64(3), uint64(4)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(q("UPDATE schedules SET status = ? WHERE id = ? AND staff_id = ?")).
		WithArgs("Available", uint64(6), uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.WithStaffSchedule(context.Background(), 2, func([]model.Schedule) (*model.ScheduleChange, error) {
		return &model.ScheduleChange{DeleteIDs: []uint64{3, 4}, Update: &model.Schedule{ID: 6, Status: model.ScheduleAvailable}}, nil
	})
	require.NoError(t, err)
}

func TestWithStaffScheduleGuardsBookingStatus(t *testing.T) {
	db, mock := newMock(t)
	repo := NewScheduleRepo(db)
	bid := uint64(5)

	mock.ExpectBegin()
	mock.ExpectQuery(q("SELECT id FROM users WHERE id = ? FOR UPDATE")).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectQuery(q("FROM schedules WHERE staff_id = ?")).WillReturnRows(sqlmock.NewRows(scheduleCols))
	mock.ExpectQuery(q("SELECT status FROM bookings WHERE id = ? FOR SHARE")).WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("Cancelled"))
	mock.ExpectRollback()

	err := repo.WithStaffSchedule(context.Background(), 2, func([]model.Schedule) (*model.ScheduleChange, error) {
		return &model.ScheduleChange{
			Insert:        []*model.Schedule{{BookingID: &bid, StartAt: day, DurationMinutes: 60, Status: model.ScheduleScheduled}},
			GuardBooking:  bid,
			GuardStatuses: []model.BookingStatus{model.StatusConfirmed, model.StatusInProgress},
		}, nil
	})
	assert.ErrorIs(t, err, ErrStale)
}

func TestWithStaffScheduleUnknownStaff(t *testing.T) {
	db, mock := newMock(t)
	repo := NewScheduleRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(q("SELECT id FROM users WHERE id = ? FOR UPDATE")).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := repo.WithStaffSchedule(context.Background(), 42, func([]model.Schedule) (*model.ScheduleChange, error) {
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListSchedulesRange(t *testing.T) {
	db, mock := newMock(t)
	repo := NewScheduleRepo(db)
	from, to := day, day.AddDate(0, 0, 1)

	mock.ExpectQuery(q("WHERE staff_id = ? AND end_at > ? AND start_at < ? ORDER BY start_at, id")).
		WithArgs(uint64(2), from, to).
		WillReturnRows(sqlmock.NewRows(scheduleCols).AddRow(1, 5, 2, day, 120, "Scheduled", fixedNow))

	got, err := repo.ListSchedules(context.Background(), model.ScheduleFilter{StaffID: 2, From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].ForBooking(5))
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(q("INSERT INTO users")).
		WithArgs("ada@example.com", "Ada", "hash", "staff", true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&mysql.MySQLError{Number: 1062})

	err := repo.CreateUser(context.Background(), &model.User{Email: "  Ada@Example.com ", Name: "Ada", PasswordHash: "hash", Role: model.RoleStaff, IsActive: true})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCatalogUpdateMissingRow(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCatalogRepo(db)

	mock.ExpectExec(q("UPDATE services SET")).WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.UpdateService(context.Background(), &model.Service{ID: 404, Name: "x", BasePrice: 1, DurationMinutes: 1})
	assert.ErrorIs(t, err, ErrNotFound)

	cols := []string{"id", "name", "description", "service_ids", "duration_minutes", "price", "is_active", "created_at", "updated_at"}
	mock.ExpectQuery(q("FROM packages WHERE is_active = TRUE ORDER BY id")).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(1, "Gold", "", []byte(`[1,2]`), 300, 25000, true, fixedNow, fixedNow))
	pkgs, err := repo.ListPackages(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Equal(t, []uint64{1, 2}, pkgs[0].ServiceIDs)
}
