package repository

import "database/sql"

// Store bundles the MySQL repositories behind one value that satisfies
// every storage port.
type Store struct {
	*UserRepo
	*CatalogRepo
	*BookingRepo
	*LedgerRepo
	*InvoiceRepo
	*ScheduleRepo
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		UserRepo:     NewUserRepo(db),
		CatalogRepo:  NewCatalogRepo(db),
		BookingRepo:  NewBookingRepo(db),
		LedgerRepo:   NewLedgerRepo(db),
		InvoiceRepo:  NewInvoiceRepo(db),
		ScheduleRepo: NewScheduleRepo(db),
	}
}
