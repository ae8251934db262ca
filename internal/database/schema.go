package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		email         VARCHAR(255) NOT NULL,
		name          VARCHAR(255) NOT NULL DEFAULT '',
		password_hash VARCHAR(255) NOT NULL DEFAULT '',
		role          VARCHAR(16)  NOT NULL,
		is_active     BOOLEAN      NOT NULL DEFAULT TRUE,
		created_at    DATETIME(6)  NOT NULL,
		updated_at    DATETIME(6)  NOT NULL,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS services (
		id               BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name             VARCHAR(255) NOT NULL,
		description      TEXT         NOT NULL,
		category         VARCHAR(64)  NOT NULL DEFAULT '',
		base_price       BIGINT       NOT NULL,
		duration_minutes INT          NOT NULL,
		is_active        BOOLEAN      NOT NULL DEFAULT TRUE,
		created_at       DATETIME(6)  NOT NULL,
		updated_at       DATETIME(6)  NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS packages (
		id               BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name             VARCHAR(255) NOT NULL,
		description      TEXT         NOT NULL,
		service_ids      JSON         NOT NULL,
		duration_minutes INT          NOT NULL,
		price            BIGINT       NOT NULL,
		is_active        BOOLEAN      NOT NULL DEFAULT TRUE,
		created_at       DATETIME(6)  NOT NULL,
		updated_at       DATETIME(6)  NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id               BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		customer_id      BIGINT UNSIGNED NOT NULL,
		service_id       BIGINT UNSIGNED NULL,
		package_id       BIGINT UNSIGNED NULL,
		item_name        VARCHAR(255) NOT NULL,
		event_type       VARCHAR(64)  NOT NULL DEFAULT '',
		event_dates      JSON         NOT NULL,
		first_event_at   DATETIME(6)  NOT NULL,
		last_event_at    DATETIME(6)  NOT NULL,
		location         VARCHAR(255) NOT NULL DEFAULT '',
		guest_count      INT          NOT NULL DEFAULT 0,
		special_requests TEXT         NOT NULL,
		status           VARCHAR(16)  NOT NULL,
		quoted_price     BIGINT       NOT NULL,
		duration_minutes INT          NOT NULL,
		internal_notes   TEXT         NOT NULL,
		created_at       DATETIME(6)  NOT NULL,
		updated_at       DATETIME(6)  NOT NULL,
		KEY idx_bookings_customer (customer_id, created_at),
		KEY idx_bookings_status (status, created_at),
		KEY idx_bookings_events (first_event_at, last_event_at),
		CONSTRAINT fk_bookings_customer FOREIGN KEY (customer_id) REFERENCES users (id),
		CONSTRAINT fk_bookings_service FOREIGN KEY (service_id) REFERENCES services (id),
		CONSTRAINT fk_bookings_package FOREIGN KEY (package_id) REFERENCES packages (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS payments (
		id             BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		booking_id     BIGINT UNSIGNED NOT NULL,
		payer_id       BIGINT UNSIGNED NOT NULL,
		amount         BIGINT       NOT NULL,
		type           VARCHAR(16)  NOT NULL,
		method         VARCHAR(16)  NOT NULL,
		status         VARCHAR(16)  NOT NULL,
		transaction_id VARCHAR(128) NOT NULL,
		created_at     DATETIME(6)  NOT NULL,
		updated_at     DATETIME(6)  NOT NULL,
		UNIQUE KEY uq_payments_booking_tx (booking_id, transaction_id),
		CONSTRAINT fk_payments_booking FOREIGN KEY (booking_id) REFERENCES bookings (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS invoices (
		id             BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		booking_id     BIGINT UNSIGNED NOT NULL,
		invoice_number VARCHAR(32)  NOT NULL,
		type           VARCHAR(16)  NOT NULL,
		items          JSON         NOT NULL,
		tax_rate       DECIMAL(5,2) NOT NULL DEFAULT 0,
		subtotal       BIGINT       NOT NULL,
		tax_amount     BIGINT       NOT NULL,
		total_amount   BIGINT       NOT NULL,
		status         VARCHAR(16)  NOT NULL,
		issue_date     DATETIME(6)  NOT NULL,
		notes          TEXT         NOT NULL,
		terms          TEXT         NOT NULL,
		superseded_by  BIGINT UNSIGNED NULL,
		created_at     DATETIME(6)  NOT NULL,
		updated_at     DATETIME(6)  NOT NULL,
		UNIQUE KEY uq_invoices_number (invoice_number),
		KEY idx_invoices_booking (booking_id, type),
		CONSTRAINT fk_invoices_booking FOREIGN KEY (booking_id) REFERENCES bookings (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS schedules (
		id               BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		booking_id       BIGINT UNSIGNED NULL,
		staff_id         BIGINT UNSIGNED NOT NULL,
		start_at         DATETIME(6)  NOT NULL,
		end_at           DATETIME(6)  NOT NULL,
		duration_minutes INT          NOT NULL,
		status           VARCHAR(16)  NOT NULL,
		created_at       DATETIME(6)  NOT NULL,
		KEY idx_schedules_staff (staff_id, start_at, end_at),
		KEY idx_schedules_booking (booking_id),
		CONSTRAINT fk_schedules_staff FOREIGN KEY (staff_id) REFERENCES users (id),
		CONSTRAINT fk_schedules_booking FOREIGN KEY (booking_id) REFERENCES bookings (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
