// Package repository holds the MySQL-backed stores. The sentinel errors
// below are shared with the in-memory store so that services can
// translate storage outcomes without knowing which backend ran.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the addressed row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique key would be violated, e.g. a
// second payment with the same transaction id on one booking.
var ErrDuplicate = errors.New("duplicate")

// ErrStale is returned by conditional updates whose precondition no
// longer holds (the row moved on underneath the caller).
var ErrStale = errors.New("stale write")

// isDuplicateKey reports MySQL error 1062 (ER_DUP_ENTRY).
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
