// Package repository holds the SQL-backed stores.  The sentinel errors
// below let higher layers distinguish failure scenarios without looking at
// driver-specific error values.
package repository

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a unique key.
var ErrDuplicate = errors.New("duplicate")

// ErrEmailExists is returned by UserRepo.Create for a taken email.
var ErrEmailExists = errors.New("email already exists")

// ErrForeignKey is returned when a write references a row that does not
// exist.
var ErrForeignKey = errors.New("referenced row does not exist")

// MySQL error numbers.
const (
	mysqlDuplicateEntry = 1062 // ER_DUP_ENTRY
	mysqlNoReferenced   = 1216 // ER_NO_REFERENCED_ROW
	mysqlNoReferenced2  = 1452 // ER_NO_REFERENCED_ROW_2
)

// isDuplicate reports whether err is a unique-key violation on either
// supported driver.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// isForeignKey reports whether err is a foreign-key violation on either
// supported driver.
func isForeignKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlNoReferenced || me.Number == mysqlNoReferenced2
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}

// notFound converts sql.ErrNoRows into ErrNotFound and passes anything else
// through.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
