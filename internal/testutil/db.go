// Package testutil provides SQLite-backed fixtures for package tests.
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/slot-booking-api/internal/database"
	"github.com/iliyamo/slot-booking-api/internal/model"
)

// NewSQLite opens a fresh database file under t.TempDir with the schema
// applied.  It is closed when the test ends.
func NewSQLite(t testing.TB) *sql.DB {
	t.Helper()
	return OpenSQLiteFile(t, filepath.Join(t.TempDir(), "test.db"))
}

// OpenSQLiteFile opens path as its own *sql.DB, creating the schema if
// needed.  Several handles on one file contend for the SQLite write lock
// the way separate processes would.
func OpenSQLiteFile(t testing.TB, path string) *sql.DB {
	t.Helper()
	db, err := database.OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, database.EnsureSchema(context.Background(), db, database.SQLite))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// SeedUser inserts a customer with the given id (0 lets the database pick)
// and returns the id.
func SeedUser(t testing.TB, db *sql.DB, id uint64, email string) uint64 {
	t.Helper()
	now := time.Now().UTC()
	res, err := db.Exec(
		`INSERT INTO users (id, name, email, password_hash, role, created_at, updated_at) VALUES (NULLIF(?, 0), ?, ?, ?, ?, ?, ?)`,
		id, "Test User", email, "x", model.RoleCustomer, now, now)
	require.NoError(t, err)
	got, err := res.LastInsertId()
	require.NoError(t, err)
	return uint64(got)
}

// SeedSlot inserts an available slot and returns its id.
func SeedSlot(t testing.TB, db *sql.DB, id uint64, date, start, end string) uint64 {
	t.Helper()
	now := time.Now().UTC()
	res, err := db.Exec(
		`INSERT INTO slots (id, slot_date, start_time, end_time, is_available, created_at, updated_at) VALUES (NULLIF(?, 0), ?, ?, ?, 1, ?, ?)`,
		id, date, start, end, now, now)
	require.NoError(t, err)
	got, err := res.LastInsertId()
	require.NoError(t, err)
	return uint64(got)
}

// SlotAvailable reads the availability flag of a slot.
func SlotAvailable(t testing.TB, db *sql.DB, id uint64) bool {
	t.Helper()
	var v bool
	require.NoError(t, db.QueryRow(`SELECT is_available FROM slots WHERE id = ?`, id).Scan(&v))
	return v
}

// CountAppointments counts appointments for a slot in the given status.
func CountAppointments(t testing.TB, db *sql.DB, slotID uint64, status model.AppointmentStatus) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM appointments WHERE slot_id = ? AND status = ?`, slotID, string(status)).Scan(&n))
	return n
}

// FutureDate returns a date string days ahead of today.
func FutureDate(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format("2006-01-02")
}
