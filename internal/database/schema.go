package database

import (
	"context"
	"database/sql"
)

// The active-slot guard is the store-level half of the one-booking-per-slot
// rule: MySQL indexes a generated column that is NULL unless the appointment
// is booked, SQLite uses a partial unique index.

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name          VARCHAR(50)  NOT NULL,
		email         VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		contact       VARCHAR(32)  NOT NULL DEFAULT '',
		role          VARCHAR(16)  NOT NULL DEFAULT 'CUSTOMER',
		created_at    DATETIME     NOT NULL,
		updated_at    DATETIME     NOT NULL,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL,
		UNIQUE KEY uq_refresh_tokens_hash (token_hash),
		CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS slots (
		id           BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		slot_date    CHAR(10)   NOT NULL,
		start_time   CHAR(5)    NOT NULL,
		end_time     CHAR(5)    NOT NULL,
		is_available TINYINT(1) NOT NULL DEFAULT 1,
		created_at   DATETIME   NOT NULL,
		updated_at   DATETIME   NOT NULL,
		UNIQUE KEY uq_slots_window (slot_date, start_time, end_time),
		KEY idx_slots_available (slot_date, is_available)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS appointments (
		id             BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id        BIGINT UNSIGNED NOT NULL,
		slot_id        BIGINT UNSIGNED NOT NULL,
		contact        VARCHAR(32) NOT NULL,
		name           VARCHAR(50) NOT NULL,
		status         ENUM('booked','cancelled','completed') NOT NULL DEFAULT 'booked',
		cancelled_at   DATETIME NULL,
		created_at     DATETIME NOT NULL,
		updated_at     DATETIME NOT NULL,
		active_slot_id BIGINT UNSIGNED AS (IF(status = 'booked', slot_id, NULL)) STORED,
		UNIQUE KEY uq_appointments_active_slot (active_slot_id),
		KEY idx_appointments_user (user_id),
		CONSTRAINT fk_appointments_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE RESTRICT,
		CONSTRAINT fk_appointments_slot FOREIGN KEY (slot_id) REFERENCES slots (id) ON DELETE RESTRICT
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		contact       TEXT NOT NULL DEFAULT '',
		role          TEXT NOT NULL DEFAULT 'CUSTOMER',
		created_at    DATETIME NOT NULL,
		updated_at    DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		token_hash TEXT NOT NULL UNIQUE,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS slots (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		slot_date    TEXT NOT NULL,
		start_time   TEXT NOT NULL,
		end_time     TEXT NOT NULL,
		is_available INTEGER NOT NULL DEFAULT 1,
		created_at   DATETIME NOT NULL,
		updated_at   DATETIME NOT NULL,
		UNIQUE (slot_date, start_time, end_time)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_slots_available ON slots (slot_date, is_available)`,
	`CREATE TABLE IF NOT EXISTS appointments (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id      INTEGER NOT NULL REFERENCES users (id) ON DELETE RESTRICT,
		slot_id      INTEGER NOT NULL REFERENCES slots (id) ON DELETE RESTRICT,
		contact      TEXT NOT NULL,
		name         TEXT NOT NULL,
		status       TEXT NOT NULL DEFAULT 'booked' CHECK (status IN ('booked','cancelled','completed')),
		cancelled_at DATETIME NULL,
		created_at   DATETIME NOT NULL,
		updated_at   DATETIME NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_appointments_active_slot ON appointments (slot_id) WHERE status = 'booked'`,
	`CREATE INDEX IF NOT EXISTS idx_appointments_user ON appointments (user_id)`,
}

// EnsureSchema creates any missing tables.  It is idempotent and does not
// alter existing tables.
func EnsureSchema(ctx context.Context, db *sql.DB, d Dialect) error {
	stmts := mysqlSchema
	if d == SQLite {
		stmts = sqliteSchema
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
