package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/iliyamo/slot-booking-api/internal/config"
)

// Dialect identifies the SQL flavour behind a *sql.DB.  Repositories use it
// for the few statements that differ between MySQL and SQLite.
type Dialect string

const (
	MySQL  Dialect = config.DriverMySQL
	SQLite Dialect = config.DriverSQLite
)

// InsertIgnore returns the statement prefix that skips rows violating a
// unique key instead of failing.
func (d Dialect) InsertIgnore() string {
	if d == SQLite {
		return "INSERT OR IGNORE"
	}
	return "INSERT IGNORE"
}

// ForUpdate returns the row-locking suffix for SELECTs inside a transaction.
// SQLite has no row locks; its transactions take the database write lock
// (see _txlock=immediate in OpenSQLite).
func (d Dialect) ForUpdate() string {
	if d == SQLite {
		return ""
	}
	return " FOR UPDATE"
}

// Open connects to the configured database, verifies the connection and
// makes sure the schema exists.
func Open(ctx context.Context, cfg config.Config) (*sql.DB, Dialect, error) {
	var (
		db      *sql.DB
		dialect Dialect
		err     error
	)
	switch cfg.DBDriver {
	case config.DriverSQLite:
		db, err = OpenSQLite(cfg.DBPath)
		dialect = SQLite
	default:
		db, err = OpenMySQL(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		dialect = MySQL
	}
	if err != nil {
		return nil, "", err
	}
	if err := EnsureSchema(ctx, db, dialect); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("ensure schema: %w", err)
	}
	return db, dialect, nil
}

// OpenMySQL connects to MySQL and verifies the connection.
func OpenMySQL(user, pass, host, port, name string) (*sql.DB, error) {
	mc := mysql.NewConfig()
	mc.User = user
	mc.Passwd = pass
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(host, port)
	mc.DBName = name
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.Params = map[string]string{"charset": "utf8mb4"}

	db, err := sql.Open("mysql", mc.FormatDSN())
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenSQLite opens (creating if needed) a SQLite database file.  A single
// connection is used: SQLite serializes writers anyway, and sharing one
// connection avoids SQLITE_BUSY between our own goroutines.
func OpenSQLite(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_txlock=immediate&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func ping(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}
