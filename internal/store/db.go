package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"
)

// DB wraps sql.DB and remembers which backend it talks to. The sqlite3
// backend is the single-file default; pgx covers Postgres deployments.
type DB struct {
	Client *sql.DB
	Driver string
}

// Open connects to the configured backend and verifies connectivity.
// For sqlite3 the dsn is a file path; journal mode, busy timeout and
// foreign key enforcement are applied here.
func Open(driver, dsn string) (*DB, error) {
	switch driver {
	case "sqlite3":
		if !strings.Contains(dsn, ":memory:") {
			if dir := filepath.Dir(dsn); dir != "." {
				_ = os.MkdirAll(dir, 0o755)
			}
			dsn += "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
		}
	case "pgx", "postgres":
		driver = "pgx"
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if driver == "sqlite3" && strings.Contains(dsn, ":memory:") {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(time.Hour)
	}
	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &DB{Client: db, Driver: driver}, nil
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}

// Rebind rewrites ? placeholders into the $n form Postgres expects.
// Queries are written with ? throughout; sqlite takes them as-is.
func (d *DB) Rebind(query string) string {
	if d.Driver != "pgx" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS students (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	first_name    TEXT NOT NULL,
	last_name     TEXT NOT NULL DEFAULT '',
	mobile_number TEXT UNIQUE,
	dob           TEXT,
	roll_no       TEXT UNIQUE,
	email         TEXT UNIQUE,
	course        TEXT,
	photo         TEXT NOT NULL,
	descriptor    TEXT NOT NULL DEFAULT '[]',
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS attendance (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	student_id INTEGER NOT NULL REFERENCES students(id),
	date       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'Present',
	confidence REAL,
	timestamp  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_attendance_student ON attendance(student_id);
CREATE INDEX IF NOT EXISTS idx_attendance_date    ON attendance(date);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS students (
	id            BIGSERIAL PRIMARY KEY,
	first_name    TEXT NOT NULL,
	last_name     TEXT NOT NULL DEFAULT '',
	mobile_number TEXT UNIQUE,
	dob           TEXT,
	roll_no       TEXT UNIQUE,
	email         TEXT UNIQUE,
	course        TEXT,
	photo         TEXT NOT NULL,
	descriptor    TEXT NOT NULL DEFAULT '[]',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS attendance (
	id         BIGSERIAL PRIMARY KEY,
	student_id BIGINT NOT NULL REFERENCES students(id),
	date       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'Present',
	confidence DOUBLE PRECISION,
	timestamp  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_attendance_student ON attendance(student_id);
CREATE INDEX IF NOT EXISTS idx_attendance_date    ON attendance(date);
`

// Migrate creates the schema. There is deliberately no unique constraint on
// attendance(student_id, date); the recorder enforces that in application
// logic so a repeat mark can be acknowledged instead of rejected.
func (d *DB) Migrate() error {
	schema := sqliteSchema
	if d.Driver == "pgx" {
		schema = postgresSchema
	}
	_, err := d.Client.Exec(schema)
	return err
}

// IsUniqueViolation reports whether err is a unique-constraint violation
// from either backend.
func IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
