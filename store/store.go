// Package store reads projects, tasks, users, groups and object-level
// permission grants from the WebODM relational schema.
//
// The store never writes. Callers acquire a Session per unit of work and
// release it with Close, typically via defer:
//
//	session, err := db.Acquire(ctx)
//	if err != nil {
//	    return err
//	}
//	defer session.Close()
//
// Queries return raw rows; aggregation and ranking belong to the ownership
// and access packages.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/amonks/taskowner/internal/logging"
	"github.com/amonks/taskowner/internal/validation"
)

//go:embed schema.sql
var schema string

// Schema returns the SQLite schema for the tables the store reads.
func Schema() string {
	return schema
}

// Driver names a supported database backend.
type Driver string

const (
	// DriverPostgres reads a WebODM PostgreSQL database through pgx.
	DriverPostgres Driver = "postgres"

	// DriverSQLite reads a SQLite database with the same table layout.
	DriverSQLite Driver = "sqlite"
)

// ValidDrivers returns all supported drivers.
func ValidDrivers() []Driver {
	return []Driver{DriverPostgres, DriverSQLite}
}

// IsValid returns true if the driver is supported.
func (d Driver) IsValid() bool {
	for _, valid := range ValidDrivers() {
		if d == valid {
			return true
		}
	}
	return false
}

func (d Driver) sqlName() string {
	if d == DriverPostgres {
		return "pgx"
	}
	return "sqlite"
}

// Options configures Open.
type Options struct {
	Driver Driver
	// DSN is a pgx connection URL for postgres or a file path for sqlite.
	DSN string
	// MaxOpenConns caps the pool. Zero means unlimited.
	MaxOpenConns int
	Logger       *zap.SugaredLogger
}

// DB is a pool of read connections.
type DB struct {
	db     *sql.DB
	driver Driver
	logger *zap.SugaredLogger
}

// Open creates a connection pool. Connections are established lazily, so
// an unreachable server surfaces on the first Acquire or Ping.
func Open(opts Options) (*DB, error) {
	if !opts.Driver.IsValid() {
		return nil, validation.FormatInvalidValueError(ErrInvalidDriver, opts.Driver, ValidDrivers())
	}
	if strings.TrimSpace(opts.DSN) == "" {
		return nil, fmt.Errorf("dsn is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	db, err := sql.Open(opts.Driver.sqlName(), opts.DSN)
	if err != nil {
		return nil, unavailable("open database", err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}

	logger.Debugw("store opened", "driver", string(opts.Driver), "max_open_conns", opts.MaxOpenConns)
	return &DB{db: db, driver: opts.Driver, logger: logger}, nil
}

// Driver returns the backend the pool talks to.
func (db *DB) Driver() Driver {
	return db.driver
}

// Ping verifies the store is reachable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// Stats reports pool usage.
func (db *DB) Stats() sql.DBStats {
	return db.db.Stats()
}

// Close closes the pool.
func (db *DB) Close() error {
	return db.db.Close()
}

// ApplySchema creates the bundled tables. Only SQLite databases are
// managed here; PostgreSQL schemas belong to WebODM.
func (db *DB) ApplySchema(ctx context.Context) error {
	if db.driver != DriverSQLite {
		return fmt.Errorf("apply schema: only supported for %s", DriverSQLite)
	}
	if _, err := db.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Exec runs a statement outside of any session. It exists for fixtures
// and development databases.
func (db *DB) Exec(ctx context.Context, query string, args ...any) error {
	if _, err := db.db.ExecContext(ctx, rebind(db.driver, query), args...); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}

// Acquire takes one connection from the pool for the caller's exclusive
// use until Close.
func (db *DB) Acquire(ctx context.Context) (*Session, error) {
	conn, err := db.db.Conn(ctx)
	if err != nil {
		return nil, unavailable("acquire connection", err)
	}
	return &Session{conn: conn, driver: db.driver}, nil
}

// Session is one pooled connection.
type Session struct {
	conn   *sql.Conn
	driver Driver
	closed bool
}

// Close returns the connection to the pool. Calling Close more than once
// is a no-op.
func (s *Session) Close() error {
	if s == nil || s.closed {
		return nil
	}
	s.closed = true
	err := s.conn.Close()
	if errors.Is(err, sql.ErrConnDone) {
		return nil
	}
	return err
}

func (s *Session) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.conn.QueryContext(ctx, rebind(s.driver, query), args...)
}

func (s *Session) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.conn.QueryRowContext(ctx, rebind(s.driver, query), args...)
}

// rebind rewrites '?' placeholders as $1, $2, ... for PostgreSQL.
func rebind(driver Driver, query string) string {
	if driver != DriverPostgres || !strings.Contains(query, "?") {
		return query
	}
	var builder strings.Builder
	builder.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] != '?' {
			builder.WriteByte(query[i])
			continue
		}
		n++
		builder.WriteByte('$')
		builder.WriteString(strconv.Itoa(n))
	}
	return builder.String()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
