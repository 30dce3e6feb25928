package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/cesargomez89/topalbums/internal/constants"
)

var ErrNotFound = errors.New("not found")

// dbOps is satisfied by both *sqlx.DB and *sqlx.Tx.
type dbOps interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// DB is the relational store. Inside RunInTx the same methods run on the transaction.
type DB struct {
	dbOps
	root    *sqlx.DB
	dialect string
	inTx    bool
}

// Open opens the store for the given driver and applies the schema.
func Open(driver, dsn string) (*DB, error) {
	switch driver {
	case constants.DriverSQLite:
		return NewSQLiteDB(dsn)
	case constants.DriverPostgres:
		return NewPostgresDB(dsn)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
}

func NewSQLiteDB(dsn string) (*DB, error) {
	db, err := sqlx.Open("sqlite", sqliteDSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	return initDB(db, constants.DriverSQLite, SchemaSQLite)
}

func NewPostgresDB(dsn string) (*DB, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database connection string: %w", err)
	}
	db := sqlx.NewDb(stdlib.OpenDB(*cfg), "pgx")

	return initDB(db, constants.DriverPostgres, SchemaPostgres)
}

func initDB(db *sqlx.DB, dialect, schema string) (*DB, error) {
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{dbOps: db, root: db, dialect: dialect}, nil
}

// sqliteDSN adds the per-connection pragmas. foreign_keys is connection scoped in
// SQLite so it has to travel with the DSN rather than a one-off Exec.
func sqliteDSN(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(30000)"
}

func (db *DB) Ping(ctx context.Context) error {
	return db.root.PingContext(ctx)
}

func (db *DB) Close() error {
	return db.root.Close()
}

// RunInTx runs fn inside a transaction and commits when fn returns nil.
// Any error, or a panic, rolls the whole transaction back.
// Calling RunInTx on a DB that is already transactional just runs fn.
func (db *DB) RunInTx(ctx context.Context, fn func(txDB *DB) error) error {
	if db.inTx {
		return fn(db)
	}

	tx, err := db.root.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	txDB := &DB{
		dbOps:   tx,
		root:    db.root,
		dialect: db.dialect,
		inTx:    true,
	}

	if err := fn(txDB); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
