package sqlx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	// database drivers selected via Config.Driver
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"kittenboard/core"
)

// Driver selects the SQL dialect.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

// Config holds SQL storage configuration.
type Config struct {
	Driver          Driver        `json:"driver"`
	DSN             string        `json:"dsn"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
}

// DefaultConfig returns sensible defaults for the given driver.
func DefaultConfig(driver Driver) Config {
	return Config{
		Driver:          driver,
		DSN:             "",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// Store implements the engine.Storage interface on a relational database.
// Win increments run as a single UPDATE inside a transaction, so concurrent
// wins for the same identity serialize on the row lock.
type Store struct {
	db     *sqlx.DB
	driver Driver
}

// New connects to the database described by cfg and runs the schema
// migration.
func New(cfg Config) (*Store, error) {
	db, err := sqlx.Connect(string(cfg.Driver), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Driver, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	s := NewWithDB(db, cfg.Driver)
	if err := s.Migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB creates a Store using an existing database handle (useful for
// testing with sqlmock).
func NewWithDB(db *sqlx.DB, driver Driver) *Store {
	return &Store{db: db, driver: driver}
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the players table when missing.
func (s *Store) Migrate(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS players (
		identity VARCHAR(255) PRIMARY KEY,
		wins BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return core.WrapStoreError("migrate", err)
	}
	return nil
}

type playerRow struct {
	Identity  string    `db:"identity"`
	Wins      int64     `db:"wins"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r playerRow) record() core.PlayerRecord {
	return core.PlayerRecord{
		Identity: core.PlayerID(r.Identity),
		Wins:     r.Wins,
		Created:  r.CreatedAt.UTC(),
		Updated:  r.UpdatedAt.UTC(),
	}
}

// insertIgnoreSQL is the dialect's conflict-ignoring insert: a rival create
// for the same identity must not fail, only leave the existing row alone.
func (s *Store) insertIgnoreSQL() string {
	if s.driver == DriverMySQL {
		return `INSERT IGNORE INTO players (identity, wins, created_at, updated_at) VALUES (?, 0, ?, ?)`
	}
	return `INSERT INTO players (identity, wins, created_at, updated_at) VALUES (?, 0, ?, ?) ON CONFLICT (identity) DO NOTHING`
}

// GetOrCreate idempotently creates-or-fetches the record for id. Concurrent
// creates for the same new identity race to the primary key; the loser's
// insert is a no-op and the existing record is fetched instead.
func (s *Store) GetOrCreate(ctx context.Context, id core.PlayerID) (core.PlayerRecord, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return core.PlayerRecord{}, core.WrapStoreError("create", err)
	}
	defer func() { _ = tx.Rollback() }()

	var row playerRow
	query := tx.Rebind(`SELECT identity, wins, created_at, updated_at FROM players WHERE identity = ?`)
	err = tx.GetContext(ctx, &row, query, string(id))
	switch {
	case err == nil:
		if err := tx.Commit(); err != nil {
			return core.PlayerRecord{}, core.WrapStoreError("create", err)
		}
		return row.record(), nil
	case errors.Is(err, sql.ErrNoRows):
		now := time.Now().UTC()
		res, err := tx.ExecContext(ctx, tx.Rebind(s.insertIgnoreSQL()), string(id), now, now)
		if err != nil {
			return core.PlayerRecord{}, core.WrapStoreError("create", err)
		}
		inserted, err := res.RowsAffected()
		if err != nil {
			return core.PlayerRecord{}, core.WrapStoreError("create", err)
		}
		if err := tx.Commit(); err != nil {
			return core.PlayerRecord{}, core.WrapStoreError("create", err)
		}
		if inserted > 0 {
			return core.PlayerRecord{Identity: id, Created: now, Updated: now}, nil
		}
		// A rival won the race between SELECT and INSERT. The rival's row is
		// invisible to this transaction's snapshot under repeatable read, so
		// fetch it on a fresh statement.
		return s.Get(ctx, id)
	default:
		return core.PlayerRecord{}, core.WrapStoreError("create", err)
	}
}

// Get fetches the record for id without creating one.
func (s *Store) Get(ctx context.Context, id core.PlayerID) (core.PlayerRecord, error) {
	var row playerRow
	query := s.db.Rebind(`SELECT identity, wins, created_at, updated_at FROM players WHERE identity = ?`)
	err := s.db.GetContext(ctx, &row, query, string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.PlayerRecord{}, core.NotFoundError{Identity: id}
	}
	if err != nil {
		return core.PlayerRecord{}, core.WrapStoreError("get", err)
	}
	return row.record(), nil
}

// IncrementWin atomically adds one win. Unknown identities fail with
// core.NotFoundError and leave the table untouched.
func (s *Store) IncrementWin(ctx context.Context, id core.PlayerID) (core.PlayerRecord, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return core.PlayerRecord{}, core.WrapStoreError("increment", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	update := tx.Rebind(`UPDATE players SET wins = wins + 1, updated_at = ? WHERE identity = ?`)
	res, err := tx.ExecContext(ctx, update, now, string(id))
	if err != nil {
		return core.PlayerRecord{}, core.WrapStoreError("increment", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.PlayerRecord{}, core.WrapStoreError("increment", err)
	}
	if affected == 0 {
		return core.PlayerRecord{}, core.NotFoundError{Identity: id}
	}

	var row playerRow
	query := tx.Rebind(`SELECT identity, wins, created_at, updated_at FROM players WHERE identity = ?`)
	if err := tx.GetContext(ctx, &row, query, string(id)); err != nil {
		return core.PlayerRecord{}, core.WrapStoreError("increment", err)
	}
	if err := tx.Commit(); err != nil {
		return core.PlayerRecord{}, core.WrapStoreError("increment", err)
	}
	return row.record(), nil
}

// TopN returns at most n records ordered by wins descending, identity
// ascending.
func (s *Store) TopN(ctx context.Context, n int) ([]core.PlayerRecord, error) {
	if n <= 0 {
		return nil, core.ValidationError{Reason: "top-n size must be positive"}
	}
	var rows []playerRow
	query := s.db.Rebind(`SELECT identity, wins, created_at, updated_at FROM players ORDER BY wins DESC, identity ASC LIMIT ?`)
	if err := s.db.SelectContext(ctx, &rows, query, n); err != nil {
		return nil, core.WrapStoreError("topn", err)
	}
	out := make([]core.PlayerRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.record())
	}
	return out, nil
}
