package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/pantry/internal/record"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added per-list purchase index and normalized search index
const currentSchemaVersion = 1

// Publisher receives a topic after every committed write.
// Implemented by *notify.Hub.
type Publisher interface {
	Publish(topic string)
}

// Store owns the SQLite connection shared by all repositories.
type Store struct {
	db    *sql.DB
	pub   Publisher
	ids   record.IDGenerator
	clock func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithPublisher sets the change publisher. Without one, writes are silent.
func WithPublisher(p Publisher) Option {
	return func(s *Store) {
		s.pub = p
	}
}

// WithIDGenerator overrides durable id generation (default UUIDv7).
func WithIDGenerator(g record.IDGenerator) Option {
	return func(s *Store) {
		s.ids = g
	}
}

// WithClock overrides the time source used for created_at/updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.clock = now
	}
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// This function is idempotent - safe to call multiple times.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	s := &Store{
		db:    db,
		ids:   record.UUIDv7Generator{},
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using repository methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Lists returns the list repository.
func (s *Store) Lists() *ListRepo { return &ListRepo{s: s} }

// Sections returns the section repository.
func (s *Store) Sections() *SectionRepo { return &SectionRepo{s: s} }

// Purchases returns the purchase-history repository.
func (s *Store) Purchases() *PurchaseRepo { return &PurchaseRepo{s: s} }

// Searches returns the search-history repository.
func (s *Store) Searches() *SearchRepo { return &SearchRepo{s: s} }

func (s *Store) now() time.Time {
	return s.clock().UTC()
}

func (s *Store) publish(topics ...string) {
	if s.pub == nil {
		return
	}
	for _, t := range topics {
		s.pub.Publish(t)
	}
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_purchases_list ON purchases(list_id, created_at DESC, id DESC);
		CREATE INDEX IF NOT EXISTS idx_searches_normalized ON searches(normalized);
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}

// execWrite runs a single-statement write and returns rows affected.
func (s *Store) execWrite(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
