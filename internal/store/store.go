// Package store keeps reviewed filing records and the announcements already
// processed in a SQLite database.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/supertypeai/sgx-buyback-pipeline/internal/review"
)

const timeFormat = "2006-01-02T15:04:05Z"

const schema = `
CREATE TABLE IF NOT EXISTS sgx_filings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	hash_id TEXT NOT NULL UNIQUE,
	run_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	url TEXT NOT NULL,
	shareholder_name TEXT,
	holder_type TEXT,
	transaction_type TEXT,
	transaction_date TEXT,
	number_of_stock REAL,
	value REAL,
	price_per_share REAL,
	shares_before REAL,
	shares_before_percentage REAL,
	shares_after REAL,
	shares_after_percentage REAL,
	transfer_parties TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sgx_filings_symbol ON sgx_filings(symbol);

CREATE TABLE IF NOT EXISTS processed_announcements (
	url TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	status TEXT NOT NULL,
	processed_at TEXT NOT NULL
);
`

// Row is a stored record
type Row struct {
	review.Item
	RunID     string    `json:"run_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Query narrows List. Zero values match everything.
type Query struct {
	Symbol string
	Limit  int
}

// Store is a SQLite-backed record store
type Store struct {
	db     *sql.DB
	logger *log.Logger
	now    func() time.Time
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the store logger
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces the time source used for timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open opens or creates the database at path and ensures its tables
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}
	// a single connection serializes writes
	db.SetMaxOpenConns(1)

	s := &Store{db: db, logger: log.New(io.Discard, "", 0), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	s.logger.Printf("Database ready at %s", path)
	return s, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordKey identifies a record across runs by its announcement, holder,
// date and quantity
func RecordKey(it review.Item) string {
	input := fmt.Sprintf("%s|%s|%s|%s", it.URL, str(it.ShareholderName), str(it.TransactionDate), num(it.NumberOfStock))
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}

func str(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func num(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%f", *v)
}

// Save upserts items under runID and returns how many were written
func (s *Store) Save(ctx context.Context, runID string, items []review.Item) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO sgx_filings (
		hash_id, run_id, symbol, url, shareholder_name, holder_type, transaction_type, transaction_date,
		number_of_stock, value, price_per_share, shares_before, shares_before_percentage,
		shares_after, shares_after_percentage, transfer_parties, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(hash_id) DO UPDATE SET
		run_id = excluded.run_id,
		symbol = excluded.symbol,
		holder_type = excluded.holder_type,
		transaction_type = excluded.transaction_type,
		value = excluded.value,
		price_per_share = excluded.price_per_share,
		shares_before = excluded.shares_before,
		shares_before_percentage = excluded.shares_before_percentage,
		shares_after = excluded.shares_after,
		shares_after_percentage = excluded.shares_after_percentage,
		transfer_parties = excluded.transfer_parties,
		updated_at = excluded.updated_at`)
	if err != nil {
		return 0, fmt.Errorf("error preparing upsert statement: %w", err)
	}
	defer stmt.Close()

	now := s.now().UTC().Format(timeFormat)
	for _, it := range items {
		var holderType *string
		if it.HolderType != "" {
			holderType = &it.HolderType
		}
		_, err := stmt.ExecContext(ctx,
			RecordKey(it), runID, it.Symbol, it.URL, it.ShareholderName, holderType, it.TransactionType, it.TransactionDate,
			it.NumberOfStock, it.Value, it.PricePerShare, it.SharesBefore, it.SharesBeforePct,
			it.SharesAfter, it.SharesAfterPct, it.TransferParties, now, now)
		if err != nil {
			return 0, fmt.Errorf("error upserting record for %s: %w", it.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("error committing records: %w", err)
	}
	s.logger.Printf("Saved %d records for run %s", len(items), runID)
	return len(items), nil
}

// List returns stored records, newest first
func (s *Store) List(ctx context.Context, q Query) ([]Row, error) {
	var (
		where []string
		args  []any
	)
	if q.Symbol != "" {
		where = append(where, "symbol = ?")
		args = append(args, q.Symbol)
	}

	query := `SELECT run_id, symbol, url, shareholder_name, holder_type, transaction_type, transaction_date,
		number_of_stock, value, price_per_share, shares_before, shares_before_percentage,
		shares_after, shares_after_percentage, transfer_parties, updated_at FROM sgx_filings`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY updated_at DESC, id DESC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying records: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			r          Row
			holderType sql.NullString
			updated    string
		)
		err := rows.Scan(&r.RunID, &r.Symbol, &r.URL, &r.ShareholderName, &holderType, &r.TransactionType, &r.TransactionDate,
			&r.NumberOfStock, &r.Value, &r.PricePerShare, &r.SharesBefore, &r.SharesBeforePct,
			&r.SharesAfter, &r.SharesAfterPct, &r.TransferParties, &updated)
		if err != nil {
			return nil, fmt.Errorf("error scanning record: %w", err)
		}
		r.HolderType = holderType.String
		if r.UpdatedAt, err = time.Parse(timeFormat, updated); err != nil {
			return nil, fmt.Errorf("bad timestamp %q: %w", updated, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Processing outcomes recorded for an announcement
const (
	StatusExtracted = "extracted"
	StatusExcluded  = "excluded"
	StatusFailed    = "failed"
)

// MarkProcessed records that an announcement was handled in runID
func (s *Store) MarkProcessed(ctx context.Context, runID, url, status string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO processed_announcements (url, run_id, status, processed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET run_id = excluded.run_id, status = excluded.status, processed_at = excluded.processed_at`,
		url, runID, status, s.now().UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("error marking %s processed: %w", url, err)
	}
	return nil
}

// SeenURLs returns the announcements processed since the given time,
// failed ones excluded so that they are retried
func (s *Store) SeenURLs(ctx context.Context, since time.Time) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url FROM processed_announcements WHERE processed_at >= ? AND status != ?`,
		since.UTC().Format(timeFormat), StatusFailed)
	if err != nil {
		return nil, fmt.Errorf("error querying processed announcements: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("error scanning url: %w", err)
		}
		seen[url] = true
	}
	return seen, rows.Err()
}
