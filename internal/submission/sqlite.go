package submission

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/Joel31000/CarbonConsult/internal/engine"
	"github.com/Joel31000/CarbonConsult/internal/lineitem"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS submissions (
	id          TEXT PRIMARY KEY,
	label       TEXT NOT NULL DEFAULT '',
	offer       TEXT NOT NULL,
	totals      TEXT NOT NULL,
	grand_total REAL NOT NULL DEFAULT 0,
	created_at  TEXT NOT NULL
);
`

// submissionRow is the SQL shape of a Submission.
type submissionRow struct {
	ID         string  `db:"id"`
	Label      string  `db:"label"`
	Offer      string  `db:"offer"`
	Totals     string  `db:"totals"`
	GrandTotal float64 `db:"grand_total"`
	CreatedAt  string  `db:"created_at"`
}

// SQLiteStore keeps submissions in a SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (and if needed creates) the database at dbPath. An
// empty path defaults to ~/.carbonconsult/submissions.db.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("determining home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".carbonconsult", "submissions.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Save inserts sub.
func (s *SQLiteStore) Save(ctx context.Context, sub Submission) error {
	offer, err := json.Marshal(sub.Offer)
	if err != nil {
		return fmt.Errorf("marshaling offer: %w", err)
	}
	totals, err := json.Marshal(sub.Totals)
	if err != nil {
		return fmt.Errorf("marshaling totals: %w", err)
	}

	var label string
	if sub.Offer != nil {
		label = sub.Offer.Label
	}
	row := submissionRow{
		ID:         sub.ID,
		Label:      label,
		Offer:      string(offer),
		Totals:     string(totals),
		GrandTotal: sub.Totals.GrandTotal,
		CreatedAt:  sub.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	_, err = s.db.NamedExecContext(ctx, `INSERT INTO submissions (id, label, offer, totals, grand_total, created_at)
		VALUES (:id, :label, :offer, :totals, :grand_total, :created_at)`, row)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// List returns every stored submission ordered by ID, which is time order.
func (s *SQLiteStore) List(ctx context.Context) ([]Submission, error) {
	var rows []submissionRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT id, label, offer, totals, grand_total, created_at FROM submissions ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}

	out := make([]Submission, 0, len(rows))
	for _, r := range rows {
		sub := Submission{ID: r.ID, Offer: &lineitem.Offer{}, Totals: engine.Totals{}}
		if err := json.Unmarshal([]byte(r.Offer), sub.Offer); err != nil {
			return nil, fmt.Errorf("%w: submission %s offer: %w", ErrStoreCorrupted, r.ID, err)
		}
		if err := json.Unmarshal([]byte(r.Totals), &sub.Totals); err != nil {
			return nil, fmt.Errorf("%w: submission %s totals: %w", ErrStoreCorrupted, r.ID, err)
		}
		sub.CreatedAt, _ = time.Parse(time.RFC3339Nano, r.CreatedAt)
		out = append(out, sub)
	}
	return out, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
