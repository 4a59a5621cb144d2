package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/imishinist/runsum/internal/models"
	"github.com/imishinist/runsum/internal/parser"
)

var ErrDuplicate = errors.New("catalog: duplicate run uid")

const schema = `
CREATE TABLE IF NOT EXISTS run_headers (
	uid        TEXT PRIMARY KEY,
	start_time INTEGER NOT NULL, -- unix milliseconds
	start_doc  TEXT NOT NULL,
	stop_doc   TEXT
);
CREATE INDEX IF NOT EXISTS idx_run_headers_start_time ON run_headers(start_time);
`

// Store is a local SQLite catalog of run headers. Start and stop documents
// are kept as JSON in the same shape the file source reads.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open catalog %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create catalog schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Insert stores run and returns its uid. Runs without a uid get a new one.
func (s *Store) Insert(ctx context.Context, run models.Run) (string, error) {
	if run.Start.UID == "" {
		run.Start.UID = uuid.NewString()
	}

	startDoc, stopDoc, err := parser.EncodeJSONRun(run)
	if err != nil {
		return "", err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO run_headers (uid, start_time, start_doc, stop_doc) VALUES (?, ?, ?, ?)`,
		run.Start.UID, run.Start.Time.UnixMilli(), string(startDoc), string(stopDoc))
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%s: %w", run.Start.UID, ErrDuplicate)
		}
		return "", fmt.Errorf("failed to insert run %s: %w", run.Start.UID, err)
	}
	return run.Start.UID, nil
}

// Runs streams runs that started at or after since, oldest first. Each row is
// validated as it is read; the first malformed row ends the sequence.
func (s *Store) Runs(ctx context.Context, since time.Time) iter.Seq2[models.Run, error] {
	return func(yield func(models.Run, error) bool) {
		rows, err := s.db.QueryContext(ctx,
			`SELECT uid, start_doc, stop_doc FROM run_headers WHERE start_time >= ? ORDER BY start_time, rowid`,
			since.UnixMilli())
		if err != nil {
			yield(models.Run{}, fmt.Errorf("failed to query runs: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var (
				uid      string
				startDoc string
				stopDoc  sql.NullString
			)
			if err := rows.Scan(&uid, &startDoc, &stopDoc); err != nil {
				yield(models.Run{}, fmt.Errorf("failed to read run: %w", err))
				return
			}

			run, err := parser.DecodeJSONRun([]byte(startDoc), []byte(stopDoc.String))
			if err != nil {
				yield(models.Run{}, fmt.Errorf("run %s: %w", uid, err))
				return
			}
			if !yield(run, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(models.Run{}, fmt.Errorf("failed to query runs: %w", err))
		}
	}
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM run_headers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return n, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
