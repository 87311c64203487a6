// Package report derives dashboard statistics and export files from the
// count tables.
//
// Statistics come from a SQLite index that is rebuilt from the CSV tables on
// every query. The CSV files stay the only source of truth; the index can be
// deleted at any time.
package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver

	"github.com/calvinalkan/cycle-count/internal/count"
)

// schemaVersion is stored in SQLite's user_version pragma.
// Bump it whenever the tables below change.
const schemaVersion = 1

// sqliteBusyTimeout is how long SQLite waits on a locked database (ms).
const sqliteBusyTimeout = 10000

// Index is the derived SQLite view over one pair of count tables.
// It is safe for concurrent use.
type Index struct {
	mu   sync.Mutex
	path string
	db   *sql.DB
}

// OpenIndex opens (creating if needed) the index database at path.
func OpenIndex(ctx context.Context, path string) (*Index, error) {
	if path == "" {
		return nil, errors.New("open index: path is empty")
	}

	err := os.MkdirAll(filepath.Dir(path), 0o750)
	if err != nil {
		return nil, fmt.Errorf("open index: create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	err = db.PingContext(ctx)
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("open index: ping sqlite: %w", err)
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf(`
		PRAGMA busy_timeout = %d;
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
		PRAGMA temp_store = MEMORY;
	`, sqliteBusyTimeout))
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("open index: apply pragmas: %w", err)
	}

	return &Index{path: path, db: db}, nil
}

// Path returns the database file.
func (ix *Index) Path() string {
	return ix.path
}

// Close releases the database handle.
func (ix *Index) Close() error {
	if ix == nil || ix.db == nil {
		return nil
	}

	err := ix.db.Close()
	if err != nil {
		return fmt.Errorf("close index: %w", err)
	}

	return nil
}

// Refresh rebuilds the index from the current tables and returns fresh stats.
func (ix *Index) Refresh(ctx context.Context, tracker *count.Tracker) (Stats, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	err := ix.rebuildLocked(ctx, tracker.Assignments.All(), tracker.Submissions.All())
	if err != nil {
		return Stats{}, err
	}

	return ix.statsLocked(ctx)
}

// Rebuild replaces the indexed rows with the given ones in a single transaction.
func (ix *Index) Rebuild(ctx context.Context, assignments []count.Assignment, submissions []count.Submission) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	return ix.rebuildLocked(ctx, assignments, submissions)
}

// Stats reads statistics from whatever the index currently holds.
func (ix *Index) Stats(ctx context.Context) (Stats, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	return ix.statsLocked(ctx)
}

func (ix *Index) rebuildLocked(ctx context.Context, assignments []count.Assignment, submissions []count.Submission) (err error) {
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("rebuild index: begin: %w", err)
	}

	defer func() {
		if err != nil {
			err = errors.Join(err, rollback(tx))
		}
	}()

	err = recreateSchema(ctx, tx)
	if err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	err = insertAssignments(ctx, tx, assignments)
	if err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	err = insertSubmissions(ctx, tx, submissions)
	if err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	_, err = tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion))
	if err != nil {
		return fmt.Errorf("rebuild index: set user_version: %w", err)
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("rebuild index: commit: %w", err)
	}

	return nil
}

func rollback(tx *sql.Tx) error {
	err := tx.Rollback()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback: %w", err)
	}

	return nil
}

func recreateSchema(ctx context.Context, tx *sql.Tx) error {
	statements := []string{
		"DROP TABLE IF EXISTS submissions",
		"DROP TABLE IF EXISTS assignments",
		`CREATE TABLE assignments (
			seq INTEGER PRIMARY KEY,
			assignment_id TEXT NOT NULL,
			location TEXT NOT NULL,
			assigned_to TEXT NOT NULL,
			status TEXT NOT NULL
		)`,
		`CREATE TABLE submissions (
			seq INTEGER PRIMARY KEY,
			submission_id TEXT NOT NULL,
			assignment_id TEXT NOT NULL,
			counter TEXT NOT NULL,
			issue_type TEXT NOT NULL,
			counted_qty INTEGER NOT NULL,
			expected_qty INTEGER
		)`,
		"CREATE INDEX idx_assignments_worker ON assignments(assigned_to, status)",
		"CREATE INDEX idx_submissions_issue ON submissions(issue_type)",
	}

	for i, stmt := range statements {
		_, err := tx.ExecContext(ctx, stmt)
		if err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}

	return nil
}

func insertAssignments(ctx context.Context, tx *sql.Tx, rows []count.Assignment) error {
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO assignments (assignment_id, location, assigned_to, status) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare assignments insert: %w", err)
	}

	defer func() { _ = stmt.Close() }()

	for i := range rows {
		a := &rows[i]

		_, err = stmt.ExecContext(ctx, a.ID, a.Location, a.AssignedTo, a.Status)
		if err != nil {
			return fmt.Errorf("insert assignment %s: %w", a.ID, err)
		}
	}

	return nil
}

func insertSubmissions(ctx context.Context, tx *sql.Tx, rows []count.Submission) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO submissions
		(submission_id, assignment_id, counter, issue_type, counted_qty, expected_qty)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare submissions insert: %w", err)
	}

	defer func() { _ = stmt.Close() }()

	for i := range rows {
		s := &rows[i]

		issue := s.IssueType
		if issue == "" {
			issue = count.IssueNone
		}

		_, err = stmt.ExecContext(ctx, s.ID, s.AssignmentID, s.Counter, issue, s.CountedQty, numericExpected(s.ExpectedQty))
		if err != nil {
			return fmt.Errorf("insert submission %s: %w", s.ID, err)
		}
	}

	return nil
}

// numericExpected returns the expected quantity as an integer, or NULL when
// it is free text.
func numericExpected(raw string) sql.NullInt64 {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return sql.NullInt64{}
	}

	return sql.NullInt64{Int64: n, Valid: true}
}
