package report

import (
	"context"
	"fmt"

	"github.com/calvinalkan/cycle-count/internal/count"
)

// Stats summarises the count tables.
type Stats struct {
	Assigned  int `json:"assigned"`  // every assignment row
	Completed int `json:"completed"` // rows with status Completed
	Pending   int `json:"pending"`   // Assigned - Completed, never negative

	ByWorker []WorkerStats `json:"by_worker"`
	ByIssue  []IssueStats  `json:"by_issue"`
}

// WorkerStats counts one worker's assignments.
type WorkerStats struct {
	Worker    string `json:"worker"`
	Open      int    `json:"open"`
	Completed int    `json:"completed"`
}

// IssueStats summarises the submissions reporting one issue type.
//
// Variance is the sum of counted - expected over the submissions whose
// expected qty is an integer; Compared is how many that was.
type IssueStats struct {
	IssueType string `json:"issue_type"`
	Count     int    `json:"count"`
	Variance  int    `json:"variance"`
	Compared  int    `json:"compared"`
}

func (ix *Index) statsLocked(ctx context.Context) (Stats, error) {
	var st Stats

	err := ix.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(status = ?), 0) FROM assignments",
		count.StatusCompleted,
	).Scan(&st.Assigned, &st.Completed)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: totals: %w", err)
	}

	st.Pending = max(0, st.Assigned-st.Completed)

	st.ByWorker, err = ix.workerStats(ctx)
	if err != nil {
		return Stats{}, err
	}

	st.ByIssue, err = ix.issueStats(ctx)
	if err != nil {
		return Stats{}, err
	}

	return st, nil
}

func (ix *Index) workerStats(ctx context.Context) ([]WorkerStats, error) {
	rows, err := ix.db.QueryContext(ctx, `
		SELECT assigned_to,
			COALESCE(SUM(status IN (?, ?)), 0),
			COALESCE(SUM(status = ?), 0)
		FROM assignments
		GROUP BY assigned_to
		ORDER BY assigned_to`,
		count.StatusAssigned, count.StatusInProgress, count.StatusCompleted,
	)
	if err != nil {
		return nil, fmt.Errorf("stats: by worker: %w", err)
	}

	defer func() { _ = rows.Close() }()

	out := []WorkerStats{}

	for rows.Next() {
		var ws WorkerStats

		err = rows.Scan(&ws.Worker, &ws.Open, &ws.Completed)
		if err != nil {
			return nil, fmt.Errorf("stats: by worker: scan: %w", err)
		}

		out = append(out, ws)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("stats: by worker: %w", err)
	}

	return out, nil
}

func (ix *Index) issueStats(ctx context.Context) ([]IssueStats, error) {
	rows, err := ix.db.QueryContext(ctx, `
		SELECT issue_type,
			COUNT(*),
			COALESCE(SUM(counted_qty - expected_qty), 0),
			COUNT(expected_qty)
		FROM submissions
		GROUP BY issue_type
		ORDER BY issue_type`)
	if err != nil {
		return nil, fmt.Errorf("stats: by issue: %w", err)
	}

	defer func() { _ = rows.Close() }()

	out := []IssueStats{}

	for rows.Next() {
		var is IssueStats

		err = rows.Scan(&is.IssueType, &is.Count, &is.Variance, &is.Compared)
		if err != nil {
			return nil, fmt.Errorf("stats: by issue: scan: %w", err)
		}

		out = append(out, is)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("stats: by issue: %w", err)
	}

	return out, nil
}
