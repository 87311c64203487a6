package count

import (
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/calvinalkan/cycle-count/internal/csvstore"
)

// Submissions is the repository over the submissions table. Recording a
// submission also closes the referenced assignment.
type Submissions struct {
	store       *csvstore.Store
	path        string
	loc         *time.Location
	now         func() time.Time
	newID       func(prefix string) (string, error)
	log         *zap.Logger
	assignments *Assignments
}

// Create records a count result and closes the assignment it references.
//
// Location, SKU and expected qty are copied from the first assignment with
// in.AssignmentID, or left empty when there is none; an unknown id is not an
// error. The submission row is written first. Closing the assignment is a
// second, separate rewrite of the assignments table that only happens when a
// row matches. If that second write fails, the submission id is returned
// together with the error: the count is recorded but the assignment is still
// open.
//
// Nothing here checks the sign of the count, the issue type, or whether the
// assignment was already completed.
func (s *Submissions) Create(in NewSubmission) (string, error) {
	id, err := s.newID(SubmissionPrefix)
	if err != nil {
		return "", fmt.Errorf("create submission: %w", err)
	}

	snapshot, found := s.assignments.Find(in.AssignmentID)

	row := csvstore.Row{
		ColSubmissionID: id,
		ColAssignmentID: in.AssignmentID,
		ColCounter:      in.Counter,
		ColLocation:     snapshot.Location,
		ColSKU:          snapshot.SKU,
		ColExpectedQty:  snapshot.ExpectedQty,
		ColCountedQty:   strconv.Itoa(in.CountedQty),
		ColIssueType:    in.IssueType,
		ColActualPallet: in.ActualPallet,
		ColActualLot:    in.ActualLot,
		ColNote:         in.Note,
		ColSubmittedAt:  FormatTimestamp(s.now(), s.loc),
	}

	err = s.store.Update(s.path, func(t *csvstore.Table) (bool, error) {
		t.Append(row, SubmissionColumns...)

		return true, nil
	})
	if err != nil {
		return "", fmt.Errorf("create submission: %w", err)
	}

	closed, err := s.assignments.markCompleted(in.AssignmentID)
	if err != nil {
		s.log.Error("submission recorded against open assignment",
			zap.String("submission_id", id),
			zap.String("assignment_id", in.AssignmentID),
			zap.Error(err),
		)

		return id, fmt.Errorf("submission %s recorded: %w", id, err)
	}

	s.log.Info("submission created",
		zap.String("submission_id", id),
		zap.String("assignment_id", in.AssignmentID),
		zap.Bool("assignment_found", found),
		zap.Int("assignments_closed", closed),
	)

	return id, nil
}

// All returns every submission in file order.
func (s *Submissions) All() []Submission {
	table := s.store.Read(s.path)

	out := make([]Submission, 0, table.Len())
	for _, row := range table.Rows {
		out = append(out, submissionFromRow(row))
	}

	return out
}

// Table returns the raw submissions table, as exported.
func (s *Submissions) Table() csvstore.Table {
	return s.store.Read(s.path)
}

func submissionFromRow(row csvstore.Row) Submission {
	qty, err := strconv.Atoi(row[ColCountedQty])
	if err != nil {
		// Hand-edited files may carry "12.0".
		qty, _ = ParseCountedQty(row[ColCountedQty])
	}

	return Submission{
		ID:           row[ColSubmissionID],
		AssignmentID: row[ColAssignmentID],
		Counter:      row[ColCounter],
		Location:     row[ColLocation],
		SKU:          row[ColSKU],
		ExpectedQty:  row[ColExpectedQty],
		CountedQty:   qty,
		IssueType:    row[ColIssueType],
		ActualPallet: row[ColActualPallet],
		ActualLot:    row[ColActualLot],
		Note:         row[ColNote],
		SubmittedAt:  row[ColSubmittedAt],
	}
}
