package count

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// NormalizeExpectedQty coerces an expected quantity for storage: input that is
// all ASCII digits once trimmed is stored as the integer it spells (leading
// zeros dropped); anything else is kept exactly as given.
func NormalizeExpectedQty(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || !isDigits(trimmed) {
		return raw
	}

	n := strings.TrimLeft(trimmed, "0")
	if n == "" {
		return "0"
	}

	return n
}

// ParseCountedQty parses a counted quantity. Any decimal number is accepted
// and truncated toward zero, so "12.0" and "12.9" both count as 12.
func ParseCountedQty(raw string) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, ErrCountedQtyRequired
	}

	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q", ErrCountedQtyNotNumber, raw)
	}

	f = math.Trunc(f)
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("%w: %q", ErrCountedQtyNotNumber, raw)
	}

	return int(f), nil
}

// Validate checks the fields a supervisor must fill in before an assignment
// is created.
func (in *NewAssignment) Validate(workers []string) error {
	if strings.TrimSpace(in.AssignedTo) == "" {
		return ErrAssigneeRequired
	}

	if strings.TrimSpace(in.Location) == "" {
		return ErrLocationRequired
	}

	if !slices.Contains(workers, in.AssignedTo) {
		return fmt.Errorf("%w: %s", ErrUnknownWorker, in.AssignedTo)
	}

	return nil
}

// SubmissionForm is a count result as typed in by a worker, before coercion.
type SubmissionForm struct {
	AssignmentID string
	Counter      string
	CountedQty   string
	IssueType    string
	ActualPallet string
	ActualLot    string
	Note         string
}

// Parse validates the form and converts it into a [NewSubmission].
// An empty issue type means [IssueNone].
func (f *SubmissionForm) Parse(workers []string) (NewSubmission, error) {
	id := strings.TrimSpace(f.AssignmentID)
	if id == "" {
		return NewSubmission{}, ErrAssignmentIDRequired
	}

	qty, err := ParseCountedQty(f.CountedQty)
	if err != nil {
		return NewSubmission{}, err
	}

	if strings.TrimSpace(f.Counter) == "" {
		return NewSubmission{}, ErrCounterRequired
	}

	if !slices.Contains(workers, f.Counter) {
		return NewSubmission{}, fmt.Errorf("%w: %s", ErrUnknownWorker, f.Counter)
	}

	issue := f.IssueType
	if issue == "" {
		issue = IssueNone
	}

	if !IsValidIssueType(issue) {
		return NewSubmission{}, fmt.Errorf("%w: %s", ErrInvalidIssueType, issue)
	}

	return NewSubmission{
		AssignmentID: id,
		Counter:      f.Counter,
		CountedQty:   qty,
		IssueType:    issue,
		ActualPallet: f.ActualPallet,
		ActualLot:    f.ActualLot,
		Note:         f.Note,
	}, nil
}

func isDigits(s string) bool {
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}
