// Package count implements cycle-count assignments and their submissions.
//
// Both record kinds live in CSV tables managed by [csvstore]. An assignment
// is created open ("Assigned") and is closed ("Completed") by the first
// submission that references it. There is no other transition.
package count

import (
	"slices"
	"time"
)

// Assignment statuses. StatusInProgress is recognised by the active filter
// but no operation ever sets it.
const (
	StatusAssigned   = "Assigned"
	StatusInProgress = "In Progress"
	StatusCompleted  = "Completed"
)

// Issue types a counter can report.
const (
	IssueNone   = "None"
	IssueOver   = "Over"
	IssueShort  = "Short"
	IssueDamage = "Damage"
	IssueOther  = "Other"
)

// IssueTypes lists the recognised issue types in display order.
var IssueTypes = []string{IssueNone, IssueOver, IssueShort, IssueDamage, IssueOther}

// IsValidIssueType reports whether s is one of [IssueTypes].
func IsValidIssueType(s string) bool {
	return slices.Contains(IssueTypes, s)
}

// LockWindow is added to assigned_at to produce lock_until.
const LockWindow = 20 * time.Minute

// TimestampLayout formats assigned_at, lock_until and submitted_at,
// e.g. "2024-01-02 03:04:05 PM".
const TimestampLayout = "2006-01-02 03:04:05 PM"

// Assignment table columns, in file order.
const (
	ColAssignmentID = "assignment_id"
	ColLocation     = "location"
	ColSKU          = "sku"
	ColExpectedQty  = "expected_qty"
	ColAssignedTo   = "assigned_to"
	ColAssignedAt   = "assigned_at"
	ColLockUntil    = "lock_until"
	ColStatus       = "status"
)

// Submission-only columns, in file order.
const (
	ColSubmissionID = "submission_id"
	ColCounter      = "counter"
	ColCountedQty   = "counted_qty"
	ColIssueType    = "issue_type"
	ColActualPallet = "actual_pallet"
	ColActualLot    = "actual_lot"
	ColNote         = "note"
	ColSubmittedAt  = "submitted_at"
)

// AssignmentColumns is the schema of the assignments table.
var AssignmentColumns = []string{
	ColAssignmentID, ColLocation, ColSKU, ColExpectedQty,
	ColAssignedTo, ColAssignedAt, ColLockUntil, ColStatus,
}

// SubmissionColumns is the schema of the submissions table.
var SubmissionColumns = []string{
	ColSubmissionID, ColAssignmentID, ColCounter, ColLocation, ColSKU, ColExpectedQty,
	ColCountedQty, ColIssueType, ColActualPallet, ColActualLot, ColNote, ColSubmittedAt,
}

// Assignment is one row of the assignments table.
type Assignment struct {
	ID          string `json:"assignment_id"`
	Location    string `json:"location"`
	SKU         string `json:"sku"`
	ExpectedQty string `json:"expected_qty"`
	AssignedTo  string `json:"assigned_to"`
	AssignedAt  string `json:"assigned_at"`
	LockUntil   string `json:"lock_until"`
	Status      string `json:"status"`

	// IsLocked is derived when listing: true while lock_until has not passed.
	// Nothing consults it before acting on the assignment.
	IsLocked bool `json:"is_locked"`
}

// isActiveStatus reports whether an assignment in status still awaits a count.
func isActiveStatus(status string) bool {
	return status == StatusAssigned || status == StatusInProgress
}

// Submission is one row of the submissions table.
//
// Location, SKU and ExpectedQty are copied from the assignment when the
// submission is recorded and are not kept in sync afterwards.
type Submission struct {
	ID           string `json:"submission_id"`
	AssignmentID string `json:"assignment_id"`
	Counter      string `json:"counter"`
	Location     string `json:"location"`
	SKU          string `json:"sku"`
	ExpectedQty  string `json:"expected_qty"`
	CountedQty   int    `json:"counted_qty"`
	IssueType    string `json:"issue_type"`
	ActualPallet string `json:"actual_pallet"`
	ActualLot    string `json:"actual_lot"`
	Note         string `json:"note"`
	SubmittedAt  string `json:"submitted_at"`
}

// NewAssignment holds the inputs of [Assignments.Create].
type NewAssignment struct {
	Location    string
	SKU         string
	ExpectedQty string
	AssignedTo  string
}

// NewSubmission holds the inputs of [Submissions.Create].
type NewSubmission struct {
	AssignmentID string
	Counter      string
	CountedQty   int
	IssueType    string
	ActualPallet string
	ActualLot    string
	Note         string
}
