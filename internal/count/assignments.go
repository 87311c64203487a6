package count

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/calvinalkan/cycle-count/internal/csvstore"
)

// Assignments is the repository over the assignments table.
type Assignments struct {
	store *csvstore.Store
	path  string
	loc   *time.Location
	now   func() time.Time
	newID func(prefix string) (string, error)
	log   *zap.Logger
}

// Create appends a new Assigned row and returns its id.
//
// Inputs are trimmed and coerced but not validated; see [NewAssignment.Validate].
// assigned_at is now in the configured zone and lock_until reads
// [LockWindow] later on the wall clock of that zone, also across a DST
// change. The whole table is rewritten.
func (a *Assignments) Create(in NewAssignment) (string, error) {
	id, err := a.newID(AssignmentPrefix)
	if err != nil {
		return "", fmt.Errorf("create assignment: %w", err)
	}

	assignedAt := a.now().In(a.loc)
	lockUntil := addWallClock(assignedAt, LockWindow)

	row := csvstore.Row{
		ColAssignmentID: id,
		ColLocation:     strings.TrimSpace(in.Location),
		ColSKU:          strings.TrimSpace(in.SKU),
		ColExpectedQty:  NormalizeExpectedQty(in.ExpectedQty),
		ColAssignedTo:   in.AssignedTo,
		ColAssignedAt:   FormatTimestamp(assignedAt, a.loc),
		ColLockUntil:    FormatTimestamp(lockUntil, a.loc),
		ColStatus:       StatusAssigned,
	}

	err = a.store.Update(a.path, func(t *csvstore.Table) (bool, error) {
		t.Append(row, AssignmentColumns...)

		return true, nil
	})
	if err != nil {
		return "", fmt.Errorf("create assignment: %w", err)
	}

	a.log.Info("assignment created",
		zap.String("assignment_id", id),
		zap.String("location", row[ColLocation]),
		zap.String("assigned_to", in.AssignedTo),
	)

	return id, nil
}

// ListActiveFor returns user's Assigned and In Progress rows in file order.
//
// Each row's IsLocked is true while now <= lock_until; an unparsable
// lock_until counts as locked.
func (a *Assignments) ListActiveFor(user string) []Assignment {
	table := a.store.Read(a.path)
	now := a.now()

	rows := table.Filter(func(r csvstore.Row) bool {
		return r[ColAssignedTo] == user && isActiveStatus(r[ColStatus])
	})

	out := make([]Assignment, 0, len(rows))

	for _, row := range rows {
		asg := assignmentFromRow(row)
		asg.IsLocked = a.locked(asg.LockUntil, now)
		out = append(out, asg)
	}

	return out
}

// All returns every assignment in file order. IsLocked is not computed.
func (a *Assignments) All() []Assignment {
	table := a.store.Read(a.path)

	out := make([]Assignment, 0, table.Len())
	for _, row := range table.Rows {
		out = append(out, assignmentFromRow(row))
	}

	return out
}

// Find returns the first assignment with the given id.
func (a *Assignments) Find(id string) (Assignment, bool) {
	table := a.store.Read(a.path)

	i := table.Find(ColAssignmentID, id)
	if i < 0 {
		return Assignment{}, false
	}

	return assignmentFromRow(table.Rows[i]), true
}

// Table returns the raw assignments table.
func (a *Assignments) Table() csvstore.Table {
	return a.store.Read(a.path)
}

// markCompleted sets status=Completed on every row with the given id.
// The file is left untouched when no row matches.
func (a *Assignments) markCompleted(id string) (int, error) {
	var n int

	err := a.store.Update(a.path, func(t *csvstore.Table) (bool, error) {
		n = t.Set(ColStatus, StatusCompleted, func(r csvstore.Row) bool {
			return r[ColAssignmentID] == id
		})

		return n > 0, nil
	})
	if err != nil {
		return 0, fmt.Errorf("complete assignment %s: %w", id, err)
	}

	return n, nil
}

func (a *Assignments) locked(lockUntil string, now time.Time) bool {
	until, err := ParseTimestamp(lockUntil, a.loc)
	if err != nil {
		return true
	}

	return !now.After(until)
}

// addWallClock moves t's wall-clock reading forward by d in t's zone.
// Across a fall-back hour the result is more than d after t in absolute time.
// A reading that falls into a skipped spring-forward hour does not exist;
// t+d is returned instead.
func addWallClock(t time.Time, d time.Duration) time.Time {
	y, mo, day := t.Date()
	h, mi, sec := t.Clock()

	wall := time.Date(y, mo, day, h, mi, sec, t.Nanosecond()+int(d), t.Location())
	if abs := t.Add(d); wall.Before(abs) {
		return abs
	}

	return wall
}

func assignmentFromRow(row csvstore.Row) Assignment {
	return Assignment{
		ID:          row[ColAssignmentID],
		Location:    row[ColLocation],
		SKU:         row[ColSKU],
		ExpectedQty: row[ColExpectedQty],
		AssignedTo:  row[ColAssignedTo],
		AssignedAt:  row[ColAssignedAt],
		LockUntil:   row[ColLockUntil],
		Status:      row[ColStatus],
	}
}
