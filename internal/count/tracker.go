package count

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/calvinalkan/cycle-count/internal/csvstore"
)

// Options configures [Open]. Only the two paths are required.
type Options struct {
	AssignmentsPath string
	SubmissionsPath string

	// Location is the zone timestamps are written and parsed in.
	// Defaults to time.Local.
	Location *time.Location

	// Now defaults to time.Now.
	Now func() time.Time

	// NewID defaults to [NewID].
	NewID func(prefix string) (string, error)

	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Tracker bundles the two repositories over one pair of tables.
type Tracker struct {
	Assignments *Assignments
	Submissions *Submissions
}

// Open seeds both tables (header only, if missing) and returns repositories
// over them.
func Open(opts Options) (*Tracker, error) {
	if opts.AssignmentsPath == "" || opts.SubmissionsPath == "" {
		return nil, errors.New("open tracker: table paths are required")
	}

	if opts.Location == nil {
		opts.Location = time.Local
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	if opts.NewID == nil {
		opts.NewID = NewID
	}

	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	store := csvstore.New(opts.Logger)

	for _, seed := range []struct {
		path    string
		columns []string
	}{
		{opts.AssignmentsPath, AssignmentColumns},
		{opts.SubmissionsPath, SubmissionColumns},
	} {
		err := store.Seed(seed.path, seed.columns)
		if err != nil {
			return nil, fmt.Errorf("open tracker: %w", err)
		}
	}

	assignments := &Assignments{
		store: store,
		path:  opts.AssignmentsPath,
		loc:   opts.Location,
		now:   opts.Now,
		newID: opts.NewID,
		log:   opts.Logger,
	}

	submissions := &Submissions{
		store:       store,
		path:        opts.SubmissionsPath,
		loc:         opts.Location,
		now:         opts.Now,
		newID:       opts.NewID,
		log:         opts.Logger,
		assignments: assignments,
	}

	return &Tracker{Assignments: assignments, Submissions: submissions}, nil
}

// FormatTimestamp renders t in loc using [TimestampLayout].
func FormatTimestamp(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(TimestampLayout)
}

// ParseTimestamp parses a [TimestampLayout] string as wall time in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(TimestampLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}

	return t, nil
}
