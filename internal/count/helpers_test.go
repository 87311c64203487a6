package count_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/calvinalkan/cycle-count/internal/count"
	"github.com/calvinalkan/cycle-count/internal/testutil"
)

var testWorkers = []string{"Aldo", "Karen", "Luis"}

func chicago(t *testing.T) *time.Location {
	t.Helper()

	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	return loc
}

type fixture struct {
	dir     string
	clock   *testutil.Clock
	loc     *time.Location
	tracker *count.Tracker
}

// newFixture opens a tracker over fresh tables in a temp dir. Files written
// into dir before the call (via seed) are picked up as-is.
func newFixture(t *testing.T, seed map[string]string) *fixture {
	t.Helper()

	dir := t.TempDir()
	loc := chicago(t)

	for name, content := range seed {
		err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600)
		if err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}

	clock := testutil.NewClock(time.Date(2024, time.January, 2, 15, 4, 5, 0, loc))
	ids := &testutil.SeqIDs{}

	tracker, err := count.Open(count.Options{
		AssignmentsPath: filepath.Join(dir, "assignments.csv"),
		SubmissionsPath: filepath.Join(dir, "submissions.csv"),
		Location:        loc,
		Now:             clock.Now,
		NewID:           ids.Next,
	})
	if err != nil {
		t.Fatalf("open tracker: %v", err)
	}

	return &fixture{dir: dir, clock: clock, loc: loc, tracker: tracker}
}

func (f *fixture) readFile(t *testing.T, name string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(f.dir, name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}

	return string(data)
}
