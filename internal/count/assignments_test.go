package count_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/calvinalkan/cycle-count/internal/count"
)

func Test_Open_Seeds_Header_Only_Tables_When_Files_Are_Missing(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	got := f.readFile(t, "assignments.csv")
	want := strings.Join(count.AssignmentColumns, ",") + "\n"

	if got != want {
		t.Fatalf("assignments.csv=%q, want %q", got, want)
	}

	got = f.readFile(t, "submissions.csv")
	want = strings.Join(count.SubmissionColumns, ",") + "\n"

	if got != want {
		t.Fatalf("submissions.csv=%q, want %q", got, want)
	}
}

func Test_Create_Appends_One_Assigned_Row_When_Input_Is_Valid(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	for i, loc := range []string{"11400804", "11400805", "11400806"} {
		id, err := f.tracker.Assignments.Create(count.NewAssignment{
			Location:    loc,
			SKU:         "SKU-1",
			ExpectedQty: "12",
			AssignedTo:  "Karen",
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		all := f.tracker.Assignments.All()
		if len(all) != i+1 {
			t.Fatalf("rows=%d, want %d", len(all), i+1)
		}

		last := all[len(all)-1]
		if last.ID != id || last.Status != count.StatusAssigned {
			t.Fatalf("last row=%+v, want id=%s status=Assigned", last, id)
		}
	}
}

func Test_Create_Sets_Lock_Until_Twenty_Minutes_After_Assigned_At(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	id, err := f.tracker.Assignments.Create(count.NewAssignment{
		Location:   "11400804",
		AssignedTo: "Luis",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	asg, ok := f.tracker.Assignments.Find(id)
	if !ok {
		t.Fatalf("assignment %s not found", id)
	}

	if asg.AssignedAt != "2024-01-02 03:04:05 PM" {
		t.Fatalf("assigned_at=%q", asg.AssignedAt)
	}

	if asg.LockUntil != "2024-01-02 03:24:05 PM" {
		t.Fatalf("lock_until=%q", asg.LockUntil)
	}

	assigned, err := count.ParseTimestamp(asg.AssignedAt, f.loc)
	if err != nil {
		t.Fatalf("parse assigned_at: %v", err)
	}

	until, err := count.ParseTimestamp(asg.LockUntil, f.loc)
	if err != nil {
		t.Fatalf("parse lock_until: %v", err)
	}

	if d := until.Sub(assigned); d != count.LockWindow {
		t.Fatalf("lock window=%s, want %s", d, count.LockWindow)
	}
}

func Test_Create_Keeps_Lock_Until_After_Assigned_At_When_Clocks_Change(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name       string
		now        time.Time
		assignedAt string
		lockUntil  string
		wallGap    time.Duration
	}{
		{
			name:       "first 01:50 (CDT)",
			now:        time.Date(2024, time.November, 3, 6, 50, 0, 0, time.UTC),
			assignedAt: "2024-11-03 01:50:00 AM",
			lockUntil:  "2024-11-03 02:10:00 AM",
			wallGap:    count.LockWindow,
		},
		{
			name:       "repeated 01:50 (CST)",
			now:        time.Date(2024, time.November, 3, 7, 50, 0, 0, time.UTC),
			assignedAt: "2024-11-03 01:50:00 AM",
			lockUntil:  "2024-11-03 02:10:00 AM",
			wallGap:    count.LockWindow,
		},
		{
			name:       "just before the change",
			now:        time.Date(2024, time.November, 3, 5, 45, 0, 0, time.UTC),
			assignedAt: "2024-11-03 12:45:00 AM",
			lockUntil:  "2024-11-03 01:05:00 AM",
			wallGap:    count.LockWindow,
		},
		{
			name:       "into the skipped spring hour",
			now:        time.Date(2024, time.March, 10, 7, 50, 0, 0, time.UTC),
			assignedAt: "2024-03-10 01:50:00 AM",
			lockUntil:  "2024-03-10 03:10:00 AM",
			wallGap:    80 * time.Minute,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, nil)
			f.clock.Set(tt.now)

			id, err := f.tracker.Assignments.Create(count.NewAssignment{Location: "L1", AssignedTo: "Karen"})
			if err != nil {
				t.Fatalf("create: %v", err)
			}

			asg, _ := f.tracker.Assignments.Find(id)
			if asg.AssignedAt != tt.assignedAt || asg.LockUntil != tt.lockUntil {
				t.Fatalf("assigned_at=%q lock_until=%q, want %q and %q",
					asg.AssignedAt, asg.LockUntil, tt.assignedAt, tt.lockUntil)
			}

			// Parsed in UTC, the timestamps compare as plain wall-clock readings.
			assigned, _ := count.ParseTimestamp(asg.AssignedAt, time.UTC)
			until, _ := count.ParseTimestamp(asg.LockUntil, time.UTC)

			if d := until.Sub(assigned); d != tt.wallGap {
				t.Fatalf("wall-clock gap=%s, want %s", d, tt.wallGap)
			}

			list := f.tracker.Assignments.ListActiveFor("Karen")
			if len(list) != 1 || !list[0].IsLocked {
				t.Fatalf("list=%+v, want one locked assignment right after create", list)
			}
		})
	}
}

func Test_Create_Trims_Location_And_Normalizes_Expected_Qty(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	id, err := f.tracker.Assignments.Create(count.NewAssignment{
		Location:    "  11400804 ",
		SKU:         " SKU-9 ",
		ExpectedQty: " 0042 ",
		AssignedTo:  "Aldo",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	asg, _ := f.tracker.Assignments.Find(id)

	want := count.Assignment{
		ID:          id,
		Location:    "11400804",
		SKU:         "SKU-9",
		ExpectedQty: "42",
		AssignedTo:  "Aldo",
		AssignedAt:  "2024-01-02 03:04:05 PM",
		LockUntil:   "2024-01-02 03:24:05 PM",
		Status:      count.StatusAssigned,
	}

	if diff := cmp.Diff(want, asg); diff != "" {
		t.Fatalf("assignment mismatch (-want +got):\n%s", diff)
	}
}

func Test_ListActiveFor_Computes_Lock_State_From_Clock(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	_, err := f.tracker.Assignments.Create(count.NewAssignment{Location: "L1", AssignedTo: "Karen"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, tt := range []struct {
		name    string
		advance time.Duration
		locked  bool
	}{
		{name: "just assigned", advance: 0, locked: true},
		{name: "at lock_until", advance: count.LockWindow, locked: true},
		{name: "after lock_until", advance: time.Second, locked: false},
	} {
		f.clock.Advance(tt.advance)

		list := f.tracker.Assignments.ListActiveFor("Karen")
		if len(list) != 1 {
			t.Fatalf("%s: got %d assignments, want 1", tt.name, len(list))
		}

		if list[0].IsLocked != tt.locked {
			t.Fatalf("%s: IsLocked=%v, want %v", tt.name, list[0].IsLocked, tt.locked)
		}
	}
}

func Test_ListActiveFor_Treats_Unparsable_Lock_Until_As_Locked(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{
		"assignments.csv": strings.Join(count.AssignmentColumns, ",") + "\n" +
			"A1,L1,,,Karen,2024-01-01 01:00:00 AM,soon,Assigned\n",
	})

	list := f.tracker.Assignments.ListActiveFor("Karen")
	if len(list) != 1 || !list[0].IsLocked {
		t.Fatalf("list=%+v, want one locked assignment", list)
	}
}

func Test_ListActiveFor_Excludes_Completed_And_Other_Workers(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{
		"assignments.csv": strings.Join(count.AssignmentColumns, ",") + "\n" +
			"A1,L1,,,Karen,2024-01-01 01:00:00 AM,2024-01-01 01:20:00 AM,Assigned\n" +
			"A2,L2,,,Karen,2024-01-01 01:00:00 AM,2024-01-01 01:20:00 AM,Completed\n" +
			"A3,L3,,,Karen,2024-01-01 01:00:00 AM,2024-01-01 01:20:00 AM,In Progress\n" +
			"A4,L4,,,Luis,2024-01-01 01:00:00 AM,2024-01-01 01:20:00 AM,Assigned\n" +
			"A5,L5,,,Karen,2024-01-01 01:00:00 AM,2024-01-01 01:20:00 AM,Cancelled\n",
	})

	var ids []string
	for _, asg := range f.tracker.Assignments.ListActiveFor("Karen") {
		if asg.Status == count.StatusCompleted {
			t.Fatalf("completed assignment %s listed", asg.ID)
		}

		ids = append(ids, asg.ID)
	}

	if diff := cmp.Diff([]string{"A1", "A3"}, ids); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func Test_ListActiveFor_Returns_Nothing_When_Tables_Are_Empty(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{"assignments.csv": ""})

	if list := f.tracker.Assignments.ListActiveFor("Karen"); len(list) != 0 {
		t.Fatalf("list=%+v, want empty", list)
	}
}
