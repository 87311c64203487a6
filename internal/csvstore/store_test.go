package csvstore_test

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/calvinalkan/cycle-count/internal/csvstore"
)

var errTestMutate = errors.New("test mutate error")

func Test_Read_Returns_Empty_Table_When_File_Is_Missing_Or_Empty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := csvstore.New(nil)

	empty := filepath.Join(dir, "empty.csv")

	err := os.WriteFile(empty, nil, 0o600)
	if err != nil {
		t.Fatalf("write empty file: %v", err)
	}

	for _, tt := range []struct {
		name string
		path string
	}{
		{name: "missing", path: filepath.Join(dir, "missing.csv")},
		{name: "zero bytes", path: empty},
	} {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			table := store.Read(tt.path)

			if got := table.Len(); got != 0 {
				t.Fatalf("rows=%d, want 0", got)
			}

			if len(table.Columns) != 0 {
				t.Fatalf("columns=%v, want none", table.Columns)
			}
		})
	}
}

func Test_Read_Swallows_Parse_Errors_When_File_Is_Corrupt(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "corrupt.csv")

	// Second record has more fields than the header.
	err := os.WriteFile(path, []byte("a,b\n1,2,3\n\"unterminated\n"), 0o600)
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	table := csvstore.New(nil).Read(path)

	if !table.Empty() || len(table.Columns) != 0 {
		t.Fatalf("table=%+v, want empty table", table)
	}
}

func Test_Write_Then_Read_Round_Trips_When_File_Already_Exists(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "t.csv")
	store := csvstore.New(nil)

	first := csvstore.NewTable("id", "note")
	first.Append(csvstore.Row{"id": "1", "note": "old"})

	err := store.Write(first, path)
	if err != nil {
		t.Fatalf("first write: %v", err)
	}

	second := csvstore.NewTable("id", "note", "qty")
	second.Append(csvstore.Row{"id": "A1", "note": "comma, \"quote\"\nnewline", "qty": "12"})
	second.Append(csvstore.Row{"id": "A2", "note": "", "qty": "abc"})

	err = store.Write(second, path)
	if err != nil {
		t.Fatalf("second write: %v", err)
	}

	got := store.Read(path)

	if diff := cmp.Diff(second, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("dir has %d entries, want only the table (temp file left behind?)", len(entries))
	}
}

func Test_Read_Is_Idempotent_When_File_Is_Untouched(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "t.csv")

	err := os.WriteFile(path, []byte("x,y\n1,2\n3,4\n"), 0o600)
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	store := csvstore.New(nil)

	first := store.Read(path)
	second := store.Read(path)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("reads differ (-first +second):\n%s", diff)
	}

	if first.Len() != 2 {
		t.Fatalf("rows=%d, want 2", first.Len())
	}
}

func Test_Read_Strips_Byte_Order_Mark_From_Header(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bom.csv")

	err := os.WriteFile(path, []byte("\ufeffid,qty\nA1,3\n"), 0o600)
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	table := csvstore.New(nil).Read(path)

	if got := table.Rows[0]["id"]; got != "A1" {
		t.Fatalf("id=%q, want A1 (columns=%q)", got, table.Columns)
	}
}

func Test_Seed_Writes_Header_Once_When_File_Is_Missing(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "t.csv")
	store := csvstore.New(nil)

	err := store.Seed(path, []string{"a", "b"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if got, want := string(content), "a,b\n"; got != want {
		t.Fatalf("content=%q, want %q", got, want)
	}

	// Seeding again must not clobber existing rows.
	table := store.Read(path)
	table.Append(csvstore.Row{"a": "1", "b": "2"})

	err = store.Write(table, path)
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	err = store.Seed(path, []string{"other"})
	if err != nil {
		t.Fatalf("reseed: %v", err)
	}

	got := store.Read(path)
	if got.Len() != 1 || got.Columns[0] != "a" {
		t.Fatalf("reseed changed the table: %+v", got)
	}
}

func Test_Update_Skips_Write_When_Mutate_Fails_Or_Reports_No_Change(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "t.csv")
	store := csvstore.New(nil)

	err := os.WriteFile(path, []byte("a\n1\n"), 0o600)
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	err = store.Update(path, func(tbl *csvstore.Table) (bool, error) {
		tbl.Append(csvstore.Row{"a": "2"})

		return true, errTestMutate
	})
	if !errors.Is(err, errTestMutate) {
		t.Fatalf("err=%v, want errTestMutate", err)
	}

	err = store.Update(path, func(tbl *csvstore.Table) (bool, error) {
		tbl.Append(csvstore.Row{"a": "3"})

		return false, nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if got, want := string(content), "a\n1\n"; got != want {
		t.Fatalf("content=%q, want %q", got, want)
	}
}

func Test_Update_Fails_Without_Writing_When_Lock_Cannot_Be_Taken(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "t.csv")
	store := csvstore.New(nil)

	err := os.WriteFile(path, []byte("a\n1\n"), 0o600)
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	err = os.WriteFile(filepath.Join(dir, ".locks"), nil, 0o600)
	if err != nil {
		t.Fatalf("write .locks: %v", err)
	}

	called := false

	err = store.Update(path, func(tbl *csvstore.Table) (bool, error) {
		called = true

		return true, nil
	})
	if err == nil {
		t.Fatal("update: want error, got nil")
	}

	if called {
		t.Fatal("mutate ran without the lock")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if got, want := string(content), "a\n1\n"; got != want {
		t.Fatalf("content=%q, want %q", got, want)
	}
}

func Test_Update_Removes_Lock_File_When_Done(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "t.csv")
	store := csvstore.New(nil)

	err := store.Update(path, func(tbl *csvstore.Table) (bool, error) {
		_, statErr := os.Stat(filepath.Join(dir, ".locks", "t.csv.lock"))
		if statErr != nil {
			t.Errorf("lock file missing while held: %v", statErr)
		}

		tbl.Append(csvstore.Row{"a": "1"}, "a")

		return true, nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	_, err = os.Stat(filepath.Join(dir, ".locks", "t.csv.lock"))
	if !os.IsNotExist(err) {
		t.Fatalf("lock file should be gone after update, stat err=%v", err)
	}
}

func Test_Update_Loses_No_Rows_When_Writers_Run_Concurrently(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "t.csv")
	store := csvstore.New(nil)

	err := store.Seed(path, []string{"n"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	const writers = 16

	var wg sync.WaitGroup

	errs := make(chan error, writers)

	for i := range writers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			errs <- store.Update(path, func(tbl *csvstore.Table) (bool, error) {
				tbl.Append(csvstore.Row{"n": strconv.Itoa(i)})

				return true, nil
			})
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("update: %v", err)
		}
	}

	final := store.Read(path)
	if got := final.Len(); got != writers {
		t.Fatalf("rows=%d, want %d", got, writers)
	}
}
