package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/calvinalkan/cycle-count/internal/cli"
)

const submissionsHeader = "submission_id,assignment_id,counter,location,sku,expected_qty,counted_qty,issue_type,actual_pallet,actual_lot,note,submitted_at\n"

func Test_Dashboard_Prints_Totals_And_Breakdown(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("data/assignments.csv", assignmentsHeader+
		"A1,L1,,10,Karen,,,Completed\n"+
		"A2,L2,,5,Karen,,,Assigned\n"+
		"A3,L3,,7,Luis,,,Assigned\n")
	c.WriteFile("data/submissions.csv", submissionsHeader+
		"S1,A1,Karen,L1,,10,8,Short,,,,\n")

	stdout := c.MustRun("dashboard")

	cli.AssertContains(t, stdout, "Assigned: 3  |  Completed: 1  |  Pending: 2")
	cli.AssertContains(t, stdout, "Karen        open=1 completed=1")
	cli.AssertContains(t, stdout, "Luis         open=1 completed=0")
	cli.AssertContains(t, stdout, "Short        count=1 variance=-2 (1 compared)")

	if _, err := os.Stat(filepath.Join(c.DataDir(), ".ccount", "index.sqlite")); err != nil {
		t.Fatalf("index not created: %v", err)
	}
}

func Test_Dashboard_Shows_Zero_Totals_When_Nothing_Assigned(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	if got := c.MustRun("dashboard"); got != "Assigned: 0  |  Completed: 0  |  Pending: 0" {
		t.Fatalf("stdout=%q", got)
	}
}

func Test_Export_Fails_When_No_Submissions(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	cli.AssertContains(t, c.MustFail("export"), "no submissions yet")

	c.Env["CC_LANG"] = "es"
	cli.AssertContains(t, c.MustFail("export"), "sin envíos todavía")
}

func Test_Export_Rejects_Unknown_Format(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	cli.AssertContains(t, c.MustFail("export", "--format", "pdf"), "unknown export format")
}

func Test_Export_Writes_Timestamped_Csv_File(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("data/submissions.csv", submissionsHeader+"S1,A1,Karen,L1,,10,8,Short,,,,\n")

	path := c.MustRun("export", "-o", "out")

	if filepath.Dir(path) != filepath.Join(c.Dir, "out") {
		t.Fatalf("path=%q, want inside out/", path)
	}

	name := filepath.Base(path)
	if !strings.HasPrefix(name, "submissions_") || !strings.HasSuffix(name, ".csv") || len(name) != len("submissions_20060102_150405.csv") {
		t.Fatalf("name=%q", name)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}

	if string(got) != c.ReadFile("data/submissions.csv") {
		t.Fatalf("export differs from table:\n%s", got)
	}
}

func Test_Export_Streams_Xlsx_To_Stdout(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("data/submissions.csv", submissionsHeader+"S1,A1,Karen,L1,,10,8,Short,,,,\n")

	stdout, stderr, code := c.Run("export", "--format", "xlsx", "--stdout")
	if code != 0 {
		t.Fatalf("exit=%d stderr=%s", code, stderr)
	}

	f, err := excelize.OpenReader(bytes.NewReader([]byte(stdout)))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}

	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Submissions")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}

	if len(rows) != 2 || rows[1][0] != "S1" {
		t.Fatalf("rows=%v", rows)
	}
}

func Test_Serve_Exits_Cleanly_On_Signal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	sigCh := make(chan os.Signal, 1)
	sigCh <- syscall.SIGTERM

	var stdout, stderr bytes.Buffer

	code := cli.Run(nil, &stdout, &stderr,
		[]string{"ccount", "--cwd", dir, "serve", "--host", "127.0.0.1", "--port", "0"},
		map[string]string{}, sigCh)

	if code != 0 {
		t.Fatalf("exit=%d stderr=%s", code, stderr.String())
	}

	cli.AssertContains(t, stdout.String(), "listening on 127.0.0.1:")
}
