package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/calvinalkan/cycle-count/internal/csvstore"
)

// CLI runs ccount in-process against a private temp directory.
// Env starts empty, so no user config or CC_* variable leaks in.
type CLI struct {
	t   *testing.T
	Dir string
	Env map[string]string
}

// NewCLI returns a CLI rooted at a fresh t.TempDir().
func NewCLI(t *testing.T) *CLI {
	t.Helper()

	return &CLI{t: t, Dir: t.TempDir(), Env: map[string]string{}}
}

// Run executes "ccount --cwd <Dir> args..." and returns stdout, stderr and
// the exit code.
func (c *CLI) Run(args ...string) (string, string, int) {
	var stdout, stderr bytes.Buffer

	argv := append([]string{"ccount", "--cwd", c.Dir}, args...)
	code := Run(nil, &stdout, &stderr, argv, c.Env, nil)

	return stdout.String(), stderr.String(), code
}

// MustRun runs args, fails the test on a non-zero exit and returns the
// trimmed stdout.
func (c *CLI) MustRun(args ...string) string {
	c.t.Helper()

	stdout, stderr, code := c.Run(args...)
	if code != 0 {
		c.t.Fatalf("ccount %v: exit %d\nstderr: %s", args, code, stderr)
	}

	return strings.TrimSpace(stdout)
}

// MustFail runs args, fails the test unless they exit non-zero with empty
// stdout, and returns the trimmed stderr.
func (c *CLI) MustFail(args ...string) string {
	c.t.Helper()

	stdout, stderr, code := c.Run(args...)

	switch {
	case code == 0:
		c.t.Fatalf("ccount %v: want failure, got exit 0\nstdout: %s", args, stdout)
	case stdout != "":
		c.t.Fatalf("ccount %v: failed but wrote stdout\nstdout: %s", args, stdout)
	}

	return strings.TrimSpace(stderr)
}

// DataDir is where the default config keeps both tables.
func (c *CLI) DataDir() string {
	return filepath.Join(c.Dir, "data")
}

// ReadFile returns the content of rel, relative to Dir.
func (c *CLI) ReadFile(rel string) string {
	c.t.Helper()

	content, err := os.ReadFile(filepath.Join(c.Dir, rel))
	if err != nil {
		c.t.Fatalf("read %s: %v", rel, err)
	}

	return string(content)
}

// WriteFile writes content to rel, relative to Dir, creating parents.
func (c *CLI) WriteFile(rel, content string) {
	c.t.Helper()

	path := filepath.Join(c.Dir, rel)

	err := os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		c.t.Fatalf("mkdir for %s: %v", rel, err)
	}

	err = os.WriteFile(path, []byte(content), 0o600)
	if err != nil {
		c.t.Fatalf("write %s: %v", rel, err)
	}
}

// Table decodes the CSV table at rel, relative to Dir.
func (c *CLI) Table(rel string) csvstore.Table {
	c.t.Helper()

	table, err := csvstore.Decode(strings.NewReader(c.ReadFile(rel)))
	if err != nil {
		c.t.Fatalf("decode %s: %v", rel, err)
	}

	return table
}

// AssertContains reports an error unless content contains substr.
func AssertContains(t *testing.T, content, substr string) {
	t.Helper()

	if !strings.Contains(content, substr) {
		t.Errorf("missing %q in:\n%s", substr, content)
	}
}

// AssertNotContains reports an error if content contains substr.
func AssertNotContains(t *testing.T, content, substr string) {
	t.Helper()

	if strings.Contains(content, substr) {
		t.Errorf("unexpected %q in:\n%s", substr, content)
	}
}
