package csvstore

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	"go.uber.org/zap"
)

const (
	dirPerms  = 0o755
	filePerms = 0o644
)

// utf8BOM is stripped from the first header cell; spreadsheet tools like to add it.
const utf8BOM = "\ufeff"

// Store reads and replaces CSV tables on disk.
//
// Store holds no table state. Every call goes to the filesystem, so several
// Stores (or processes) may point at the same files. Mutations made through
// [Store.Update] are serialized across processes with a lock file.
type Store struct {
	log         *zap.Logger
	lockTimeout time.Duration
}

// New returns a Store that reports swallowed read failures to log.
// A nil log discards them.
func New(log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}

	return &Store{log: log, lockTimeout: LockTimeout}
}

// Read loads the table at path.
//
// A missing or zero-byte file yields an empty table with no columns. So does
// any read or parse failure: the failure is logged and otherwise dropped, which
// means a corrupt file cannot be told apart from an empty one.
func (s *Store) Read(path string) Table {
	info, err := os.Stat(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("stat table", zap.String("path", path), zap.Error(err))
		}

		return Table{}
	}

	if info.Size() == 0 {
		return Table{}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		s.log.Warn("read table", zap.String("path", path), zap.Error(err))

		return Table{}
	}

	table, err := Decode(bytes.NewReader(data))
	if err != nil {
		s.log.Warn("parse table, treating as empty", zap.String("path", path), zap.Error(err))

		return Table{}
	}

	return table
}

// Write replaces the file at path with table.
//
// The table is written to a temporary file in the same directory and renamed
// over path, so concurrent readers see either the old or the new content.
// Write takes no lock; see [Store.Update] for read-modify-write.
func (s *Store) Write(table Table, path string) error {
	var buf bytes.Buffer

	err := Encode(&buf, table)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	err = atomic.WriteFile(path, &buf)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}

// Seed creates path holding only a header row of columns, unless the file
// already exists. Parent directories are created as needed.
func (s *Store) Seed(path string, columns []string) error {
	err := os.MkdirAll(filepath.Dir(path), dirPerms)
	if err != nil {
		return fmt.Errorf("seed %s: create directory: %w", path, err)
	}

	_, err = os.Stat(path)
	if err == nil {
		return nil
	}

	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("seed %s: %w", path, err)
	}

	err = s.Write(NewTable(columns...), path)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	s.log.Debug("seeded table", zap.String("path", path), zap.Strings("columns", columns))

	return nil
}

// Update runs a locked read-modify-write on the table at path.
//
// The table handed to mutate is whatever [Store.Read] returns. If mutate
// reports changed=false or returns an error, nothing is written.
func (s *Store) Update(path string, mutate func(t *Table) (changed bool, err error)) error {
	lock, err := lockTable(path, s.lockTimeout)
	if err != nil {
		return err
	}

	defer lock.unlock()

	table := s.Read(path)

	changed, err := mutate(&table)
	if err != nil {
		return err
	}

	if !changed {
		return nil
	}

	return s.Write(table, path)
}

// Encode writes table as CSV: a header line, then one line per row.
// A table without columns encodes to nothing.
func Encode(w io.Writer, table Table) error {
	if len(table.Columns) == 0 {
		return nil
	}

	cw := csv.NewWriter(w)

	err := cw.Write(table.Columns)
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range table.Rows {
		err = cw.Write(table.Record(row))
		if err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	cw.Flush()

	err = cw.Error()
	if err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	return nil
}

// Decode parses CSV produced by [Encode]. Every record must have as many
// fields as the header.
func Decode(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)

	records, err := cr.ReadAll()
	if err != nil {
		return Table{}, err
	}

	if len(records) == 0 {
		return Table{}, nil
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = trimBOM(header[0])
	}

	table := NewTable(header...)
	table.Rows = make([]Row, 0, len(records)-1)

	for _, rec := range records[1:] {
		row := make(Row, len(header))
		for i, col := range header {
			row[col] = rec[i]
		}

		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

func trimBOM(s string) string {
	return strings.TrimPrefix(s, utf8BOM)
}
