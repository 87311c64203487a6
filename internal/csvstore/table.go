// Package csvstore keeps tabular records in flat CSV files.
//
// A file holds one header line followed by one line per row. Files are always
// rewritten in full: callers read the whole table, change it in memory, and
// write it back. Reads never fail; a missing, empty, or unparsable file reads
// as an empty [Table].
package csvstore

import "slices"

// Row maps column names to cell values.
type Row map[string]string

// Table is an ordered set of columns and the rows stored under them.
// A zero Table has no columns and no rows.
type Table struct {
	Columns []string
	Rows    []Row
}

// NewTable returns an empty table with the given columns.
func NewTable(columns ...string) Table {
	return Table{Columns: slices.Clone(columns)}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool {
	return len(t.Rows) == 0
}

// Append adds a row. Keys not yet present as columns are added after the
// existing columns, in the order given by cols, so that a table read from an
// empty file picks up the schema of the first appended row.
func (t *Table) Append(row Row, cols ...string) {
	for _, col := range cols {
		if !slices.Contains(t.Columns, col) {
			t.Columns = append(t.Columns, col)
		}
	}

	for key := range row {
		if !slices.Contains(t.Columns, key) {
			t.Columns = append(t.Columns, key)
		}
	}

	t.Rows = append(t.Rows, row)
}

// Find returns the index of the first row whose column col equals value,
// or -1 if there is none.
func (t *Table) Find(col, value string) int {
	for i, row := range t.Rows {
		if row[col] == value {
			return i
		}
	}

	return -1
}

// Set assigns value to column col on every row where match returns true.
// Returns the number of rows changed.
func (t *Table) Set(col, value string, match func(Row) bool) int {
	if !slices.Contains(t.Columns, col) {
		t.Columns = append(t.Columns, col)
	}

	n := 0

	for _, row := range t.Rows {
		if match(row) {
			row[col] = value
			n++
		}
	}

	return n
}

// Filter returns the rows for which keep returns true. The rows are shared
// with t, not copied.
func (t *Table) Filter(keep func(Row) bool) []Row {
	var out []Row

	for _, row := range t.Rows {
		if keep(row) {
			out = append(out, row)
		}
	}

	return out
}

// Record returns row's values in column order. Missing cells are empty.
func (t *Table) Record(row Row) []string {
	rec := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		rec[i] = row[col]
	}

	return rec
}
