package report

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/calvinalkan/cycle-count/internal/csvstore"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// SheetName is the worksheet holding exported submissions.
const SheetName = "Submissions"

var (
	// ErrNoSubmissions is returned when there is nothing to export.
	ErrNoSubmissions = errors.New("no submissions yet")
	// ErrUnknownFormat is returned for formats other than csv and xlsx.
	ErrUnknownFormat = errors.New("unknown export format (must be csv or xlsx)")
)

// ExportFilename names an export taken at now, e.g.
// "submissions_20240102_150405.csv". The timestamp is UTC.
func ExportFilename(now time.Time, format string) string {
	return fmt.Sprintf("submissions_%s.%s", now.UTC().Format("20060102_150405"), format)
}

// ContentType returns the MIME type of an export format.
func ContentType(format string) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}

	return "text/csv; charset=utf-8"
}

// ValidateFormat returns [ErrUnknownFormat] unless format is csv or xlsx.
func ValidateFormat(format string) error {
	if format != FormatCSV && format != FormatXLSX {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	return nil
}

// Export writes the submissions table to w in the given format.
// It returns [ErrNoSubmissions] without writing when the table has no rows.
func Export(w io.Writer, table csvstore.Table, format string) error {
	err := ValidateFormat(format)
	if err != nil {
		return err
	}

	if table.Empty() {
		return ErrNoSubmissions
	}

	if format == FormatXLSX {
		return WriteXLSX(w, table)
	}

	return WriteCSV(w, table)
}

// WriteCSV writes table exactly as the record store would.
func WriteCSV(w io.Writer, table csvstore.Table) error {
	err := csvstore.Encode(w, table)
	if err != nil {
		return fmt.Errorf("export csv: %w", err)
	}

	return nil
}

// WriteXLSX writes table as a workbook with one [SheetName] sheet: a header
// row followed by the rows, every cell as text.
func WriteXLSX(w io.Writer, table csvstore.Table) (err error) {
	f := excelize.NewFile()

	defer func() {
		err = errors.Join(err, f.Close())
	}()

	idx, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("export xlsx: %w", err)
	}

	f.SetActiveSheet(idx)

	err = f.DeleteSheet("Sheet1")
	if err != nil {
		return fmt.Errorf("export xlsx: %w", err)
	}

	records := make([][]string, 0, table.Len()+1)

	records = append(records, table.Columns)
	for _, row := range table.Rows {
		records = append(records, table.Record(row))
	}

	for r, rec := range records {
		for c, value := range rec {
			cell, cellErr := excelize.CoordinatesToCellName(c+1, r+1)
			if cellErr != nil {
				return fmt.Errorf("export xlsx: %w", cellErr)
			}

			err = f.SetCellStr(SheetName, cell, value)
			if err != nil {
				return fmt.Errorf("export xlsx: %w", err)
			}
		}
	}

	if n := len(table.Columns); n > 0 {
		last, _ := excelize.ColumnNumberToName(n)

		err = f.SetColWidth(SheetName, "A", last, 16)
		if err != nil {
			return fmt.Errorf("export xlsx: %w", err)
		}
	}

	_, err = f.WriteTo(w)
	if err != nil {
		return fmt.Errorf("export xlsx: %w", err)
	}

	return nil
}
