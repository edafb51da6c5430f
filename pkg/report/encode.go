package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/dmitrymomot/courier/pkg/dispatch"
)

// Columns is the report header, in order.
var Columns = []string{"from_email", "to_email", "subject", "error_message"}

// Format is a report encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// sheetName is the worksheet that receives the report rows.
const sheetName = "Sheet1"

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
}

// Extension returns the file extension for the format, with the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// Encode writes entries as a report with a header row, one row per entry
// in the given order.
func Encode(w io.Writer, format Format, entries []dispatch.FailureEntry) error {
	switch format {
	case FormatCSV:
		return encodeCSV(w, entries)
	case FormatXLSX:
		return encodeXLSX(w, entries)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

func row(e dispatch.FailureEntry) []string {
	return []string{e.SenderEmail, e.RecipientEmail, e.Subject, e.Error}
}

func encodeCSV(w io.Writer, entries []dispatch.FailureEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return errors.Join(ErrEncode, err)
	}
	for _, e := range entries {
		if err := cw.Write(row(e)); err != nil {
			return errors.Join(ErrEncode, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Join(ErrEncode, err)
	}
	return nil
}

func encodeXLSX(w io.Writer, entries []dispatch.FailureEntry) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	header := toCells(Columns)
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return errors.Join(ErrEncode, err)
	}
	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Join(ErrEncode, err)
		}
		values := toCells(row(e))
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return errors.Join(ErrEncode, err)
		}
	}

	if err := f.Write(w); err != nil {
		return errors.Join(ErrEncode, err)
	}
	return nil
}

func toCells(values []string) []any {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
