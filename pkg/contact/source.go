package contact

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Open returns a Source for the file, chosen by extension.
func Open(path string) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return &CSVSource{Path: path}, nil
	case ".xlsx", ".xlsm":
		return &XLSXSource{Path: path}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// CSVSource reads contacts from a comma-separated file with a header row.
type CSVSource struct {
	Path string
}

// Load implements Source.
func (s *CSVSource) Load(_ context.Context) ([]Record, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, errors.Join(ErrUnreadable, err)
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV parses a CSV stream into records.
func ReadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Join(ErrUnreadable, err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyHeader
	}
	return fromRows(rows[0], rows[1:])
}

// XLSXSource reads contacts from an Excel workbook.
// Sheet defaults to the first sheet in the workbook.
type XLSXSource struct {
	Path  string
	Sheet string
}

// Load implements Source.
func (s *XLSXSource) Load(_ context.Context) ([]Record, error) {
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, errors.Join(ErrUnreadable, err)
	}
	defer f.Close()

	sheet := s.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrEmptyHeader
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Join(ErrUnreadable, err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyHeader
	}
	return fromRows(rows[0], rows[1:])
}

// fromRows maps the header onto the required columns and decodes every data
// row. Extra columns and trailing blank rows are ignored. A blank row between
// data rows is rejected, so Index always equals the row's position in the sheet.
func fromRows(header []string, rows [][]string) ([]Record, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}

	for _, col := range Columns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	get := func(row []string, col string) string {
		i := idx[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	for len(rows) > 0 && isBlank(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}

	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		if isBlank(row) {
			return nil, &ValidationError{Row: i, Reason: "blank row between data rows"}
		}
		records = append(records, Record{
			Index:            i,
			SenderEmail:      get(row, ColumnFromEmail),
			SenderPassword:   get(row, ColumnPassword),
			Salutation:       get(row, ColumnSal),
			DisplayName:      get(row, ColumnSignature),
			RecipientEmail:   get(row, ColumnToEmail),
			Subject:          get(row, ColumnSubject),
			BodyTemplatePath: get(row, ColumnHTMLFile),
		})
	}

	if err := Validate(records); err != nil {
		return nil, err
	}
	return records, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
