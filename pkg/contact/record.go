package contact

import (
	"context"
	"log/slog"
	"strings"
)

// Column names of the contact sheet. The literal names are the file format contract.
const (
	ColumnFromEmail = "from_email"
	ColumnPassword  = "password"
	ColumnSal       = "sal"
	ColumnSignature = "signature"
	ColumnToEmail   = "to_email"
	ColumnSubject   = "subject"
	ColumnHTMLFile  = "html_file"
)

// Columns lists every required column in sheet order.
var Columns = []string{
	ColumnFromEmail,
	ColumnPassword,
	ColumnSal,
	ColumnSignature,
	ColumnToEmail,
	ColumnSubject,
	ColumnHTMLFile,
}

// Record is one recipient's full set of send parameters.
// Index is the 0-based data row position and doubles as the checkpoint index.
type Record struct {
	SenderEmail      string
	SenderPassword   string
	RecipientEmail   string
	Subject          string
	Salutation       string
	DisplayName      string
	BodyTemplatePath string
	Index            int
}

// LogValue implements slog.LogValuer. The sender password is never emitted.
func (r Record) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("row", r.Index),
		slog.String("from", r.SenderEmail),
		slog.String("to", r.RecipientEmail),
		slog.String("subject", r.Subject),
		slog.String("template", r.BodyTemplatePath),
	)
}

// field returns the value stored under the given column name.
func (r Record) field(column string) string {
	switch column {
	case ColumnFromEmail:
		return r.SenderEmail
	case ColumnPassword:
		return r.SenderPassword
	case ColumnSal:
		return r.Salutation
	case ColumnSignature:
		return r.DisplayName
	case ColumnToEmail:
		return r.RecipientEmail
	case ColumnSubject:
		return r.Subject
	case ColumnHTMLFile:
		return r.BodyTemplatePath
	}
	return ""
}

// Source yields the ordered recipient records of one run.
type Source interface {
	// Load reads every record. Errors are fatal for the run.
	Load(ctx context.Context) ([]Record, error)
}

// Records is an in-memory Source.
type Records []Record

// Load implements Source.
func (r Records) Load(_ context.Context) ([]Record, error) {
	return r, nil
}

// Validate checks that every required field is present on every record.
// It runs once, before any record is processed.
func Validate(records []Record) error {
	for i, rec := range records {
		if rec.Index != i {
			return &ValidationError{Row: i, Reason: "row index out of order"}
		}
		for _, col := range Columns {
			if strings.TrimSpace(rec.field(col)) == "" {
				return &ValidationError{Row: rec.Index, Column: col, Reason: "required value is empty"}
			}
		}
	}
	return nil
}
