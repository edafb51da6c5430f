// Package contact loads the recipient list of a dispatch run.
//
// A contact sheet is tabular input with a header row naming the columns
//
//	from_email, password, sal, signature, to_email, subject, html_file
//
// Every column is required and every cell of a data row must be filled.
// Rows are delivered in file order and the 0-based data row position is
// the durable checkpoint index, so the sheet must not be reordered between
// a run and its resume.
//
// CSV files are read with encoding/csv; Excel workbooks (.xlsx, .xlsm) are
// read with excelize:
//
//	src, err := contact.Open("contacts.xlsx")
//	if err != nil {
//		return err
//	}
//	records, err := src.Load(ctx)
//
// Schema problems surface as ErrMissingColumn or *ValidationError and are
// reported before any message is sent.
package contact
