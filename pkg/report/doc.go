// Package report writes the end-of-run failure report.
//
// A report has one header row (from_email, to_email, subject, error_message)
// followed by one row per failed record, in the order the failures occurred.
// It can be encoded as CSV or XLSX.
//
// Sinks:
//   - FileSink writes to a local file, replacing it atomically
//   - S3Sink uploads a new object per run to S3-compatible storage
//   - MultiSink writes to several sinks and joins their errors
//
// Every sink implements dispatch.FailureSink.
package report
