package dispatch

import "math"

// FailureEntry records a record that failed for a non-network reason.
// Entries are appended once and never modified.
type FailureEntry struct {
	SenderEmail    string
	RecipientEmail string
	Subject        string
	Error          string
	Index          int
}

// State is the per-run bookkeeping owned by the worker goroutine.
// Invariants: 0 <= Cursor <= Total, Sent <= Cursor, len(Failures) <= Cursor.
type State struct {
	Failures []FailureEntry
	Cursor   int
	Sent     int
	Total    int
}

// Summary is the outcome of a run.
type Summary struct {
	// Fatal is set when the contact source could not be loaded or validated;
	// in that case nothing was sent.
	Fatal error
	State
	Cancelled bool
}

// Completed reports whether every record was finalized in this or an earlier run.
func (s Summary) Completed() bool {
	return s.Fatal == nil && !s.Cancelled && s.Cursor == s.Total
}

// percent returns round(100*done/total), 100 for an empty run.
func percent(done, total int) int {
	if total <= 0 {
		return 100
	}
	return int(math.Round(100 * float64(done) / float64(total)))
}
