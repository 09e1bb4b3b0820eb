package domain

import "time"

// JournalEntry records one move or delete performed on a run, so a moved
// file can be traced back to where it came from.
type JournalEntry struct {
	ID          int64
	RunID       string
	Action      Action
	Path        string
	Destination string
	Keeper      string
	Size        int64
	Error       string
	CreatedAt   time.Time
}

// Failed returns true if the recorded action did not complete
func (e *JournalEntry) Failed() bool {
	return e.Error != ""
}
