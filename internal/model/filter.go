package model

import "time"

// Index names understood by Filter.
const (
	IndexReviewAt  = "reviewAt"
	IndexScheduled = "scheduled"
)

// Filter selects records through a secondary index.
//
// For IndexReviewAt, Lower and Upper bound the due date; a nil bound is
// unbounded and the *Open flags make a bound exclusive. For
// IndexScheduled, records whose scheduled flag equals Scheduled match.
type Filter struct {
	Index     string
	Lower     *time.Time
	Upper     *time.Time
	LowerOpen bool
	UpperOpen bool
	Scheduled bool
}

// UpperBound selects tasks due at or before t, or strictly before t when open.
func UpperBound(t time.Time, open bool) Filter {
	return Filter{Index: IndexReviewAt, Upper: &t, UpperOpen: open}
}

// ScheduledIs selects tasks by their scheduled flag.
func ScheduledIs(scheduled bool) Filter {
	return Filter{Index: IndexScheduled, Scheduled: scheduled}
}
