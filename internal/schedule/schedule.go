// Package schedule decides when a task is due and when it should be
// reviewed next. Everything here is a pure function of a task and the
// current time.
package schedule

import (
	"time"

	"github.com/nissyi-gh/bucket/internal/model"
)

// Day is the interval below which a review resets to tomorrow.
const Day = 24 * time.Hour

// StartOfDay returns midnight at the beginning of now's calendar day.
func StartOfDay(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// Tomorrow returns midnight at the beginning of the day after now.
func Tomorrow(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
}

// NextReview computes the due date a task gets when it is postponed at now.
//
// If the task waited at least a day between its last review and its due
// date and was not manually scheduled, that interval is doubled and
// projected forward from now. Otherwise the task comes back tomorrow.
func NextReview(t model.Task, now time.Time) time.Time {
	elapsed := t.Interval()
	if elapsed >= Day && !t.Scheduled {
		return now.Add(2 * elapsed)
	}
	return Tomorrow(now)
}

// DueBoundary is the exclusive upper bound on reviewAt for tasks due at now.
func DueBoundary(now time.Time) time.Time {
	return Tomorrow(now)
}

// DueFilter is the index range that covers every task due by the end of
// now's day.
func DueFilter(now time.Time) model.Filter {
	return model.UpperBound(DueBoundary(now), true)
}

// IsDue reports whether t belongs in the review list at now.
func IsDue(t model.Task, now time.Time) bool {
	return t.ReviewAt.Before(DueBoundary(now)) && !t.Scheduled && !t.Completed
}

// FilterDue keeps the tasks of a DueFilter scan that are due at now,
// dropping scheduled and completed ones. Order is preserved.
func FilterDue(tasks []model.Task, now time.Time) []model.Task {
	due := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if IsDue(t, now) {
			due = append(due, t)
		}
	}
	return due
}
