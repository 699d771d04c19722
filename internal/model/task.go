package model

import (
	"errors"
	"time"
)

// Sentinel errors shared by the store and the review manager.
var (
	ErrNotFound     = errors.New("task not found")
	ErrEmptyTitle   = errors.New("task title is required")
	ErrCompleted    = errors.New("task is already completed")
	ErrUnknownIndex = errors.New("unknown index")
)

// Task represents a single task stored in the database.
type Task struct {
	ID         int       `json:"id" yaml:"id"`
	Title      string    `json:"title" yaml:"title"`
	CreatedAt  time.Time `json:"createdAt" yaml:"createdAt"`
	ReviewedAt time.Time `json:"reviewedAt" yaml:"reviewedAt"`
	ReviewAt   time.Time `json:"reviewAt" yaml:"reviewAt"`
	Scheduled  bool      `json:"scheduled" yaml:"scheduled"`
	Completed  bool      `json:"completed" yaml:"completed"`
}

// Interval returns the gap between the last review and the due date.
func (t Task) Interval() time.Duration {
	return t.ReviewAt.Sub(t.ReviewedAt)
}

// Patch holds a partial update. Nil fields are left untouched.
type Patch struct {
	Title      *string
	ReviewedAt *time.Time
	ReviewAt   *time.Time
	Scheduled  *bool
	Completed  *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.ReviewedAt == nil && p.ReviewAt == nil &&
		p.Scheduled == nil && p.Completed == nil
}

// Apply merges the patch over t and returns the result.
func (p Patch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.ReviewedAt != nil {
		t.ReviewedAt = *p.ReviewedAt
	}
	if p.ReviewAt != nil {
		t.ReviewAt = *p.ReviewAt
	}
	if p.Scheduled != nil {
		t.Scheduled = *p.Scheduled
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	return t
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T {
	return &v
}
