package schedule

import (
	"testing"
	"time"

	"github.com/nissyi-gh/bucket/internal/model"
)

var now = time.Date(2024, 7, 10, 14, 30, 0, 0, time.UTC)

func day(n int) time.Duration { return time.Duration(n) * Day }

func TestStartOfDayAndTomorrow(t *testing.T) {
	if got, want := StartOfDay(now), time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("StartOfDay = %v, want %v", got, want)
	}
	if got, want := Tomorrow(now), time.Date(2024, 7, 11, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("Tomorrow = %v, want %v", got, want)
	}
	// month rollover
	eom := time.Date(2024, 1, 31, 23, 59, 0, 0, time.UTC)
	if got, want := Tomorrow(eom), time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("Tomorrow(end of month) = %v, want %v", got, want)
	}
}

func TestNextReviewSameDayIsTomorrow(t *testing.T) {
	tests := []struct {
		name string
		gap  time.Duration
	}{
		{"zero", 0},
		{"hours", 5 * time.Hour},
		{"just under a day", Day - time.Millisecond},
		{"negative", -3 * time.Hour},
	}
	for _, tt := range tests {
		task := model.Task{ReviewedAt: now, ReviewAt: now.Add(tt.gap)}
		if got := NextReview(task, now); !got.Equal(Tomorrow(now)) {
			t.Errorf("%s: NextReview = %v, want %v", tt.name, got, Tomorrow(now))
		}
	}
}

func TestNextReviewScheduledIsTomorrow(t *testing.T) {
	task := model.Task{
		ReviewedAt: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		ReviewAt:   now,
		Scheduled:  true,
	}
	if got := NextReview(task, now); !got.Equal(Tomorrow(now)) {
		t.Errorf("NextReview = %v, want %v", got, Tomorrow(now))
	}
}

func TestNextReviewDoubles(t *testing.T) {
	reviewed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		gap  time.Duration
		want time.Duration
	}{
		{day(1), day(2)},
		{day(2), day(4)},
		{day(4), day(8)},
		{day(3) + 6*time.Hour, day(6) + 12*time.Hour},
	}
	for _, tt := range tests {
		task := model.Task{ReviewedAt: reviewed, ReviewAt: reviewed.Add(tt.gap)}
		if got, want := NextReview(task, now), now.Add(tt.want); !got.Equal(want) {
			t.Errorf("gap %v: NextReview = %v, want %v", tt.gap, got, want)
		}
	}
}

func TestNextReviewProgression(t *testing.T) {
	at := now
	task := model.Task{ReviewedAt: at.Add(-day(2)), ReviewAt: at}
	for _, want := range []time.Duration{day(4), day(8), day(16)} {
		next := NextReview(task, at)
		if got := next.Sub(at); got != want {
			t.Fatalf("interval = %v, want %v", got, want)
		}
		task.ReviewedAt = at
		task.ReviewAt = next
		at = next
	}
}

func TestNextReviewThreeDayScenario(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	task := model.Task{ReviewedAt: t0, ReviewAt: t0.Add(day(3))}
	postponedAt := t0.Add(day(3))

	got := NextReview(task, postponedAt)
	if want := postponedAt.Add(day(6)); !got.Equal(want) {
		t.Errorf("NextReview = %v, want %v", got, want)
	}
}

func TestIsDue(t *testing.T) {
	tests := []struct {
		name string
		task model.Task
		want bool
	}{
		{"due now", model.Task{ReviewAt: now}, true},
		{"overdue", model.Task{ReviewAt: now.Add(-day(30))}, true},
		{"later today", model.Task{ReviewAt: Tomorrow(now).Add(-time.Millisecond)}, true},
		{"at boundary", model.Task{ReviewAt: Tomorrow(now)}, false},
		{"tomorrow noon", model.Task{ReviewAt: Tomorrow(now).Add(12 * time.Hour)}, false},
		{"scheduled", model.Task{ReviewAt: now, Scheduled: true}, false},
		{"completed", model.Task{ReviewAt: now, Completed: true}, false},
	}
	for _, tt := range tests {
		if got := IsDue(tt.task, now); got != tt.want {
			t.Errorf("%s: IsDue = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDueFilter(t *testing.T) {
	f := DueFilter(now)
	if f.Index != model.IndexReviewAt {
		t.Errorf("Index = %q, want %q", f.Index, model.IndexReviewAt)
	}
	if f.Upper == nil || !f.Upper.Equal(Tomorrow(now)) {
		t.Errorf("Upper = %v, want %v", f.Upper, Tomorrow(now))
	}
	if !f.UpperOpen {
		t.Error("UpperOpen = false, want true")
	}
	if f.Lower != nil {
		t.Errorf("Lower = %v, want nil", f.Lower)
	}
}

func TestFilterDue(t *testing.T) {
	tasks := []model.Task{
		{ID: 1, Title: "a"},
		{ID: 2, Title: "b", Scheduled: true},
		{ID: 3, Title: "c", Completed: true},
		{ID: 4, Title: "d"},
		{ID: 5, Title: "e", Scheduled: true, Completed: true},
		{ID: 6, Title: "f", ReviewAt: Tomorrow(now)},
	}
	got := FilterDue(tasks, now)
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 4 {
		t.Errorf("FilterDue = %+v, want ids [1 4]", got)
	}
}
