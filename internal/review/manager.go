// Package review drives the life of a task: creating it, scheduling it
// out of the way, postponing it to its next review, completing it and
// moving tasks in and out through import and export.
//
// After every write the Manager re-reads the store and publishes two
// derived views, every task and the tasks due today, so observers never
// see a view that lags behind a write they triggered.
package review

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nissyi-gh/bucket/internal/model"
	"github.com/nissyi-gh/bucket/internal/schedule"
)

// Store is the persistence the Manager needs.
type Store interface {
	Get(ctx context.Context, id int) (model.Task, error)
	List(ctx context.Context, f *model.Filter) ([]model.Task, error)
	Add(ctx context.Context, t model.Task) (int, error)
	Update(ctx context.Context, id int, p model.Patch) (int, error)
	Remove(ctx context.Context, id int) error
}

// Views is a snapshot of the task lists derived from the store.
type Views struct {
	All       []model.Task
	Due       []model.Task
	Refreshed time.Time

	scheduled []model.Task
}

// Scheduled returns the tasks that were parked with Schedule.
func (v Views) Scheduled() []model.Task {
	return v.scheduled
}

// Next returns the task to review now, if any.
func (v Views) Next() (model.Task, bool) {
	if len(v.Due) == 0 {
		return model.Task{}, false
	}
	return v.Due[0], true
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// Manager applies lifecycle transitions to tasks in a Store.
type Manager struct {
	store Store
	now   func() time.Time
	log   *log.Logger

	mu          sync.Mutex
	views       Views
	subscribers []func(Views)
}

// New creates a Manager backed by s.
func New(s Store, opts ...Option) *Manager {
	m := &Manager{
		store: s,
		now:   time.Now,
		log:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Subscribe registers fn to receive every freshly derived Views.
func (m *Manager) Subscribe(fn func(Views)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

// Views returns the most recently derived snapshot.
func (m *Manager) Views() Views {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.views
}

// Refresh re-reads the full set and the due set from the store.
func (m *Manager) Refresh(ctx context.Context) (Views, error) {
	now := m.now()

	all, err := m.store.List(ctx, nil)
	if err != nil {
		return Views{}, fmt.Errorf("list tasks: %w", err)
	}
	due, err := m.DueToday(ctx)
	if err != nil {
		return Views{}, err
	}
	parked := model.ScheduledIs(true)
	scheduled, err := m.store.List(ctx, &parked)
	if err != nil {
		return Views{}, fmt.Errorf("list scheduled tasks: %w", err)
	}

	v := Views{All: all, Due: due, Refreshed: now, scheduled: scheduled}

	m.mu.Lock()
	m.views = v
	subs := append([]func(Views){}, m.subscribers...)
	m.mu.Unlock()

	for _, fn := range subs {
		fn(v)
	}
	return v, nil
}

// DueToday returns the tasks to review today: due before tomorrow,
// neither scheduled nor completed.
func (m *Manager) DueToday(ctx context.Context) ([]model.Task, error) {
	now := m.now()
	f := schedule.DueFilter(now)
	tasks, err := m.store.List(ctx, &f)
	if err != nil {
		return nil, fmt.Errorf("list due tasks: %w", err)
	}
	return schedule.FilterDue(tasks, now), nil
}

// Get returns a single task.
func (m *Manager) Get(ctx context.Context, id int) (model.Task, error) {
	return m.store.Get(ctx, id)
}

// Preview returns the date t would be due again if it were postponed now.
func (m *Manager) Preview(t model.Task) time.Time {
	return schedule.NextReview(t, m.now())
}

// Add creates a task that is due immediately.
func (m *Manager) Add(ctx context.Context, title string) (int, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, model.ErrEmptyTitle
	}

	now := m.now()
	id, err := m.store.Add(ctx, model.Task{
		Title:      title,
		CreatedAt:  now,
		ReviewedAt: now,
		ReviewAt:   now,
	})
	if err != nil {
		return 0, err
	}
	m.log.Debug("task added", "id", id, "title", title)
	return id, m.sync(ctx)
}

// Update merges p into the task. A completed task may only be renamed,
// and no patch can clear the completed flag.
func (m *Manager) Update(ctx context.Context, id int, p model.Patch) (int, error) {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return 0, model.ErrEmptyTitle
	}
	if p.Completed != nil && !*p.Completed {
		return 0, fmt.Errorf("reopen task %d: %w", id, model.ErrCompleted)
	}
	if p.Scheduled != nil || p.Completed != nil || p.ReviewAt != nil || p.ReviewedAt != nil {
		if _, err := m.open(ctx, id); err != nil {
			return 0, err
		}
	}
	if _, err := m.store.Update(ctx, id, p); err != nil {
		return 0, err
	}
	m.log.Debug("task updated", "id", id)
	return id, m.sync(ctx)
}

// Schedule takes the task out of the due list until it is postponed or
// unscheduled.
func (m *Manager) Schedule(ctx context.Context, id int) error {
	if _, err := m.open(ctx, id); err != nil {
		return err
	}
	now := m.now()
	if _, err := m.store.Update(ctx, id, model.Patch{
		ReviewedAt: &now,
		Scheduled:  model.Ptr(true),
	}); err != nil {
		return err
	}
	m.log.Debug("task scheduled", "id", id)
	return m.sync(ctx)
}

// Unschedule returns a scheduled task to the review rotation with its
// due date unchanged.
func (m *Manager) Unschedule(ctx context.Context, id int) error {
	if _, err := m.open(ctx, id); err != nil {
		return err
	}
	if _, err := m.store.Update(ctx, id, model.Patch{Scheduled: model.Ptr(false)}); err != nil {
		return err
	}
	m.log.Debug("task unscheduled", "id", id)
	return m.sync(ctx)
}

// Postpone marks the task reviewed today and moves its due date with
// schedule.NextReview.
func (m *Manager) Postpone(ctx context.Context, id int) error {
	t, err := m.open(ctx, id)
	if err != nil {
		return err
	}
	now := m.now()
	next := schedule.NextReview(t, now)
	reviewed := schedule.StartOfDay(now)
	if _, err := m.store.Update(ctx, id, model.Patch{
		ReviewAt:   &next,
		ReviewedAt: &reviewed,
		Scheduled:  model.Ptr(false),
	}); err != nil {
		return err
	}
	m.log.Debug("task postponed", "id", id, "interval", t.Interval(), "reviewAt", next)
	return m.sync(ctx)
}

// Complete finishes the task for good.
func (m *Manager) Complete(ctx context.Context, id int) error {
	if _, err := m.store.Update(ctx, id, model.Patch{
		Completed: model.Ptr(true),
		Scheduled: model.Ptr(false),
	}); err != nil {
		return err
	}
	m.log.Debug("task completed", "id", id)
	return m.sync(ctx)
}

// Remove deletes the task.
func (m *Manager) Remove(ctx context.Context, id int) error {
	if err := m.store.Remove(ctx, id); err != nil {
		return err
	}
	m.log.Debug("task removed", "id", id)
	return m.sync(ctx)
}

// open loads a task that may still change state.
func (m *Manager) open(ctx context.Context, id int) (model.Task, error) {
	t, err := m.store.Get(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	if t.Completed {
		return model.Task{}, fmt.Errorf("task %d: %w", id, model.ErrCompleted)
	}
	return t, nil
}

func (m *Manager) sync(ctx context.Context) error {
	_, err := m.Refresh(ctx)
	return err
}
