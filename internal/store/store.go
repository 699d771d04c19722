package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nissyi-gh/bucket/internal/model"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const taskColumns = "id, title, created_at, reviewed_at, review_at, scheduled, completed"

// TaskStore manages SQL persistence for tasks.
type TaskStore struct {
	db     *sql.DB
	driver string
}

// DefaultDBPath returns the SQLite file location under XDG_DATA_HOME.
func DefaultDBPath() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	dir := filepath.Join(dataHome, "bucket")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "bucket.db"), nil
}

// Open opens a store for the given driver. target is a file path for
// SQLite and a connection string for PostgreSQL.
func Open(driver, target string) (*TaskStore, error) {
	switch driver {
	case "", DriverSQLite:
		return NewTaskStore(target)
	case DriverPostgres:
		return NewPostgresStore(target)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// NewTaskStore opens (or creates) the SQLite database and ensures the schema exists.
func NewTaskStore(dbPath string) (*TaskStore, error) {
	if dbPath == "" {
		var err error
		dbPath, err = DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("determine db path: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS todos (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		title      TEXT    NOT NULL,
		created_at INTEGER NOT NULL,
		review_at  INTEGER NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s := &TaskStore{db: db, driver: DriverSQLite}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore connects to PostgreSQL and ensures the schema exists.
func NewPostgresStore(dsn string) (*TaskStore, error) {
	if dsn == "" {
		return nil, errors.New("postgres connection string is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS todos (
		id         BIGSERIAL PRIMARY KEY,
		title      TEXT   NOT NULL,
		created_at BIGINT NOT NULL,
		review_at  BIGINT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s := &TaskStore{db: db, driver: DriverPostgres}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *TaskStore) migrate() error {
	columns := []struct{ name, def string }{
		{"reviewed_at", "BIGINT NOT NULL DEFAULT 0"},
		{"scheduled", "SMALLINT NOT NULL DEFAULT 0"},
		{"completed", "SMALLINT NOT NULL DEFAULT 0"},
	}
	for _, c := range columns {
		if err := s.ensureColumn(c.name, c.def); err != nil {
			return fmt.Errorf("migrate %s: %w", c.name, err)
		}
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS todos_review_at ON todos (review_at)",
		"CREATE INDEX IF NOT EXISTS todos_scheduled ON todos (scheduled)",
	}
	for _, idx := range indexes {
		if _, err := s.db.Exec(idx); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

func (s *TaskStore) ensureColumn(name, def string) error {
	if s.driver == DriverPostgres {
		_, err := s.db.Exec(fmt.Sprintf("ALTER TABLE todos ADD COLUMN IF NOT EXISTS %s %s", name, def))
		return err
	}

	rows, err := s.db.Query("PRAGMA table_info(todos)")
	if err != nil {
		return err
	}
	defer rows.Close()

	found := false
	for rows.Next() {
		var cid int
		var colName, typ string
		var notNull, pk int
		var dfltValue sql.NullString
		if err := rows.Scan(&cid, &colName, &typ, &notNull, &dfltValue, &pk); err != nil {
			return err
		}
		if colName == name {
			found = true
			break
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if !found {
		_, err := s.db.Exec(fmt.Sprintf("ALTER TABLE todos ADD COLUMN %s %s", name, def))
		return err
	}
	return nil
}

// rebind rewrites ? placeholders into $n for PostgreSQL.
func (s *TaskStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func scanTask(scanner interface{ Scan(...any) error }) (model.Task, error) {
	var t model.Task
	var created, reviewed, reviewAt int64
	var scheduled, completed int
	if err := scanner.Scan(&t.ID, &t.Title, &created, &reviewed, &reviewAt, &scheduled, &completed); err != nil {
		return model.Task{}, err
	}
	t.CreatedAt = fromMillis(created)
	t.ReviewedAt = fromMillis(reviewed)
	t.ReviewAt = fromMillis(reviewAt)
	t.Scheduled = scheduled != 0
	t.Completed = completed != 0
	return t, nil
}

// Get retrieves a single task by its ID.
func (s *TaskStore) Get(ctx context.Context, id int) (model.Task, error) {
	row := s.db.QueryRowContext(ctx, s.rebind("SELECT "+taskColumns+" FROM todos WHERE id = ?"), id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, fmt.Errorf("get task %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return model.Task{}, fmt.Errorf("get task %d: %w", id, err)
	}
	return t, nil
}

// List returns every task in insertion order when f is nil. Otherwise it
// returns the tasks selected by the filter's index, in index order.
func (s *TaskStore) List(ctx context.Context, f *model.Filter) ([]model.Task, error) {
	query, args, err := buildListQuery(f)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func buildListQuery(f *model.Filter) (string, []any, error) {
	base := "SELECT " + taskColumns + " FROM todos"
	if f == nil {
		return base + " ORDER BY id ASC", nil, nil
	}

	switch f.Index {
	case model.IndexReviewAt:
		var conds []string
		var args []any
		if f.Lower != nil {
			op := ">="
			if f.LowerOpen {
				op = ">"
			}
			conds = append(conds, "review_at "+op+" ?")
			args = append(args, toMillis(*f.Lower))
		}
		if f.Upper != nil {
			op := "<="
			if f.UpperOpen {
				op = "<"
			}
			conds = append(conds, "review_at "+op+" ?")
			args = append(args, toMillis(*f.Upper))
		}
		query := base
		if len(conds) > 0 {
			query += " WHERE " + strings.Join(conds, " AND ")
		}
		return query + " ORDER BY review_at ASC, id ASC", args, nil
	case model.IndexScheduled:
		return base + " WHERE scheduled = ? ORDER BY id ASC", []any{boolToInt(f.Scheduled)}, nil
	default:
		return "", nil, fmt.Errorf("list by %q: %w", f.Index, model.ErrUnknownIndex)
	}
}

// Add inserts a task and returns its new ID. Any ID on t is ignored.
func (s *TaskStore) Add(ctx context.Context, t model.Task) (int, error) {
	var id int
	err := s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO todos (title, created_at, reviewed_at, review_at, scheduled, completed)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`),
		t.Title,
		toMillis(t.CreatedAt),
		toMillis(t.ReviewedAt),
		toMillis(t.ReviewAt),
		boolToInt(t.Scheduled),
		boolToInt(t.Completed),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}
	return id, nil
}

// Update merges the non-nil fields of p into the task in a single
// statement, so concurrent writers to the same ID are serialized by the
// database.
func (s *TaskStore) Update(ctx context.Context, id int, p model.Patch) (int, error) {
	if p.IsEmpty() {
		if _, err := s.Get(ctx, id); err != nil {
			return 0, err
		}
		return id, nil
	}

	var sets []string
	var args []any
	if p.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *p.Title)
	}
	if p.ReviewedAt != nil {
		sets = append(sets, "reviewed_at = ?")
		args = append(args, toMillis(*p.ReviewedAt))
	}
	if p.ReviewAt != nil {
		sets = append(sets, "review_at = ?")
		args = append(args, toMillis(*p.ReviewAt))
	}
	if p.Scheduled != nil {
		sets = append(sets, "scheduled = ?")
		args = append(args, boolToInt(*p.Scheduled))
	}
	if p.Completed != nil {
		sets = append(sets, "completed = ?")
		args = append(args, boolToInt(*p.Completed))
	}
	args = append(args, id)

	query := "UPDATE todos SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	res, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("update task %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return 0, fmt.Errorf("update task %d: %w", id, model.ErrNotFound)
	}
	return id, nil
}

// Remove deletes a task by ID.
func (s *TaskStore) Remove(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM todos WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete task %d: %w", id, model.ErrNotFound)
	}
	return nil
}

// Close closes the database connection.
func (s *TaskStore) Close() error {
	return s.db.Close()
}
