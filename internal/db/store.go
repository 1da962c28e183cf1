package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/errs"
	"github.com/Joseda-hg/lazytodo/internal/model"
)

const selectColumns = "SELECT id, title, description, created_at, completed FROM tasks"

// newestFirst orders by creation time, then by physical insertion so rows
// with the same timestamp come back newest row first.
const newestFirst = " ORDER BY created_at DESC, row_id DESC"

// Store owns every persisted task. Writes are serialized through writeMu;
// reads run concurrently with each other and with writes.
type Store struct {
	DB     *sql.DB
	logger *slog.Logger

	writeMu sync.Mutex
}

func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{DB: db, logger: logger.With("component", "store")}
}

// FetchAll returns every task, newest first, with at most one task per id.
// When legacy duplicate rows exist the newest one wins. A failed read is
// logged and yields an empty list.
func (s *Store) FetchAll(ctx context.Context) []model.Task {
	tasks, err := s.query(ctx, selectColumns+newestFirst)
	if err != nil {
		s.logger.Error("fetch all tasks", "err", err)
		return []model.Task{}
	}
	return model.DedupeFirst(tasks)
}

// Search returns tasks whose title or description contains query, ignoring
// case and diacritics. The query is matched literally after folding.
func (s *Store) Search(ctx context.Context, query string) []model.Task {
	tasks, err := s.query(ctx, selectColumns+" WHERE instr(search_text, ?) > 0"+newestFirst, Fold(query))
	if err != nil {
		s.logger.Error("search tasks", "query", query, "err", err)
		return []model.Task{}
	}
	return model.DedupeFirst(tasks)
}

func (s *Store) Get(ctx context.Context, id int64) (model.Task, error) {
	tasks, err := s.query(ctx, selectColumns+" WHERE id = ?"+newestFirst+" LIMIT 1", id)
	if err != nil {
		return model.Task{}, errs.Wrap(errs.Persistence, fmt.Sprintf("get task %d", id), err)
	}
	if len(tasks) == 0 {
		return model.Task{}, errs.New(errs.NotFound, fmt.Sprintf("task %d not found", id))
	}
	return tasks[0], nil
}

// Exists reports whether at least one task is stored.
func (s *Store) Exists(ctx context.Context) bool {
	var exists bool
	if err := s.DB.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM tasks LIMIT 1)").Scan(&exists); err != nil {
		s.logger.Error("probe tasks", "err", err)
		return false
	}
	return exists
}

// NextID returns one past the highest stored id, or 1 for an empty store.
//
// NextID followed by Save is not atomic. Two create flows that overlap can
// both receive the same id, leaving duplicate rows that FetchAll collapses
// and Delete removes together.
func (s *Store) NextID(ctx context.Context) int64 {
	var maxID int64
	if err := s.DB.QueryRowContext(ctx, "SELECT COALESCE(MAX(id), 0) FROM tasks").Scan(&maxID); err != nil {
		s.logger.Error("read max task id", "err", err)
		return 1
	}
	return maxID + 1
}

// Count returns the number of stored rows, counting legacy duplicates.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks").Scan(&count); err != nil {
		return 0, errs.Wrap(errs.Persistence, "count tasks", err)
	}
	return count, nil
}

// Save inserts task unconditionally.
func (s *Store) Save(ctx context.Context, task model.Task) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := insertTask(ctx, s.DB, task); err != nil {
		return errs.Wrap(errs.Persistence, fmt.Sprintf("save task %d", task.ID), err)
	}
	s.logger.Debug("saved task", "id", task.ID)
	return nil
}

// SaveBatch upserts tasks by id in a single transaction. When the input
// repeats an id, the last occurrence is the one written. Calling it again
// with the same input leaves the store unchanged.
func (s *Store) SaveBatch(ctx context.Context, tasks []model.Task) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	unique := model.DedupeLast(tasks)

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.Persistence, "begin batch save", err)
	}
	defer tx.Rollback()

	inserted := 0
	for _, task := range unique {
		affected, err := updateTask(ctx, tx, task)
		if err != nil {
			return errs.Wrap(errs.Persistence, fmt.Sprintf("update task %d", task.ID), err)
		}
		if affected > 0 {
			continue
		}
		if err := insertTask(ctx, tx, task); err != nil {
			return errs.Wrap(errs.Persistence, fmt.Sprintf("insert task %d", task.ID), err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return errs.Wrap(errs.Persistence, "commit batch save", err)
	}
	s.logger.Debug("saved batch", "input", len(tasks), "unique", len(unique), "inserted", inserted)
	return nil
}

// Update overwrites the mutable fields of an existing task. It never creates
// a row: a task deleted in the meantime is reported as not found.
func (s *Store) Update(ctx context.Context, task model.Task) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	affected, err := updateTask(ctx, s.DB, task)
	if err != nil {
		return errs.Wrap(errs.Persistence, fmt.Sprintf("update task %d", task.ID), err)
	}
	if affected == 0 {
		return errs.New(errs.NotFound, fmt.Sprintf("task %d not found", task.ID))
	}
	return nil
}

// Delete removes every row carrying id. Deleting an absent id succeeds.
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	result, err := s.DB.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return errs.Wrap(errs.Persistence, fmt.Sprintf("delete task %d", id), err)
	}
	removed, _ := result.RowsAffected()
	s.logger.Debug("deleted task", "id", id, "rows", removed)
	return nil
}

// ToggleCompleted flips the completed flag of id in one statement.
func (s *Store) ToggleCompleted(ctx context.Context, id int64) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	result, err := s.DB.ExecContext(ctx, "UPDATE tasks SET completed = 1 - completed WHERE id = ?", id)
	if err != nil {
		return errs.Wrap(errs.Persistence, fmt.Sprintf("toggle task %d", id), err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errs.Wrap(errs.Persistence, fmt.Sprintf("toggle task %d", id), err)
	}
	if affected == 0 {
		return errs.New(errs.NotFound, fmt.Sprintf("task %d not found", id))
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTask(ctx context.Context, db execer, task model.Task) error {
	_, err := db.ExecContext(ctx,
		"INSERT INTO tasks (id, title, description, created_at, completed, search_text) VALUES (?, ?, ?, ?, ?, ?)",
		task.ID, task.Title, task.Description, createdAtValue(task.CreatedAt), boolToInt(task.Completed), searchText(task.Title, task.Description),
	)
	return err
}

func updateTask(ctx context.Context, db execer, task model.Task) (int64, error) {
	result, err := db.ExecContext(ctx,
		"UPDATE tasks SET title = ?, description = ?, created_at = ?, completed = ?, search_text = ? WHERE id = ?",
		task.Title, task.Description, createdAtValue(task.CreatedAt), boolToInt(task.Completed), searchText(task.Title, task.Description), task.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]model.Task, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func scanTask(rows *sql.Rows) (model.Task, error) {
	var (
		task        model.Task
		title       sql.NullString
		description sql.NullString
		createdAt   sql.NullInt64
		completed   int64
	)
	if err := rows.Scan(&task.ID, &title, &description, &createdAt, &completed); err != nil {
		return model.Task{}, err
	}
	task.Title = title.String
	task.Description = description.String
	task.Completed = completed != 0
	if createdAt.Valid {
		task.CreatedAt = time.Unix(0, createdAt.Int64)
	} else {
		task.CreatedAt = time.Now()
	}
	return task, nil
}

func createdAtValue(value time.Time) int64 {
	if value.IsZero() {
		value = time.Now()
	}
	return value.UnixNano()
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
