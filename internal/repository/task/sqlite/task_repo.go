package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"taskhub/internal/logger"
	"taskhub/internal/models/task"
	repo "taskhub/internal/repository"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Storage - встраиваемое хранилище на одном файле.
// Срезы исполнителей и тегов лежат в JSON-колонках,
// даты - в RFC3339, series id - строкой.
type Storage struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    role       TEXT NOT NULL DEFAULT 'staff',
    department TEXT NOT NULL DEFAULT '',
    hierarchy  INTEGER NOT NULL DEFAULT 0,
    division   TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS projects (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT NOT NULL,
    creator_id  INTEGER NOT NULL,
    department  TEXT NOT NULL DEFAULT '',
    member_ids  TEXT NOT NULL DEFAULT '[]',
    manager_ids TEXT NOT NULL DEFAULT '[]'
);
CREATE TABLE IF NOT EXISTS tasks (
    id                   INTEGER PRIMARY KEY AUTOINCREMENT,
    title                TEXT NOT NULL,
    description          TEXT NOT NULL DEFAULT '',
    priority             TEXT NOT NULL DEFAULT 'medium',
    status               TEXT NOT NULL DEFAULT 'pending',
    deadline             TEXT,
    project_id           INTEGER REFERENCES projects(id),
    assigned_to          TEXT NOT NULL DEFAULT '[]',
    tags                 TEXT NOT NULL DEFAULT '[]',
    parent_id            INTEGER REFERENCES tasks(id) ON DELETE SET NULL,
    archived             INTEGER NOT NULL DEFAULT 0,
    recurrence_freq      TEXT,
    recurrence_interval  INTEGER NOT NULL DEFAULT 1,
    recurrence_series_id TEXT,
    created_at           TEXT NOT NULL,
    updated_at           TEXT
);
CREATE INDEX IF NOT EXISTS idx_tasks_parent_id ON tasks (parent_id);
CREATE INDEX IF NOT EXISTS idx_tasks_deadline ON tasks (deadline);
`

func Open(ctx context.Context, path string) (*Storage, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("создание каталога БД: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("открытие БД: %w", err)
	}

	// WAL для конкурентного чтения, один писатель
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("включение WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("включение foreign keys: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("применение схемы: %w", err)
	}

	logger.Info("Repository: Открыто хранилище SQLite")
	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

const taskColumns = `id, title, description, priority, status, deadline, project_id,
	assigned_to, tags, parent_id, archived, recurrence_freq, recurrence_interval,
	recurrence_series_id, created_at, updated_at`

func scanTask(row rowScanner) (*task.Task, error) {
	t := &task.Task{}
	var deadline, freq, seriesID, createdAt, updatedAt *string
	var assignedTo, tags string
	var archived int

	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Priority, &t.Status,
		&deadline, &t.ProjectID, &assignedTo, &tags, &t.ParentID,
		&archived, &freq, &t.RecurrenceInterval, &seriesID,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Archived = archived != 0
	if freq != nil {
		t.RecurrenceFreq = task.Frequency(*freq)
	}
	if deadline != nil {
		if parsed, err := time.Parse(time.RFC3339, *deadline); err == nil {
			t.Deadline = &parsed
		}
	}
	if seriesID != nil {
		if parsed, err := uuid.Parse(*seriesID); err == nil {
			t.RecurrenceSeriesID = &parsed
		}
	}
	if createdAt != nil {
		if parsed, err := time.Parse(time.RFC3339, *createdAt); err == nil {
			t.CreatedAt = parsed
		}
	}
	if updatedAt != nil {
		if parsed, err := time.Parse(time.RFC3339, *updatedAt); err == nil {
			t.UpdatedAt = &parsed
		}
	}
	if err := json.Unmarshal([]byte(assignedTo), &t.AssignedTo); err != nil {
		return nil, fmt.Errorf("разбор assigned_to: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
		return nil, fmt.Errorf("разбор tags: %w", err)
	}
	return t, nil
}

func encodeIDs(ids []int64) string {
	if ids == nil {
		ids = []int64{}
	}
	raw, _ := json.Marshal(ids)
	return string(raw)
}

func encodeTags(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	raw, _ := json.Marshal(tags)
	return string(raw)
}

func timeOrNull(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func freqOrNull(f task.Frequency) *string {
	if f == task.FreqNone {
		return nil
	}
	s := string(f)
	return &s
}

func seriesOrNull(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func (s *Storage) Insert(ctx context.Context, t *task.Task) (*task.Task, error) {
	query := `INSERT INTO tasks
		(title, description, priority, status, deadline, project_id, assigned_to,
		 tags, parent_id, archived, recurrence_freq, recurrence_interval,
		 recurrence_series_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx, query,
		t.Title, t.Description, t.Priority, t.Status,
		timeOrNull(t.Deadline), t.ProjectID, encodeIDs(t.AssignedTo),
		encodeTags(t.Tags), t.ParentID, boolToInt(t.Archived),
		freqOrNull(t.RecurrenceFreq), t.RecurrenceInterval,
		seriesOrNull(t.RecurrenceSeriesID), now,
	)
	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err)
		return nil, fmt.Errorf("добавление задачи: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("получение id вставки: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *Storage) InsertMany(ctx context.Context, tasks []*task.Task) ([]*task.Task, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("открытие транзакции: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO tasks
		(title, description, priority, status, deadline, project_id, assigned_to,
		 tags, parent_id, archived, recurrence_freq, recurrence_interval,
		 recurrence_series_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC().Format(time.RFC3339)
	ids := make([]int64, 0, len(tasks))
	for _, t := range tasks {
		res, err := tx.ExecContext(ctx, query,
			t.Title, t.Description, t.Priority, t.Status,
			timeOrNull(t.Deadline), t.ProjectID, encodeIDs(t.AssignedTo),
			encodeTags(t.Tags), t.ParentID, boolToInt(t.Archived),
			freqOrNull(t.RecurrenceFreq), t.RecurrenceInterval,
			seriesOrNull(t.RecurrenceSeriesID), now,
		)
		if err != nil {
			logger.Error("Repository: Ошибка пакетной вставки", err)
			return nil, fmt.Errorf("пакетная вставка: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("получение id вставки: %w", err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("фиксация транзакции: %w", err)
	}

	created := make([]*task.Task, 0, len(ids))
	for _, id := range ids {
		t, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		created = append(created, t)
	}
	return created, nil
}

func (s *Storage) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`

	t, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err)
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return t, nil
}

func (s *Storage) UpdateByID(ctx context.Context, id int64, patch *task.Patch) (*task.Task, error) {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(t)
	now := time.Now().UTC()
	t.UpdatedAt = &now

	query := `UPDATE tasks
		SET title = ?, description = ?, priority = ?, status = ?, deadline = ?,
			project_id = ?, assigned_to = ?, tags = ?, archived = ?,
			recurrence_freq = ?, recurrence_interval = ?, recurrence_series_id = ?,
			updated_at = ?
		WHERE id = ?`

	_, err = s.db.ExecContext(ctx, query,
		t.Title, t.Description, t.Priority, t.Status, timeOrNull(t.Deadline),
		t.ProjectID, encodeIDs(t.AssignedTo), encodeTags(t.Tags),
		boolToInt(t.Archived), freqOrNull(t.RecurrenceFreq),
		t.RecurrenceInterval, seriesOrNull(t.RecurrenceSeriesID),
		now.Format(time.RFC3339), id,
	)
	if err != nil {
		logger.Error("Repository: Не удалось обновить задачу", err)
		return nil, fmt.Errorf("обновление задачи: %w", err)
	}
	return t, nil
}

func (s *Storage) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		logger.Error("Repository: Не удалось удалить задачу", err)
		return false, fmt.Errorf("удаление задачи: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("подсчёт удалённых строк: %w", err)
	}
	return affected > 0, nil
}

func (s *Storage) GetSubtasks(ctx context.Context, parentID int64) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE parent_id = ? AND archived = 0
		ORDER BY created_at ASC`
	return s.queryTasks(ctx, query, parentID)
}

func (s *Storage) List(ctx context.Context) ([]*task.Task, error) {
	return s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY created_at ASC`)
}

func (s *Storage) GetDueBetween(ctx context.Context, from, to time.Time, limit int) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE archived = 0
		  AND status NOT IN ('completed', 'cancelled')
		  AND deadline BETWEEN ? AND ?
		ORDER BY deadline ASC
		LIMIT ?`
	return s.queryTasks(ctx, query,
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339), limit)
}

func (s *Storage) queryTasks(ctx context.Context, query string, args ...any) ([]*task.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err)
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("сканирование задачи: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return tasks, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
