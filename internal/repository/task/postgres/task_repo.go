package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskhub/internal/logger"
	"taskhub/internal/models/task"
	repo "taskhub/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Storage struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, connString string) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnIdleTime = time.Minute * 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return &Storage{pool: pool}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	err := s.pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

const taskColumns = `id,
				title,
				description,
				priority,
				status,
				deadline,
				project_id,
				assigned_to,
				tags,
				parent_id,
				archived,
				recurrence_freq,
				recurrence_interval,
				recurrence_series_id,
				created_at,
				updated_at`

func scanTask(row pgx.Row) (*task.Task, error) {
	t := &task.Task{}
	var freq *string
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.Priority,
		&t.Status,
		&t.Deadline,
		&t.ProjectID,
		&t.AssignedTo,
		&t.Tags,
		&t.ParentID,
		&t.Archived,
		&freq,
		&t.RecurrenceInterval,
		&t.RecurrenceSeriesID,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if freq != nil {
		t.RecurrenceFreq = task.Frequency(*freq)
	}
	return t, nil
}

func freqOrNull(f task.Frequency) *string {
	if f == task.FreqNone {
		return nil
	}
	s := string(f)
	return &s
}

func (s *Storage) Insert(ctx context.Context, taskToCreate *task.Task) (*task.Task, error) {
	start := time.Now()

	query := `INSERT INTO tasks
				(title, description, priority, status, deadline, project_id,
				 assigned_to, tags, parent_id, archived,
				 recurrence_freq, recurrence_interval, recurrence_series_id, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
				RETURNING ` + taskColumns

	created, err := scanTask(s.pool.QueryRow(ctx, query,
		taskToCreate.Title,
		taskToCreate.Description,
		taskToCreate.Priority,
		taskToCreate.Status,
		taskToCreate.Deadline,
		taskToCreate.ProjectID,
		taskToCreate.AssignedTo,
		taskToCreate.Tags,
		taskToCreate.ParentID,
		taskToCreate.Archived,
		freqOrNull(taskToCreate.RecurrenceFreq),
		taskToCreate.RecurrenceInterval,
		taskToCreate.RecurrenceSeriesID,
	))
	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("добавление задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*50 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return created, nil
}

// InsertMany - одна пакетная отправка, все вставки в одном batch
func (s *Storage) InsertMany(ctx context.Context, tasks []*task.Task) ([]*task.Task, error) {
	start := time.Now()

	query := `INSERT INTO tasks
				(title, description, priority, status, deadline, project_id,
				 assigned_to, tags, parent_id, archived,
				 recurrence_freq, recurrence_interval, recurrence_series_id, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
				RETURNING ` + taskColumns

	batch := &pgx.Batch{}
	for _, t := range tasks {
		batch.Queue(query,
			t.Title, t.Description, t.Priority, t.Status, t.Deadline, t.ProjectID,
			t.AssignedTo, t.Tags, t.ParentID, t.Archived,
			freqOrNull(t.RecurrenceFreq), t.RecurrenceInterval, t.RecurrenceSeriesID,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	created := make([]*task.Task, 0, len(tasks))
	for range tasks {
		t, err := scanTask(results.QueryRow())
		if err != nil {
			logger.Error("Repository: Ошибка пакетной вставки", err, zap.Duration("ms", time.Since(start)))
			return nil, fmt.Errorf("пакетная вставка: %w", err)
		}
		created = append(created, t)
	}

	if time.Since(start) > time.Millisecond*50+time.Millisecond*10*time.Duration(len(tasks)) {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return created, nil
}

func (s *Storage) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	start := time.Now()

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	t, err := scanTask(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return t, nil
}

// UpdateByID читает строку под блокировкой, применяет патч
// и пишет её обратно целиком
func (s *Storage) UpdateByID(ctx context.Context, id int64, patch *task.Patch) (*task.Task, error) {
	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		logger.Error("Repository: Не удалось открыть транзакцию", err)
		return nil, fmt.Errorf("открытие транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	selectQuery := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 FOR UPDATE`
	t, err := scanTask(tx.QueryRow(ctx, selectQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err)
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	patch.Apply(t)

	updateQuery := `UPDATE tasks
			SET title = $1,
				description = $2,
				priority = $3,
				status = $4,
				deadline = $5,
				project_id = $6,
				assigned_to = $7,
				tags = $8,
				archived = $9,
				recurrence_freq = $10,
				recurrence_interval = $11,
				recurrence_series_id = $12,
				updated_at = NOW()
			WHERE id = $13
			RETURNING updated_at`

	err = tx.QueryRow(ctx, updateQuery,
		t.Title,
		t.Description,
		t.Priority,
		t.Status,
		t.Deadline,
		t.ProjectID,
		t.AssignedTo,
		t.Tags,
		t.Archived,
		freqOrNull(t.RecurrenceFreq),
		t.RecurrenceInterval,
		t.RecurrenceSeriesID,
		t.ID,
	).Scan(&t.UpdatedAt)
	if err != nil {
		logger.Error("Repository: Не удалось обновить задачу", err)
		return nil, fmt.Errorf("обновление задачи: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		logger.Error("Repository: Не удалось закрыть транзакцию", err)
		return nil, fmt.Errorf("фиксация транзакции: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return t, nil
}

func (s *Storage) Delete(ctx context.Context, id int64) (bool, error) {
	start := time.Now()

	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		logger.Error("Repository: Не удалось удалить задачу", err, zap.Duration("ms", time.Since(start)))
		return false, fmt.Errorf("удаление задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return tag.RowsAffected() > 0, nil
}

// GetSubtasks - только неархивированные подзадачи, старые первыми
func (s *Storage) GetSubtasks(ctx context.Context, parentID int64) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
				WHERE parent_id = $1 AND archived = FALSE
				ORDER BY created_at ASC`
	return s.queryTasks(ctx, query, parentID)
}

func (s *Storage) List(ctx context.Context) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY created_at ASC`
	return s.queryTasks(ctx, query)
}

func (s *Storage) GetDueBetween(ctx context.Context, from, to time.Time, limit int) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
				WHERE archived = FALSE
				  AND status NOT IN ('completed', 'cancelled')
				  AND deadline BETWEEN $1 AND $2
				ORDER BY deadline ASC
				LIMIT $3`
	return s.queryTasks(ctx, query, from, to, limit)
}

func (s *Storage) queryTasks(ctx context.Context, query string, args ...any) ([]*task.Task, error) {
	start := time.Now()

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования задачи", zap.Error(err))
			continue
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	if time.Since(start) > time.Millisecond*50+time.Millisecond*10*time.Duration(len(tasks)) {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return tasks, nil
}
