package inter

import (
	"context"
	"time"

	"taskhub/internal/models/task"
)

type TaskRepository interface {
	GetByID(ctx context.Context, id int64) (*task.Task, error)
	// Insert возвращает наполненную хранилищем строку (id, created_at)
	Insert(ctx context.Context, t *task.Task) (*task.Task, error)
	// InsertMany - пакетная вставка, все записи в одном вызове
	InsertMany(ctx context.Context, ts []*task.Task) ([]*task.Task, error)
	UpdateByID(ctx context.Context, id int64, patch *task.Patch) (*task.Task, error)
	Delete(ctx context.Context, id int64) (bool, error)
	// GetSubtasks - только неархивированные подзадачи, старые первыми
	GetSubtasks(ctx context.Context, parentID int64) ([]*task.Task, error)
	List(ctx context.Context) ([]*task.Task, error)
	GetDueBetween(ctx context.Context, from, to time.Time, limit int) ([]*task.Task, error)
}
