package handlers

import (
	"context"

	"taskhub/internal/models/task"
	"taskhub/internal/models/user"
	"taskhub/internal/service"
)

type TaskService interface {
	CreateTask(ctx context.Context, input service.CreateTaskInput, creatorID int64) (*task.Task, error)
	UpdateTask(ctx context.Context, id int64, input service.UpdateTaskInput, requesterID int64) (*task.Task, error)
	DeleteTask(ctx context.Context, id, requesterID int64) error
	GetTask(ctx context.Context, id int64) (*task.Task, error)
	GetSubtasks(ctx context.Context, parentID int64) ([]*task.Task, error)
	ListVisibleTasks(ctx context.Context, requesterID int64) ([]*task.Task, error)
	ListVisibleUsers(ctx context.Context, requesterID int64) ([]*user.User, error)
	ArchiveTask(ctx context.Context, id, requesterID int64) (*task.Task, error)
	UnarchiveTask(ctx context.Context, id, requesterID int64) (*task.Task, error)
}
