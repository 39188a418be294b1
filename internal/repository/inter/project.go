package inter

import (
	"context"

	"taskhub/internal/models/project"
)

type ProjectRepository interface {
	GetByID(ctx context.Context, id int64) (*project.Project, error)
	ListProjects(ctx context.Context) ([]*project.Project, error)
	CanManageMembers(ctx context.Context, projectID, userID int64) (bool, error)
}
