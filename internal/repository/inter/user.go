package inter

import (
	"context"

	"taskhub/internal/models/user"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
	// GetUsersByIDs возвращает только найденных пользователей,
	// неизвестные id молча пропускаются
	GetUsersByIDs(ctx context.Context, ids []int64) ([]*user.User, error)
	List(ctx context.Context) ([]*user.User, error)
}
