package postgres

import (
	"context"
	"errors"
	"fmt"

	"taskhub/internal/logger"
	"taskhub/internal/models/project"
	"taskhub/internal/models/user"
	repo "taskhub/internal/repository"

	"github.com/jackc/pgx/v5"
)

// представления справочников пользователей и проектов поверх того же пула

type UserDirectory struct {
	s *Storage
}

type ProjectDirectory struct {
	s *Storage
}

func (s *Storage) Users() *UserDirectory {
	return &UserDirectory{s: s}
}

func (s *Storage) Projects() *ProjectDirectory {
	return &ProjectDirectory{s: s}
}

const userColumns = `id, name, role, department, hierarchy, division`

func scanUser(row pgx.Row) (*user.User, error) {
	u := &user.User{}
	err := row.Scan(&u.ID, &u.Name, &u.Role, &u.Department, &u.Hierarchy, &u.Division)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (d *UserDirectory) GetByID(ctx context.Context, id int64) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(d.s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить пользователя", err)
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return u, nil
}

// неизвестные id молча пропускаются
func (d *UserDirectory) GetUsersByIDs(ctx context.Context, ids []int64) ([]*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1)`

	rows, err := d.s.pool.Query(ctx, query, ids)
	if err != nil {
		logger.Error("Repository: Не удалось получить пользователей", err)
		return nil, fmt.Errorf("получение пользователей: %w", err)
	}
	defer rows.Close()

	users := []*user.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования пользователя")
			continue
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return users, nil
}

func (d *UserDirectory) List(ctx context.Context) ([]*user.User, error) {
	rows, err := d.s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		logger.Error("Repository: Не удалось получить пользователей", err)
		return nil, fmt.Errorf("получение пользователей: %w", err)
	}
	defer rows.Close()

	users := []*user.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			continue
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return users, nil
}

const projectColumns = `id, name, creator_id, department, member_ids, manager_ids`

func scanProject(row pgx.Row) (*project.Project, error) {
	p := &project.Project{}
	err := row.Scan(&p.ID, &p.Name, &p.CreatorID, &p.Department, &p.MemberIDs, &p.ManagerIDs)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (d *ProjectDirectory) GetByID(ctx context.Context, id int64) (*project.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	p, err := scanProject(d.s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить проект", err)
		return nil, fmt.Errorf("получение проекта: %w", err)
	}
	return p, nil
}

func (d *ProjectDirectory) ListProjects(ctx context.Context) ([]*project.Project, error) {
	rows, err := d.s.pool.Query(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY id`)
	if err != nil {
		logger.Error("Repository: Не удалось получить проекты", err)
		return nil, fmt.Errorf("получение проектов: %w", err)
	}
	defer rows.Close()

	projects := []*project.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования проекта")
			continue
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return projects, nil
}

// CanManageMembers: создатель проекта либо назначенный менеджер
func (d *ProjectDirectory) CanManageMembers(ctx context.Context, projectID, userID int64) (bool, error) {
	p, err := d.GetByID(ctx, projectID)
	if err != nil {
		return false, err
	}
	return p.IsManager(userID), nil
}
