package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"taskhub/internal/logger"
	"taskhub/internal/models/project"
	"taskhub/internal/models/user"
	repo "taskhub/internal/repository"
)

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

func scanUser(row rowScanner) (*user.User, error) {
	u := &user.User{}
	err := row.Scan(&u.ID, &u.Name, &u.Role, &u.Department, &u.Hierarchy, &u.Division)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (d *UserDirectory) GetByID(ctx context.Context, id int64) (*user.User, error) {
	query := `SELECT id, name, role, department, hierarchy, division FROM users WHERE id = ?`

	u, err := scanUser(d.s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить пользователя", err)
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return u, nil
}

func (d *UserDirectory) GetUsersByIDs(ctx context.Context, ids []int64) ([]*user.User, error) {
	users := []*user.User{}
	for _, id := range ids {
		u, err := d.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				continue
			}
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (d *UserDirectory) List(ctx context.Context) ([]*user.User, error) {
	rows, err := d.s.db.QueryContext(ctx,
		`SELECT id, name, role, department, hierarchy, division FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("получение пользователей: %w", err)
	}
	defer rows.Close()

	users := []*user.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("сканирование пользователя: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return users, nil
}

func scanProject(row rowScanner) (*project.Project, error) {
	p := &project.Project{}
	var members, managers string
	err := row.Scan(&p.ID, &p.Name, &p.CreatorID, &p.Department, &members, &managers)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(members), &p.MemberIDs); err != nil {
		return nil, fmt.Errorf("разбор member_ids: %w", err)
	}
	if err := json.Unmarshal([]byte(managers), &p.ManagerIDs); err != nil {
		return nil, fmt.Errorf("разбор manager_ids: %w", err)
	}
	return p, nil
}

func (d *ProjectDirectory) GetByID(ctx context.Context, id int64) (*project.Project, error) {
	query := `SELECT id, name, creator_id, department, member_ids, manager_ids
		FROM projects WHERE id = ?`

	p, err := scanProject(d.s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить проект", err)
		return nil, fmt.Errorf("получение проекта: %w", err)
	}
	return p, nil
}

func (d *ProjectDirectory) ListProjects(ctx context.Context) ([]*project.Project, error) {
	rows, err := d.s.db.QueryContext(ctx,
		`SELECT id, name, creator_id, department, member_ids, manager_ids FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("получение проектов: %w", err)
	}
	defer rows.Close()

	projects := []*project.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("сканирование проекта: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return projects, nil
}

func (d *ProjectDirectory) CanManageMembers(ctx context.Context, projectID, userID int64) (bool, error) {
	p, err := d.GetByID(ctx, projectID)
	if err != nil {
		return false, err
	}
	return p.IsManager(userID), nil
}
