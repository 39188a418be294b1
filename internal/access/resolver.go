package access

import (
	"context"
	"fmt"
	"strings"

	"taskhub/internal/models/project"
	"taskhub/internal/models/task"
	"taskhub/internal/models/user"
	"taskhub/internal/repository/inter"
)

// Resolver вычисляет, какие проекты и задачи видны пользователю.
// Роль, ранг и дивизион передаются явными аргументами, а не берутся
// из контекста запроса - резолвер остаётся чистой функцией своих входов.
type Resolver struct {
	projects inter.ProjectRepository
	users    inter.UserRepository
}

func NewResolver(projects inter.ProjectRepository, users inter.UserRepository) *Resolver {
	return &Resolver{
		projects: projects,
		users:    users,
	}
}

// AccessibleProjectIDs возвращает множество id проектов, доступных пользователю:
// admin - все; иначе членство ∪ созданные им ∪ (только для manager)
// созданные пользователями того же дивизиона со строго меньшим рангом
// (меньший ранг = старше по должности).
func (r *Resolver) AccessibleProjectIDs(ctx context.Context, userID int64, role user.Role, hierarchy int, division string) (map[int64]struct{}, error) {
	projects, err := r.projects.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение проектов: %w", err)
	}

	accessible := map[int64]struct{}{}

	if role == user.RoleAdmin {
		for _, p := range projects {
			accessible[p.ID] = struct{}{}
		}
		return accessible, nil
	}

	var creators map[int64]*user.User
	if role == user.RoleManager {
		creators, err = r.projectCreators(ctx, projects)
		if err != nil {
			return nil, err
		}
	}

	for _, p := range projects {
		if p.IsMember(userID) || p.CreatorID == userID {
			accessible[p.ID] = struct{}{}
			continue
		}

		if role != user.RoleManager {
			continue
		}
		creator, ok := creators[p.CreatorID]
		if !ok {
			continue
		}
		if creator.Division == division && creator.Hierarchy < hierarchy {
			accessible[p.ID] = struct{}{}
		}
	}

	return accessible, nil
}

func (r *Resolver) projectCreators(ctx context.Context, projects []*project.Project) (map[int64]*user.User, error) {
	ids := []int64{}
	seen := map[int64]struct{}{}
	for _, p := range projects {
		if _, dup := seen[p.CreatorID]; dup {
			continue
		}
		seen[p.CreatorID] = struct{}{}
		ids = append(ids, p.CreatorID)
	}

	creators, err := r.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("получение создателей проектов: %w", err)
	}

	byID := map[int64]*user.User{}
	for _, u := range creators {
		byID[u.ID] = u
	}
	return byID, nil
}

// FilterVisibleTasks оставляет задачи, видимые пользователю:
// задача в доступном проекте, личная задача исполнителя
// либо любая задача, где пользователь среди исполнителей.
func (r *Resolver) FilterVisibleTasks(ctx context.Context, tasks []*task.Task, userID int64, role user.Role, hierarchy int, division string) ([]*task.Task, error) {
	accessible, err := r.AccessibleProjectIDs(ctx, userID, role, hierarchy, division)
	if err != nil {
		return nil, err
	}

	visible := []*task.Task{}
	for _, t := range tasks {
		if t.ProjectID != nil {
			if _, ok := accessible[*t.ProjectID]; ok {
				visible = append(visible, t)
				continue
			}
		}
		if t.IsAssignee(userID) {
			visible = append(visible, t)
		}
	}
	return visible, nil
}

// DepartmentHierarchyMatch - кандидат совпадает с предком либо
// лежит в его поддереве ("Sales.NA" входит в "Sales", "SalesOps" - нет)
func DepartmentHierarchyMatch(candidate, ancestor string) bool {
	return candidate == ancestor || strings.HasPrefix(candidate, ancestor+".")
}

// CanViewUser: admin видит всех, hr - своё поддерево департамента,
// manager - младших по рангу в своём дивизионе, staff - только себя
func CanViewUser(viewer, target *user.User) bool {
	if viewer.ID == target.ID {
		return true
	}
	switch viewer.Role {
	case user.RoleAdmin:
		return true
	case user.RoleHR:
		return DepartmentHierarchyMatch(target.Department, viewer.Department)
	case user.RoleManager:
		return target.Division == viewer.Division && target.Hierarchy > viewer.Hierarchy
	default:
		return false
	}
}
