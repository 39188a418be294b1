package inmemory

import (
	"context"

	"taskhub/internal/models/project"
	"taskhub/internal/models/user"
	repo "taskhub/internal/repository"
)

// Справочники пользователей и проектов того же хранилища.
// Отдаются отдельными представлениями, чтобы у задач и пользователей
// не конфликтовали одноимённые методы GetByID/List.

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

func (s *Storage) AddUser(u *user.User) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	copied := *u
	s.users[u.ID] = &copied
}

func (s *Storage) AddProject(p *project.Project) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	copied := *p
	copied.MemberIDs = append([]int64(nil), p.MemberIDs...)
	copied.ManagerIDs = append([]int64(nil), p.ManagerIDs...)
	s.projects[p.ID] = &copied
}

func (d *UserDirectory) GetByID(ctx context.Context, id int64) (*user.User, error) {
	d.s.mtx.RLock()
	defer d.s.mtx.RUnlock()

	u, ok := d.s.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

// неизвестные id молча пропускаются
func (d *UserDirectory) GetUsersByIDs(ctx context.Context, ids []int64) ([]*user.User, error) {
	d.s.mtx.RLock()
	defer d.s.mtx.RUnlock()

	res := []*user.User{}
	for _, id := range ids {
		if u, ok := d.s.users[id]; ok {
			copied := *u
			res = append(res, &copied)
		}
	}
	return res, nil
}

func (d *UserDirectory) List(ctx context.Context) ([]*user.User, error) {
	d.s.mtx.RLock()
	defer d.s.mtx.RUnlock()

	res := make([]*user.User, 0, len(d.s.users))
	for _, u := range d.s.users {
		copied := *u
		res = append(res, &copied)
	}
	return res, nil
}

func (d *ProjectDirectory) GetByID(ctx context.Context, id int64) (*project.Project, error) {
	d.s.mtx.RLock()
	defer d.s.mtx.RUnlock()

	p, ok := d.s.projects[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return copyProject(p), nil
}

func (d *ProjectDirectory) ListProjects(ctx context.Context) ([]*project.Project, error) {
	d.s.mtx.RLock()
	defer d.s.mtx.RUnlock()

	res := make([]*project.Project, 0, len(d.s.projects))
	for _, p := range d.s.projects {
		res = append(res, copyProject(p))
	}
	return res, nil
}

// копия вместе со срезами участников: вызывающий не должен
// разделять память с хранилищем
func copyProject(p *project.Project) *project.Project {
	copied := *p
	copied.MemberIDs = append([]int64(nil), p.MemberIDs...)
	copied.ManagerIDs = append([]int64(nil), p.ManagerIDs...)
	return &copied
}

// CanManageMembers: управлять участниками может создатель проекта
// либо назначенный менеджер. Неизвестный проект - прав нет.
func (d *ProjectDirectory) CanManageMembers(ctx context.Context, projectID, userID int64) (bool, error) {
	d.s.mtx.RLock()
	defer d.s.mtx.RUnlock()

	p, ok := d.s.projects[projectID]
	if !ok {
		return false, repo.ErrNotFound
	}
	return p.IsManager(userID), nil
}
