package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"taskhub/internal/models/project"
	"taskhub/internal/models/task"
	"taskhub/internal/models/user"
	repo "taskhub/internal/repository"
)

// Storage - хранилище в памяти для тестов и dev-режима.
// Возвращает копии записей: снимки "до" и "после" у вызывающего
// не должны разделять память с хранилищем.
type Storage struct {
	mtx      sync.RWMutex
	tasks    map[int64]*task.Task
	ids      []int64
	nextID   int64
	users    map[int64]*user.User
	projects map[int64]*project.Project
}

func NewStorage() *Storage {
	return &Storage{
		tasks:    make(map[int64]*task.Task),
		ids:      []int64{},
		nextID:   1,
		users:    make(map[int64]*user.User),
		projects: make(map[int64]*project.Project),
	}
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	return nil
}

func (s *Storage) Insert(ctx context.Context, t *task.Task) (*task.Task, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.insertLocked(t), nil
}

func (s *Storage) insertLocked(t *task.Task) *task.Task {
	stored := t.Clone()
	stored.ID = s.nextID
	s.nextID++
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = nil

	s.tasks[stored.ID] = stored
	s.ids = append(s.ids, stored.ID)
	return stored.Clone()
}

func (s *Storage) InsertMany(ctx context.Context, ts []*task.Task) ([]*task.Task, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	created := make([]*task.Task, 0, len(ts))
	for _, t := range ts {
		created = append(created, s.insertLocked(t))
	}
	return created, nil
}

func (s *Storage) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return t.Clone(), nil
}

func (s *Storage) UpdateByID(ctx context.Context, id int64, patch *task.Patch) (*task.Task, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, repo.ErrNotFound
	}

	patch.Apply(t)
	now := time.Now()
	t.UpdatedAt = &now

	return t.Clone(), nil
}

func (s *Storage) Delete(ctx context.Context, id int64) (bool, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return false, nil
	}

	delete(s.tasks, id)
	for ind, val := range s.ids {
		if val == id {
			s.ids = append(s.ids[:ind], s.ids[ind+1:]...)
			break
		}
	}
	return true, nil
}

// GetSubtasks - только неархивированные подзадачи, старые первыми
func (s *Storage) GetSubtasks(ctx context.Context, parentID int64) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	for _, id := range s.ids {
		t := s.tasks[id]
		if t.ParentID == nil || *t.ParentID != parentID || t.Archived {
			continue
		}
		res = append(res, t.Clone())
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res, nil
}

func (s *Storage) List(ctx context.Context) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := make([]*task.Task, 0, len(s.ids))
	for _, id := range s.ids {
		res = append(res, s.tasks[id].Clone())
	}
	return res, nil
}

func (s *Storage) GetDueBetween(ctx context.Context, from, to time.Time, limit int) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	for _, id := range s.ids {
		t := s.tasks[id]
		if t.Archived || t.Deadline == nil {
			continue
		}
		if t.Status == task.StatusCompleted || t.Status == task.StatusCancelled {
			continue
		}
		if t.Deadline.Before(from) || t.Deadline.After(to) {
			continue
		}
		res = append(res, t.Clone())
	}
	// ближайшие дедлайны первыми, обрезка только после сортировки
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Deadline.Before(*res[j].Deadline)
	})
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}
