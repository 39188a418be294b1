package service

import (
	"context"
	"errors"
	"fmt"

	"taskhub/internal/access"
	"taskhub/internal/logger"
	"taskhub/internal/models/task"
	"taskhub/internal/models/user"
	"taskhub/internal/normalize"
	"taskhub/internal/notify"
	rep "taskhub/internal/repository"
	"taskhub/internal/repository/inter"
	"taskhub/internal/recurrence"

	"go.uber.org/zap"
)

// TaskService - движок мутаций задач: валидация, авторизация,
// сохранение и порядок побочных эффектов
// (валидация -> запись -> дифф/уведомления -> проверка повторения).
type TaskService struct {
	tasks       inter.TaskRepository
	users       inter.UserRepository
	perm        PermissionChecker
	notifier    notify.Notifier
	resolver    *access.Resolver
	attachments AttachmentCleaner
	files       FileCleaner
	spawner     *recurrence.Spawner
	dispatcher  *notify.Dispatcher
}

func NewTaskService(tasks inter.TaskRepository, users inter.UserRepository, options ...ServiceOption) TaskService {
	s := TaskService{
		tasks:      tasks,
		users:      users,
		spawner:    recurrence.NewSpawner(tasks),
		dispatcher: notify.NewDispatcher(),
	}
	for _, opt := range options {
		opt(&s)
	}
	return s
}

// Dispatcher отдаёт очередь отсоединённых эффектов,
// graceful shutdown дожидается её через Wait
func (s *TaskService) Dispatcher() *notify.Dispatcher {
	return s.dispatcher
}

// CreateTask - строгий путь создания: заголовок обязателен,
// исполнители нормализуются, пустой набор без явного входа
// дополняется создателем, границы [1, MaxAssignees] обязательны.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput, creatorID int64) (*task.Task, error) {
	title := normalize.Title(input.Title)
	if title == "" {
		return nil, NewValidationError("title", "не может быть пустым")
	}

	assignees := normalize.Assignees(input.AssignedTo)
	explicit := len(input.AssignedTo) > 0
	if len(assignees) == 0 && creatorID > 0 && !explicit {
		assignees = []int64{creatorID}
	}
	if len(assignees) == 0 {
		return nil, NewValidationError("assigned_to", "нужен хотя бы один исполнитель")
	}
	if len(assignees) > task.MaxAssignees {
		return nil, NewValidationError("assigned_to",
			fmt.Sprintf("не больше %d исполнителей", task.MaxAssignees))
	}

	freq, ok := normalize.Frequency(input.RecurrenceFreq)
	if !ok {
		return nil, NewValidationError("recurrence_freq", "допустимы none, daily, weekly, monthly")
	}
	interval := input.RecurrenceInterval
	if interval == 0 {
		interval = 1
	}
	if interval < 1 {
		return nil, NewValidationError("recurrence_interval", "должен быть положительным")
	}

	toCreate := &task.Task{
		Title:              title,
		Description:        normalize.Text(input.Description),
		Priority:           normalize.Priority(input.Priority),
		Status:             normalize.Status(input.Status),
		Deadline:           normalize.Date(input.Deadline),
		ProjectID:          input.ProjectID,
		AssignedTo:         assignees,
		Tags:               normalize.Tags(input.Tags),
		ParentID:           input.ParentID,
		RecurrenceFreq:     freq,
		RecurrenceInterval: interval,
	}

	created, err := s.tasks.Insert(ctx, toCreate)
	if err != nil {
		return nil, fmt.Errorf("создание задачи: %w", err)
	}

	logger.Info("Service: Задача создана",
		zap.Int64("task_id", created.ID),
		zap.Int64("creator_id", creatorID))

	// создатель о собственном действии не уведомляется
	recipients := excludeID(created.AssignedTo, creatorID)
	if len(recipients) > 0 {
		snapshot := created.Clone()
		s.dispatch("assignment", func(ctx context.Context) error {
			return s.notifier.NotifyAssignment(ctx, notify.AssignmentEvent{
				Task:               snapshot,
				AssigneeIDs:        recipients,
				AssignedByID:       creatorID,
				CurrentAssigneeIDs: snapshot.AssignedTo,
				Kind:               notify.KindCreated,
			})
		})
	}

	return created, nil
}

// UpdateTask применяет частичный патч к задаче.
// Валидация и авторизация происходят до записи, побочные эффекты
// после неё изолированы друг от друга и от результата.
func (s *TaskService) UpdateTask(ctx context.Context, id int64, input UpdateTaskInput, requesterID int64) (*task.Task, error) {
	before, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.Int64("target_id", id))
			return nil, NewNotFound("задача", id)
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	wasAssignee := before.IsAssignee(requesterID)

	patch, err := s.buildPatch(input)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeUpdate(ctx, before, requesterID, wasAssignee); err != nil {
		return nil, err
	}

	after, err := s.tasks.UpdateByID(ctx, id, patch)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound("задача", id)
		}
		return nil, fmt.Errorf("обновление задачи: %w", err)
	}

	s.notifyAssigneeDeltas(before, after, patch, requesterID)
	s.notifyFieldChanges(before, after, patch, requesterID)

	if !before.Archived && after.Archived {
		s.notifyDeletionStyle(ctx, after, requesterID)
	}

	// порождение следующего экземпляра идёт после записи,
	// его сбой не отменяет уже сохранённое обновление
	if _, err := s.spawner.AfterUpdate(ctx, before, after); err != nil {
		logger.Warn("Service: Ошибка порождения повторяющейся задачи",
			zap.Int64("task_id", id),
			zap.Error(err))
	}

	return after, nil
}

// DeleteTask - жёсткое удаление: очистка вложений, файлов
// и уведомление независимы и best-effort, запись удаляется последней
func (s *TaskService) DeleteTask(ctx context.Context, id, requesterID int64) error {
	before, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.Int64("target_id", id))
			return NewNotFound("задача", id)
		}
		return fmt.Errorf("получение задачи: %w", err)
	}

	if err := s.authorizeDelete(ctx, before, requesterID); err != nil {
		return err
	}

	if s.attachments != nil {
		if err := s.attachments.DeleteAttachmentsForTask(ctx, id); err != nil {
			logger.Warn("Service: Не удалось удалить вложения",
				zap.Int64("task_id", id), zap.Error(err))
		}
	}
	if s.files != nil {
		if err := s.files.DeleteStoredFilesForTask(ctx, id); err != nil {
			logger.Warn("Service: Не удалось удалить файлы задачи",
				zap.Int64("task_id", id), zap.Error(err))
		}
	}

	s.notifyDeletionStyle(ctx, before, requesterID)

	ok, err := s.tasks.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("удаление задачи: %w", err)
	}
	if !ok {
		return NewNotFound("задача", id)
	}

	logger.Info("Service: Задача удалена",
		zap.Int64("task_id", id),
		zap.Int64("deleted_by", requesterID))
	return nil
}

func (s *TaskService) GetTask(ctx context.Context, id int64) (*task.Task, error) {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound("задача", id)
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return t, nil
}

func (s *TaskService) GetSubtasks(ctx context.Context, parentID int64) ([]*task.Task, error) {
	subtasks, err := s.tasks.GetSubtasks(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("получение подзадач: %w", err)
	}
	return subtasks, nil
}

// ListVisibleTasks возвращает задачи, видимые запрашивающему
// по его роли, рангу и дивизиону
func (s *TaskService) ListVisibleTasks(ctx context.Context, requesterID int64) ([]*task.Task, error) {
	requester, err := s.users.GetByID(ctx, requesterID)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound("пользователь", requesterID)
		}
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}

	all, err := s.tasks.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	if s.resolver == nil {
		// без резолвера видны только собственные задачи
		own := []*task.Task{}
		for _, t := range all {
			if t.IsAssignee(requesterID) {
				own = append(own, t)
			}
		}
		return own, nil
	}

	return s.resolver.FilterVisibleTasks(ctx, all,
		requester.ID, requester.Role, requester.Hierarchy, requester.Division)
}

// ListVisibleUsers возвращает пользователей, видимых запрашивающему:
// админ видит всех, hr - своё поддерево департамента, менеджер - младших
// по рангу в своём дивизионе, остальные - только себя
func (s *TaskService) ListVisibleUsers(ctx context.Context, requesterID int64) ([]*user.User, error) {
	requester, err := s.users.GetByID(ctx, requesterID)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound("пользователь", requesterID)
		}
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}

	all, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение пользователей: %w", err)
	}

	visible := []*user.User{}
	for _, u := range all {
		if access.CanViewUser(requester, u) {
			visible = append(visible, u)
		}
	}
	return visible, nil
}

func (s *TaskService) ArchiveTask(ctx context.Context, id, requesterID int64) (*task.Task, error) {
	archived := true
	return s.UpdateTask(ctx, id, UpdateTaskInput{Archived: &archived}, requesterID)
}

func (s *TaskService) UnarchiveTask(ctx context.Context, id, requesterID int64) (*task.Task, error) {
	archived := false
	return s.UpdateTask(ctx, id, UpdateTaskInput{Archived: &archived}, requesterID)
}

// buildPatch переносит в патч только присутствующие поля,
// прогоняя каждое через те же правила нормализации, что и создание
func (s *TaskService) buildPatch(input UpdateTaskInput) (*task.Patch, error) {
	patch := &task.Patch{}

	if input.Title != nil {
		title := normalize.Title(*input.Title)
		if title == "" {
			return nil, NewValidationError("title", "не может быть пустым")
		}
		patch.Title = &title
	}
	if input.Description != nil {
		desc := normalize.Text(*input.Description)
		patch.Description = &desc
	}
	if input.Priority != nil {
		p := normalize.Priority(*input.Priority)
		patch.Priority = &p
	}
	if input.Status != nil {
		st := normalize.Status(*input.Status)
		patch.Status = &st
	}
	if input.Deadline != nil {
		d := normalize.Date(*input.Deadline)
		if d == nil {
			return nil, NewValidationError("deadline", "нераспознанная дата")
		}
		patch.Deadline = d
	}
	if input.ProjectID != nil {
		patch.ProjectID = input.ProjectID
	}
	if input.AssignedTo != nil {
		assignees := normalize.Assignees(*input.AssignedTo)
		if len(assignees) == 0 {
			return nil, NewValidationError("assigned_to", "нужен хотя бы один исполнитель")
		}
		if len(assignees) > task.MaxAssignees {
			return nil, NewValidationError("assigned_to",
				fmt.Sprintf("не больше %d исполнителей", task.MaxAssignees))
		}
		patch.AssignedTo = &assignees
	}
	if input.Tags != nil {
		tags := normalize.Tags(*input.Tags)
		patch.Tags = &tags
	}
	if input.Archived != nil {
		patch.Archived = input.Archived
	}
	if input.RecurrenceFreq != nil {
		freq, ok := normalize.Frequency(*input.RecurrenceFreq)
		if !ok {
			return nil, NewValidationError("recurrence_freq", "допустимы none, daily, weekly, monthly")
		}
		patch.RecurrenceFreq = &freq
	}
	if input.RecurrenceInterval != nil {
		if *input.RecurrenceInterval < 1 {
			return nil, NewValidationError("recurrence_interval", "должен быть положительным")
		}
		patch.RecurrenceInterval = input.RecurrenceInterval
	}

	return patch, nil
}

// authorizeUpdate: при подключённой проверке прав проекта изменять
// может управляющий проектом либо текущий исполнитель; у личной
// задачи - только исполнитель. Без коллаборатора прав - разрешено.
func (s *TaskService) authorizeUpdate(ctx context.Context, t *task.Task, requesterID int64, wasAssignee bool) error {
	if s.perm == nil {
		return nil
	}

	if t.ProjectID != nil {
		canManage, err := s.perm.CanManageMembers(ctx, *t.ProjectID, requesterID)
		if err != nil {
			logger.Warn("Service: Ошибка проверки прав проекта",
				zap.Int64("project_id", *t.ProjectID),
				zap.Int64("user_id", requesterID),
				zap.Error(err))
			canManage = false
		}
		if canManage || wasAssignee {
			return nil
		}
		return NewPermissionError(requesterID, t.ID)
	}

	if wasAssignee {
		return nil
	}
	return NewPermissionError(requesterID, t.ID)
}

// authorizeDelete строже: исполнительство не даёт права удалять
// проектную задачу, нужна способность управления проектом
func (s *TaskService) authorizeDelete(ctx context.Context, t *task.Task, requesterID int64) error {
	if s.perm == nil {
		return nil
	}

	if t.ProjectID != nil {
		canManage, err := s.perm.CanManageMembers(ctx, *t.ProjectID, requesterID)
		if err != nil {
			logger.Warn("Service: Ошибка проверки прав проекта",
				zap.Int64("project_id", *t.ProjectID),
				zap.Int64("user_id", requesterID),
				zap.Error(err))
			canManage = false
		}
		if canManage {
			return nil
		}
		return NewPermissionError(requesterID, t.ID)
	}

	if t.IsAssignee(requesterID) {
		return nil
	}
	return NewPermissionError(requesterID, t.ID)
}

func (s *TaskService) notifyAssigneeDeltas(before, after *task.Task, patch *task.Patch, requesterID int64) {
	if patch.AssignedTo == nil {
		return
	}

	added := subtractIDs(after.AssignedTo, before.AssignedTo)
	removed := subtractIDs(before.AssignedTo, after.AssignedTo)
	prev := append([]int64(nil), before.AssignedTo...)
	cur := append([]int64(nil), after.AssignedTo...)
	snapshot := after.Clone()

	if len(added) > 0 {
		recipients := excludeID(added, requesterID)
		if len(recipients) > 0 {
			s.dispatch("assignment", func(ctx context.Context) error {
				return s.notifier.NotifyAssignment(ctx, notify.AssignmentEvent{
					Task:                snapshot,
					AssigneeIDs:         recipients,
					AssignedByID:        requesterID,
					PreviousAssigneeIDs: prev,
					CurrentAssigneeIDs:  cur,
					Kind:                notify.KindAssigned,
				})
			})
		}
	}

	if len(removed) > 0 {
		recipients := excludeID(removed, requesterID)
		if len(recipients) > 0 {
			s.dispatch("removal", func(ctx context.Context) error {
				return s.notifier.NotifyRemoval(ctx, notify.RemovalEvent{
					Task:                snapshot,
					AssigneeIDs:         recipients,
					AssignedByID:        requesterID,
					PreviousAssigneeIDs: prev,
					CurrentAssigneeIDs:  cur,
				})
			})
		}
	}
}

func (s *TaskService) notifyFieldChanges(before, after *task.Task, patch *task.Patch, requesterID int64) {
	changes := notify.Diff(before, after, patch.Fields())
	if len(changes) == 0 {
		return
	}

	snapshot := after.Clone()
	s.dispatch("update", func(ctx context.Context) error {
		// без разрешимых исполнителей уведомление не отправляется
		resolved, err := s.resolveAssignees(ctx, snapshot.AssignedTo)
		if err != nil || len(resolved) == 0 {
			return err
		}
		return s.notifier.NotifyUpdate(ctx, notify.UpdateEvent{
			Task:        snapshot,
			Changes:     changes,
			UpdatedByID: requesterID,
			AssigneeIDs: resolved,
		})
	})
}

func (s *TaskService) notifyDeletionStyle(ctx context.Context, t *task.Task, requesterID int64) {
	deleterName := ""
	if users, err := s.users.GetUsersByIDs(ctx, []int64{requesterID}); err == nil && len(users) == 1 {
		deleterName = users[0].Name
	}

	snapshot := t.Clone()
	s.dispatch("deletion", func(ctx context.Context) error {
		return s.notifier.NotifyDeletion(ctx, notify.DeletionEvent{
			Task:        snapshot,
			DeleterID:   requesterID,
			DeleterName: deleterName,
		})
	})
}

func (s *TaskService) resolveAssignees(ctx context.Context, ids []int64) ([]int64, error) {
	users, err := s.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("получение исполнителей: %w", err)
	}
	resolved := make([]int64, 0, len(users))
	for _, u := range users {
		resolved = append(resolved, u.ID)
	}
	return resolved, nil
}

// dispatch запускает эффект отсоединённо: вызывающая операция
// возвращается, не дожидаясь его. Контекст запроса к этому моменту
// может быть уже отменён, поэтому эффект получает свой собственный.
func (s *TaskService) dispatch(name string, fn func(ctx context.Context) error) {
	if s.notifier == nil {
		return
	}
	s.dispatcher.Go(name, func() error {
		return fn(context.Background())
	})
}

func excludeID(ids []int64, exclude int64) []int64 {
	result := []int64{}
	for _, id := range ids {
		if id != exclude {
			result = append(result, id)
		}
	}
	return result
}

func subtractIDs(a, b []int64) []int64 {
	inB := map[int64]struct{}{}
	for _, id := range b {
		inB[id] = struct{}{}
	}
	result := []int64{}
	for _, id := range a {
		if _, ok := inB[id]; !ok {
			result = append(result, id)
		}
	}
	return result
}
