package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskhub/internal/models/task"
	"taskhub/internal/models/user"
	"taskhub/internal/notify"
	rep "taskhub/internal/repository"
	"taskhub/internal/repository/inter"
	"taskhub/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTaskRepository - мок репозитория задач
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) Insert(ctx context.Context, t *task.Task) (*task.Task, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) InsertMany(ctx context.Context, ts []*task.Task) ([]*task.Task, error) {
	args := m.Called(ctx, ts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskRepository) UpdateByID(ctx context.Context, id int64, patch *task.Patch) (*task.Task, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockTaskRepository) GetSubtasks(ctx context.Context, parentID int64) ([]*task.Task, error) {
	args := m.Called(ctx, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskRepository) List(ctx context.Context) ([]*task.Task, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskRepository) GetDueBetween(ctx context.Context, from, to time.Time, limit int) ([]*task.Task, error) {
	args := m.Called(ctx, from, to, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

var _ inter.TaskRepository = (*MockTaskRepository)(nil)

// MockUserRepository - мок справочника пользователей
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) GetUsersByIDs(ctx context.Context, ids []int64) ([]*user.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*user.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]*user.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*user.User), args.Error(1)
}

var _ inter.UserRepository = (*MockUserRepository)(nil)

// MockNotifier - мок коллаборатора уведомлений
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyAssignment(ctx context.Context, e notify.AssignmentEvent) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockNotifier) NotifyRemoval(ctx context.Context, e notify.RemovalEvent) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockNotifier) NotifyUpdate(ctx context.Context, e notify.UpdateEvent) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockNotifier) NotifyDeletion(ctx context.Context, e notify.DeletionEvent) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

var _ notify.Notifier = (*MockNotifier)(nil)

// MockPermissionChecker - мок проверки прав проекта
type MockPermissionChecker struct {
	mock.Mock
}

func (m *MockPermissionChecker) CanManageMembers(ctx context.Context, projectID, userID int64) (bool, error) {
	args := m.Called(ctx, projectID, userID)
	return args.Bool(0), args.Error(1)
}

// MockCleaner - мок очистки вложений и файлов
type MockCleaner struct {
	mock.Mock
}

func (m *MockCleaner) DeleteAttachmentsForTask(ctx context.Context, taskID int64) error {
	args := m.Called(ctx, taskID)
	return args.Error(0)
}

func (m *MockCleaner) DeleteStoredFilesForTask(ctx context.Context, taskID int64) error {
	args := m.Called(ctx, taskID)
	return args.Error(0)
}

func asBusiness(t *testing.T, err error, code string) {
	t.Helper()
	var be *service.BusinessError
	require.True(t, errors.As(err, &be), "ожидалась BusinessError, получено %v", err)
	assert.Equal(t, code, be.Code)
}

// TestTaskService_CreateTask тестирует строгий путь создания
func TestTaskService_CreateTask(t *testing.T) {
	ctx := context.Background()

	t.Run("empty title rejected", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		svc := service.NewTaskService(mockRepo, new(MockUserRepository))

		_, err := svc.CreateTask(ctx, service.CreateTaskInput{Title: "   "}, 7)

		asBusiness(t, err, "VALIDATION_ERROR")
		mockRepo.AssertExpectations(t)
	})

	t.Run("creator becomes default assignee", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("Insert", mock.Anything, mock.MatchedBy(func(tk *task.Task) bool {
			return len(tk.AssignedTo) == 1 && tk.AssignedTo[0] == 7
		})).Return(&task.Task{ID: 1, Title: "Test", AssignedTo: []int64{7}}, nil)

		svc := service.NewTaskService(mockRepo, new(MockUserRepository))
		created, err := svc.CreateTask(ctx, service.CreateTaskInput{Title: "Test"}, 7)

		require.NoError(t, err)
		assert.Equal(t, []int64{7}, created.AssignedTo)
		mockRepo.AssertExpectations(t)
	})

	t.Run("explicit garbage assignees rejected", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		svc := service.NewTaskService(mockRepo, new(MockUserRepository))

		// явный вход с одним мусором не дополняется создателем
		_, err := svc.CreateTask(ctx, service.CreateTaskInput{
			Title:      "Test",
			AssignedTo: []any{"abc", nil},
		}, 7)

		asBusiness(t, err, "VALIDATION_ERROR")
		mockRepo.AssertExpectations(t)
	})

	t.Run("too many assignees rejected", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		svc := service.NewTaskService(mockRepo, new(MockUserRepository))

		_, err := svc.CreateTask(ctx, service.CreateTaskInput{
			Title:      "Test",
			AssignedTo: []any{float64(1), float64(2), float64(3), float64(4), float64(5), float64(6)},
		}, 7)

		asBusiness(t, err, "VALIDATION_ERROR")
		mockRepo.AssertExpectations(t)
	})

	t.Run("unknown status and priority coerced", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("Insert", mock.Anything, mock.MatchedBy(func(tk *task.Task) bool {
			return tk.Status == task.StatusPending && tk.Priority == task.PriorityMedium
		})).Return(&task.Task{ID: 2, Title: "Test", AssignedTo: []int64{7}}, nil)

		svc := service.NewTaskService(mockRepo, new(MockUserRepository))
		_, err := svc.CreateTask(ctx, service.CreateTaskInput{
			Title:    "Test",
			Status:   "weird",
			Priority: "чрезвычайный",
		}, 7)

		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("invalid recurrence frequency rejected", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		svc := service.NewTaskService(mockRepo, new(MockUserRepository))

		_, err := svc.CreateTask(ctx, service.CreateTaskInput{
			Title:          "Test",
			RecurrenceFreq: "yearly",
		}, 7)

		asBusiness(t, err, "VALIDATION_ERROR")
		mockRepo.AssertExpectations(t)
	})

	t.Run("assignment notification excludes creator", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		created := &task.Task{ID: 3, Title: "Test", AssignedTo: []int64{7, 8}}
		mockRepo.On("Insert", mock.Anything, mock.Anything).Return(created, nil)

		mockNotifier := new(MockNotifier)
		mockNotifier.On("NotifyAssignment", mock.Anything, mock.MatchedBy(func(e notify.AssignmentEvent) bool {
			return len(e.AssigneeIDs) == 1 && e.AssigneeIDs[0] == 8 && e.Kind == notify.KindCreated
		})).Return(nil)

		svc := service.NewTaskService(mockRepo, new(MockUserRepository),
			service.WithNotifier(mockNotifier))

		_, err := svc.CreateTask(ctx, service.CreateTaskInput{
			Title:      "Test",
			AssignedTo: []any{float64(7), float64(8)},
		}, 7)

		require.NoError(t, err)
		svc.Dispatcher().Wait()
		mockNotifier.AssertExpectations(t)
		mockRepo.AssertExpectations(t)
	})

	t.Run("sole creator gets no notification", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		created := &task.Task{ID: 4, Title: "Test", AssignedTo: []int64{7}}
		mockRepo.On("Insert", mock.Anything, mock.Anything).Return(created, nil)

		mockNotifier := new(MockNotifier)

		svc := service.NewTaskService(mockRepo, new(MockUserRepository),
			service.WithNotifier(mockNotifier))

		_, err := svc.CreateTask(ctx, service.CreateTaskInput{Title: "Test"}, 7)

		require.NoError(t, err)
		svc.Dispatcher().Wait()
		mockNotifier.AssertNotCalled(t, "NotifyAssignment", mock.Anything, mock.Anything)
		mockRepo.AssertExpectations(t)
	})
}

// TestTaskService_UpdateTask тестирует частичное обновление
func TestTaskService_UpdateTask(t *testing.T) {
	ctx := context.Background()

	existing := func() *task.Task {
		return &task.Task{
			ID:         5,
			Title:      "Old",
			Status:     task.StatusPending,
			Priority:   task.PriorityMedium,
			AssignedTo: []int64{7},
		}
	}

	t.Run("not found", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("GetByID", mock.Anything, int64(5)).Return(nil, rep.ErrNotFound)

		svc := service.NewTaskService(mockRepo, new(MockUserRepository))
		_, err := svc.UpdateTask(ctx, 5, service.UpdateTaskInput{}, 7)

		asBusiness(t, err, "NOT_FOUND")
		mockRepo.AssertExpectations(t)
	})

	t.Run("success without permission checker", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		before := existing()
		after := existing()
		after.Status = task.StatusInProgress

		status := "in_progress"
		mockRepo.On("GetByID", mock.Anything, int64(5)).Return(before, nil)
		mockRepo.On("UpdateByID", mock.Anything, int64(5), mock.MatchedBy(func(p *task.Patch) bool {
			return p.Status != nil && *p.Status == task.StatusInProgress
		})).Return(after, nil)

		svc := service.NewTaskService(mockRepo, new(MockUserRepository))
		result, err := svc.UpdateTask(ctx, 5, service.UpdateTaskInput{Status: &status}, 7)

		require.NoError(t, err)
		assert.Equal(t, task.StatusInProgress, result.Status)
		mockRepo.AssertExpectations(t)
	})

	t.Run("invalid deadline rejected before write", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("GetByID", mock.Anything, int64(5)).Return(existing(), nil)

		bad := "вчера"
		svc := service.NewTaskService(mockRepo, new(MockUserRepository))
		_, err := svc.UpdateTask(ctx, 5, service.UpdateTaskInput{Deadline: &bad}, 7)

		asBusiness(t, err, "VALIDATION_ERROR")
		mockRepo.AssertNotCalled(t, "UpdateByID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("project task requires manager or assignee", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		pid := int64(10)
		before := existing()
		before.ProjectID = &pid
		mockRepo.On("GetByID", mock.Anything, int64(5)).Return(before, nil)

		mockPerm := new(MockPermissionChecker)
		mockPerm.On("CanManageMembers", mock.Anything, int64(10), int64(99)).Return(false, nil)

		svc := service.NewTaskService(mockRepo, new(MockUserRepository),
			service.WithPermissionChecker(mockPerm))

		title := "New"
		_, err := svc.UpdateTask(ctx, 5, service.UpdateTaskInput{Title: &title}, 99)

		asBusiness(t, err, "PERMISSION_DENIED")
		mockPerm.AssertExpectations(t)
	})

	t.Run("assignee may update project task without manage rights", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		pid := int64(10)
		before := existing()
		before.ProjectID = &pid
		after := before.Clone()
		after.Title = "New"

		mockRepo.On("GetByID", mock.Anything, int64(5)).Return(before, nil)
		mockRepo.On("UpdateByID", mock.Anything, int64(5), mock.Anything).Return(after, nil)

		mockPerm := new(MockPermissionChecker)
		mockPerm.On("CanManageMembers", mock.Anything, int64(10), int64(7)).Return(false, nil)

		svc := service.NewTaskService(mockRepo, new(MockUserRepository),
			service.WithPermissionChecker(mockPerm))

		title := "New"
		_, err := svc.UpdateTask(ctx, 5, service.UpdateTaskInput{Title: &title}, 7)

		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("personal task only by assignee", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("GetByID", mock.Anything, int64(5)).Return(existing(), nil)

		svc := service.NewTaskService(mockRepo, new(MockUserRepository),
			service.WithPermissionChecker(new(MockPermissionChecker)))

		title := "New"
		_, err := svc.UpdateTask(ctx, 5, service.UpdateTaskInput{Title: &title}, 99)

		asBusiness(t, err, "PERMISSION_DENIED")
	})

	t.Run("assignee deltas notified", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		before := existing()
		after := existing()
		after.AssignedTo = []int64{7, 8}

		mockRepo.On("GetByID", mock.Anything, int64(5)).Return(before, nil)
		mockRepo.On("UpdateByID", mock.Anything, int64(5), mock.Anything).Return(after, nil)

		mockUsers := new(MockUserRepository)
		mockUsers.On("GetUsersByIDs", mock.Anything, mock.Anything).
			Return([]*user.User{{ID: 7}, {ID: 8}}, nil).Maybe()

		mockNotifier := new(MockNotifier)
		mockNotifier.On("NotifyAssignment", mock.Anything, mock.MatchedBy(func(e notify.AssignmentEvent) bool {
			return len(e.AssigneeIDs) == 1 && e.AssigneeIDs[0] == 8 && e.Kind == notify.KindAssigned
		})).Return(nil)

		svc := service.NewTaskService(mockRepo, mockUsers,
			service.WithNotifier(mockNotifier))

		assigned := []any{float64(7), float64(8)}
		_, err := svc.UpdateTask(ctx, 5, service.UpdateTaskInput{AssignedTo: &assigned}, 7)

		require.NoError(t, err)
		svc.Dispatcher().Wait()
		mockNotifier.AssertExpectations(t)
		mockNotifier.AssertNotCalled(t, "NotifyRemoval", mock.Anything, mock.Anything)
	})

	t.Run("field change notification skipped without resolvable assignees", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		before := existing()
		after := existing()
		after.Status = task.StatusBlocked

		status := "blocked"
		mockRepo.On("GetByID", mock.Anything, int64(5)).Return(before, nil)
		mockRepo.On("UpdateByID", mock.Anything, int64(5), mock.Anything).Return(after, nil)

		// исполнители не разрешаются в пользователей - уведомления нет
		mockUsers := new(MockUserRepository)
		mockUsers.On("GetUsersByIDs", mock.Anything, mock.Anything).Return([]*user.User{}, nil)

		mockNotifier := new(MockNotifier)

		svc := service.NewTaskService(mockRepo, mockUsers,
			service.WithNotifier(mockNotifier))

		_, err := svc.UpdateTask(ctx, 5, service.UpdateTaskInput{Status: &status}, 7)

		require.NoError(t, err)
		svc.Dispatcher().Wait()
		mockNotifier.AssertNotCalled(t, "NotifyUpdate", mock.Anything, mock.Anything)
	})

	t.Run("archiving sends deletion-style notification", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		before := existing()
		after := existing()
		after.Archived = true

		mockRepo.On("GetByID", mock.Anything, int64(5)).Return(before, nil)
		mockRepo.On("UpdateByID", mock.Anything, int64(5), mock.Anything).Return(after, nil)

		mockUsers := new(MockUserRepository)
		mockUsers.On("GetUsersByIDs", mock.Anything, mock.Anything).
			Return([]*user.User{{ID: 7, Name: "Семён"}}, nil)

		mockNotifier := new(MockNotifier)
		mockNotifier.On("NotifyUpdate", mock.Anything, mock.Anything).Return(nil).Maybe()
		mockNotifier.On("NotifyDeletion", mock.Anything, mock.MatchedBy(func(e notify.DeletionEvent) bool {
			return e.DeleterID == 7 && e.DeleterName == "Семён"
		})).Return(nil)

		svc := service.NewTaskService(mockRepo, mockUsers,
			service.WithNotifier(mockNotifier))

		result, err := svc.ArchiveTask(ctx, 5, 7)

		require.NoError(t, err)
		assert.True(t, result.Archived)
		svc.Dispatcher().Wait()
		mockNotifier.AssertExpectations(t)
	})
}

// TestTaskService_DeleteTask тестирует жёсткое удаление
func TestTaskService_DeleteTask(t *testing.T) {
	ctx := context.Background()

	existing := func() *task.Task {
		return &task.Task{ID: 5, Title: "Doomed", AssignedTo: []int64{7}}
	}

	t.Run("cleanup failures do not abort deletion", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("GetByID", mock.Anything, int64(5)).Return(existing(), nil)
		mockRepo.On("Delete", mock.Anything, int64(5)).Return(true, nil)

		mockUsers := new(MockUserRepository)
		mockUsers.On("GetUsersByIDs", mock.Anything, []int64{7}).
			Return([]*user.User{{ID: 7, Name: "Семён"}}, nil)

		mockCleaner := new(MockCleaner)
		mockCleaner.On("DeleteAttachmentsForTask", mock.Anything, int64(5)).
			Return(errors.New("хранилище недоступно"))
		mockCleaner.On("DeleteStoredFilesForTask", mock.Anything, int64(5)).
			Return(errors.New("хранилище недоступно"))

		mockNotifier := new(MockNotifier)
		mockNotifier.On("NotifyDeletion", mock.Anything, mock.Anything).
			Return(errors.New("почта недоступна"))

		svc := service.NewTaskService(mockRepo, mockUsers,
			service.WithNotifier(mockNotifier),
			service.WithCleaners(mockCleaner, mockCleaner))

		err := svc.DeleteTask(ctx, 5, 7)

		require.NoError(t, err)
		svc.Dispatcher().Wait()
		mockRepo.AssertExpectations(t)
		mockCleaner.AssertExpectations(t)
	})

	t.Run("project task deletion requires manage rights", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		pid := int64(10)
		before := existing()
		before.ProjectID = &pid
		mockRepo.On("GetByID", mock.Anything, int64(5)).Return(before, nil)

		mockPerm := new(MockPermissionChecker)
		mockPerm.On("CanManageMembers", mock.Anything, int64(10), int64(7)).Return(false, nil)

		svc := service.NewTaskService(mockRepo, new(MockUserRepository),
			service.WithPermissionChecker(mockPerm))

		// исполнительство не даёт права удалять проектную задачу
		err := svc.DeleteTask(ctx, 5, 7)

		asBusiness(t, err, "PERMISSION_DENIED")
		mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("personal task deleted by assignee", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("GetByID", mock.Anything, int64(5)).Return(existing(), nil)
		mockRepo.On("Delete", mock.Anything, int64(5)).Return(true, nil)

		svc := service.NewTaskService(mockRepo, new(MockUserRepository),
			service.WithPermissionChecker(new(MockPermissionChecker)))

		err := svc.DeleteTask(ctx, 5, 7)

		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("vanished row reported as not found", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("GetByID", mock.Anything, int64(5)).Return(existing(), nil)
		mockRepo.On("Delete", mock.Anything, int64(5)).Return(false, nil)

		svc := service.NewTaskService(mockRepo, new(MockUserRepository))
		err := svc.DeleteTask(ctx, 5, 7)

		asBusiness(t, err, "NOT_FOUND")
	})
}

// TestTaskService_ListVisibleTasks тестирует выборку без резолвера
func TestTaskService_ListVisibleTasks(t *testing.T) {
	ctx := context.Background()

	t.Run("without resolver only own tasks", func(t *testing.T) {
		mockUsers := new(MockUserRepository)
		mockUsers.On("GetByID", mock.Anything, int64(7)).
			Return(&user.User{ID: 7, Role: user.RoleStaff}, nil)

		mockRepo := new(MockTaskRepository)
		mockRepo.On("List", mock.Anything).Return([]*task.Task{
			{ID: 1, AssignedTo: []int64{7}},
			{ID: 2, AssignedTo: []int64{8}},
			{ID: 3, AssignedTo: []int64{7, 8}},
		}, nil)

		svc := service.NewTaskService(mockRepo, mockUsers)
		visible, err := svc.ListVisibleTasks(ctx, 7)

		require.NoError(t, err)
		require.Len(t, visible, 2)
		assert.Equal(t, int64(1), visible[0].ID)
		assert.Equal(t, int64(3), visible[1].ID)
	})

	t.Run("unknown requester", func(t *testing.T) {
		mockUsers := new(MockUserRepository)
		mockUsers.On("GetByID", mock.Anything, int64(42)).Return(nil, rep.ErrNotFound)

		svc := service.NewTaskService(new(MockTaskRepository), mockUsers)
		_, err := svc.ListVisibleTasks(ctx, 42)

		asBusiness(t, err, "NOT_FOUND")
	})
}

// TestTaskService_ListVisibleUsers тестирует фильтр видимости пользователей
func TestTaskService_ListVisibleUsers(t *testing.T) {
	ctx := context.Background()

	all := []*user.User{
		{ID: 1, Name: "Админ", Role: user.RoleAdmin, Hierarchy: 1, Division: "IT"},
		{ID: 2, Name: "Менеджер", Role: user.RoleManager, Hierarchy: 2, Division: "Sales"},
		{ID: 3, Name: "Сотрудник", Role: user.RoleStaff, Hierarchy: 4, Division: "Sales"},
		{ID: 4, Name: "Чужой", Role: user.RoleStaff, Hierarchy: 4, Division: "Legal"},
	}

	t.Run("manager sees self and juniors in own division", func(t *testing.T) {
		mockUsers := new(MockUserRepository)
		mockUsers.On("GetByID", mock.Anything, int64(2)).Return(all[1], nil)
		mockUsers.On("List", mock.Anything).Return(all, nil)

		svc := service.NewTaskService(new(MockTaskRepository), mockUsers)
		visible, err := svc.ListVisibleUsers(ctx, 2)

		require.NoError(t, err)
		require.Len(t, visible, 2)
		assert.Equal(t, int64(2), visible[0].ID)
		assert.Equal(t, int64(3), visible[1].ID)
	})

	t.Run("staff sees only self", func(t *testing.T) {
		mockUsers := new(MockUserRepository)
		mockUsers.On("GetByID", mock.Anything, int64(3)).Return(all[2], nil)
		mockUsers.On("List", mock.Anything).Return(all, nil)

		svc := service.NewTaskService(new(MockTaskRepository), mockUsers)
		visible, err := svc.ListVisibleUsers(ctx, 3)

		require.NoError(t, err)
		require.Len(t, visible, 1)
		assert.Equal(t, int64(3), visible[0].ID)
	})

	t.Run("admin sees everyone", func(t *testing.T) {
		mockUsers := new(MockUserRepository)
		mockUsers.On("GetByID", mock.Anything, int64(1)).Return(all[0], nil)
		mockUsers.On("List", mock.Anything).Return(all, nil)

		svc := service.NewTaskService(new(MockTaskRepository), mockUsers)
		visible, err := svc.ListVisibleUsers(ctx, 1)

		require.NoError(t, err)
		assert.Len(t, visible, 4)
	})

	t.Run("unknown requester", func(t *testing.T) {
		mockUsers := new(MockUserRepository)
		mockUsers.On("GetByID", mock.Anything, int64(42)).Return(nil, rep.ErrNotFound)

		svc := service.NewTaskService(new(MockTaskRepository), mockUsers)
		_, err := svc.ListVisibleUsers(ctx, 42)

		asBusiness(t, err, "NOT_FOUND")
	})
}
