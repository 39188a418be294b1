package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"taskhub/internal/handlers"
	"taskhub/internal/handlers/dto"
	"taskhub/internal/models/task"
	"taskhub/internal/models/user"
	"taskhub/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTaskService - мок сервисного слоя
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) CreateTask(ctx context.Context, input service.CreateTaskInput, creatorID int64) (*task.Task, error) {
	args := m.Called(ctx, input, creatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) UpdateTask(ctx context.Context, id int64, input service.UpdateTaskInput, requesterID int64) (*task.Task, error) {
	args := m.Called(ctx, id, input, requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) DeleteTask(ctx context.Context, id, requesterID int64) error {
	args := m.Called(ctx, id, requesterID)
	return args.Error(0)
}

func (m *MockTaskService) GetTask(ctx context.Context, id int64) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) GetSubtasks(ctx context.Context, parentID int64) ([]*task.Task, error) {
	args := m.Called(ctx, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskService) ListVisibleTasks(ctx context.Context, requesterID int64) ([]*task.Task, error) {
	args := m.Called(ctx, requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskService) ArchiveTask(ctx context.Context, id, requesterID int64) (*task.Task, error) {
	args := m.Called(ctx, id, requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) UnarchiveTask(ctx context.Context, id, requesterID int64) (*task.Task, error) {
	args := m.Called(ctx, id, requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) ListVisibleUsers(ctx context.Context, requesterID int64) ([]*user.User, error) {
	args := m.Called(ctx, requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*user.User), args.Error(1)
}

var _ handlers.TaskService = (*MockTaskService)(nil)

func newRouter(svc handlers.TaskService) *chi.Mux {
	h := handlers.NewTaskHandler(svc)

	r := chi.NewRouter()
	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", h.GetTasks)
		r.Post("/", h.PostTask)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetTaskByID)
			r.Patch("/", h.UpdateTaskByID)
			r.Delete("/", h.DeleteTaskByID)
			r.Get("/subtasks", h.GetSubtasks)
			r.Post("/archive", h.ArchiveTask)
			r.Post("/unarchive", h.UnarchiveTask)
		})
	})
	r.Get("/users", h.GetUsers)
	r.Get("/health", h.HealthCheck)
	return r
}

// TestPostTask тестирует создание задачи через HTTP
func TestPostTask(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockSvc := new(MockTaskService)
		created := &task.Task{ID: 1, Title: "Report", AssignedTo: []int64{7}, Status: task.StatusPending}
		mockSvc.On("CreateTask", mock.Anything, mock.MatchedBy(func(in service.CreateTaskInput) bool {
			return in.Title == "Report" && len(in.AssignedTo) == 2
		}), int64(7)).Return(created, nil)

		body := `{"title":"Report","assigned_to":[7,"8"]}`
		req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-User-ID", "7")
		rec := httptest.NewRecorder()

		newRouter(mockSvc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp dto.TaskResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, int64(1), resp.ID)
		assert.Equal(t, "Report", resp.Title)
		mockSvc.AssertExpectations(t)
	})

	t.Run("missing content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewBufferString(`{}`))
		req.Header.Set("X-User-ID", "7")
		rec := httptest.NewRecorder()

		newRouter(new(MockTaskService)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})

	t.Run("missing requester header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewBufferString(`{"title":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		newRouter(new(MockTaskService)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("validation error mapped to 400", func(t *testing.T) {
		mockSvc := new(MockTaskService)
		mockSvc.On("CreateTask", mock.Anything, mock.Anything, int64(7)).
			Return(nil, service.NewValidationError("title", "не может быть пустым"))

		req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewBufferString(`{"title":"  "}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-User-ID", "7")
		rec := httptest.NewRecorder()

		newRouter(mockSvc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "VALIDATION_ERROR", resp["error"])
	})
}

// TestGetTaskByID тестирует получение задачи
func TestGetTaskByID(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockSvc := new(MockTaskService)
		mockSvc.On("GetTask", mock.Anything, int64(5)).
			Return(&task.Task{ID: 5, Title: "Found"}, nil)

		req := httptest.NewRequest(http.MethodGet, "/tasks/5", nil)
		rec := httptest.NewRecorder()

		newRouter(mockSvc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found mapped to 404", func(t *testing.T) {
		mockSvc := new(MockTaskService)
		mockSvc.On("GetTask", mock.Anything, int64(99)).
			Return(nil, service.NewNotFound("задача", 99))

		req := httptest.NewRequest(http.MethodGet, "/tasks/99", nil)
		rec := httptest.NewRecorder()

		newRouter(mockSvc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/tasks/abc", nil)
		rec := httptest.NewRecorder()

		newRouter(new(MockTaskService)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

// TestUpdateTaskByID тестирует частичное обновление
func TestUpdateTaskByID(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockSvc := new(MockTaskService)
		updated := &task.Task{ID: 5, Title: "Renamed", Status: task.StatusInProgress}
		mockSvc.On("UpdateTask", mock.Anything, int64(5), mock.MatchedBy(func(in service.UpdateTaskInput) bool {
			return in.Title != nil && *in.Title == "Renamed" && in.Status == nil
		}), int64(7)).Return(updated, nil)

		body := `{"title":"Renamed"}`
		req := httptest.NewRequest(http.MethodPatch, "/tasks/5", bytes.NewBufferString(body))
		req.Header.Set("X-User-ID", "7")
		rec := httptest.NewRecorder()

		newRouter(mockSvc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("permission denied mapped to 403", func(t *testing.T) {
		mockSvc := new(MockTaskService)
		mockSvc.On("UpdateTask", mock.Anything, int64(5), mock.Anything, int64(99)).
			Return(nil, service.NewPermissionError(99, 5))

		req := httptest.NewRequest(http.MethodPatch, "/tasks/5", bytes.NewBufferString(`{"title":"x"}`))
		req.Header.Set("X-User-ID", "99")
		rec := httptest.NewRecorder()

		newRouter(mockSvc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

// TestDeleteTaskByID тестирует удаление
func TestDeleteTaskByID(t *testing.T) {
	mockSvc := new(MockTaskService)
	mockSvc.On("DeleteTask", mock.Anything, int64(5), int64(7)).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/tasks/5", nil)
	req.Header.Set("X-User-ID", "7")
	rec := httptest.NewRecorder()

	newRouter(mockSvc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	mockSvc.AssertExpectations(t)
}

// TestArchiveEndpoints тестирует архивацию и разархивацию
func TestArchiveEndpoints(t *testing.T) {
	t.Run("archive", func(t *testing.T) {
		mockSvc := new(MockTaskService)
		mockSvc.On("ArchiveTask", mock.Anything, int64(5), int64(7)).
			Return(&task.Task{ID: 5, Archived: true}, nil)

		req := httptest.NewRequest(http.MethodPost, "/tasks/5/archive", nil)
		req.Header.Set("X-User-ID", "7")
		rec := httptest.NewRecorder()

		newRouter(mockSvc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp dto.TaskResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Archived)
		mockSvc.AssertExpectations(t)
	})

	t.Run("unarchive", func(t *testing.T) {
		mockSvc := new(MockTaskService)
		mockSvc.On("UnarchiveTask", mock.Anything, int64(5), int64(7)).
			Return(&task.Task{ID: 5, Archived: false}, nil)

		req := httptest.NewRequest(http.MethodPost, "/tasks/5/unarchive", nil)
		req.Header.Set("X-User-ID", "7")
		rec := httptest.NewRecorder()

		newRouter(mockSvc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		mockSvc.AssertExpectations(t)
	})
}

// TestGetSubtasks тестирует выборку подзадач
func TestGetSubtasks(t *testing.T) {
	mockSvc := new(MockTaskService)
	mockSvc.On("GetSubtasks", mock.Anything, int64(5)).Return([]*task.Task{
		{ID: 6, Title: "Child"},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/tasks/5/subtasks", nil)
	rec := httptest.NewRecorder()

	newRouter(mockSvc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp []dto.TaskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "Child", resp[0].Title)
}

// TestGetTasks тестирует список видимых задач
func TestGetTasks(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockSvc := new(MockTaskService)
		mockSvc.On("ListVisibleTasks", mock.Anything, int64(7)).Return([]*task.Task{
			{ID: 1, Title: "Mine"},
			{ID: 2, Title: "Shared"},
		}, nil)

		req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
		req.Header.Set("X-User-ID", "7")
		rec := httptest.NewRecorder()

		newRouter(mockSvc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp []dto.TaskResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp, 2)
	})

	t.Run("missing requester header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
		rec := httptest.NewRecorder()

		newRouter(new(MockTaskService)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

// TestGetUsers тестирует список видимых пользователей
func TestGetUsers(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockSvc := new(MockTaskService)
		mockSvc.On("ListVisibleUsers", mock.Anything, int64(2)).Return([]*user.User{
			{ID: 2, Name: "Мария", Role: user.RoleManager, Division: "Sales"},
			{ID: 3, Name: "Олег", Role: user.RoleStaff, Division: "Sales"},
		}, nil)

		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		req.Header.Set("X-User-ID", "2")
		rec := httptest.NewRecorder()

		newRouter(mockSvc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp []dto.UserResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp, 2)
		assert.Equal(t, "manager", resp[0].Role)
	})

	t.Run("missing requester header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		rec := httptest.NewRecorder()

		newRouter(new(MockTaskService)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

// TestHealthCheck тестирует эндпоинт здоровья
func TestHealthCheck(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	newRouter(new(MockTaskService)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}
