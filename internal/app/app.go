package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"taskhub/internal/access"
	"taskhub/internal/cleanup"
	"taskhub/internal/config"
	"taskhub/internal/handlers"
	"taskhub/internal/logger"
	"taskhub/internal/middleware"
	"taskhub/internal/models/project"
	"taskhub/internal/models/user"
	"taskhub/internal/notify"
	"taskhub/internal/repository/inter"
	"taskhub/internal/repository/task/inmemory"
	"taskhub/internal/repository/task/postgres"
	"taskhub/internal/repository/task/sqlite"
	"taskhub/internal/service"
	"taskhub/internal/worker"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type App struct {
	config    *config.Config
	server    *http.Server
	router    *chi.Mux
	service   *service.TaskService
	worker    *worker.DeadlineWorker
	shutdowns []func() // функции для graceful shutdown
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) error {

	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	taskRepo, userRepo, projRepo, err := a.initStorage(ctx)
	if err != nil {
		return fmt.Errorf("инициализация хранилища: %w", err)
	}

	notifier := notify.NewZapNotifier()
	resolver := access.NewResolver(projRepo, userRepo)

	svc := service.NewTaskService(taskRepo, userRepo,
		service.WithPermissionChecker(projRepo),
		service.WithNotifier(notifier),
		service.WithResolver(resolver),
		service.WithCleaners(cleanup.NewAttachmentCleaner(), cleanup.NewFileCleaner()),
	)
	a.service = &svc

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Ожидание фоновых уведомлений...")
		a.service.Dispatcher().Wait()
	})

	if a.config.Worker.Enabled {
		a.worker = worker.NewDeadlineWorker(taskRepo, notifier,
			&a.config.Worker.Interval, &a.config.Worker.Window, &a.config.Worker.Batch)
	}

	a.initRouter()

	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      a.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return nil
}

func (a *App) initStorage(ctx context.Context) (inter.TaskRepository, inter.UserRepository, inter.ProjectRepository, error) {
	switch a.config.Repository.Type {
	case "postgres":
		if err := postgres.Migrate(a.config.Database.URL); err != nil {
			return nil, nil, nil, fmt.Errorf("миграции: %w", err)
		}
		storage, err := postgres.New(ctx, a.config.Database.URL)
		if err != nil {
			return nil, nil, nil, err
		}
		a.shutdowns = append(a.shutdowns, func() {
			logger.Info("Закрытие пула соединений Postgres...")
			storage.Close()
		})
		logger.Info("Хранилище: Postgres", zap.String("url", a.config.Database.URL))
		return storage, storage.Users(), storage.Projects(), nil

	case "sqlite":
		storage, err := sqlite.Open(ctx, a.config.Database.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		a.shutdowns = append(a.shutdowns, func() {
			logger.Info("Закрытие SQLite...")
			if err := storage.Close(); err != nil {
				logger.Warn("Ошибка закрытия SQLite", zap.Error(err))
			}
		})
		logger.Info("Хранилище: SQLite", zap.String("path", a.config.Database.Path))
		return storage, storage.Users(), storage.Projects(), nil

	case "inmemory", "":
		storage := inmemory.NewStorage()
		if a.config.Repository.SeedDemo {
			seedDemo(storage)
		}
		logger.Info("Хранилище: in-memory")
		return storage, storage.Users(), storage.Projects(), nil

	default:
		return nil, nil, nil, fmt.Errorf("неизвестный тип хранилища: %q", a.config.Repository.Type)
	}
}

// демо-данные для локальной разработки на in-memory хранилище
func seedDemo(storage *inmemory.Storage) {
	storage.AddUser(&user.User{ID: 1, Name: "Анна Админова", Role: user.RoleAdmin, Department: "IT", Hierarchy: 1, Division: "IT"})
	storage.AddUser(&user.User{ID: 2, Name: "Михаил Менеджеров", Role: user.RoleManager, Department: "Sales", Hierarchy: 2, Division: "Commerce"})
	storage.AddUser(&user.User{ID: 3, Name: "Степан Сотрудников", Role: user.RoleStaff, Department: "Sales.NA", Hierarchy: 4, Division: "Commerce"})

	storage.AddProject(&project.Project{
		ID:         1,
		Name:       "Квартальный отчёт",
		CreatorID:  3,
		Department: "Sales.NA",
		MemberIDs:  []int64{2, 3},
		ManagerIDs: []int64{2},
	})
}

func (a *App) initRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.RateLimit(100))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-User-ID", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	taskHandler := handlers.NewTaskHandler(a.service)

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", taskHandler.GetTasks)  // GET /tasks
		r.Post("/", taskHandler.PostTask) // POST /tasks

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", taskHandler.GetTaskByID)         // GET /tasks/{id}
			r.Patch("/", taskHandler.UpdateTaskByID)    // PATCH /tasks/{id}
			r.Delete("/", taskHandler.DeleteTaskByID)   // DELETE /tasks/{id}
			r.Get("/subtasks", taskHandler.GetSubtasks) // GET /tasks/{id}/subtasks

			r.Post("/archive", taskHandler.ArchiveTask)     // POST /tasks/{id}/archive
			r.Post("/unarchive", taskHandler.UnarchiveTask) // POST /tasks/{id}/unarchive
		})
	})

	r.Get("/users", taskHandler.GetUsers) // GET /users

	r.Get("/health", taskHandler.HealthCheck)

	a.router = r
}

func (a *App) Run(ctx context.Context) error {
	if a.worker != nil {
		go a.worker.Start(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("сервер: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Остановка сервера...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Ошибка остановки сервера", err)
	}

	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}

	return nil
}
