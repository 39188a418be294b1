package worker

import (
	"context"
	"time"

	"taskhub/internal/logger"
	"taskhub/internal/notify"
	"taskhub/internal/repository/inter"

	"go.uber.org/zap"
)

// DeadlineWorker периодически ищет задачи с приближающимся дедлайном
// и рассылает исполнителям напоминания через коллаборатор уведомлений
type DeadlineWorker struct {
	repo       inter.TaskRepository
	notifier   notify.Notifier
	dispatcher *notify.Dispatcher
	interval   time.Duration
	window     time.Duration
	batchSize  int
}

func NewDeadlineWorker(repo inter.TaskRepository, notifier notify.Notifier, interval, window *time.Duration, batchSize *int) *DeadlineWorker {
	intervalToSet := 5 * time.Minute
	if interval != nil {
		intervalToSet = *interval
	}

	windowToSet := 24 * time.Hour
	if window != nil {
		windowToSet = *window
	}

	batchToSet := 100
	if batchSize != nil {
		batchToSet = *batchSize
	}

	return &DeadlineWorker{
		repo:       repo,
		notifier:   notifier,
		dispatcher: notify.NewDispatcher(),
		interval:   intervalToSet,
		window:     windowToSet,
		batchSize:  batchToSet,
	}
}

// Dispatcher отдаёт очередь отсоединённых напоминаний
func (w *DeadlineWorker) Dispatcher() *notify.Dispatcher {
	return w.dispatcher
}

func (w *DeadlineWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logger.Info("Worker: Фоновая проверка приближающихся дедлайнов",
				zap.Time("started_at", time.Now()))
			w.Check(ctx)
		case <-ctx.Done():
			logger.Info("Worker: Фоновая проверка останавливается")
			w.dispatcher.Wait()
			return
		}
	}
}

func (w *DeadlineWorker) Check(ctx context.Context) {
	start := time.Now()

	now := time.Now()
	tasks, err := w.repo.GetDueBetween(ctx, now, now.Add(w.window), w.batchSize)
	if err != nil {
		logger.Warn("Worker: ошибка получения задач", zap.Error(err))
		return
	}

	reminded := 0
	for _, t := range tasks {
		if len(t.AssignedTo) == 0 {
			continue
		}

		snapshot := t.Clone()
		w.dispatcher.Go("deadline_reminder", func() error {
			return w.notifier.NotifyUpdate(context.Background(), notify.UpdateEvent{
				Task: snapshot,
				Changes: []notify.FieldChange{{
					Field:  "deadline",
					Label:  "Дедлайн",
					Before: "",
					After:  snapshot.Deadline.Format("2006-01-02"),
				}},
				AssigneeIDs: snapshot.AssignedTo,
			})
		})
		reminded++
	}

	logger.Info(
		"Worker: Завершение проверки дедлайнов",
		zap.Duration("ms", time.Since(start)),
		zap.Int("checked", len(tasks)),
		zap.Int("reminded", reminded),
	)
}
