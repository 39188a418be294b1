package recurrence

import (
	"context"
	"fmt"
	"time"

	"taskhub/internal/logger"
	"taskhub/internal/models/task"
	"taskhub/internal/repository/inter"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Spawner порождает следующий экземпляр повторяющейся задачи
// после перехода её статуса в completed.
type Spawner struct {
	tasks inter.TaskRepository
}

func NewSpawner(tasks inter.TaskRepository) *Spawner {
	return &Spawner{tasks: tasks}
}

// AfterUpdate вызывается после сохранённого обновления со снимками
// до и после. Новый экземпляр создаётся только на переходе
// not-completed -> completed повторяющейся задачи, повторный вызов
// с уже завершённой задачей ничего не порождает.
func (s *Spawner) AfterUpdate(ctx context.Context, before, after *task.Task) (*task.Task, error) {
	wasCompleted := before.Status == task.StatusCompleted
	isCompleted := after.Status == task.StatusCompleted

	if wasCompleted || !isCompleted || !before.Recurring() {
		return nil, nil
	}

	seriesID, err := s.resolveSeriesID(ctx, before)
	if err != nil {
		return nil, err
	}

	next := buildNext(before, seriesID)
	created, err := s.tasks.Insert(ctx, next)
	if err != nil {
		return nil, fmt.Errorf("создание следующего экземпляра: %w", err)
	}

	logger.Info("Recurrence: Порождён следующий экземпляр",
		zap.Int64("source_id", before.ID),
		zap.Int64("spawned_id", created.ID),
		zap.String("series_id", seriesID.String()))

	// клонирование подзадач - best-effort: ошибка логируется,
	// уже созданный родитель не откатывается
	if err := s.cloneSubtasks(ctx, before, created, seriesID); err != nil {
		logger.Warn("Recurrence: Не удалось клонировать подзадачи",
			zap.Int64("source_id", before.ID),
			zap.Int64("spawned_id", created.ID),
			zap.Error(err))
	}

	return created, nil
}

// resolveSeriesID возвращает id серии, при первом порождении
// чеканит новый и дозаписывает его на исходную задачу,
// чтобы вся цепочка разделяла один идентификатор
func (s *Spawner) resolveSeriesID(ctx context.Context, before *task.Task) (uuid.UUID, error) {
	if before.RecurrenceSeriesID != nil {
		return *before.RecurrenceSeriesID, nil
	}

	seriesID := uuid.New()
	patch := &task.Patch{RecurrenceSeriesID: &seriesID}
	if _, err := s.tasks.UpdateByID(ctx, before.ID, patch); err != nil {
		return uuid.Nil, fmt.Errorf("дозапись id серии: %w", err)
	}
	return seriesID, nil
}

func buildNext(src *task.Task, seriesID uuid.UUID) *task.Task {
	next := src.Clone()
	next.ID = 0
	next.Status = task.StatusPending
	next.Deadline = NextDue(src.Deadline, src.RecurrenceFreq, src.RecurrenceInterval)
	next.ParentID = nil
	next.Archived = false
	next.RecurrenceSeriesID = &seriesID
	next.CreatedAt = time.Time{}
	next.UpdatedAt = nil
	return next
}

func (s *Spawner) cloneSubtasks(ctx context.Context, src, newParent *task.Task, seriesID uuid.UUID) error {
	children, err := s.tasks.GetSubtasks(ctx, src.ID)
	if err != nil {
		return fmt.Errorf("получение подзадач: %w", err)
	}
	if len(children) == 0 {
		return nil
	}

	// сперва собираем весь список клонов, потом одна пакетная вставка:
	// все клоны гарантированно получают id нового родителя
	clones := make([]*task.Task, 0, len(children))
	for _, child := range children {
		clone := child.Clone()
		clone.ID = 0
		clone.Status = task.StatusPending
		clone.ParentID = &newParent.ID
		clone.Archived = false
		clone.RecurrenceFreq = src.RecurrenceFreq
		clone.RecurrenceInterval = src.RecurrenceInterval
		sid := seriesID
		clone.RecurrenceSeriesID = &sid
		clone.CreatedAt = time.Time{}
		clone.UpdatedAt = nil

		// у подзадачи свой дедлайн, при его отсутствии
		// отсчитываем от прежнего дедлайна родителя
		base := child.Deadline
		if base == nil {
			base = src.Deadline
		}
		clone.Deadline = NextDue(base, src.RecurrenceFreq, src.RecurrenceInterval)

		clones = append(clones, clone)
	}

	if _, err := s.tasks.InsertMany(ctx, clones); err != nil {
		return fmt.Errorf("пакетная вставка клонов: %w", err)
	}
	return nil
}

// NextDue считает следующий срок от прежнего дедлайна (не от момента
// завершения): daily - N дней, weekly - 7N дней, monthly - N месяцев
// тем же числом без подрезки конца месяца (31 января + месяц
// нормализуется в начало марта, как делает time.AddDate).
func NextDue(from *time.Time, freq task.Frequency, interval int) *time.Time {
	if from == nil {
		return nil
	}
	if interval < 1 {
		interval = 1
	}

	var next time.Time
	switch freq {
	case task.FreqDaily:
		next = from.AddDate(0, 0, interval)
	case task.FreqWeekly:
		next = from.AddDate(0, 0, 7*interval)
	case task.FreqMonthly:
		next = from.AddDate(0, interval, 0)
	default:
		return nil
	}
	return &next
}
