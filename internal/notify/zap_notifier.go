package notify

import (
	"context"

	"taskhub/internal/logger"

	"go.uber.org/zap"
)

// ZapNotifier - реализация коллаборатора уведомлений поверх логгера.
// Реальная доставка (почта, мессенджеры) живёт за этим же контрактом.
type ZapNotifier struct{}

func NewZapNotifier() *ZapNotifier {
	return &ZapNotifier{}
}

func (n *ZapNotifier) NotifyAssignment(ctx context.Context, e AssignmentEvent) error {
	logger.Info("Notify: Назначение исполнителей",
		zap.Int64("task_id", e.Task.ID),
		zap.String("kind", string(e.Kind)),
		zap.Int64s("assignees", e.AssigneeIDs),
		zap.Int64("assigned_by", e.AssignedByID))
	return nil
}

func (n *ZapNotifier) NotifyRemoval(ctx context.Context, e RemovalEvent) error {
	logger.Info("Notify: Снятие исполнителей",
		zap.Int64("task_id", e.Task.ID),
		zap.Int64s("removed", e.AssigneeIDs),
		zap.Int64("assigned_by", e.AssignedByID))
	return nil
}

func (n *ZapNotifier) NotifyUpdate(ctx context.Context, e UpdateEvent) error {
	fields := []zap.Field{
		zap.Int64("task_id", e.Task.ID),
		zap.Int64("updated_by", e.UpdatedByID),
		zap.Int64s("assignees", e.AssigneeIDs),
	}
	for _, c := range e.Changes {
		fields = append(fields, zap.String(c.Field, c.Before+" -> "+c.After))
	}
	logger.Info("Notify: Изменение задачи", fields...)
	return nil
}

func (n *ZapNotifier) NotifyDeletion(ctx context.Context, e DeletionEvent) error {
	logger.Info("Notify: Удаление задачи",
		zap.Int64("task_id", e.Task.ID),
		zap.Int64("deleted_by", e.DeleterID),
		zap.String("deleter_name", e.DeleterName))
	return nil
}
