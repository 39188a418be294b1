package notify

import (
	"context"

	"taskhub/internal/models/task"
)

// Контракт коллаборатора уведомлений. Все четыре вызова для ядра -
// fire-and-forget: они запускаются через Dispatcher, их ошибки
// логируются и никогда не влияют на результат мутации.

type AssignmentKind string

const KindCreated AssignmentKind = "created"
const KindAssigned AssignmentKind = "assigned"

type AssignmentEvent struct {
	Task                *task.Task
	AssigneeIDs         []int64
	AssignedByID        int64
	PreviousAssigneeIDs []int64
	CurrentAssigneeIDs  []int64
	Kind                AssignmentKind
}

type RemovalEvent struct {
	Task                *task.Task
	AssigneeIDs         []int64
	AssignedByID        int64
	PreviousAssigneeIDs []int64
	CurrentAssigneeIDs  []int64
}

type UpdateEvent struct {
	Task        *task.Task
	Changes     []FieldChange
	UpdatedByID int64
	AssigneeIDs []int64
}

type DeletionEvent struct {
	Task        *task.Task
	DeleterID   int64
	DeleterName string
}

type Notifier interface {
	NotifyAssignment(ctx context.Context, e AssignmentEvent) error
	NotifyRemoval(ctx context.Context, e RemovalEvent) error
	NotifyUpdate(ctx context.Context, e UpdateEvent) error
	NotifyDeletion(ctx context.Context, e DeletionEvent) error
}
