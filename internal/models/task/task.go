package task

import (
	"time"

	"github.com/google/uuid"
)

// MaxAssignees - верхняя граница количества исполнителей задачи
const MaxAssignees = 5

type Task struct {
	ID                 int64      `json:"id" db:"id"`
	Title              string     `json:"title" db:"title"`
	Description        string     `json:"description" db:"description"`
	Priority           Priority   `json:"priority" db:"priority"`
	Status             Status     `json:"status" db:"status"`
	Deadline           *time.Time `json:"deadline,omitempty" db:"deadline"`
	ProjectID          *int64     `json:"project_id,omitempty" db:"project_id"`
	AssignedTo         []int64    `json:"assigned_to" db:"assigned_to"`
	Tags               []string   `json:"tags" db:"tags"`
	ParentID           *int64     `json:"parent_id,omitempty" db:"parent_id"`
	Archived           bool       `json:"archived" db:"archived"`
	RecurrenceFreq     Frequency  `json:"recurrence_freq,omitempty" db:"recurrence_freq"`
	RecurrenceInterval int        `json:"recurrence_interval" db:"recurrence_interval"`
	RecurrenceSeriesID *uuid.UUID `json:"recurrence_series_id,omitempty" db:"recurrence_series_id"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty" db:"updated_at,omitempty"`
}

type Status string
type Priority string
type Frequency string

const StatusPending Status = "pending"
const StatusInProgress Status = "in_progress"
const StatusCompleted Status = "completed"
const StatusBlocked Status = "blocked"
const StatusCancelled Status = "cancelled"

const PriorityLow Priority = "low"
const PriorityMedium Priority = "medium"
const PriorityHigh Priority = "high"
const PriorityUrgent Priority = "urgent"

// FreqNone хранится как пустая строка (NULL в БД)
const FreqNone Frequency = ""
const FreqDaily Frequency = "daily"
const FreqWeekly Frequency = "weekly"
const FreqMonthly Frequency = "monthly"

// IsAssignee проверяет, является ли пользователь исполнителем задачи
func (t *Task) IsAssignee(userID int64) bool {
	for _, id := range t.AssignedTo {
		if id == userID {
			return true
		}
	}
	return false
}

// Recurring - задача порождает новые экземпляры после завершения
func (t *Task) Recurring() bool {
	return t.RecurrenceFreq != FreqNone
}

// Clone возвращает глубокую копию задачи
func (t *Task) Clone() *Task {
	c := *t
	c.AssignedTo = append([]int64(nil), t.AssignedTo...)
	c.Tags = append([]string(nil), t.Tags...)
	if t.Deadline != nil {
		d := *t.Deadline
		c.Deadline = &d
	}
	if t.ProjectID != nil {
		p := *t.ProjectID
		c.ProjectID = &p
	}
	if t.ParentID != nil {
		p := *t.ParentID
		c.ParentID = &p
	}
	if t.RecurrenceSeriesID != nil {
		s := *t.RecurrenceSeriesID
		c.RecurrenceSeriesID = &s
	}
	if t.UpdatedAt != nil {
		u := *t.UpdatedAt
		c.UpdatedAt = &u
	}
	return &c
}
