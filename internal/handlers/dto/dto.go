package dto

import (
	"time"

	"taskhub/internal/models/task"
	"taskhub/internal/models/user"
	"taskhub/internal/service"
)

// Срезы []any принимают элементы любых JSON-типов -
// нормализация происходит в движке, не здесь.

type CreateTaskRequest struct {
	Title              string `json:"title"`
	Description        string `json:"description"`
	Priority           string `json:"priority"`
	Status             string `json:"status"`
	Deadline           string `json:"deadline"`
	ProjectID          *int64 `json:"project_id"`
	AssignedTo         []any  `json:"assigned_to"`
	Tags               []any  `json:"tags"`
	ParentID           *int64 `json:"parent_id"`
	RecurrenceFreq     string `json:"recurrence_freq"`
	RecurrenceInterval int    `json:"recurrence_interval"`
}

func (r CreateTaskRequest) ToInput() service.CreateTaskInput {
	return service.CreateTaskInput{
		Title:              r.Title,
		Description:        r.Description,
		Priority:           r.Priority,
		Status:             r.Status,
		Deadline:           r.Deadline,
		ProjectID:          r.ProjectID,
		AssignedTo:         r.AssignedTo,
		Tags:               r.Tags,
		ParentID:           r.ParentID,
		RecurrenceFreq:     r.RecurrenceFreq,
		RecurrenceInterval: r.RecurrenceInterval,
	}
}

type UpdateTaskRequest struct {
	Title              *string `json:"title,omitempty"`
	Description        *string `json:"description,omitempty"`
	Priority           *string `json:"priority,omitempty"`
	Status             *string `json:"status,omitempty"`
	Deadline           *string `json:"deadline,omitempty"`
	ProjectID          *int64  `json:"project_id,omitempty"`
	AssignedTo         *[]any  `json:"assigned_to,omitempty"`
	Tags               *[]any  `json:"tags,omitempty"`
	Archived           *bool   `json:"archived,omitempty"`
	RecurrenceFreq     *string `json:"recurrence_freq,omitempty"`
	RecurrenceInterval *int    `json:"recurrence_interval,omitempty"`
}

func (r UpdateTaskRequest) ToInput() service.UpdateTaskInput {
	return service.UpdateTaskInput{
		Title:              r.Title,
		Description:        r.Description,
		Priority:           r.Priority,
		Status:             r.Status,
		Deadline:           r.Deadline,
		ProjectID:          r.ProjectID,
		AssignedTo:         r.AssignedTo,
		Tags:               r.Tags,
		Archived:           r.Archived,
		RecurrenceFreq:     r.RecurrenceFreq,
		RecurrenceInterval: r.RecurrenceInterval,
	}
}

type TaskResponse struct {
	ID                 int64      `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Priority           string     `json:"priority"`
	Status             string     `json:"status"`
	Deadline           *time.Time `json:"deadline,omitempty"`
	ProjectID          *int64     `json:"project_id,omitempty"`
	AssignedTo         []int64    `json:"assigned_to"`
	Tags               []string   `json:"tags"`
	ParentID           *int64     `json:"parent_id,omitempty"`
	Archived           bool       `json:"archived"`
	RecurrenceFreq     string     `json:"recurrence_freq,omitempty"`
	RecurrenceInterval int        `json:"recurrence_interval"`
	RecurrenceSeriesID string     `json:"recurrence_series_id,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty"`
	IsOverdue          bool       `json:"is_overdue"`
}

func FromTask(t *task.Task) TaskResponse {
	seriesID := ""
	if t.RecurrenceSeriesID != nil {
		seriesID = t.RecurrenceSeriesID.String()
	}
	return TaskResponse{
		ID:                 t.ID,
		Title:              t.Title,
		Description:        t.Description,
		Priority:           string(t.Priority),
		Status:             string(t.Status),
		Deadline:           t.Deadline,
		ProjectID:          t.ProjectID,
		AssignedTo:         t.AssignedTo,
		Tags:               t.Tags,
		ParentID:           t.ParentID,
		Archived:           t.Archived,
		RecurrenceFreq:     string(t.RecurrenceFreq),
		RecurrenceInterval: t.RecurrenceInterval,
		RecurrenceSeriesID: seriesID,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
		IsOverdue: t.Deadline != nil &&
			t.Status != task.StatusCompleted &&
			t.Status != task.StatusCancelled &&
			t.Deadline.Before(time.Now()),
	}
}

func FromTaskList(tasks []*task.Task) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t)
	}
	return result
}

type UserResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Department string `json:"department"`
	Division   string `json:"division"`
}

func FromUserList(users []*user.User) []UserResponse {
	result := make([]UserResponse, len(users))
	for i, u := range users {
		result[i] = UserResponse{
			ID:         u.ID,
			Name:       u.Name,
			Role:       string(u.Role),
			Department: u.Department,
			Division:   u.Division,
		}
	}
	return result
}
