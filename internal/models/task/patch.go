package task

import (
	"time"

	"github.com/google/uuid"
)

// Patch - частичное обновление задачи: nil-поле означает "не трогать".
// Репозитории применяют его через Apply, диффы строятся по Fields.
type Patch struct {
	Title              *string
	Description        *string
	Priority           *Priority
	Status             *Status
	Deadline           *time.Time
	ProjectID          *int64
	AssignedTo         *[]int64
	Tags               *[]string
	Archived           *bool
	RecurrenceFreq     *Frequency
	RecurrenceInterval *int
	RecurrenceSeriesID *uuid.UUID
}

func (p *Patch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Deadline != nil {
		d := *p.Deadline
		t.Deadline = &d
	}
	if p.ProjectID != nil {
		id := *p.ProjectID
		t.ProjectID = &id
	}
	if p.AssignedTo != nil {
		t.AssignedTo = append([]int64(nil), (*p.AssignedTo)...)
	}
	if p.Tags != nil {
		t.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.Archived != nil {
		t.Archived = *p.Archived
	}
	if p.RecurrenceFreq != nil {
		t.RecurrenceFreq = *p.RecurrenceFreq
	}
	if p.RecurrenceInterval != nil {
		t.RecurrenceInterval = *p.RecurrenceInterval
	}
	if p.RecurrenceSeriesID != nil {
		s := *p.RecurrenceSeriesID
		t.RecurrenceSeriesID = &s
	}
}

// Fields возвращает имена заполненных полей патча
func (p *Patch) Fields() []string {
	fields := []string{}
	if p.Title != nil {
		fields = append(fields, "title")
	}
	if p.Description != nil {
		fields = append(fields, "description")
	}
	if p.Priority != nil {
		fields = append(fields, "priority")
	}
	if p.Status != nil {
		fields = append(fields, "status")
	}
	if p.Deadline != nil {
		fields = append(fields, "deadline")
	}
	if p.ProjectID != nil {
		fields = append(fields, "project_id")
	}
	if p.AssignedTo != nil {
		fields = append(fields, "assigned_to")
	}
	if p.Tags != nil {
		fields = append(fields, "tags")
	}
	if p.Archived != nil {
		fields = append(fields, "archived")
	}
	if p.RecurrenceFreq != nil {
		fields = append(fields, "recurrence_freq")
	}
	if p.RecurrenceInterval != nil {
		fields = append(fields, "recurrence_interval")
	}
	return fields
}

// Empty - патч не содержит ни одного поля
func (p *Patch) Empty() bool {
	return len(p.Fields()) == 0 && p.RecurrenceSeriesID == nil
}
