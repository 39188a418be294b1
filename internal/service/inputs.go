package service

// Входные структуры движка мутаций. Поля-срезы []any принимают
// распакованный JSON как есть - нормализация происходит внутри движка,
// дальше него сырые типы не проходят.

type CreateTaskInput struct {
	Title              string
	Description        string
	Priority           string
	Status             string
	Deadline           string
	ProjectID          *int64
	AssignedTo         []any
	Tags               []any
	ParentID           *int64
	RecurrenceFreq     string
	RecurrenceInterval int
}

// UpdateTaskInput - частичное обновление, nil-поле означает
// "поле в запросе отсутствовало"
type UpdateTaskInput struct {
	Title              *string
	Description        *string
	Priority           *string
	Status             *string
	Deadline           *string
	ProjectID          *int64
	AssignedTo         *[]any
	Tags               *[]any
	Archived           *bool
	RecurrenceFreq     *string
	RecurrenceInterval *int
}
