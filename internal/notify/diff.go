package notify

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"taskhub/internal/models/task"
)

// FieldChange - одна строка человекочитаемого диффа
type FieldChange struct {
	Field  string `json:"field"`
	Label  string `json:"label"`
	Before string `json:"before"`
	After  string `json:"after"`
}

const descriptionLimit = 120

// trackedField: canon - каноничная форма для сравнения на равенство,
// display - более свободная форма для показа человеку
type trackedField struct {
	name    string
	label   string
	canon   func(t *task.Task) string
	display func(t *task.Task) string
}

var trackedFields = []trackedField{
	{
		name:    "title",
		label:   "Название",
		canon:   func(t *task.Task) string { return strings.TrimSpace(t.Title) },
		display: func(t *task.Task) string { return emptyAsNone(strings.TrimSpace(t.Title)) },
	},
	{
		name:    "description",
		label:   "Описание",
		canon:   func(t *task.Task) string { return strings.TrimSpace(t.Description) },
		display: func(t *task.Task) string { return emptyAsNone(truncate(strings.TrimSpace(t.Description))) },
	},
	{
		name:    "priority",
		label:   "Приоритет",
		canon:   func(t *task.Task) string { return strings.ToLower(string(t.Priority)) },
		display: func(t *task.Task) string { return emptyAsNone(strings.ToLower(string(t.Priority))) },
	},
	{
		name:    "status",
		label:   "Статус",
		canon:   func(t *task.Task) string { return strings.ToLower(string(t.Status)) },
		display: func(t *task.Task) string { return emptyAsNone(strings.ToLower(string(t.Status))) },
	},
	{
		name:    "deadline",
		label:   "Дедлайн",
		canon:   func(t *task.Task) string { return isoDate(t.Deadline) },
		display: func(t *task.Task) string { return emptyAsNone(isoDate(t.Deadline)) },
	},
	{
		name:    "project_id",
		label:   "Проект",
		canon:   func(t *task.Task) string { return idOrEmpty(t.ProjectID) },
		display: func(t *task.Task) string { return emptyAsNone(idOrEmpty(t.ProjectID)) },
	},
	{
		name:  "archived",
		label: "Архив",
		canon: func(t *task.Task) string { return strconv.FormatBool(t.Archived) },
		display: func(t *task.Task) string {
			if t.Archived {
				return "Archived"
			}
			return "Active"
		},
	},
	{
		name:    "tags",
		label:   "Теги",
		canon:   func(t *task.Task) string { return sortedTags(t.Tags) },
		display: func(t *task.Task) string { return emptyAsNone(strings.Join(t.Tags, ", ")) },
	},
}

// Diff сравнивает два снимка задачи по allow-list отслеживаемых полей.
// fields - какие поля трогал патч; nil означает "все отслеживаемые".
// В результат попадают только поля с различающейся каноничной формой.
func Diff(before, after *task.Task, fields []string) []FieldChange {
	requested := map[string]bool{}
	for _, f := range fields {
		requested[f] = true
	}

	changes := []FieldChange{}
	for _, tf := range trackedFields {
		if fields != nil && !requested[tf.name] {
			continue
		}
		if tf.canon(before) == tf.canon(after) {
			continue
		}
		changes = append(changes, FieldChange{
			Field:  tf.name,
			Label:  tf.label,
			Before: tf.display(before),
			After:  tf.display(after),
		})
	}
	return changes
}

// TrackedFieldNames - имена полей allow-list в порядке объявления
func TrackedFieldNames() []string {
	names := make([]string, len(trackedFields))
	for i, tf := range trackedFields {
		names[i] = tf.name
	}
	return names
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= descriptionLimit {
		return s
	}
	return string(runes[:descriptionLimit]) + "..."
}

func emptyAsNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}

func isoDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func idOrEmpty(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}

func sortedTags(tags []string) string {
	sorted := make([]string, len(tags))
	copy(sorted, tags)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}
