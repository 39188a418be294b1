package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"taskhub/internal/models/task"
)

// Пакет normalize - граница нормализации входных данных.
// Всё, что пришло извне (распакованный JSON с любыми типами),
// проходит через эти функции до попадания в движок.

// Assignees приводит свободный список значений к каноничному набору id:
// положительные целые, без дублей, порядок первого вхождения сохраняется.
// float64 и string - то, что выдаёт encoding/json для чисел и строк,
// nil и прочий мусор отбрасываются. Функция идемпотентна.
func Assignees(values []any) []int64 {
	result := []int64{}
	seen := map[int64]struct{}{}

	for _, v := range values {
		id, ok := toID(v)
		if !ok || id <= 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

func toID(v any) (int64, bool) {
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) || val != math.Trunc(val) {
			return 0, false
		}
		return int64(val), true
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return 0, false
		}
		id, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return 0, false
		}
		return id, true
	default:
		return 0, false
	}
}

// Tags - дедупликация с обрезкой пробелов, пустые строки отбрасываются
func Tags(values []any) []string {
	result := []string{}
	seen := map[string]struct{}{}

	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		result = append(result, s)
	}
	return result
}

// Priority приводит приоритет к нижнему регистру,
// неизвестное значение превращается в medium
func Priority(s string) task.Priority {
	switch task.Priority(strings.ToLower(strings.TrimSpace(s))) {
	case task.PriorityLow:
		return task.PriorityLow
	case task.PriorityHigh:
		return task.PriorityHigh
	case task.PriorityUrgent:
		return task.PriorityUrgent
	default:
		return task.PriorityMedium
	}
}

// Status валидирует статус по перечислению,
// нераспознанное значение превращается в pending
func Status(s string) task.Status {
	switch task.Status(strings.ToLower(strings.TrimSpace(s))) {
	case task.StatusInProgress:
		return task.StatusInProgress
	case task.StatusCompleted:
		return task.StatusCompleted
	case task.StatusBlocked:
		return task.StatusBlocked
	case task.StatusCancelled:
		return task.StatusCancelled
	default:
		return task.StatusPending
	}
}

// Frequency валидирует периодичность повторения.
// Пустая строка и "none" - валидное отсутствие повторения.
func Frequency(s string) (task.Frequency, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return task.FreqNone, true
	case "daily":
		return task.FreqDaily, true
	case "weekly":
		return task.FreqWeekly, true
	case "monthly":
		return task.FreqMonthly, true
	default:
		return task.FreqNone, false
	}
}

// Title обрезает пробелы, пустая строка после обрезки остаётся пустой
func Title(s string) string {
	return strings.TrimSpace(s)
}

// Text - нормализация произвольного текстового поля
func Text(s string) string {
	return strings.TrimSpace(s)
}

// Date разбирает календарную дату: "2006-01-02" либо RFC3339.
// Неразборчивое значение превращается в nil, не в ошибку.
func Date(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t
	}
	return nil
}
