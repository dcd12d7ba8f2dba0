package model

import (
	"fmt"
	"sort"
	"time"
)

type ScheduleType string

const (
	ScheduleTypeSingle    ScheduleType = "single"
	ScheduleTypeRecurring ScheduleType = "recurring"
)

// Пределы длительности занятия в минутах
const (
	MinDurationMinutes = 15
	MaxDurationMinutes = 240
)

// Recurrence описывает вариант повторения шаблона.
// Поля закрыты намеренно: daysOfWeek и endDate можно получить только
// через конструктор WeeklyRecurrence, поэтому recurring-шаблон без дней
// недели не собирается в принципе.
type Recurrence struct {
	scheduleType ScheduleType
	daysOfWeek   []time.Weekday
	endDate      *time.Time
}

// SingleRecurrence создаёт вариант одиночного занятия
func SingleRecurrence() Recurrence {
	return Recurrence{scheduleType: ScheduleTypeSingle}
}

// WeeklyRecurrence создаёт еженедельный вариант.
// Дни недели нормализуются: сортировка, без дубликатов.
func WeeklyRecurrence(days []time.Weekday, endDate *time.Time) (Recurrence, error) {
	if len(days) == 0 {
		return Recurrence{}, &ValidationError{Field: "days_of_week", Reason: "must not be empty for recurring schedule"}
	}

	seen := make(map[time.Weekday]bool, len(days))
	normalized := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		if d < time.Sunday || d > time.Saturday {
			return Recurrence{}, &ValidationError{Field: "days_of_week", Reason: fmt.Sprintf("weekday %d out of range [0..6]", d)}
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		normalized = append(normalized, d)
	}
	sort.Slice(normalized, func(i, j int) bool { return normalized[i] < normalized[j] })

	var end *time.Time
	if endDate != nil {
		e := DateOf(*endDate)
		end = &e
	}

	return Recurrence{
		scheduleType: ScheduleTypeRecurring,
		daysOfWeek:   normalized,
		endDate:      end,
	}, nil
}

func (r Recurrence) Type() ScheduleType {
	return r.scheduleType
}

func (r Recurrence) IsRecurring() bool {
	return r.scheduleType == ScheduleTypeRecurring
}

// Days возвращает копию дней недели (отсортированы, без дубликатов)
func (r Recurrence) Days() []time.Weekday {
	out := make([]time.Weekday, len(r.daysOfWeek))
	copy(out, r.daysOfWeek)
	return out
}

// OnDay проверяет попадает ли день недели в вариант повторения
func (r Recurrence) OnDay(d time.Weekday) bool {
	for _, day := range r.daysOfWeek {
		if day == d {
			return true
		}
	}
	return false
}

func (r Recurrence) EndDate() *time.Time {
	if r.endDate == nil {
		return nil
	}
	e := *r.endDate
	return &e
}

// Equal сравнивает варианты повторения по типу, дням и дате окончания
func (r Recurrence) Equal(other Recurrence) bool {
	if r.scheduleType != other.scheduleType {
		return false
	}
	if len(r.daysOfWeek) != len(other.daysOfWeek) {
		return false
	}
	for i := range r.daysOfWeek {
		if r.daysOfWeek[i] != other.daysOfWeek[i] {
			return false
		}
	}
	if (r.endDate == nil) != (other.endDate == nil) {
		return false
	}
	if r.endDate != nil && !r.endDate.Equal(*other.endDate) {
		return false
	}
	return true
}

// ScheduleTemplate представляет многоразовое описание занятия,
// из которого разворачиваются конкретные ClassInstance
type ScheduleTemplate struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	ClassTypeID     int64      `json:"class_type_id"`
	ClassType       string     `json:"class_type"` // название дисциплины, копируется в инстансы
	InstructorID    int64      `json:"instructor_id"`
	Capacity        int        `json:"capacity"`
	DurationMinutes int        `json:"duration_minutes"`
	StartDate       time.Time  `json:"start_date"`   // только дата
	StartHour       int        `json:"start_hour"`   // 0-23
	StartMinute     int        `json:"start_minute"` // 0-59
	Recurrence      Recurrence `json:"-"`
	Location        string     `json:"location"`
	Notes           string     `json:"notes"`
	PriceCents      int64      `json:"price_cents"` // цена всего пакета в копейках/центах, 0 = без цены
	Active          bool       `json:"active"`
	Version         int64      `json:"version"` // оптимистичный счётчик, инкрементируется при каждой регенерации
	CreatedBy       int64      `json:"created_by"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Validate проверяет инварианты шаблона до любой генерации
func (t *ScheduleTemplate) Validate() error {
	if t.Name == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if t.InstructorID <= 0 {
		return &ValidationError{Field: "instructor_id", Reason: "must be set"}
	}
	if t.Capacity <= 0 {
		return &ValidationError{Field: "capacity", Reason: "must be positive"}
	}
	if t.DurationMinutes < MinDurationMinutes || t.DurationMinutes > MaxDurationMinutes {
		return &ValidationError{
			Field:  "duration_minutes",
			Reason: fmt.Sprintf("must be in [%d, %d]", MinDurationMinutes, MaxDurationMinutes),
		}
	}
	if t.StartDate.IsZero() {
		return &ValidationError{Field: "start_date", Reason: "must be set"}
	}
	if t.StartHour < 0 || t.StartHour > 23 {
		return &ValidationError{Field: "start_time", Reason: "hour out of range [0..23]"}
	}
	if t.StartMinute < 0 || t.StartMinute > 59 {
		return &ValidationError{Field: "start_time", Reason: "minute out of range [0..59]"}
	}
	if t.PriceCents < 0 {
		return &ValidationError{Field: "price_cents", Reason: "must not be negative"}
	}

	// Занятие через полночь не поддерживается
	if t.StartHour*60+t.StartMinute+t.DurationMinutes > 24*60 {
		return &ValidationError{Field: "duration_minutes", Reason: "session must not cross midnight"}
	}

	if end := t.Recurrence.EndDate(); end != nil {
		if !end.After(DateOf(t.StartDate)) {
			return &ValidationError{Field: "recurrence_end_date", Reason: "must be strictly after start_date"}
		}
	}

	return nil
}

// StartsAtOn возвращает момент начала занятия в указанный день
func (t *ScheduleTemplate) StartsAtOn(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.StartHour, t.StartMinute, 0, 0, date.Location())
}

// DateOf отбрасывает время, оставляя только календарную дату
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
