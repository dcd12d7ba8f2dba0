package model

import (
	"time"
)

// Форматы дат и времени входного запроса
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// TemplateInput — входной запрос на создание/обновление шаблона.
// Поля специально строковые: парсинг и проверка формата происходят
// здесь, до сборки доменной модели.
type TemplateInput struct {
	Name              string `json:"name"`
	ClassTypeID       int64  `json:"class_type_id"`
	ClassType         string `json:"class_type"`
	InstructorID      int64  `json:"instructor_id"`
	Capacity          int    `json:"capacity"`
	DurationMinutes   int    `json:"duration_minutes"`
	StartDate         string `json:"start_date"` // YYYY-MM-DD
	StartTime         string `json:"start_time"` // HH:MM
	ScheduleType      string `json:"schedule_type"`
	DaysOfWeek        []int  `json:"days_of_week,omitempty"`
	RecurrenceEndDate string `json:"recurrence_end_date,omitempty"`
	Location          string `json:"location,omitempty"`
	Notes             string `json:"notes,omitempty"`
	PriceCents        int64  `json:"price_cents,omitempty"`
	CreatedBy         int64  `json:"-"`
}

// Template собирает и валидирует доменный шаблон из входного запроса
func (in TemplateInput) Template() (*ScheduleTemplate, error) {
	startDate, err := time.Parse(DateLayout, in.StartDate)
	if err != nil {
		return nil, &ValidationError{Field: "start_date", Reason: "expected format YYYY-MM-DD"}
	}

	startTime, err := time.Parse(TimeLayout, in.StartTime)
	if err != nil {
		return nil, &ValidationError{Field: "start_time", Reason: "expected format HH:MM"}
	}

	recurrence, err := in.recurrence(startDate)
	if err != nil {
		return nil, err
	}

	tmpl := &ScheduleTemplate{
		Name:            in.Name,
		ClassTypeID:     in.ClassTypeID,
		ClassType:       in.ClassType,
		InstructorID:    in.InstructorID,
		Capacity:        in.Capacity,
		DurationMinutes: in.DurationMinutes,
		StartDate:       startDate,
		StartHour:       startTime.Hour(),
		StartMinute:     startTime.Minute(),
		Recurrence:      recurrence,
		Location:        in.Location,
		Notes:           in.Notes,
		PriceCents:      in.PriceCents,
		Active:          true,
		CreatedBy:       in.CreatedBy,
	}

	if err := tmpl.Validate(); err != nil {
		return nil, err
	}

	return tmpl, nil
}

func (in TemplateInput) recurrence(startDate time.Time) (Recurrence, error) {
	switch ScheduleType(in.ScheduleType) {
	case ScheduleTypeSingle:
		return SingleRecurrence(), nil

	case ScheduleTypeRecurring:
		days := make([]time.Weekday, 0, len(in.DaysOfWeek))
		for _, d := range in.DaysOfWeek {
			days = append(days, time.Weekday(d))
		}

		var endDate *time.Time
		if in.RecurrenceEndDate != "" {
			parsed, err := time.Parse(DateLayout, in.RecurrenceEndDate)
			if err != nil {
				return Recurrence{}, &ValidationError{Field: "recurrence_end_date", Reason: "expected format YYYY-MM-DD"}
			}
			endDate = &parsed
		}

		return WeeklyRecurrence(days, endDate)

	default:
		return Recurrence{}, &ValidationError{Field: "schedule_type", Reason: `must be "single" or "recurring"`}
	}
}
