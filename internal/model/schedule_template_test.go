package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeeklyRecurrence_RequiresDays(t *testing.T) {
	_, err := WeeklyRecurrence(nil, nil)
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "days_of_week", vErr.Field)
}

func TestWeeklyRecurrence_RejectsBadWeekday(t *testing.T) {
	_, err := WeeklyRecurrence([]time.Weekday{time.Monday, time.Weekday(7)}, nil)
	require.Error(t, err)
}

func TestWeeklyRecurrence_NormalizesDays(t *testing.T) {
	recurrence, err := WeeklyRecurrence([]time.Weekday{time.Friday, time.Monday, time.Friday}, nil)
	require.NoError(t, err)

	assert.Equal(t, []time.Weekday{time.Monday, time.Friday}, recurrence.Days())
	assert.True(t, recurrence.OnDay(time.Monday))
	assert.False(t, recurrence.OnDay(time.Tuesday))
}

func TestRecurrence_Equal(t *testing.T) {
	end := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	a, err := WeeklyRecurrence([]time.Weekday{time.Monday, time.Friday}, &end)
	require.NoError(t, err)
	b, err := WeeklyRecurrence([]time.Weekday{time.Friday, time.Monday}, &end)
	require.NoError(t, err)
	c, err := WeeklyRecurrence([]time.Weekday{time.Monday}, &end)
	require.NoError(t, err)

	assert.True(t, a.Equal(b), "порядок дней не влияет")
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(SingleRecurrence()))
}

func validInput() TemplateInput {
	return TemplateInput{
		Name:            "BJJ Fundamentals",
		ClassTypeID:     3,
		ClassType:       "Brazilian Jiu-Jitsu",
		InstructorID:    1,
		Capacity:        16,
		DurationMinutes: 60,
		StartDate:       "2024-01-01",
		StartTime:       "18:00",
		ScheduleType:    "recurring",
		DaysOfWeek:      []int{1, 3},
		Location:        "Mat Room A",
		PriceCents:      120_00,
	}
}

func TestTemplateInput_Valid(t *testing.T) {
	tmpl, err := validInput().Template()
	require.NoError(t, err)

	assert.Equal(t, 18, tmpl.StartHour)
	assert.Equal(t, 0, tmpl.StartMinute)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), tmpl.StartDate)
	assert.Equal(t, ScheduleTypeRecurring, tmpl.Recurrence.Type())
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday}, tmpl.Recurrence.Days())
	assert.Nil(t, tmpl.Recurrence.EndDate())
	assert.True(t, tmpl.Active)
}

func TestTemplateInput_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*TemplateInput)
		wantField string
	}{
		{
			name:      "bad date format",
			mutate:    func(in *TemplateInput) { in.StartDate = "01.01.2024" },
			wantField: "start_date",
		},
		{
			name:      "bad time format",
			mutate:    func(in *TemplateInput) { in.StartTime = "6pm" },
			wantField: "start_time",
		},
		{
			name:      "unknown schedule type",
			mutate:    func(in *TemplateInput) { in.ScheduleType = "weekly" },
			wantField: "schedule_type",
		},
		{
			name:      "recurring without days",
			mutate:    func(in *TemplateInput) { in.DaysOfWeek = nil },
			wantField: "days_of_week",
		},
		{
			name:      "weekday out of range",
			mutate:    func(in *TemplateInput) { in.DaysOfWeek = []int{1, 9} },
			wantField: "days_of_week",
		},
		{
			name:      "end date before start",
			mutate:    func(in *TemplateInput) { in.RecurrenceEndDate = "2023-12-01" },
			wantField: "recurrence_end_date",
		},
		{
			name:      "end date equals start",
			mutate:    func(in *TemplateInput) { in.RecurrenceEndDate = "2024-01-01" },
			wantField: "recurrence_end_date",
		},
		{
			name:      "duration too short",
			mutate:    func(in *TemplateInput) { in.DurationMinutes = 10 },
			wantField: "duration_minutes",
		},
		{
			name:      "duration too long",
			mutate:    func(in *TemplateInput) { in.DurationMinutes = 300 },
			wantField: "duration_minutes",
		},
		{
			name: "session crosses midnight",
			mutate: func(in *TemplateInput) {
				in.StartTime = "23:30"
				in.DurationMinutes = 60
			},
			wantField: "duration_minutes",
		},
		{
			name:      "zero capacity",
			mutate:    func(in *TemplateInput) { in.Capacity = 0 },
			wantField: "capacity",
		},
		{
			name:      "empty name",
			mutate:    func(in *TemplateInput) { in.Name = "" },
			wantField: "name",
		},
		{
			name:      "negative price",
			mutate:    func(in *TemplateInput) { in.PriceCents = -1 },
			wantField: "price_cents",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			tc.mutate(&input)

			_, err := input.Template()
			require.Error(t, err)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tc.wantField, vErr.Field)
		})
	}
}

func TestTemplateInput_SingleIgnoresRecurringFields(t *testing.T) {
	input := validInput()
	input.ScheduleType = "single"
	input.DaysOfWeek = nil
	input.RecurrenceEndDate = ""

	tmpl, err := input.Template()
	require.NoError(t, err)

	assert.Equal(t, ScheduleTypeSingle, tmpl.Recurrence.Type())
	assert.False(t, tmpl.Recurrence.IsRecurring())
	assert.Empty(t, tmpl.Recurrence.Days())
	assert.Nil(t, tmpl.Recurrence.EndDate())
}
