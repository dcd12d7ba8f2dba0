package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitmostly/gym_backend/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustWeekly(t *testing.T, days []time.Weekday, endDate *time.Time) model.Recurrence {
	t.Helper()
	recurrence, err := model.WeeklyRecurrence(days, endDate)
	require.NoError(t, err)
	return recurrence
}

func weeklyTemplate(t *testing.T, days []time.Weekday, endDate *time.Time) *model.ScheduleTemplate {
	t.Helper()
	return &model.ScheduleTemplate{
		Name:            "BJJ Fundamentals",
		InstructorID:    1,
		Capacity:        16,
		DurationMinutes: 60,
		StartDate:       date(2024, time.January, 1), // понедельник
		StartHour:       18,
		StartMinute:     0,
		Recurrence:      mustWeekly(t, days, endDate),
	}
}

func TestExpand_RecurringMondayWednesday(t *testing.T) {
	end := date(2024, time.January, 15)
	tmpl := weeklyTemplate(t, []time.Weekday{time.Monday, time.Wednesday}, &end)

	occs, err := Expand(tmpl, date(2024, time.January, 1))
	require.NoError(t, err)

	wantDates := []time.Time{
		date(2024, time.January, 1),
		date(2024, time.January, 3),
		date(2024, time.January, 8),
		date(2024, time.January, 10),
		date(2024, time.January, 15),
	}

	require.Len(t, occs, len(wantDates))
	for i, occ := range occs {
		assert.Equal(t, wantDates[i], occ.Date)
		assert.Equal(t, 18, occ.Start.Hour())
		assert.Equal(t, 19, occ.End.Hour(), "каждое занятие длится час")
		assert.Equal(t, occ.Date.Day(), occ.End.Day(), "занятие не пересекает полночь")
	}
}

func TestExpand_Single(t *testing.T) {
	tmpl := &model.ScheduleTemplate{
		Name:            "Open Mat",
		InstructorID:    1,
		Capacity:        20,
		DurationMinutes: 90,
		StartDate:       date(2024, time.February, 10),
		StartHour:       9,
		StartMinute:     30,
		Recurrence:      model.SingleRecurrence(),
	}

	occs, err := Expand(tmpl, date(2024, time.January, 1))
	require.NoError(t, err)
	require.Len(t, occs, 1)

	assert.Equal(t, date(2024, time.February, 10), occs[0].Date)
	assert.Equal(t, time.Date(2024, time.February, 10, 9, 30, 0, 0, time.UTC), occs[0].Start)
	assert.Equal(t, time.Date(2024, time.February, 10, 11, 0, 0, 0, time.UTC), occs[0].End)
}

func TestExpand_NoMatchingDays(t *testing.T) {
	end := date(2024, time.January, 5)
	tmpl := weeklyTemplate(t, []time.Weekday{time.Saturday}, &end)

	occs, err := Expand(tmpl, date(2024, time.January, 1))
	assert.ErrorIs(t, err, model.ErrInvalidRecurrence)
	assert.Nil(t, occs)
}

func TestExpand_Deterministic(t *testing.T) {
	end := date(2024, time.March, 1)
	tmpl := weeklyTemplate(t, []time.Weekday{time.Monday, time.Thursday, time.Saturday}, &end)
	today := date(2024, time.January, 10)

	first, err := Expand(tmpl, today)
	require.NoError(t, err)
	second, err := Expand(tmpl, today)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestExpand_FirstOccurrenceOnStartDate(t *testing.T) {
	// Сегодня уже после даты начала, но её день недели входит в
	// выбранные: первое занятие обязано попасть ровно на дату начала
	end := date(2024, time.February, 1)
	tmpl := weeklyTemplate(t, []time.Weekday{time.Monday}, &end)

	occs, err := Expand(tmpl, date(2024, time.January, 9))
	require.NoError(t, err)
	require.NotEmpty(t, occs)

	assert.Equal(t, date(2024, time.January, 1), occs[0].Date)
	assert.Equal(t, date(2024, time.January, 15), occs[1].Date, "общий скан начинается с сегодня")
}

func TestExpand_NonUTCTodayKeepsOneLocation(t *testing.T) {
	// today приходит в локальной зоне сервера, но вся генерация обязана
	// жить в зоне StartDate: иначе первое занятие и остальной скан
	// получают разные абсолютные моменты
	end := date(2024, time.February, 1)
	tmpl := weeklyTemplate(t, []time.Weekday{time.Monday}, &end)

	msk := time.FixedZone("MSK", 3*60*60)
	occs, err := Expand(tmpl, time.Date(2024, time.January, 9, 12, 0, 0, 0, msk))
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(occs), 2)

	assert.Equal(t, date(2024, time.January, 1), occs[0].Date)
	for _, occ := range occs {
		assert.Equal(t, time.UTC, occ.Start.Location())
	}
	// Понедельники отстоят друг от друга на целое число недель
	assert.Equal(t, 14*24*time.Hour, occs[1].Start.Sub(occs[0].Start))
}

func TestExpandWindow_NonUTCWindowKeepsOneLocation(t *testing.T) {
	tmpl := weeklyTemplate(t, []time.Weekday{time.Monday}, nil)

	msk := time.FixedZone("MSK", 3*60*60)
	occs := ExpandWindow(tmpl,
		time.Date(2024, time.April, 2, 12, 0, 0, 0, msk),
		time.Date(2024, time.April, 15, 12, 0, 0, 0, msk),
	)

	require.Len(t, occs, 2)
	assert.Equal(t, date(2024, time.April, 8), occs[0].Date)
	assert.Equal(t, date(2024, time.April, 15), occs[1].Date)
	for _, occ := range occs {
		assert.Equal(t, time.UTC, occ.Start.Location())
	}
}

func TestExpand_DayFilterAndBounds(t *testing.T) {
	end := date(2024, time.March, 20)
	days := []time.Weekday{time.Tuesday, time.Friday}
	tmpl := weeklyTemplate(t, days, &end)

	occs, err := Expand(tmpl, date(2024, time.January, 1))
	require.NoError(t, err)

	allowed := map[time.Weekday]bool{time.Tuesday: true, time.Friday: true}
	for i, occ := range occs {
		assert.True(t, allowed[occ.Date.Weekday()], "день %s вне выбранных", occ.Date)
		assert.False(t, occ.Date.Before(tmpl.StartDate))
		assert.False(t, occ.Date.After(end))
		if i > 0 {
			assert.True(t, occs[i-1].Start.Before(occ.Start), "порядок строго возрастающий")
		}
	}
}

func TestExpand_DefaultHorizonWithoutEndDate(t *testing.T) {
	tmpl := weeklyTemplate(t, []time.Weekday{time.Monday}, nil)

	occs, err := Expand(tmpl, date(2024, time.January, 1))
	require.NoError(t, err)

	// Понедельники с 2024-01-01 по 2024-04-01 включительно
	require.Len(t, occs, 14)
	horizon := date(2024, time.April, 1)
	for _, occ := range occs {
		assert.False(t, occ.Date.After(horizon))
	}
}

func TestExpand_CappedDeterministically(t *testing.T) {
	end := date(2026, time.January, 1)
	all := []time.Weekday{
		time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
		time.Thursday, time.Friday, time.Saturday,
	}
	tmpl := weeklyTemplate(t, all, &end)

	occs, err := Expand(tmpl, date(2024, time.January, 1))
	require.NoError(t, err)

	require.Len(t, occs, MaxOccurrences)
	// Обрезка по дням: занятия идут подряд без дыр от начала
	assert.Equal(t, date(2024, time.January, 1), occs[0].Date)
	assert.Equal(t, date(2024, time.January, 1).AddDate(0, 0, MaxOccurrences-1), occs[len(occs)-1].Date)
}

func TestExpand_PriceSplit(t *testing.T) {
	// 7 понедельников, цена пакета 120.00
	end := date(2024, time.February, 12)
	tmpl := weeklyTemplate(t, []time.Weekday{time.Monday}, &end)
	tmpl.PriceCents = 120_00

	occs, err := Expand(tmpl, date(2024, time.January, 1))
	require.NoError(t, err)
	require.Len(t, occs, 7)

	var total int64
	for _, occ := range occs {
		assert.Equal(t, int64(120_00/7), occ.PriceShareCents)
		total += occ.PriceShareCents
	}

	// Потеря на округлении не превышает count-1 минимальных единиц
	loss := tmpl.PriceCents - total
	assert.GreaterOrEqual(t, loss, int64(0))
	assert.LessOrEqual(t, loss, int64(len(occs)-1))
}

func TestExpand_SinglePriceIsWholePackage(t *testing.T) {
	tmpl := &model.ScheduleTemplate{
		Name:            "Seminar",
		InstructorID:    1,
		Capacity:        30,
		DurationMinutes: 120,
		StartDate:       date(2024, time.May, 4),
		StartHour:       12,
		StartMinute:     0,
		Recurrence:      model.SingleRecurrence(),
		PriceCents:      45_00,
	}

	occs, err := Expand(tmpl, date(2024, time.May, 1))
	require.NoError(t, err)
	require.Len(t, occs, 1)
	assert.Equal(t, int64(45_00), occs[0].PriceShareCents)
}

func TestExpandWindow(t *testing.T) {
	tmpl := weeklyTemplate(t, []time.Weekday{time.Monday, time.Thursday}, nil)

	occs := ExpandWindow(tmpl, date(2024, time.April, 2), date(2024, time.April, 15))
	require.NotEmpty(t, occs)

	wantDates := []time.Time{
		date(2024, time.April, 4),
		date(2024, time.April, 8),
		date(2024, time.April, 11),
		date(2024, time.April, 15),
	}
	require.Len(t, occs, len(wantDates))
	for i, occ := range occs {
		assert.Equal(t, wantDates[i], occ.Date)
	}
}

func TestExpandWindow_SingleYieldsNothing(t *testing.T) {
	tmpl := &model.ScheduleTemplate{
		Name:            "Seminar",
		InstructorID:    1,
		Capacity:        30,
		DurationMinutes: 60,
		StartDate:       date(2024, time.May, 4),
		StartHour:       12,
		Recurrence:      model.SingleRecurrence(),
	}

	assert.Empty(t, ExpandWindow(tmpl, date(2024, time.May, 1), date(2024, time.June, 1)))
}
