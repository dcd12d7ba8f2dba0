package render

import (
	"bytes"
	"image/png"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitmostly/gym_backend/internal/model"
)

func testInstance(day time.Time, hour int, status model.InstanceStatus) *model.ClassInstance {
	start := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, time.UTC)
	return &model.ClassInstance{
		TemplateID:     1,
		Date:           day,
		StartsAt:       start,
		EndsAt:         start.Add(90 * time.Minute),
		Capacity:       16,
		RegisteredIDs:  []int64{10, 11, 12},
		Status:         status,
		Name:           "BJJ Fundamentals",
		InstructorName: "Анна Смирнова",
	}
}

func TestWeekImage(t *testing.T) {
	monday := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	instances := []*model.ClassInstance{
		testInstance(monday, 18, model.InstanceStatusScheduled),
		testInstance(monday.AddDate(0, 0, 2), 18, model.InstanceStatusOngoing),
		testInstance(monday.AddDate(0, 0, 4), 9, model.InstanceStatusCompleted),
		testInstance(monday.AddDate(0, 0, 5), 12, model.InstanceStatusCancelled),
	}

	data, err := WeekImage(monday, instances, monday.AddDate(0, 0, 2))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err, "результат должен быть валидным PNG")

	bounds := img.Bounds()
	assert.Equal(t, ImageWidth, bounds.Dx())
	assert.Equal(t, ImageHeight, bounds.Dy())
}

func TestWeekImage_EmptyWeek(t *testing.T) {
	weekOf := time.Date(2024, time.February, 14, 12, 30, 0, 0, time.UTC)

	data, err := WeekImage(weekOf, nil, weekOf)
	require.NoError(t, err)

	_, err = png.Decode(bytes.NewReader(data))
	assert.NoError(t, err)
}

func TestTruncate_KeepsValidUTF8(t *testing.T) {
	name := "Бразильское джиу-джитсу для начинающих"

	short := truncate(name, 18)
	assert.True(t, utf8.ValidString(short), "обрезка не должна резать руну пополам")
	assert.Equal(t, "Бразильское джи...", short)

	assert.Equal(t, "Йога", truncate("Йога", 18))
}

func TestWeekImage_MidWeekDateNormalizes(t *testing.T) {
	// Среда и понедельник той же недели дают одну и ту же сетку
	monday := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	wednesday := monday.AddDate(0, 0, 2)
	instances := []*model.ClassInstance{testInstance(monday, 18, model.InstanceStatusScheduled)}

	fromMonday, err := WeekImage(monday, instances, monday)
	require.NoError(t, err)
	fromWednesday, err := WeekImage(wednesday, instances, monday)
	require.NoError(t, err)

	assert.Equal(t, fromMonday, fromWednesday)
}
