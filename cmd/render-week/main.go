// Утилита для ручной проверки отрисовки недельной сетки: собирает
// тестовый шаблон, разворачивает его в занятия и пишет PNG в файл.
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/fitmostly/gym_backend/internal/model"
	"github.com/fitmostly/gym_backend/internal/render"
	"github.com/fitmostly/gym_backend/internal/schedule"
)

func main() {
	out := flag.String("o", "week.png", "output PNG path")
	flag.Parse()

	today := model.DateOf(time.Now())

	recurrence, err := model.WeeklyRecurrence([]time.Weekday{time.Monday, time.Wednesday, time.Friday}, nil)
	if err != nil {
		log.Fatalf("build recurrence: %v", err)
	}

	tmpl := &model.ScheduleTemplate{
		ID:              1,
		Name:            "BJJ Fundamentals",
		ClassType:       "Brazilian Jiu-Jitsu",
		InstructorID:    1,
		Capacity:        16,
		DurationMinutes: 90,
		StartDate:       today,
		StartHour:       18,
		StartMinute:     30,
		Recurrence:      recurrence,
		Location:        "Mat Room A",
		PriceCents:      120_00,
	}

	occs, err := schedule.Expand(tmpl, today)
	if err != nil {
		log.Fatalf("expand template: %v", err)
	}

	generationID := uuid.New()
	instances := make([]*model.ClassInstance, 0, len(occs))
	for _, occ := range occs {
		instances = append(instances, &model.ClassInstance{
			TemplateID:      tmpl.ID,
			GenerationID:    generationID,
			Date:            occ.Date,
			StartsAt:        occ.Start,
			EndsAt:          occ.End,
			Capacity:        tmpl.Capacity,
			RegisteredIDs:   []int64{10, 11, 12},
			Status:          model.InstanceStatusScheduled,
			PriceShareCents: occ.PriceShareCents,
			Name:            tmpl.Name,
			ClassType:       tmpl.ClassType,
			InstructorName:  "Иван Петров",
			Location:        tmpl.Location,
		})
	}

	png, err := render.WeekImage(today, instances, today)
	if err != nil {
		log.Fatalf("render week image: %v", err)
	}

	if err := os.WriteFile(*out, png, 0o644); err != nil {
		log.Fatalf("write %s: %v", *out, err)
	}

	log.Printf("wrote %s (%d instances)", *out, len(instances))
}
