// Package schedule разворачивает шаблон расписания в упорядоченную
// последовательность календарных занятий. Пакет чистый: никакого I/O,
// текущая дата всегда передаётся вызывающим.
package schedule

import (
	"time"

	"github.com/fitmostly/gym_backend/internal/model"
)

const (
	// MaxOccurrences — жёсткий потолок на количество занятий одной
	// генерации. Достигнув его, скан детерминированно обрезается на
	// последнем полностью просмотренном дне.
	MaxOccurrences = 500

	// DefaultHorizonMonths — горизонт генерации для recurring-шаблонов
	// без даты окончания
	DefaultHorizonMonths = 3
)

// Occurrence — одно ещё не сохранённое занятие, результат разворачивания
type Occurrence struct {
	Date            time.Time
	Start           time.Time
	End             time.Time
	PriceShareCents int64
}

// Expand разворачивает шаблон в занятия по состоянию на переданную дату.
// Одиночный шаблон даёт ровно одно занятие на StartDate. Recurring —
// скан дней от max(today, startDate) до endDate, либо до startDate +
// DefaultHorizonMonths, когда дата окончания не задана. Результат
// упорядочен по возрастанию даты и времени и полностью детерминирован.
//
// Все даты скана приводятся к локации StartDate: today может прийти в
// локальной зоне сервера, и без приведения занятия одной генерации
// получили бы разные абсолютные моменты.
//
// Пустой результат для recurring-шаблона — это ошибка конфигурации
// (model.ErrInvalidRecurrence), а не пустое расписание.
func Expand(tmpl *model.ScheduleTemplate, today time.Time) ([]Occurrence, error) {
	start := model.DateOf(tmpl.StartDate)
	today = model.DateOf(today.In(start.Location()))

	if !tmpl.Recurrence.IsRecurring() {
		occs := []Occurrence{occurrenceOn(tmpl, start)}
		distributePrice(tmpl.PriceCents, occs)
		return occs, nil
	}

	end := start.AddDate(0, DefaultHorizonMonths, 0)
	if until := tmpl.Recurrence.EndDate(); until != nil {
		end = model.DateOf(*until)
	}

	from := start
	if today.After(start) {
		from = today
	}

	var occs []Occurrence

	// Правило первого занятия: если день недели StartDate входит в
	// выбранные дни, первое занятие обязано попасть ровно на StartDate,
	// даже когда общий скан начинается позже.
	if from.After(start) && tmpl.Recurrence.OnDay(start.Weekday()) {
		occs = append(occs, occurrenceOn(tmpl, start))
	}

	for day := from; !day.After(end); day = day.AddDate(0, 0, 1) {
		if len(occs) >= MaxOccurrences {
			break
		}
		if tmpl.Recurrence.OnDay(day.Weekday()) {
			occs = append(occs, occurrenceOn(tmpl, day))
		}
	}

	if len(occs) == 0 {
		return nil, model.ErrInvalidRecurrence
	}

	distributePrice(tmpl.PriceCents, occs)
	return occs, nil
}

// ExpandWindow разворачивает recurring-шаблон в произвольном окне дат
// [from, to]. Используется фоновой дозагрузкой горизонта: правило первого
// занятия и проверка на пустоту здесь не действуют, пустое окно — это
// нормальный результат, а не ошибка.
func ExpandWindow(tmpl *model.ScheduleTemplate, from, to time.Time) []Occurrence {
	if !tmpl.Recurrence.IsRecurring() {
		return nil
	}

	start := model.DateOf(tmpl.StartDate)
	from = model.DateOf(from.In(start.Location()))
	to = model.DateOf(to.In(start.Location()))

	if from.Before(start) {
		from = start
	}
	if until := tmpl.Recurrence.EndDate(); until != nil && to.After(*until) {
		to = model.DateOf(*until)
	}

	var occs []Occurrence
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if len(occs) >= MaxOccurrences {
			break
		}
		if tmpl.Recurrence.OnDay(day.Weekday()) {
			occs = append(occs, occurrenceOn(tmpl, day))
		}
	}

	distributePrice(tmpl.PriceCents, occs)
	return occs
}

func occurrenceOn(tmpl *model.ScheduleTemplate, date time.Time) Occurrence {
	start := tmpl.StartsAtOn(date)
	return Occurrence{
		Date:  date,
		Start: start,
		End:   start.Add(time.Duration(tmpl.DurationMinutes) * time.Minute),
	}
}

// distributePrice делит цену пакета поровну между занятиями.
// Остаток от целочисленного деления не компенсируется: потеря не
// превышает count-1 минимальных денежных единиц.
func distributePrice(totalCents int64, occs []Occurrence) {
	if totalCents <= 0 || len(occs) == 0 {
		return
	}
	share := totalCents / int64(len(occs))
	for i := range occs {
		occs[i].PriceShareCents = share
	}
}
