// Package render рисует недельную сетку занятий в PNG. Картинка — это
// служебный артефакт для администраторов и отладки, не пользовательский
// интерфейс.
package render

import (
	"bytes"
	"fmt"
	"image/color"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/fitmostly/gym_backend/internal/model"
)

// Размеры и отступы
const (
	ImageWidth  = 1400
	ImageHeight = 900

	headerHeight    = 90
	leftLabelsWidth = 80
	legendWidth     = 150
	dayPaddingX     = 8
	minBlockHeight  = 10.0
	blockRadius     = 6.0
	daysInWeek      = 7
	hourPadding     = 1
	defaultMinHour  = 7
	defaultMaxHour  = 22
)

// Цветовая схема
var (
	bgColor        = color.RGBA{245, 246, 248, 255}
	textColor      = color.RGBA{60, 65, 70, 255}
	hourLabelColor = color.RGBA{110, 115, 120, 255}
	hourLineColor  = color.NRGBA{150, 150, 150, 255}
	todayBgColor   = color.NRGBA{255, 236, 200, 255}
	evenDayColor   = color.NRGBA{240, 240, 240, 255}
	oddDayColor    = color.NRGBA{225, 225, 225, 255}

	scheduledColor = color.RGBA{133, 193, 85, 230}
	ongoingColor   = color.RGBA{255, 179, 71, 240}
	completedColor = color.RGBA{158, 158, 158, 210}
	cancelledColor = color.RGBA{220, 120, 120, 210}
	blockTextColor = color.RGBA{25, 28, 32, 255}
)

type weekBounds struct {
	start time.Time
	end   time.Time
}

type hourRange struct {
	start int
	end   int
	total int
}

// WeekImage рисует сетку занятий недели, в которую попадает weekOf.
// Дата today передаётся снаружи и используется только для подсветки
// текущего дня, поэтому результат детерминирован.
func WeekImage(weekOf time.Time, instances []*model.ClassInstance, today time.Time) ([]byte, error) {
	week := normalizeToWeekBounds(weekOf)
	today = model.DateOf(today)

	byDay := groupByDay(instances, week)
	hours := calculateHourRange(instances)

	dc := gg.NewContext(ImageWidth, ImageHeight)
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(bgColor)
	dc.Clear()

	dayWidth := (ImageWidth - leftLabelsWidth - legendWidth) / daysInWeek
	dayHeight := ImageHeight - headerHeight
	cellHeight := float64(dayHeight) / float64(hours.total)

	drawHeader(dc, week)
	drawHourLabels(dc, hours, cellHeight)
	drawDays(dc, week, today, byDay, hours, dayWidth, dayHeight, cellHeight)
	drawLegend(dc, dayWidth)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode week image: %w", err)
	}
	return buf.Bytes(), nil
}

// normalizeToWeekBounds возвращает границы недели Пн-Вс вокруг даты
func normalizeToWeekBounds(date time.Time) weekBounds {
	normalized := model.DateOf(date)

	daysSinceMonday := int(normalized.Weekday()) - 1
	if normalized.Weekday() == time.Sunday {
		daysSinceMonday = 6
	}

	start := normalized.AddDate(0, 0, -daysSinceMonday)
	return weekBounds{start: start, end: start.AddDate(0, 0, 6)}
}

func groupByDay(instances []*model.ClassInstance, week weekBounds) map[string][]*model.ClassInstance {
	byDay := make(map[string][]*model.ClassInstance)
	for _, inst := range instances {
		day := model.DateOf(inst.StartsAt)
		if day.Before(week.start) || day.After(week.end) {
			continue
		}
		key := day.Format("2006-01-02")
		byDay[key] = append(byDay[key], inst)
	}
	return byDay
}

func calculateHourRange(instances []*model.ClassInstance) hourRange {
	minHour := 24
	maxHour := -1

	for _, inst := range instances {
		startH := inst.StartsAt.Hour()
		endH := inst.EndsAt.Hour()
		if inst.EndsAt.Minute() > 0 {
			endH++
		}
		if startH < minHour {
			minHour = startH
		}
		if endH > maxHour {
			maxHour = endH
		}
	}

	if maxHour < 0 {
		minHour = defaultMinHour
		maxHour = defaultMaxHour
	}

	start := minHour - hourPadding
	end := maxHour + hourPadding
	if start < 0 {
		start = 0
	}
	if end > 23 {
		end = 23
	}

	return hourRange{start: start, end: end, total: end - start + 1}
}

func drawHeader(dc *gg.Context, week weekBounds) {
	title := week.start.Format("02.01.2006") + " — " + week.end.Format("02.01.2006")
	dc.SetColor(textColor)
	dc.DrawStringAnchored(title, float64(ImageWidth)/2, float64(headerHeight)/4, 0.5, 0.5)
}

func drawHourLabels(dc *gg.Context, hours hourRange, cellHeight float64) {
	dc.SetColor(hourLabelColor)
	for idx := 0; idx < hours.total; idx++ {
		label := fmt.Sprintf("%02d:00", hours.start+idx)
		y := float64(headerHeight) + float64(idx)*cellHeight
		dc.DrawStringAnchored(label, float64(leftLabelsWidth)-10, y, 1, 0.5)
	}
}

func drawDays(dc *gg.Context, week weekBounds, today time.Time, byDay map[string][]*model.ClassInstance,
	hours hourRange, dayWidth, dayHeight int, cellHeight float64) {

	day := week.start
	for dayIndex := 0; dayIndex < daysInWeek; dayIndex++ {
		x := float64(leftLabelsWidth + dayIndex*dayWidth)
		y := float64(headerHeight)

		drawDayBackground(dc, x, y, dayWidth, dayHeight, dayIndex, day.Equal(today))
		drawDayHeader(dc, day, x, y, dayWidth)
		drawHourLines(dc, x, y, dayWidth, hours, cellHeight)

		for _, inst := range byDay[day.Format("2006-01-02")] {
			drawInstance(dc, inst, x, y, dayWidth, hours, cellHeight)
		}

		day = day.AddDate(0, 0, 1)
	}
}

func drawDayBackground(dc *gg.Context, x, y float64, dayWidth, dayHeight, dayIndex int, isToday bool) {
	if isToday {
		dc.SetColor(todayBgColor)
	} else if dayIndex%2 == 0 {
		dc.SetColor(evenDayColor)
	} else {
		dc.SetColor(oddDayColor)
	}
	dc.DrawRectangle(x, y, float64(dayWidth), float64(dayHeight))
	dc.Fill()
}

func drawDayHeader(dc *gg.Context, date time.Time, x, y float64, dayWidth int) {
	dc.SetColor(textColor)
	dc.DrawStringAnchored(date.Format("Mon 02.01"), x+float64(dayWidth)/2, y-14, 0.5, 0)
}

func drawHourLines(dc *gg.Context, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	dc.SetLineWidth(0.3)
	dc.SetColor(hourLineColor)
	for idx := 0; idx <= hours.total; idx++ {
		hy := y + float64(idx)*cellHeight
		dc.DrawLine(x, hy, x+float64(dayWidth), hy)
		dc.Stroke()
	}
}

func drawInstance(dc *gg.Context, inst *model.ClassInstance, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	startHour := float64(inst.StartsAt.Hour()) + float64(inst.StartsAt.Minute())/60.0
	endHour := float64(inst.EndsAt.Hour()) + float64(inst.EndsAt.Minute())/60.0

	blockY := y + (startHour-float64(hours.start))*cellHeight
	blockHeight := (endHour - startHour) * cellHeight
	if blockHeight < minBlockHeight {
		blockHeight = minBlockHeight
	}
	blockWidth := float64(dayWidth) - float64(dayPaddingX*2)

	dc.SetColor(statusColor(inst.Status))
	dc.DrawRoundedRectangle(x+float64(dayPaddingX), blockY+2, blockWidth, blockHeight-4, blockRadius)
	dc.Fill()

	dc.SetColor(darken(statusColor(inst.Status), 0.8))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x+float64(dayPaddingX), blockY+2, blockWidth, blockHeight-4, blockRadius)
	dc.Stroke()

	dc.SetColor(blockTextColor)
	txtX := x + float64(dayPaddingX) + 8
	txtY := blockY + 14
	dc.DrawStringAnchored(inst.StartsAt.Format("15:04")+" "+truncate(inst.Name, 18), txtX, txtY, 0, 0)

	if blockHeight > 30 {
		occupancy := fmt.Sprintf("%d/%d", len(inst.RegisteredIDs), inst.Capacity)
		dc.DrawStringAnchored(occupancy, txtX, txtY+14, 0, 0)
	}
}

func statusColor(status model.InstanceStatus) color.RGBA {
	switch status {
	case model.InstanceStatusScheduled:
		return scheduledColor
	case model.InstanceStatusOngoing:
		return ongoingColor
	case model.InstanceStatusCompleted:
		return completedColor
	case model.InstanceStatusCancelled:
		return cancelledColor
	default:
		return completedColor
	}
}

func darken(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

// truncate режет по рунам: имена занятий и инструкторов кириллические,
// срез по байтам ломал бы UTF-8 посреди символа
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

func drawLegend(dc *gg.Context, dayWidth int) {
	items := []struct {
		label string
		clr   color.RGBA
	}{
		{"Запланировано", scheduledColor},
		{"Идёт", ongoingColor},
		{"Завершено", completedColor},
		{"Отменено", cancelledColor},
	}

	x := float64(leftLabelsWidth + daysInWeek*dayWidth + 10)
	y := float64(ImageHeight) - 130.0
	boxW, boxH := 20.0, 14.0

	for _, item := range items {
		dc.SetColor(item.clr)
		dc.DrawRoundedRectangle(x, y, boxW, boxH, 3)
		dc.Fill()

		dc.SetColor(textColor)
		dc.DrawStringAnchored(item.label, x+boxW+8, y+boxH/2, 0, 0.4)
		y += boxH + 12
	}
}
