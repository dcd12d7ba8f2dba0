package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/fitmostly/gym_backend/internal/model"
	"github.com/fitmostly/gym_backend/internal/repository/base"
)

// TemplateRepository управляет шаблонами расписания
type TemplateRepository interface {
	Create(ctx context.Context, tmpl *model.ScheduleTemplate) error
	GetByID(ctx context.Context, id int64) (*model.ScheduleTemplate, error)
	GetAllActive(ctx context.Context) ([]*model.ScheduleTemplate, error)
	Update(ctx context.Context, tmpl *model.ScheduleTemplate) error
	Delete(ctx context.Context, id int64) error
	BumpVersion(ctx context.Context, id, expectedVersion int64) error
}

type PostgresTemplateRepository struct {
	db base.Querier
}

func NewTemplateRepository(db base.Querier) *PostgresTemplateRepository {
	return &PostgresTemplateRepository{db: db}
}

const templateColumns = `id, name, class_type_id, class_type, instructor_id, capacity, duration_minutes,
	start_date, start_hour, start_minute, schedule_type, days_of_week, recurrence_end_date,
	location, notes, price_cents, active, version, created_by, created_at, updated_at`

// Create создаёт новый шаблон
func (r *PostgresTemplateRepository) Create(ctx context.Context, tmpl *model.ScheduleTemplate) error {
	query := `
		INSERT INTO schedule_templates (name, class_type_id, class_type, instructor_id, capacity, duration_minutes,
			start_date, start_hour, start_minute, schedule_type, days_of_week, recurrence_end_date,
			location, notes, price_cents, active, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, version, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		tmpl.Name,
		tmpl.ClassTypeID,
		tmpl.ClassType,
		tmpl.InstructorID,
		tmpl.Capacity,
		tmpl.DurationMinutes,
		tmpl.StartDate,
		tmpl.StartHour,
		tmpl.StartMinute,
		tmpl.Recurrence.Type(),
		weekdaysToInts(tmpl.Recurrence.Days()),
		tmpl.Recurrence.EndDate(),
		tmpl.Location,
		tmpl.Notes,
		tmpl.PriceCents,
		tmpl.Active,
		tmpl.CreatedBy,
	).Scan(&tmpl.ID, &tmpl.Version, &tmpl.CreatedAt, &tmpl.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create schedule template: %w", err)
	}

	return nil
}

// GetByID получает шаблон по ID
func (r *PostgresTemplateRepository) GetByID(ctx context.Context, id int64) (*model.ScheduleTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM schedule_templates WHERE id = $1`

	tmpl, err := scanTemplate(r.db.QueryRow(ctx, query, id))
	if base.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule template by id: %w", err)
	}

	return tmpl, nil
}

// GetAllActive получает все активные шаблоны
func (r *PostgresTemplateRepository) GetAllActive(ctx context.Context) ([]*model.ScheduleTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM schedule_templates WHERE active = true ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get active schedule templates: %w", err)
	}
	defer rows.Close()

	var templates []*model.ScheduleTemplate
	for rows.Next() {
		tmpl, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule template: %w", err)
		}
		templates = append(templates, tmpl)
	}

	return templates, rows.Err()
}

// Update обновляет все изменяемые поля шаблона. Счётчик версии этим
// запросом не трогается: он меняется только через BumpVersion.
func (r *PostgresTemplateRepository) Update(ctx context.Context, tmpl *model.ScheduleTemplate) error {
	query := `
		UPDATE schedule_templates
		SET name = $2, class_type_id = $3, class_type = $4, instructor_id = $5, capacity = $6,
			duration_minutes = $7, start_date = $8, start_hour = $9, start_minute = $10,
			schedule_type = $11, days_of_week = $12, recurrence_end_date = $13,
			location = $14, notes = $15, price_cents = $16, active = $17, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		tmpl.ID,
		tmpl.Name,
		tmpl.ClassTypeID,
		tmpl.ClassType,
		tmpl.InstructorID,
		tmpl.Capacity,
		tmpl.DurationMinutes,
		tmpl.StartDate,
		tmpl.StartHour,
		tmpl.StartMinute,
		tmpl.Recurrence.Type(),
		weekdaysToInts(tmpl.Recurrence.Days()),
		tmpl.Recurrence.EndDate(),
		tmpl.Location,
		tmpl.Notes,
		tmpl.PriceCents,
		tmpl.Active,
	).Scan(&tmpl.UpdatedAt)

	if base.IsNotFound(err) {
		return model.ErrTemplateNotFound
	}
	if err != nil {
		return fmt.Errorf("update schedule template: %w", err)
	}

	return nil
}

// Delete удаляет шаблон
func (r *PostgresTemplateRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM schedule_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule template: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrTemplateNotFound
	}

	return nil
}

// BumpVersion атомарно проверяет и инкрементирует версию шаблона.
// Нулевое количество затронутых строк означает, что параллельная
// регенерация успела раньше.
func (r *PostgresTemplateRepository) BumpVersion(ctx context.Context, id, expectedVersion int64) error {
	query := `
		UPDATE schedule_templates
		SET version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2
	`

	tag, err := r.db.Exec(ctx, query, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("bump template version: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrVersionConflict
	}

	return nil
}

// scanTemplate читает строку шаблона и восстанавливает вариант
// повторения через конструкторы модели
func scanTemplate(row interface{ Scan(dest ...any) error }) (*model.ScheduleTemplate, error) {
	tmpl := &model.ScheduleTemplate{}
	var (
		scheduleType string
		days         []int32
		endDate      *time.Time
	)

	err := row.Scan(
		&tmpl.ID,
		&tmpl.Name,
		&tmpl.ClassTypeID,
		&tmpl.ClassType,
		&tmpl.InstructorID,
		&tmpl.Capacity,
		&tmpl.DurationMinutes,
		&tmpl.StartDate,
		&tmpl.StartHour,
		&tmpl.StartMinute,
		&scheduleType,
		&days,
		&endDate,
		&tmpl.Location,
		&tmpl.Notes,
		&tmpl.PriceCents,
		&tmpl.Active,
		&tmpl.Version,
		&tmpl.CreatedBy,
		&tmpl.CreatedAt,
		&tmpl.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if model.ScheduleType(scheduleType) == model.ScheduleTypeRecurring {
		recurrence, err := model.WeeklyRecurrence(intsToWeekdays(days), endDate)
		if err != nil {
			return nil, fmt.Errorf("restore recurrence for template %d: %w", tmpl.ID, err)
		}
		tmpl.Recurrence = recurrence
	} else {
		tmpl.Recurrence = model.SingleRecurrence()
	}

	return tmpl, nil
}

func weekdaysToInts(days []time.Weekday) []int32 {
	out := make([]int32, len(days))
	for i, d := range days {
		out[i] = int32(d)
	}
	return out
}

func intsToWeekdays(days []int32) []time.Weekday {
	out := make([]time.Weekday, len(days))
	for i, d := range days {
		out[i] = time.Weekday(d)
	}
	return out
}
