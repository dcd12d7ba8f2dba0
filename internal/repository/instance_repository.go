package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fitmostly/gym_backend/internal/model"
	"github.com/fitmostly/gym_backend/internal/repository/base"
)

// createChunkSize ограничивает размер одного batch-запроса при записи
// занятий. Сами чанки отправляются внутри общей транзакции, поэтому
// на атомарность замены дробление не влияет.
const createChunkSize = 100

// InstanceRepository управляет сгенерированными занятиями
type InstanceRepository interface {
	CreateBatch(ctx context.Context, instances []*model.ClassInstance) error
	GetByID(ctx context.Context, id int64) (*model.ClassInstance, error)
	GetByTemplateID(ctx context.Context, templateID int64) ([]*model.ClassInstance, error)
	GetWindow(ctx context.Context, from, to time.Time) ([]*model.ClassInstance, error)
	DeleteByTemplateID(ctx context.Context, templateID int64) (int64, error)
	UpdateStatus(ctx context.Context, id int64, from, to model.InstanceStatus) error
	StartDue(ctx context.Context, now time.Time) (int64, error)
	CompleteDue(ctx context.Context, now time.Time) (int64, error)
	LatestDateByTemplate(ctx context.Context) (map[int64]time.Time, error)
}

type PostgresInstanceRepository struct {
	db base.Querier
}

func NewInstanceRepository(db base.Querier) *PostgresInstanceRepository {
	return &PostgresInstanceRepository{db: db}
}

const instanceColumns = `id, template_id, generation_id, class_date, starts_at, ends_at, capacity,
	registered_ids, waitlist_ids, status, price_share_cents,
	name, class_type, instructor_name, location, notes, created_at, updated_at`

const insertInstanceQuery = `
	INSERT INTO class_instances (template_id, generation_id, class_date, starts_at, ends_at, capacity,
		registered_ids, waitlist_ids, status, price_share_cents,
		name, class_type, instructor_name, location, notes)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	RETURNING id, created_at, updated_at
`

// CreateBatch записывает все занятия одной генерации чанками через
// pgx.Batch. При любой ошибке возвращается сразу: откат — дело
// объемлющей транзакции.
func (r *PostgresInstanceRepository) CreateBatch(ctx context.Context, instances []*model.ClassInstance) error {
	for offset := 0; offset < len(instances); offset += createChunkSize {
		chunk := instances[offset:min(offset+createChunkSize, len(instances))]

		batch := &pgx.Batch{}
		for _, inst := range chunk {
			batch.Queue(
				insertInstanceQuery,
				inst.TemplateID,
				inst.GenerationID,
				inst.Date,
				inst.StartsAt,
				inst.EndsAt,
				inst.Capacity,
				inst.RegisteredIDs,
				inst.WaitlistIDs,
				inst.Status,
				inst.PriceShareCents,
				inst.Name,
				inst.ClassType,
				inst.InstructorName,
				inst.Location,
				inst.Notes,
			)
		}

		br := r.db.SendBatch(ctx, batch)
		for _, inst := range chunk {
			if err := br.QueryRow().Scan(&inst.ID, &inst.CreatedAt, &inst.UpdatedAt); err != nil {
				br.Close()
				return fmt.Errorf("create class instances batch: %w", err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("close class instances batch: %w", err)
		}
	}

	return nil
}

// GetByID получает занятие по ID
func (r *PostgresInstanceRepository) GetByID(ctx context.Context, id int64) (*model.ClassInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM class_instances WHERE id = $1`

	inst, err := scanInstance(r.db.QueryRow(ctx, query, id))
	if base.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get class instance by id: %w", err)
	}

	return inst, nil
}

// GetByTemplateID получает все занятия шаблона в хронологическом порядке
func (r *PostgresInstanceRepository) GetByTemplateID(ctx context.Context, templateID int64) ([]*model.ClassInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM class_instances WHERE template_id = $1 ORDER BY starts_at`

	rows, err := r.db.Query(ctx, query, templateID)
	if err != nil {
		return nil, fmt.Errorf("get class instances by template: %w", err)
	}
	defer rows.Close()

	return collectInstances(rows)
}

// GetWindow получает занятия в диапазоне времени начала [from, to)
func (r *PostgresInstanceRepository) GetWindow(ctx context.Context, from, to time.Time) ([]*model.ClassInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM class_instances
		WHERE starts_at >= $1 AND starts_at < $2
		ORDER BY starts_at`

	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("get class instances window: %w", err)
	}
	defer rows.Close()

	return collectInstances(rows)
}

// DeleteByTemplateID удаляет все занятия шаблона и возвращает их
// количество для аудита
func (r *PostgresInstanceRepository) DeleteByTemplateID(ctx context.Context, templateID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM class_instances WHERE template_id = $1`, templateID)
	if err != nil {
		return 0, fmt.Errorf("delete class instances by template: %w", err)
	}

	return tag.RowsAffected(), nil
}

// UpdateStatus переводит занятие из одного статуса в другой.
// Исходный статус зашит в WHERE: переход, проигравший гонку с
// регенерацией или с другим переходом, не затронет ни одной строки
// и не воскресит удалённое занятие.
func (r *PostgresInstanceRepository) UpdateStatus(ctx context.Context, id int64, from, to model.InstanceStatus) error {
	query := `
		UPDATE class_instances
		SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
	`

	tag, err := r.db.Exec(ctx, query, id, from, to)
	if err != nil {
		return fmt.Errorf("update class instance status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrInstanceNotFound
	}

	return nil
}

// StartDue переводит в ongoing все scheduled-занятия, чьё время начала
// уже наступило. Возвращает количество переведённых.
func (r *PostgresInstanceRepository) StartDue(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE class_instances
		SET status = $1, updated_at = now()
		WHERE status = $2 AND starts_at <= $3
	`

	tag, err := r.db.Exec(ctx, query, model.InstanceStatusOngoing, model.InstanceStatusScheduled, now)
	if err != nil {
		return 0, fmt.Errorf("start due class instances: %w", err)
	}

	return tag.RowsAffected(), nil
}

// CompleteDue завершает все ongoing-занятия, чьё время окончания прошло
func (r *PostgresInstanceRepository) CompleteDue(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE class_instances
		SET status = $1, updated_at = now()
		WHERE status = $2 AND ends_at <= $3
	`

	tag, err := r.db.Exec(ctx, query, model.InstanceStatusCompleted, model.InstanceStatusOngoing, now)
	if err != nil {
		return 0, fmt.Errorf("complete due class instances: %w", err)
	}

	return tag.RowsAffected(), nil
}

// LatestDateByTemplate возвращает дату последнего занятия каждого шаблона.
// Нужна фоновой дозагрузке горизонта, чтобы не трогать шаблоны,
// у которых расписание и так заполнено вперёд.
func (r *PostgresInstanceRepository) LatestDateByTemplate(ctx context.Context) (map[int64]time.Time, error) {
	query := `SELECT template_id, max(class_date) FROM class_instances GROUP BY template_id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get latest class dates: %w", err)
	}
	defer rows.Close()

	tails := make(map[int64]time.Time)
	for rows.Next() {
		var (
			templateID int64
			latest     time.Time
		)
		if err := rows.Scan(&templateID, &latest); err != nil {
			return nil, fmt.Errorf("scan latest class date: %w", err)
		}
		tails[templateID] = latest
	}

	return tails, rows.Err()
}

func collectInstances(rows pgx.Rows) ([]*model.ClassInstance, error) {
	var instances []*model.ClassInstance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan class instance: %w", err)
		}
		instances = append(instances, inst)
	}
	return instances, rows.Err()
}

func scanInstance(row interface{ Scan(dest ...any) error }) (*model.ClassInstance, error) {
	inst := &model.ClassInstance{}
	err := row.Scan(
		&inst.ID,
		&inst.TemplateID,
		&inst.GenerationID,
		&inst.Date,
		&inst.StartsAt,
		&inst.EndsAt,
		&inst.Capacity,
		&inst.RegisteredIDs,
		&inst.WaitlistIDs,
		&inst.Status,
		&inst.PriceShareCents,
		&inst.Name,
		&inst.ClassType,
		&inst.InstructorName,
		&inst.Location,
		&inst.Notes,
		&inst.CreatedAt,
		&inst.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return inst, nil
}
