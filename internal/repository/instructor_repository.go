package repository

import (
	"context"
	"fmt"

	"github.com/fitmostly/gym_backend/internal/model"
	"github.com/fitmostly/gym_backend/internal/repository/base"
)

// InstructorDirectory отдаёт инструктора по ID. Ядру расписания он нужен
// только ради отображаемого имени при материализации занятий.
type InstructorDirectory interface {
	GetByID(ctx context.Context, id int64) (*model.Instructor, error)
}

type PostgresInstructorRepository struct {
	db base.Querier
}

func NewInstructorRepository(db base.Querier) *PostgresInstructorRepository {
	return &PostgresInstructorRepository{db: db}
}

// GetByID получает инструктора по ID
func (r *PostgresInstructorRepository) GetByID(ctx context.Context, id int64) (*model.Instructor, error) {
	query := `
		SELECT id, first_name, last_name, specialty, active, created_at
		FROM instructors
		WHERE id = $1
	`

	instructor := &model.Instructor{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&instructor.ID,
		&instructor.FirstName,
		&instructor.LastName,
		&instructor.Specialty,
		&instructor.Active,
		&instructor.CreatedAt,
	)

	if base.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get instructor by id: %w", err)
	}

	return instructor, nil
}
