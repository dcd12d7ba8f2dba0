package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fitmostly/gym_backend/internal/model"
	"github.com/fitmostly/gym_backend/internal/repository"
	"github.com/fitmostly/gym_backend/internal/schedule"
)

// topUpSlackDays — запас, при котором дозагрузка горизонта ещё не
// запускается: хвост расписания считается заполненным, пока до края
// горизонта остаётся больше недели занятий.
const topUpSlackDays = 7

// ScheduleService — ядро расписания: разворачивает шаблоны в занятия,
// материализует их и поддерживает согласованность при правках шаблонов.
type ScheduleService struct {
	templateRepo repository.TemplateRepository
	instanceRepo repository.InstanceRepository
	instructors  repository.InstructorDirectory
	tx           repository.TxManager
	now          func() time.Time
	logger       *zap.Logger
}

func NewScheduleService(
	templateRepo repository.TemplateRepository,
	instanceRepo repository.InstanceRepository,
	instructors repository.InstructorDirectory,
	tx repository.TxManager,
	now func() time.Time,
	logger *zap.Logger,
) *ScheduleService {
	return &ScheduleService{
		templateRepo: templateRepo,
		instanceRepo: instanceRepo,
		instructors:  instructors,
		tx:           tx,
		now:          now,
		logger:       logger,
	}
}

// UpdateResult описывает итог обновления или регенерации шаблона
type UpdateResult struct {
	Template         *model.ScheduleTemplate
	Regenerated      bool
	DeletedInstances int64
	CreatedInstances int
}

// CreateTemplate создаёт шаблон и сразу материализует его занятия.
// Шаблон и весь набор занятий записываются в одной транзакции: частично
// сгенерированное расписание наружу не видно никогда.
func (s *ScheduleService) CreateTemplate(ctx context.Context, input model.TemplateInput) (*model.ScheduleTemplate, []*model.ClassInstance, error) {
	tmpl, err := input.Template()
	if err != nil {
		return nil, nil, err
	}

	occs, err := schedule.Expand(tmpl, s.now())
	if err != nil {
		return nil, nil, err
	}

	instructorName, err := s.instructorName(ctx, tmpl.InstructorID)
	if err != nil {
		return nil, nil, err
	}

	instances := materialize(tmpl, instructorName, uuid.New(), occs)

	err = s.tx.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		if err := repos.Templates.Create(ctx, tmpl); err != nil {
			return err
		}
		for _, inst := range instances {
			inst.TemplateID = tmpl.ID
		}
		return repos.Instances.CreateBatch(ctx, instances)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("persist template with instances: %w", err)
	}

	s.logger.Info("Schedule template created",
		zap.Int64("template_id", tmpl.ID),
		zap.String("schedule_type", string(tmpl.Recurrence.Type())),
		zap.Int("instances_created", len(instances)),
	)

	return tmpl, instances, nil
}

// UpdateTemplate обновляет шаблон. Правка временных атрибутов (вариант
// повторения, дата/время начала, длительность, дни недели, дата
// окончания) инвалидирует все существующие занятия: они удаляются и
// генерируются заново с нуля, вместе с накопленными записями участников —
// это явная политика, а не побочный эффект. Косметические правки (имя,
// место, заметки, вместимость, цена) занятия не трогают; вместимость на
// уже созданные занятия не распространяется.
func (s *ScheduleService) UpdateTemplate(ctx context.Context, id int64, input model.TemplateInput) (*UpdateResult, error) {
	existing, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	if existing == nil {
		return nil, model.ErrTemplateNotFound
	}

	updated, err := input.Template()
	if err != nil {
		return nil, err
	}
	updated.ID = existing.ID
	updated.Version = existing.Version
	updated.Active = existing.Active
	updated.CreatedBy = existing.CreatedBy
	updated.CreatedAt = existing.CreatedAt

	if !temporalChanged(existing, updated) {
		if err := s.templateRepo.Update(ctx, updated); err != nil {
			return nil, err
		}

		s.logger.Info("Schedule template updated without regeneration",
			zap.Int64("template_id", id),
		)

		return &UpdateResult{Template: updated}, nil
	}

	result, err := s.regenerate(ctx, updated)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Schedule template updated with regeneration",
		zap.Int64("template_id", id),
		zap.Int64("instances_deleted", result.DeletedInstances),
		zap.Int("instances_created", result.CreatedInstances),
	)

	return result, nil
}

// RegenerateTemplate заново разворачивает шаблон без изменения его полей.
// Операция идемпотентна: начинается с удаления всех занятий, поэтому
// повтор после сбоя даёт тот же набор дат и времён.
func (s *ScheduleService) RegenerateTemplate(ctx context.Context, id int64) (*UpdateResult, error) {
	tmpl, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	if tmpl == nil {
		return nil, model.ErrTemplateNotFound
	}

	return s.regenerate(ctx, tmpl)
}

// regenerate выполняет атомарную замену: проверка и инкремент версии,
// удаление всех занятий шаблона, запись нового набора — всё в одной
// транзакции. При сбое уцелевшим всегда остаётся прежний набор, и
// RegenerationError сообщает об этом вызывающему.
func (s *ScheduleService) regenerate(ctx context.Context, tmpl *model.ScheduleTemplate) (*UpdateResult, error) {
	occs, err := schedule.Expand(tmpl, s.now())
	if err != nil {
		return nil, err
	}

	instructorName, err := s.instructorName(ctx, tmpl.InstructorID)
	if err != nil {
		return nil, err
	}

	instances := materialize(tmpl, instructorName, uuid.New(), occs)
	for _, inst := range instances {
		inst.TemplateID = tmpl.ID
	}

	var deleted int64
	err = s.tx.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		if err := repos.Templates.BumpVersion(ctx, tmpl.ID, tmpl.Version); err != nil {
			return err
		}
		if err := repos.Templates.Update(ctx, tmpl); err != nil {
			return err
		}

		removed, err := repos.Instances.DeleteByTemplateID(ctx, tmpl.ID)
		if err != nil {
			return err
		}
		deleted = removed

		return repos.Instances.CreateBatch(ctx, instances)
	})
	if err != nil {
		return nil, &model.RegenerationError{
			TemplateID: tmpl.ID,
			Surviving:  model.SurvivingPrevious,
			Err:        err,
		}
	}
	tmpl.Version++

	return &UpdateResult{
		Template:         tmpl,
		Regenerated:      true,
		DeletedInstances: deleted,
		CreatedInstances: len(instances),
	}, nil
}

// DeleteTemplate удаляет шаблон вместе со всеми его занятиями одной
// транзакцией и возвращает количество удалённых занятий
func (s *ScheduleService) DeleteTemplate(ctx context.Context, id int64) (int64, error) {
	var deleted int64
	err := s.tx.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		deleted, err = repos.Instances.DeleteByTemplateID(ctx, id)
		if err != nil {
			return err
		}
		return repos.Templates.Delete(ctx, id)
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("Schedule template deleted",
		zap.Int64("template_id", id),
		zap.Int64("instances_deleted", deleted),
	)

	return deleted, nil
}

// GetTemplate получает шаблон по ID
func (s *ScheduleService) GetTemplate(ctx context.Context, id int64) (*model.ScheduleTemplate, error) {
	tmpl, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tmpl == nil {
		return nil, model.ErrTemplateNotFound
	}
	return tmpl, nil
}

// GetTemplateInstances получает занятия шаблона
func (s *ScheduleService) GetTemplateInstances(ctx context.Context, templateID int64) ([]*model.ClassInstance, error) {
	return s.instanceRepo.GetByTemplateID(ctx, templateID)
}

// GetWeekInstances получает занятия недели, начинающейся с weekStart
func (s *ScheduleService) GetWeekInstances(ctx context.Context, weekStart time.Time) ([]*model.ClassInstance, error) {
	from := model.DateOf(weekStart)
	return s.instanceRepo.GetWindow(ctx, from, from.AddDate(0, 0, 7))
}

// StartInstance переводит занятие из scheduled в ongoing
func (s *ScheduleService) StartInstance(ctx context.Context, id int64) error {
	return s.transitionInstance(ctx, id, model.InstanceStatusOngoing)
}

// CompleteInstance завершает идущее занятие
func (s *ScheduleService) CompleteInstance(ctx context.Context, id int64) error {
	return s.transitionInstance(ctx, id, model.InstanceStatusCompleted)
}

// CancelInstance отменяет ещё не начавшееся занятие
func (s *ScheduleService) CancelInstance(ctx context.Context, id int64) error {
	return s.transitionInstance(ctx, id, model.InstanceStatusCancelled)
}

func (s *ScheduleService) transitionInstance(ctx context.Context, id int64, to model.InstanceStatus) error {
	inst, err := s.instanceRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get class instance: %w", err)
	}
	if inst == nil {
		return model.ErrInstanceNotFound
	}

	if !model.CanTransition(inst.Status, to) {
		return fmt.Errorf("%w: %s -> %s", model.ErrInvalidTransition, inst.Status, to)
	}

	if err := s.instanceRepo.UpdateStatus(ctx, id, inst.Status, to); err != nil {
		return err
	}

	s.logger.Info("Class instance status changed",
		zap.Int64("instance_id", id),
		zap.String("from", string(inst.Status)),
		zap.String("to", string(to)),
	)

	return nil
}

// SweepLifecycle продвигает статусы по расписанию: начавшиеся занятия
// переводит в ongoing, закончившиеся — в completed. Фазы выполняются
// отдельными запросами без общей транзакции: при сбое второй уже
// переведённые в ongoing занятия остаются переведёнными, их количество
// возвращается вместе с ошибкой. Вызывается фоновой задачей.
func (s *ScheduleService) SweepLifecycle(ctx context.Context) (started, completed int64, err error) {
	now := s.now()

	started, err = s.instanceRepo.StartDue(ctx, now)
	if err != nil {
		return 0, 0, fmt.Errorf("start due instances: %w", err)
	}

	completed, err = s.instanceRepo.CompleteDue(ctx, now)
	if err != nil {
		return started, 0, fmt.Errorf("complete due instances: %w", err)
	}

	if started > 0 || completed > 0 {
		s.logger.Info("Lifecycle sweep finished",
			zap.Int64("started", started),
			zap.Int64("completed", completed),
		)
	}

	return started, completed, nil
}

// TopUpHorizons дозаполняет расписание активных бессрочных шаблонов до
// скользящего горизонта. В отличие от регенерации, здесь только
// добавляются занятия за хвостом расписания: существующие занятия и их
// записи не трогаются.
func (s *ScheduleService) TopUpHorizons(ctx context.Context) error {
	templates, err := s.templateRepo.GetAllActive(ctx)
	if err != nil {
		return fmt.Errorf("get active templates: %w", err)
	}

	tails, err := s.instanceRepo.LatestDateByTemplate(ctx)
	if err != nil {
		return fmt.Errorf("get schedule tails: %w", err)
	}

	today := model.DateOf(s.now())
	target := today.AddDate(0, schedule.DefaultHorizonMonths, 0)

	topped := 0
	for _, tmpl := range templates {
		if !tmpl.Recurrence.IsRecurring() || tmpl.Recurrence.EndDate() != nil {
			continue
		}

		tail, ok := tails[tmpl.ID]
		if ok && tail.After(target.AddDate(0, 0, -topUpSlackDays)) {
			continue
		}

		from := today
		if ok {
			from = tail.AddDate(0, 0, 1)
		}

		created, err := s.topUpTemplate(ctx, tmpl, from, target)
		if err != nil {
			s.logger.Error("Failed to top up template horizon",
				zap.Int64("template_id", tmpl.ID),
				zap.Error(err),
			)
			continue
		}

		if created > 0 {
			topped++
			s.logger.Info("Template horizon topped up",
				zap.Int64("template_id", tmpl.ID),
				zap.Int("instances_created", created),
			)
		}
	}

	s.logger.Info("Horizon top-up finished",
		zap.Int("templates_total", len(templates)),
		zap.Int("templates_topped_up", topped),
	)

	return nil
}

func (s *ScheduleService) topUpTemplate(ctx context.Context, tmpl *model.ScheduleTemplate, from, to time.Time) (int, error) {
	occs := schedule.ExpandWindow(tmpl, from, to)
	if len(occs) == 0 {
		return 0, nil
	}

	instructorName, err := s.instructorName(ctx, tmpl.InstructorID)
	if err != nil {
		return 0, err
	}

	instances := materialize(tmpl, instructorName, uuid.New(), occs)
	for _, inst := range instances {
		inst.TemplateID = tmpl.ID
	}

	// Версия проверяется и здесь: дозагрузка, проигравшая гонку
	// параллельной правке шаблона, откатывается целиком.
	err = s.tx.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		if err := repos.Templates.BumpVersion(ctx, tmpl.ID, tmpl.Version); err != nil {
			return err
		}
		return repos.Instances.CreateBatch(ctx, instances)
	})
	if err != nil {
		return 0, err
	}
	tmpl.Version++

	return len(instances), nil
}

func (s *ScheduleService) instructorName(ctx context.Context, instructorID int64) (string, error) {
	instructor, err := s.instructors.GetByID(ctx, instructorID)
	if err != nil {
		return "", fmt.Errorf("get instructor: %w", err)
	}
	if instructor == nil {
		return "", model.ErrInstructorNotFound
	}
	return instructor.DisplayName(), nil
}

// materialize строит занятия из развёрнутых дат. Описательные поля
// шаблона и имя инструктора копируются именно в этот момент и дальше
// живут своей жизнью до следующей регенерации.
func materialize(tmpl *model.ScheduleTemplate, instructorName string, generationID uuid.UUID, occs []schedule.Occurrence) []*model.ClassInstance {
	instances := make([]*model.ClassInstance, 0, len(occs))
	for _, occ := range occs {
		instances = append(instances, &model.ClassInstance{
			TemplateID:      tmpl.ID,
			GenerationID:    generationID,
			Date:            occ.Date,
			StartsAt:        occ.Start,
			EndsAt:          occ.End,
			Capacity:        tmpl.Capacity,
			RegisteredIDs:   []int64{},
			WaitlistIDs:     []int64{},
			Status:          model.InstanceStatusScheduled,
			PriceShareCents: occ.PriceShareCents,
			Name:            tmpl.Name,
			ClassType:       tmpl.ClassType,
			InstructorName:  instructorName,
			Location:        tmpl.Location,
			Notes:           tmpl.Notes,
		})
	}
	return instances
}

// temporalChanged проверяет изменились ли атрибуты, от которых зависит
// набор сгенерированных занятий
func temporalChanged(old, updated *model.ScheduleTemplate) bool {
	if !old.Recurrence.Equal(updated.Recurrence) {
		return true
	}
	if !model.DateOf(old.StartDate).Equal(model.DateOf(updated.StartDate)) {
		return true
	}
	if old.StartHour != updated.StartHour || old.StartMinute != updated.StartMinute {
		return true
	}
	if old.DurationMinutes != updated.DurationMinutes {
		return true
	}
	return false
}
