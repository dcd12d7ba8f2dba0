package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fitmostly/gym_backend/internal/service"
)

// Интервалы фоновых задач
const (
	lifecycleSweepInterval = time.Hour
	horizonTopUpInterval   = 24 * time.Hour
)

// Scheduler управляет фоновыми задачами расписания
type Scheduler struct {
	schedules *service.ScheduleService
	logger    *zap.Logger
	stopChan  chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(schedules *service.ScheduleService, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		schedules: schedules,
		logger:    logger,
		stopChan:  make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler")

	go s.runLifecycleSweep(ctx)
	go s.runHorizonTopUp(ctx)
}

// Stop останавливает фоновые задачи
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
}

// runLifecycleSweep периодически продвигает статусы занятий:
// начавшиеся — в ongoing, закончившиеся — в completed
func (s *Scheduler) runLifecycleSweep(ctx context.Context) {
	s.sweepLifecycle(ctx)

	ticker := time.NewTicker(lifecycleSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweepLifecycle(ctx)
		case <-s.stopChan:
			s.logger.Info("Lifecycle sweep task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Lifecycle sweep task cancelled")
			return
		}
	}
}

// runHorizonTopUp раз в сутки дозаполняет расписание бессрочных
// шаблонов до скользящего горизонта
func (s *Scheduler) runHorizonTopUp(ctx context.Context) {
	s.topUpHorizons(ctx)

	ticker := time.NewTicker(horizonTopUpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.topUpHorizons(ctx)
		case <-s.stopChan:
			s.logger.Info("Horizon top-up task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Horizon top-up task cancelled")
			return
		}
	}
}

func (s *Scheduler) sweepLifecycle(ctx context.Context) {
	if _, _, err := s.schedules.SweepLifecycle(ctx); err != nil {
		s.logger.Error("Lifecycle sweep failed", zap.Error(err))
	}
}

func (s *Scheduler) topUpHorizons(ctx context.Context) {
	if err := s.schedules.TopUpHorizons(ctx); err != nil {
		s.logger.Error("Horizon top-up failed", zap.Error(err))
	}
}
