package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/fitmostly/gym_backend/internal/app"
	"github.com/fitmostly/gym_backend/internal/config"
	"github.com/fitmostly/gym_backend/internal/repository"
	"github.com/fitmostly/gym_backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("Starting gym schedule backend",
		zap.String("environment", cfg.Environment),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create database pool", zap.Error(err))
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	migrator.Close()

	templateRepo := repository.NewTemplateRepository(pool)
	instanceRepo := repository.NewInstanceRepository(pool)
	instructorRepo := repository.NewInstructorRepository(pool)
	txManager := repository.NewTxManager(pool)

	scheduleService := service.NewScheduleService(
		templateRepo,
		instanceRepo,
		instructorRepo,
		txManager,
		time.Now,
		logger,
	)

	scheduler := app.NewScheduler(scheduleService, logger)
	scheduler.Start(ctx)

	// Само ядро вызывается in-process слоем запросов; здесь процессу
	// остаётся держать фоновые задачи до сигнала остановки
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	scheduler.Stop()
	cancel()
}
