package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	v1 "github.com/cruzrowellt2024/AssetONE-sub001/api/v1"
	"github.com/cruzrowellt2024/AssetONE-sub001/internal/config"
	"github.com/cruzrowellt2024/AssetONE-sub001/internal/reports"
	"github.com/cruzrowellt2024/AssetONE-sub001/internal/reports/scheduler"
	"github.com/cruzrowellt2024/AssetONE-sub001/pkg/storage"
)

// schedulesFromConfig converts configured schedules, skipping disabled ones
func schedulesFromConfig(cfgs []config.ScheduleConfig) ([]*scheduler.Schedule, error) {
	schedules := make([]*scheduler.Schedule, 0, len(cfgs))
	for _, sc := range cfgs {
		if sc.Disabled {
			continue
		}
		id, err := uuid.Parse(sc.ID)
		if err != nil {
			return nil, fmt.Errorf("schedule %q: invalid id: %w", sc.Name, err)
		}
		kind, err := reports.ParseReportKind(sc.Kind)
		if err != nil {
			return nil, fmt.Errorf("schedule %q: %w", sc.Name, err)
		}
		format, err := reports.ParseExportFormat(sc.Format)
		if err != nil {
			return nil, fmt.Errorf("schedule %q: %w", sc.Name, err)
		}
		schedules = append(schedules, &scheduler.Schedule{
			ID:             id,
			Name:           sc.Name,
			CronExpression: sc.Cron,
			Timezone:       sc.Timezone,
			Kind:           kind,
			Format:         format,
			LookbackDays:   sc.LookbackDays,
			Role:           sc.Role,
			WebhookURL:     sc.WebhookURL,
			IsActive:       true,
		})
	}
	return schedules, nil
}

func main() {
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := cfg.Logging.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Storage.Bucket == "" {
		logger.Fatal("S3_BUCKET is required for scheduled exports")
	}

	schedules, err := schedulesFromConfig(cfg.Schedules)
	if err != nil {
		logger.Fatal("Invalid schedule configuration", zap.Error(err))
	}

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	connectCtx, connectCancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		connectCancel()
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		connectCancel()
		logger.Fatal("Failed to ping database", zap.Error(err))
	}
	connectCancel()
	defer client.Disconnect(context.Background())

	logger.Info("Connected to database")

	s3Client, err := storage.NewS3Client(ctx, storage.S3Options{
		Region:          cfg.Storage.Region,
		Endpoint:        cfg.Storage.Endpoint,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		UsePathStyle:    cfg.Storage.UsePathStyle,
	})
	if err != nil {
		logger.Fatal("Failed to create S3 client", zap.Error(err))
	}

	reportsAPI, err := v1.SetupReportsAPI(client.Database(cfg.Mongo.Database), cfg.Reports, logger)
	if err != nil {
		logger.Fatal("Failed to initialize reports", zap.Error(err))
	}
	defer reportsAPI.Close()

	execConfig := scheduler.DefaultExecutorConfig()
	execConfig.Bucket = cfg.Storage.Bucket
	execConfig.Prefix = cfg.Storage.Prefix
	execConfig.DownloadURLExpiry = cfg.Storage.PresignExpiry

	executor := scheduler.NewExecutor(reportsAPI.Service, s3Client, scheduler.NewWebhookNotifier(0, 3, logger), logger, execConfig)
	manager := scheduler.NewScheduleManager(executor, logger, scheduler.DefaultScheduleManagerConfig())

	for _, schedule := range schedules {
		if err := manager.AddSchedule(schedule); err != nil {
			logger.Fatal("Failed to register schedule",
				zap.String("schedule", schedule.Name),
				zap.Error(err))
		}
	}

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Report worker starting", zap.Int("schedules", manager.GetActiveJobs()))
	if err := manager.Start(); err != nil {
		logger.Fatal("Worker error", zap.Error(err))
	}

	<-sigChan
	logger.Info("Shutdown signal received")
	cancel()
	manager.Stop()

	logger.Info("Report worker stopped")
}
