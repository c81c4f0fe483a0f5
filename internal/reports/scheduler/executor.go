package scheduler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/cruzrowellt2024/AssetONE-sub001/internal/reports"
	"github.com/cruzrowellt2024/AssetONE-sub001/pkg/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Execution statuses
const (
	StatusCompleted = "completed"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// ReportGenerator produces a rendered report without a session
type ReportGenerator interface {
	RunExport(ctx context.Context, req reports.RunExportRequest) (*reports.Export, error)
}

// Executor runs scheduled exports and uploads them to object storage
type Executor struct {
	generator ReportGenerator
	storage   storage.S3Client
	notifier  *WebhookNotifier
	logger    *zap.Logger
	config    ExecutorConfig
}

// ExecutorConfig configuration for the executor
type ExecutorConfig struct {
	Bucket            string        `json:"bucket"`
	Prefix            string        `json:"prefix"`
	Timeout           time.Duration `json:"timeout"`
	DownloadURLExpiry time.Duration `json:"download_url_expiry"`
	MaxFileSizeBytes  int64         `json:"max_file_size_bytes"`
}

// DefaultExecutorConfig returns default configuration
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		Prefix:            "reports",
		Timeout:           30 * time.Minute,
		DownloadURLExpiry: 24 * time.Hour,
		MaxFileSizeBytes:  100 * 1024 * 1024, // 100MB
	}
}

// ExecutionResult represents the result of a scheduled export
type ExecutionResult struct {
	ExecutionID   uuid.UUID `json:"execution_id"`
	ScheduleID    uuid.UUID `json:"schedule_id"`
	Status        string    `json:"status"`
	FileName      string    `json:"file_name,omitempty"`
	FileKey       string    `json:"file_key,omitempty"`
	FileSizeBytes int64     `json:"file_size_bytes"`
	DownloadURL   string    `json:"download_url,omitempty"`
	WebhookStatus string    `json:"webhook_status,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	CompletedAt   time.Time `json:"completed_at"`
	DurationMs    int64     `json:"duration_ms"`
	Error         string    `json:"error,omitempty"`
}

// NewExecutor creates a new executor. notifier may be nil.
func NewExecutor(
	generator ReportGenerator,
	storage storage.S3Client,
	notifier *WebhookNotifier,
	logger *zap.Logger,
	config ExecutorConfig,
) *Executor {
	return &Executor{
		generator: generator,
		storage:   storage,
		notifier:  notifier,
		logger:    logger,
		config:    config,
	}
}

// ReportWindow returns the calendar dates [today-lookbackDays, yesterday] relative to now
func ReportWindow(now time.Time, lookbackDays int) (from, to string) {
	if lookbackDays < 1 {
		lookbackDays = 1
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return today.AddDate(0, 0, -lookbackDays).Format(reports.DateLayout),
		today.AddDate(0, 0, -1).Format(reports.DateLayout)
}

// FilterFor builds the report filter a schedule runs with at now
func FilterFor(schedule *Schedule, now time.Time) reports.Filter {
	spec, ok := reports.Lookup(schedule.Kind)
	if !ok {
		return reports.Filter{}
	}
	switch spec.Mode {
	case reports.FetchModeRange:
		from, to := ReportWindow(now, schedule.LookbackDays)
		return reports.Filter{StartDate: from, EndDate: to}
	case reports.FetchModeRole:
		return reports.Filter{Role: schedule.Role}
	default:
		return reports.Filter{}
	}
}

// Execute renders a schedule's report for the window ending yesterday and uploads it
func (e *Executor) Execute(ctx context.Context, schedule *Schedule, now time.Time) (*ExecutionResult, error) {
	executionID := uuid.New()
	startTime := time.Now()

	e.logger.Info("Starting scheduled export",
		zap.String("execution_id", executionID.String()),
		zap.String("schedule_id", schedule.ID.String()),
		zap.String("kind", string(schedule.Kind)),
		zap.String("format", string(schedule.Format)))

	result := &ExecutionResult{
		ExecutionID: executionID,
		ScheduleID:  schedule.ID,
		StartedAt:   startTime,
	}
	finish := func(status string, err error) (*ExecutionResult, error) {
		result.Status = status
		if err != nil {
			result.Error = err.Error()
		}
		result.CompletedAt = time.Now()
		result.DurationMs = time.Since(startTime).Milliseconds()
		return result, err
	}

	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	export, err := e.generator.RunExport(ctx, reports.RunExportRequest{
		Kind:     schedule.Kind,
		Filter:   FilterFor(schedule, now),
		Format:   schedule.Format,
		Location: now.Location(),
	})
	if errors.Is(err, reports.ErrEmptyResult) {
		e.logger.Info("Scheduled export has no rows, skipping upload",
			zap.String("schedule_id", schedule.ID.String()),
			zap.String("kind", string(schedule.Kind)))
		return finish(StatusSkipped, nil)
	}
	if err != nil {
		return finish(StatusFailed, fmt.Errorf("report generation failed: %w", err))
	}

	result.FileName = export.FileName
	result.FileSizeBytes = int64(len(export.Data))
	if e.config.MaxFileSizeBytes > 0 && result.FileSizeBytes > e.config.MaxFileSizeBytes {
		return finish(StatusFailed, fmt.Errorf("report exceeds maximum file size"))
	}

	fileKey := ObjectKey(e.config.Prefix, export.FileName)
	if err := e.storage.Upload(ctx, e.config.Bucket, fileKey, bytes.NewReader(export.Data), export.ContentType); err != nil {
		e.logger.Error("Failed to upload report", zap.Error(err))
		return finish(StatusFailed, fmt.Errorf("upload failed: %w", err))
	}
	result.FileKey = fileKey

	downloadURL, err := e.storage.GetPresignedURL(ctx, e.config.Bucket, fileKey, e.config.DownloadURLExpiry)
	if err != nil {
		e.logger.Warn("Failed to generate download URL", zap.Error(err))
	} else {
		result.DownloadURL = downloadURL
	}

	if e.notifier != nil && schedule.WebhookURL != "" {
		err := e.notifier.Notify(ctx, schedule.WebhookURL, &ExportNotification{
			ScheduleID:  schedule.ID.String(),
			Schedule:    schedule.Name,
			Kind:        string(schedule.Kind),
			FileName:    export.FileName,
			FileKey:     fileKey,
			DownloadURL: result.DownloadURL,
			GeneratedAt: now,
		})
		if err != nil {
			e.logger.Error("Failed to notify webhook", zap.Error(err))
			result.WebhookStatus = fmt.Sprintf("failed: %v", err)
		} else {
			result.WebhookStatus = "sent"
		}
	}

	res, _ := finish(StatusCompleted, nil)

	e.logger.Info("Scheduled export completed",
		zap.String("execution_id", executionID.String()),
		zap.String("file_key", fileKey),
		zap.Int64("file_size_bytes", result.FileSizeBytes),
		zap.Int64("duration_ms", result.DurationMs))

	return res, nil
}

// ObjectKey joins the storage prefix and file name
func ObjectKey(prefix, fileName string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return fileName
	}
	return path.Join(prefix, fileName)
}
