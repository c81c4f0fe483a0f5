package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cruzrowellt2024/AssetONE-sub001/internal/reports"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ScheduleManager runs report schedules on their cron expressions
type ScheduleManager struct {
	cron     *cron.Cron
	jobs     map[uuid.UUID]cron.EntryID
	results  map[uuid.UUID]*ExecutionResult
	executor Runner
	logger   *zap.Logger
	config   ScheduleManagerConfig
	now      func() time.Time
	mu       sync.RWMutex
	running  bool
}

// Runner executes one schedule
type Runner interface {
	Execute(ctx context.Context, schedule *Schedule, now time.Time) (*ExecutionResult, error)
}

// Schedule represents a recurring export
type Schedule struct {
	ID             uuid.UUID            `json:"id"`
	Name           string               `json:"name"`
	CronExpression string               `json:"cron_expression"`
	Timezone       string               `json:"timezone"`
	Kind           reports.ReportKind   `json:"kind"`
	Format         reports.ExportFormat `json:"format"`
	LookbackDays   int                  `json:"lookback_days"`
	Role           string               `json:"role,omitempty"`
	WebhookURL     string               `json:"webhook_url,omitempty"`
	IsActive       bool                 `json:"is_active"`
}

// ScheduleManagerConfig configuration for the schedule manager
type ScheduleManagerConfig struct {
	ExecutionTimeout time.Duration `json:"execution_timeout"`
}

// DefaultScheduleManagerConfig returns default configuration
func DefaultScheduleManagerConfig() ScheduleManagerConfig {
	return ScheduleManagerConfig{
		ExecutionTimeout: 30 * time.Minute,
	}
}

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// NewScheduleManager creates a new schedule manager
func NewScheduleManager(
	executor Runner,
	logger *zap.Logger,
	config ScheduleManagerConfig,
) *ScheduleManager {
	cronLogger := cron.PrintfLogger(zap.NewStdLog(logger))
	return &ScheduleManager{
		cron: cron.New(
			cron.WithParser(cronParser),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		jobs:     make(map[uuid.UUID]cron.EntryID),
		results:  make(map[uuid.UUID]*ExecutionResult),
		executor: executor,
		logger:   logger,
		config:   config,
		now:      time.Now,
	}
}

// Start starts the cron scheduler
func (m *ScheduleManager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return fmt.Errorf("schedule manager already running")
	}
	m.running = true

	m.logger.Info("Starting schedule manager", zap.Int("jobs", len(m.jobs)))
	m.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running exports
func (m *ScheduleManager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.mu.Unlock()

	m.logger.Info("Stopping schedule manager")
	ctx := m.cron.Stop()
	<-ctx.Done()
}

// RunNow executes a schedule immediately and records its result
func (m *ScheduleManager) RunNow(ctx context.Context, schedule *Schedule) (*ExecutionResult, error) {
	loc, err := scheduleLocation(schedule.Timezone)
	if err != nil {
		return nil, err
	}

	m.logger.Info("Executing scheduled report",
		zap.String("schedule_id", schedule.ID.String()),
		zap.String("schedule_name", schedule.Name))

	if m.config.ExecutionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.ExecutionTimeout)
		defer cancel()
	}

	result, err := m.executor.Execute(ctx, schedule, m.now().In(loc))
	if result != nil {
		m.mu.Lock()
		m.results[schedule.ID] = result
		m.mu.Unlock()
	}
	if err != nil {
		m.logger.Error("Failed to execute scheduled report",
			zap.String("schedule_id", schedule.ID.String()),
			zap.Error(err))
	}
	return result, err
}

// AddSchedule registers a schedule, replacing any previous entry with the same ID
func (m *ScheduleManager) AddSchedule(schedule *Schedule) error {
	if err := ValidateSchedule(schedule); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if entryID, ok := m.jobs[schedule.ID]; ok {
		m.cron.Remove(entryID)
		delete(m.jobs, schedule.ID)
	}

	s := *schedule
	entryID, err := m.cron.AddFunc(cronSpec(s.CronExpression, s.Timezone), func() {
		m.RunNow(context.Background(), &s)
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	m.jobs[s.ID] = entryID

	m.logger.Info("Added schedule",
		zap.String("schedule_id", s.ID.String()),
		zap.String("cron", s.CronExpression),
		zap.String("timezone", s.Timezone))

	return nil
}

// RemoveSchedule removes a schedule from the manager
func (m *ScheduleManager) RemoveSchedule(scheduleID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entryID, ok := m.jobs[scheduleID]; ok {
		m.cron.Remove(entryID)
		delete(m.jobs, scheduleID)

		m.logger.Info("Removed schedule", zap.String("schedule_id", scheduleID.String()))
	}
}

// UpdateSchedule updates an existing schedule
func (m *ScheduleManager) UpdateSchedule(schedule *Schedule) error {
	m.RemoveSchedule(schedule.ID)

	if schedule.IsActive {
		return m.AddSchedule(schedule)
	}

	return nil
}

// GetActiveJobs returns the number of active jobs
func (m *ScheduleManager) GetActiveJobs() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.jobs)
}

// JobStatus represents the status of a scheduled job
type JobStatus struct {
	ScheduleID uuid.UUID        `json:"schedule_id"`
	NextRun    time.Time        `json:"next_run"`
	PrevRun    time.Time        `json:"prev_run"`
	IsActive   bool             `json:"is_active"`
	LastResult *ExecutionResult `json:"last_result,omitempty"`
}

// GetJobStatus returns the status of a scheduled job
func (m *ScheduleManager) GetJobStatus(scheduleID uuid.UUID) (*JobStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entryID, ok := m.jobs[scheduleID]
	if !ok {
		return nil, fmt.Errorf("job not found")
	}

	entry := m.cron.Entry(entryID)
	return &JobStatus{
		ScheduleID: scheduleID,
		NextRun:    entry.Next,
		PrevRun:    entry.Prev,
		IsActive:   true,
		LastResult: m.results[scheduleID],
	}, nil
}

// LastResult returns the most recent execution result of a schedule
func (m *ScheduleManager) LastResult(scheduleID uuid.UUID) (*ExecutionResult, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result, ok := m.results[scheduleID]
	return result, ok
}

// ValidateCronExpression validates a cron expression. A leading seconds field is optional.
func ValidateCronExpression(expr string) error {
	_, err := cronParser.Parse(expr)
	return err
}

// ValidateSchedule checks a schedule before it is registered
func ValidateSchedule(schedule *Schedule) error {
	if schedule.ID == uuid.Nil {
		return fmt.Errorf("schedule id is required")
	}
	if err := ValidateCronExpression(schedule.CronExpression); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", schedule.CronExpression, err)
	}
	if _, err := scheduleLocation(schedule.Timezone); err != nil {
		return err
	}
	if _, ok := reports.Lookup(schedule.Kind); !ok {
		return fmt.Errorf("unknown report kind %q", schedule.Kind)
	}
	switch schedule.Format {
	case reports.ExportFormatPDF, reports.ExportFormatXLSX, reports.ExportFormatCSV:
	default:
		return fmt.Errorf("unsupported export format %q", schedule.Format)
	}
	if spec := reports.MustLookup(schedule.Kind); spec.Mode == reports.FetchModeRole && schedule.Role == "" {
		return fmt.Errorf("schedule for %s requires a role", schedule.Kind)
	}
	return nil
}

// NextRun returns the next time a cron expression fires after from
func NextRun(expr, timezone string, from time.Time) (time.Time, error) {
	sched, err := cronParser.Parse(cronSpec(expr, timezone))
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(from), nil
}

func cronSpec(expr, timezone string) string {
	if timezone == "" {
		return expr
	}
	return "CRON_TZ=" + timezone + " " + expr
}

func scheduleLocation(timezone string) (*time.Location, error) {
	if timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return loc, nil
}
