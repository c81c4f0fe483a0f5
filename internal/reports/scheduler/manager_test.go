package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cruzrowellt2024/AssetONE-sub001/internal/reports"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockRunner is a mock implementation of Runner
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Execute(ctx context.Context, schedule *Schedule, now time.Time) (*ExecutionResult, error) {
	args := m.Called(ctx, schedule, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ExecutionResult), args.Error(1)
}

func newTestManager(runner Runner) *ScheduleManager {
	m := NewScheduleManager(runner, zap.NewNop(), DefaultScheduleManagerConfig())
	m.now = testNow
	return m
}

func TestValidateSchedule(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Schedule)
		wantErr string
	}{
		{name: "valid", mutate: func(s *Schedule) {}},
		{name: "descriptor", mutate: func(s *Schedule) { s.CronExpression = "@daily" }},
		{name: "with seconds", mutate: func(s *Schedule) { s.CronExpression = "30 0 6 * * *" }},
		{name: "missing id", mutate: func(s *Schedule) { s.ID = uuid.Nil }, wantErr: "schedule id is required"},
		{name: "bad cron", mutate: func(s *Schedule) { s.CronExpression = "every monday" }, wantErr: "invalid cron expression"},
		{name: "bad timezone", mutate: func(s *Schedule) { s.Timezone = "Mars/Olympus" }, wantErr: "invalid timezone"},
		{name: "unknown kind", mutate: func(s *Schedule) { s.Kind = "invoices" }, wantErr: "unknown report kind"},
		{name: "unsupported format", mutate: func(s *Schedule) { s.Format = "excel" }, wantErr: "unsupported export format"},
		{name: "role kind without role", mutate: func(s *Schedule) { s.Kind = reports.KindUsers }, wantErr: "requires a role"},
		{
			name:   "role kind with role",
			mutate: func(s *Schedule) {
				s.Kind = reports.KindUsers
				s.Role = "admin"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schedule := testSchedule()
			tt.mutate(schedule)

			err := ValidateSchedule(schedule)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNextRun(t *testing.T) {
	next, err := NextRun("0 6 * * MON", "UTC", testNow())
	require.NoError(t, err)
	assert.True(t, next.Equal(time.Date(2024, 4, 15, 6, 0, 0, 0, time.UTC)), next.String())

	next, err = NextRun("30 0 18 * * *", "", time.Date(2024, 4, 10, 15, 30, 0, 0, time.Local))
	require.NoError(t, err)
	assert.True(t, next.Equal(time.Date(2024, 4, 10, 18, 0, 30, 0, time.Local)), next.String())

	_, err = NextRun("61 * * * *", "UTC", testNow())
	assert.Error(t, err)
}

func TestScheduleManager_RunNowStoresResult(t *testing.T) {
	runner := new(MockRunner)
	schedule := testSchedule()
	result := &ExecutionResult{ScheduleID: schedule.ID, Status: StatusCompleted}
	runner.On("Execute", mock.Anything, schedule, mock.MatchedBy(func(now time.Time) bool {
		return now.Equal(testNow()) && now.Location().String() == "UTC"
	})).Return(result, nil)

	m := newTestManager(runner)
	got, err := m.RunNow(context.Background(), schedule)

	require.NoError(t, err)
	assert.Same(t, result, got)
	last, ok := m.LastResult(schedule.ID)
	require.True(t, ok)
	assert.Same(t, result, last)
	runner.AssertExpectations(t)
}

func TestScheduleManager_RunNowFailure(t *testing.T) {
	runner := new(MockRunner)
	schedule := testSchedule()
	failed := &ExecutionResult{ScheduleID: schedule.ID, Status: StatusFailed, Error: "upload failed"}
	runner.On("Execute", mock.Anything, mock.Anything, mock.Anything).Return(failed, errors.New("upload failed"))

	m := newTestManager(runner)
	_, err := m.RunNow(context.Background(), schedule)

	require.Error(t, err)
	last, ok := m.LastResult(schedule.ID)
	require.True(t, ok)
	assert.Equal(t, StatusFailed, last.Status)

	schedule.Timezone = "Mars/Olympus"
	_, err = m.RunNow(context.Background(), schedule)
	assert.Error(t, err)
	runner.AssertNumberOfCalls(t, "Execute", 1)
}

func TestScheduleManager_AddAndRemove(t *testing.T) {
	m := newTestManager(new(MockRunner))
	schedule := testSchedule()
	schedule.CronExpression = "0 0 1 1 *"

	require.NoError(t, m.AddSchedule(schedule))
	require.NoError(t, m.AddSchedule(schedule))
	assert.Equal(t, 1, m.GetActiveJobs())

	invalid := testSchedule()
	invalid.ID = uuid.New()
	invalid.CronExpression = "bogus"
	assert.Error(t, m.AddSchedule(invalid))
	assert.Equal(t, 1, m.GetActiveJobs())

	require.NoError(t, m.Start())
	defer m.Stop()
	assert.Error(t, m.Start())

	status, err := m.GetJobStatus(schedule.ID)
	require.NoError(t, err)
	assert.True(t, status.IsActive)
	assert.Equal(t, schedule.ID, status.ScheduleID)
	assert.Equal(t, 1, status.NextRun.UTC().Day())
	assert.Equal(t, time.January, status.NextRun.UTC().Month())
	assert.Nil(t, status.LastResult)

	m.RemoveSchedule(schedule.ID)
	assert.Equal(t, 0, m.GetActiveJobs())
	_, err = m.GetJobStatus(schedule.ID)
	assert.EqualError(t, err, "job not found")
}

func TestScheduleManager_UpdateSchedule(t *testing.T) {
	m := newTestManager(new(MockRunner))
	schedule := testSchedule()
	require.NoError(t, m.AddSchedule(schedule))

	schedule.IsActive = false
	require.NoError(t, m.UpdateSchedule(schedule))
	assert.Equal(t, 0, m.GetActiveJobs())

	schedule.IsActive = true
	schedule.CronExpression = "@hourly"
	require.NoError(t, m.UpdateSchedule(schedule))
	assert.Equal(t, 1, m.GetActiveJobs())
}

func TestScheduleManager_CronFiresRunner(t *testing.T) {
	runner := new(MockRunner)
	schedule := testSchedule()
	schedule.CronExpression = "* * * * * *"
	done := make(chan struct{}, 1)
	runner.On("Execute", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			select {
			case done <- struct{}{}:
			default:
			}
		}).
		Return(&ExecutionResult{ScheduleID: schedule.ID, Status: StatusSkipped}, nil)

	m := newTestManager(runner)
	require.NoError(t, m.AddSchedule(schedule))
	require.NoError(t, m.Start())

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("schedule did not fire")
	}
	m.Stop()

	last, ok := m.LastResult(schedule.ID)
	require.True(t, ok)
	assert.Equal(t, StatusSkipped, last.Status)
}
