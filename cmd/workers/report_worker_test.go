package main

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cruzrowellt2024/AssetONE-sub001/internal/config"
	"github.com/cruzrowellt2024/AssetONE-sub001/internal/reports"
)

func TestSchedulesFromConfig(t *testing.T) {
	id := "9b2f0f0e-3c1d-4c1e-8a51-3f8f0c6b2a10"
	schedules, err := schedulesFromConfig([]config.ScheduleConfig{
		{ID: id, Name: "Weekly assets", Cron: "0 6 * * MON", Kind: "assets", Format: "xlsx", LookbackDays: 7},
		{ID: uuid.NewString(), Name: "Old", Cron: "@daily", Kind: "users", Format: "pdf", Disabled: true},
	})

	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.Equal(t, uuid.MustParse(id), schedules[0].ID)
	assert.Equal(t, reports.KindAssets, schedules[0].Kind)
	assert.Equal(t, reports.ExportFormatXLSX, schedules[0].Format)
	assert.Equal(t, 7, schedules[0].LookbackDays)
	assert.True(t, schedules[0].IsActive)
}

func TestSchedulesFromConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.ScheduleConfig
	}{
		{name: "bad id", cfg: config.ScheduleConfig{ID: "nope", Name: "x", Kind: "assets", Format: "pdf"}},
		{name: "unknown kind", cfg: config.ScheduleConfig{ID: uuid.NewString(), Name: "x", Kind: "invoices", Format: "pdf"}},
		{name: "unknown format", cfg: config.ScheduleConfig{ID: uuid.NewString(), Name: "x", Kind: "assets", Format: "docx"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := schedulesFromConfig([]config.ScheduleConfig{tt.cfg})
			assert.Error(t, err)
		})
	}
}
