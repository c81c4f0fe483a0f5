package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

var envKeys = []string{
	"CONFIG_PATH", "SERVER_HOST", "SERVER_PORT", "GIN_MODE", "MONGO_URI", "MONGO_DATABASE",
	"REPORTS_LOCALE", "REPORTS_TIMEZONE", "REPORTS_BRAND_TEXT", "REPORTS_LOGO_PATH", "REPORTS_SESSION_TTL",
	"S3_BUCKET", "AWS_REGION", "S3_PREFIX", "S3_ENDPOINT", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY",
	"S3_USE_PATH_STYLE", "S3_PRESIGN_EXPIRY", "LOG_LEVEL", "LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.GetServerAddr())
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, "assetone", cfg.Mongo.Database)
	assert.Equal(t, "en-US", cfg.Reports.Locale)
	assert.Equal(t, 30*time.Minute, cfg.Reports.SessionTTL)
	assert.Equal(t, "reports", cfg.Storage.Prefix)
	assert.Empty(t, cfg.Schedules)
}

func TestLoadConfig_File(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `{
		"server": {"port": 9090, "mode": "debug"},
		"reports": {"locale": "de-DE", "timezone": "UTC", "orientation": "P"},
		"schedules": [{
			"id": "9b2f0f0e-3c1d-4c1e-8a51-3f8f0c6b2a10",
			"name": "Weekly assets",
			"cron": "0 6 * * MON",
			"kind": "assets",
			"format": "xlsx",
			"lookback_days": 7,
			"webhook_url": "https://hooks.example.com/reports"
		}]
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, "de-DE", cfg.Reports.Locale)
	assert.Equal(t, "P", cfg.Reports.Orientation)
	assert.Equal(t, "AssetONE", cfg.Reports.BrandText)
	require.Len(t, cfg.Schedules, 1)
	assert.Equal(t, 7, cfg.Schedules[0].LookbackDays)

	loc, err := cfg.Reports.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoadConfig_ConfigPathEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_PATH", writeConfig(t, `{"mongo": {"database": "fleet"}}`))

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "fleet", cfg.Mongo.Database)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `{"server": {"port": 9090}}`)
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("MONGO_URI", "mongodb://db:27017")
	t.Setenv("REPORTS_SESSION_TTL", "5m")
	t.Setenv("S3_BUCKET", "exports")
	t.Setenv("S3_USE_PATH_STYLE", "true")
	t.Setenv("S3_PRESIGN_EXPIRY", "1h")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "mongodb://db:27017", cfg.Mongo.URI)
	assert.Equal(t, 5*time.Minute, cfg.Reports.SessionTTL)
	assert.Equal(t, "exports", cfg.Storage.Bucket)
	assert.True(t, cfg.Storage.UsePathStyle)
	assert.Equal(t, time.Hour, cfg.Storage.PresignExpiry)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		env     map[string]string
		wantErr string
	}{
		{name: "malformed file", file: `{"server":`, wantErr: "failed to parse config file"},
		{name: "bad port env", env: map[string]string{"SERVER_PORT": "http"}, wantErr: "invalid SERVER_PORT"},
		{name: "bad duration env", env: map[string]string{"REPORTS_SESSION_TTL": "soon"}, wantErr: "invalid REPORTS_SESSION_TTL"},
		{name: "bad bool env", env: map[string]string{"S3_USE_PATH_STYLE": "maybe"}, wantErr: "invalid S3_USE_PATH_STYLE"},
		{name: "port out of range", file: `{"server": {"port": 70000}}`, wantErr: `Config.Server.Port failed on "max"`},
		{name: "unknown mode", env: map[string]string{"GIN_MODE": "prod"}, wantErr: `Config.Server.Mode failed on "oneof"`},
		{name: "bad page size", file: `{"reports": {"page_size": "B5"}}`, wantErr: `Config.Reports.PageSize failed on "oneof"`},
		{
			name:    "schedule without id",
			file:    `{"schedules": [{"name": "x", "cron": "@daily", "kind": "assets", "format": "pdf"}]}`,
			wantErr: `Config.Schedules[0].ID failed on "required"`,
		},
		{
			name:    "schedule with bad format",
			file:    `{"schedules": [{"id": "9b2f0f0e-3c1d-4c1e-8a51-3f8f0c6b2a10", "name": "x", "cron": "@daily", "kind": "assets", "format": "docx"}]}`,
			wantErr: `Config.Schedules[0].Format failed on "oneof"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeConfig(t, tt.file)
			}

			_, err := LoadConfig(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestReportsConfig_Location(t *testing.T) {
	loc, err := (&ReportsConfig{}).Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	_, err = (&ReportsConfig{Timezone: "Mars/Olympus"}).Location()
	assert.Error(t, err)
}

func TestLoggingConfig_NewLogger(t *testing.T) {
	logger, err := (&LoggingConfig{Level: "warn", Format: "console"}).NewLogger()
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	logger, err = (&LoggingConfig{Format: "json"}).NewLogger()
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = (&LoggingConfig{Level: "verbose"}).NewLogger()
	assert.Error(t, err)
}
