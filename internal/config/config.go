package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig     `json:"server"`
	Mongo     MongoConfig      `json:"mongo"`
	Reports   ReportsConfig    `json:"reports"`
	Storage   StorageConfig    `json:"storage"`
	Schedules []ScheduleConfig `json:"schedules" validate:"dive"`
	Logging   LoggingConfig    `json:"logging"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	Mode            string        `json:"mode" validate:"omitempty,oneof=debug release test"`
}

// MongoConfig represents database configuration
type MongoConfig struct {
	URI            string        `json:"uri" validate:"required"`
	Database       string        `json:"database" validate:"required"`
	ConnectTimeout time.Duration `json:"connect_timeout"`
}

// ReportsConfig configures report rendering and sessions
type ReportsConfig struct {
	Locale          string        `json:"locale"`
	Timezone        string        `json:"timezone"`
	BrandText       string        `json:"brand_text"`
	LogoPath        string        `json:"logo_path"`
	PageSize        string        `json:"page_size" validate:"omitempty,oneof=A3 A4 A5 Letter Legal"`
	Orientation     string        `json:"orientation" validate:"omitempty,oneof=P L"`
	SessionTTL      time.Duration `json:"session_ttl"`
	CleanupInterval time.Duration `json:"cleanup_interval"`
}

// StorageConfig configures the object store used by scheduled exports
type StorageConfig struct {
	Bucket          string        `json:"bucket"`
	Region          string        `json:"region"`
	Prefix          string        `json:"prefix"`
	Endpoint        string        `json:"endpoint"`
	AccessKeyID     string        `json:"access_key_id"`
	SecretAccessKey string        `json:"secret_access_key"`
	UsePathStyle    bool          `json:"use_path_style"`
	PresignExpiry   time.Duration `json:"presign_expiry"`
}

// ScheduleConfig describes one recurring export
type ScheduleConfig struct {
	ID           string `json:"id" validate:"required,uuid"`
	Name         string `json:"name" validate:"required"`
	Cron         string `json:"cron" validate:"required"`
	Timezone     string `json:"timezone"`
	Kind         string `json:"kind" validate:"required"`
	Format       string `json:"format" validate:"required,oneof=pdf xlsx csv"`
	LookbackDays int    `json:"lookback_days" validate:"gte=0"`
	Role         string `json:"role"`
	WebhookURL   string `json:"webhook_url" validate:"omitempty,url"`
	Disabled     bool   `json:"disabled"`
}

// LoggingConfig
type LoggingConfig struct {
	Level  string `json:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `json:"format" validate:"omitempty,oneof=json console"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Mode:            "release",
		},
		Mongo: MongoConfig{
			URI:            "mongodb://localhost:27017",
			Database:       "assetone",
			ConnectTimeout: 10 * time.Second,
		},
		Reports: ReportsConfig{
			Locale:          "en-US",
			BrandText:       "AssetONE",
			PageSize:        "A4",
			Orientation:     "L",
			SessionTTL:      30 * time.Minute,
			CleanupInterval: time.Minute,
		},
		Storage: StorageConfig{
			Prefix:        "reports",
			PresignExpiry: 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig loads configuration from file and environment variables.
// A missing file is not an error; an unreadable or malformed one is.
func LoadConfig(configPath string) (*Config, error) {
	config := Default()

	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// .env is optional
	_ = godotenv.Load()

	if err := overrideWithEnv(config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

var validate = validator.New()

// Validate checks field constraints and returns the first violation
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("invalid config: %s failed on %q", fe.Namespace(), fe.Tag())
	}
	return fmt.Errorf("invalid config: %w", err)
}

func overrideWithEnv(config *Config) error {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid SERVER_PORT %q: %w", port, err)
		}
		config.Server.Port = p
	}
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		config.Server.Mode = mode
	}

	if uri := os.Getenv("MONGO_URI"); uri != "" {
		config.Mongo.URI = uri
	}
	if db := os.Getenv("MONGO_DATABASE"); db != "" {
		config.Mongo.Database = db
	}

	if locale := os.Getenv("REPORTS_LOCALE"); locale != "" {
		config.Reports.Locale = locale
	}
	if tz := os.Getenv("REPORTS_TIMEZONE"); tz != "" {
		config.Reports.Timezone = tz
	}
	if brand := os.Getenv("REPORTS_BRAND_TEXT"); brand != "" {
		config.Reports.BrandText = brand
	}
	if logo := os.Getenv("REPORTS_LOGO_PATH"); logo != "" {
		config.Reports.LogoPath = logo
	}
	if err := durationEnv("REPORTS_SESSION_TTL", &config.Reports.SessionTTL); err != nil {
		return err
	}

	if bucket := os.Getenv("S3_BUCKET"); bucket != "" {
		config.Storage.Bucket = bucket
	}
	if region := os.Getenv("AWS_REGION"); region != "" {
		config.Storage.Region = region
	}
	if prefix := os.Getenv("S3_PREFIX"); prefix != "" {
		config.Storage.Prefix = prefix
	}
	if endpoint := os.Getenv("S3_ENDPOINT"); endpoint != "" {
		config.Storage.Endpoint = endpoint
	}
	if key := os.Getenv("AWS_ACCESS_KEY_ID"); key != "" {
		config.Storage.AccessKeyID = key
	}
	if secret := os.Getenv("AWS_SECRET_ACCESS_KEY"); secret != "" {
		config.Storage.SecretAccessKey = secret
	}
	if pathStyle := os.Getenv("S3_USE_PATH_STYLE"); pathStyle != "" {
		v, err := strconv.ParseBool(pathStyle)
		if err != nil {
			return fmt.Errorf("invalid S3_USE_PATH_STYLE %q: %w", pathStyle, err)
		}
		config.Storage.UsePathStyle = v
	}
	if err := durationEnv("S3_PRESIGN_EXPIRY", &config.Storage.PresignExpiry); err != nil {
		return err
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = strings.ToLower(level)
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		config.Logging.Format = strings.ToLower(format)
	}
	return nil
}

func durationEnv(name string, dst *time.Duration) error {
	raw := os.Getenv(name)
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	*dst = d
	return nil
}

// Location resolves the configured report time zone, falling back to the host zone
func (c *ReportsConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid reports timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// NewLogger builds a zap logger from the logging section
func (c *LoggingConfig) NewLogger() (*zap.Logger, error) {
	var zapConfig zap.Config
	if c.Format == "console" {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	if c.Level != "" {
		level, err := zapcore.ParseLevel(c.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", c.Level, err)
		}
		zapConfig.Level = zap.NewAtomicLevelAt(level)
	}

	return zapConfig.Build()
}
