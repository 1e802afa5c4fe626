package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	S3        S3Config        `mapstructure:"s3"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Log       LogConfig       `mapstructure:"log"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Planner   PlannerConfig   `mapstructure:"planner"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	Mode            string        `mapstructure:"mode"` // gin mode: debug, release, test
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig selects the persistence backend. Driver "memory" keeps
// everything in process and is meant for local runs without MongoDB.
type DatabaseConfig struct {
	Driver  string        `mapstructure:"driver"`
	URI     string        `mapstructure:"uri"`
	Name    string        `mapstructure:"name"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type S3Config struct {
	Enabled         bool          `mapstructure:"enabled"`
	Endpoint        string        `mapstructure:"endpoint"`
	Region          string        `mapstructure:"region"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	BucketName      string        `mapstructure:"bucket_name"`
	UseSSL          bool          `mapstructure:"use_ssl"`
	ArchivePrefix   string        `mapstructure:"archive_prefix"`
	PresignExpiry   time.Duration `mapstructure:"presign_expiry"`
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`
	JSON     bool   `mapstructure:"json"`
	FileName string `mapstructure:"file_name"`
	ToStdout bool   `mapstructure:"to_stdout"`
}

type SentryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
	ServerName  string `mapstructure:"server_name"`
}

type GeminiConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	Model             string  `mapstructure:"model"`
	Temperature       float32 `mapstructure:"temperature"`
	MaxOutputTokens   int32   `mapstructure:"max_output_tokens"`
	RequestsPerMinute int     `mapstructure:"requests_per_minute"`
}

// PlannerConfig bounds the background plan generation runs.
type PlannerConfig struct {
	MaxParseAttempts      int           `mapstructure:"max_parse_attempts"`
	MaxValidationAttempts int           `mapstructure:"max_validation_attempts"`
	GenerationTimeout     time.Duration `mapstructure:"generation_timeout"`
	MaxConcurrentRuns     int           `mapstructure:"max_concurrent_runs"`
	DefaultCompliance     float64       `mapstructure:"default_compliance"`
}

type SchedulerConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	ReconcileSpec string `mapstructure:"reconcile_spec"`
}

// LoadConfig reads configuration from file or environment variables.
// A missing config file is not an error; defaults and env vars are used instead.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// server.address -> SERVER_ADDRESS, planner.max_parse_attempts -> PLANNER_MAX_PARSE_ATTEMPTS
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)

	var cfg Config
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.shutdown_timeout", "15s")

	v.SetDefault("database.driver", "mongo")
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "endurance_planner")
	v.SetDefault("database.timeout", "10s")

	v.SetDefault("s3.enabled", false)
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("s3.archive_prefix", "plans")
	v.SetDefault("s3.presign_expiry", "15m")

	v.SetDefault("jwt.expiration", "1h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.to_stdout", true)

	v.SetDefault("sentry.environment", "development")

	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("gemini.temperature", 0.4)
	v.SetDefault("gemini.max_output_tokens", 2048)
	v.SetDefault("gemini.requests_per_minute", 30)

	v.SetDefault("planner.max_parse_attempts", 3)
	v.SetDefault("planner.max_validation_attempts", 3)
	v.SetDefault("planner.generation_timeout", "20m")
	v.SetDefault("planner.max_concurrent_runs", 4)
	v.SetDefault("planner.default_compliance", 0.55)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.reconcile_spec", "@every 1h")
}

// Validate rejects configurations the server cannot run with.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case "mongo", "memory":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Planner.MaxParseAttempts < 1 || c.Planner.MaxValidationAttempts < 1 {
		return errors.New("planner attempts must be at least 1")
	}
	if c.Planner.MaxConcurrentRuns < 1 {
		return errors.New("planner.max_concurrent_runs must be at least 1")
	}
	if c.Planner.DefaultCompliance < 0 || c.Planner.DefaultCompliance > 1 {
		return errors.New("planner.default_compliance must be within [0,1]")
	}
	if c.Server.Mode == "release" && c.JWT.Secret == "" {
		return errors.New("jwt.secret is required in release mode")
	}
	if c.S3.Enabled && c.S3.BucketName == "" {
		return errors.New("s3.bucket_name is required when s3 is enabled")
	}
	return nil
}
