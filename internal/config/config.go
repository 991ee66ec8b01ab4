// Package config provides configuration loading, validation, and management
// for the diary service. It reads an optional YAML file, overlays DIARY_*
// environment variables on top of defaults and validates the result.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	apperrors "github.com/edgard/diary/internal/errors"
)

// EnvPrefix is the prefix of every environment override, e.g.
// DIARY_SERVER_PORT overrides server.port.
const EnvPrefix = "DIARY"

// APIKeyEnv is the single external secret, read from the process environment.
const APIKeyEnv = "OPENROUTER_API_KEY"

// Config defines the application configuration parameters for all components.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Greentext GreentextConfig `mapstructure:"greentext"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Render    RenderConfig    `mapstructure:"render"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"             validate:"required,numeric"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=1s,max=5m"`
	AllowedOrigin   string        `mapstructure:"allowed_origin"   validate:"required"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// GreentextConfig configures the external text generation call. Timeout of
// zero leaves the request bounded only by the HTTP client defaults.
// BreakerFailures of zero disables the circuit breaker.
type GreentextConfig struct {
	Provider    string        `mapstructure:"provider"    validate:"oneof=openrouter openai gemini"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"    validate:"omitempty,url"`
	Model       string        `mapstructure:"model"       validate:"required"`
	Temperature float32       `mapstructure:"temperature" validate:"min=0,max=2"`
	MaxTokens   int           `mapstructure:"max_tokens"  validate:"min=1,max=32768"`
	Timeout     time.Duration `mapstructure:"timeout"     validate:"min=0,max=10m"`
	Referer     string        `mapstructure:"referer"`
	Title       string        `mapstructure:"title"`

	BreakerFailures int           `mapstructure:"breaker_failures" validate:"min=0,max=100"`
	BreakerCooldown time.Duration `mapstructure:"breaker_cooldown" validate:"min=0,max=1h"`
}

// AdminConfig enables the administrative clear operation. Leaving
// PasswordHash empty disables it entirely.
type AdminConfig struct {
	PasswordHash string        `mapstructure:"password_hash"`
	JWTSecret    string        `mapstructure:"jwt_secret" validate:"required_with=PasswordHash,omitempty,min=16"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"  validate:"min=1m,max=24h"`
}

// Enabled reports whether admin credentials are configured.
func (a AdminConfig) Enabled() bool {
	return a.PasswordHash != ""
}

type RenderConfig struct {
	Timezone   string `mapstructure:"timezone"    validate:"required,timezone"`
	BoardTitle string `mapstructure:"board_title" validate:"required"`
}

// Location resolves the configured display time zone. Validation guarantees
// the name loads; UTC is returned if it somehow does not.
func (r RenderConfig) Location() *time.Location {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// LoadConfig loads configuration from defaults, the YAML file at path (which
// may be absent) and the environment, then validates it.
func LoadConfig(path string) (*Config, error) {
	startTime := time.Now()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("greentext.api_key", APIKeyEnv, EnvPrefix+"_GREENTEXT_API_KEY"); err != nil {
		return nil, apperrors.NewConfigError("failed to bind api key environment", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, apperrors.NewConfigError(fmt.Sprintf("failed to read config file %s", path), err)
			}
			slog.Info("Configuration file not found, using defaults and environment", "path", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to parse config", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Debug("Configuration loaded",
		"greentext_provider", cfg.Greentext.Provider,
		"greentext_model", cfg.Greentext.Model,
		"api_key_set", cfg.Greentext.APIKey != "",
		"db_path", cfg.Database.Path,
		"admin_enabled", cfg.Admin.Enabled(),
		"duration_ms", time.Since(startTime).Milliseconds())

	return cfg, nil
}

// Validate checks struct constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return apperrors.NewConfigError("configuration validation failed", err)
	}
	return nil
}
