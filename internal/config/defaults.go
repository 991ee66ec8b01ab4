package config

import (
	"time"

	"github.com/spf13/viper"
)

// Default values for configuration
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = true

	DefaultServerPort            = "3001"
	DefaultServerShutdownTimeout = 10 * time.Second
	DefaultServerAllowedOrigin   = "*"

	DefaultDBPath = "diary.db"

	DefaultGreentextProvider    = "openrouter"
	DefaultGreentextBaseURL     = "https://openrouter.ai/api/v1"
	DefaultGreentextModel       = "cognitivecomputations/dolphin-mistral-24b-venice-edition:free"
	DefaultGreentextTemperature = 0.9
	DefaultGreentextMaxTokens   = 600
	DefaultGreentextReferer     = "http://localhost:3001"
	DefaultGreentextTitle       = "/diary/"

	DefaultGreentextBreakerFailures = 0
	DefaultGreentextBreakerCooldown = 30 * time.Second

	DefaultAdminTokenTTL = time.Hour

	DefaultRenderTimezone   = "UTC"
	DefaultRenderBoardTitle = "/diary/ - Personal Greentext Journal"

	// SQLMaintenanceTask is the scheduler key of the VACUUM task.
	SQLMaintenanceTask            = "sql_maintenance"
	DefaultSQLMaintenanceSchedule = "0 0 4 * * *"
)

// setDefaults registers every key with viper so that environment overrides
// are picked up by Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", DefaultLogJSON)

	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.shutdown_timeout", DefaultServerShutdownTimeout)
	v.SetDefault("server.allowed_origin", DefaultServerAllowedOrigin)

	v.SetDefault("database.path", DefaultDBPath)

	v.SetDefault("greentext.provider", DefaultGreentextProvider)
	v.SetDefault("greentext.api_key", "")
	v.SetDefault("greentext.base_url", DefaultGreentextBaseURL)
	v.SetDefault("greentext.model", DefaultGreentextModel)
	v.SetDefault("greentext.temperature", DefaultGreentextTemperature)
	v.SetDefault("greentext.max_tokens", DefaultGreentextMaxTokens)
	v.SetDefault("greentext.timeout", time.Duration(0))
	v.SetDefault("greentext.referer", DefaultGreentextReferer)
	v.SetDefault("greentext.title", DefaultGreentextTitle)
	v.SetDefault("greentext.breaker_failures", DefaultGreentextBreakerFailures)
	v.SetDefault("greentext.breaker_cooldown", DefaultGreentextBreakerCooldown)

	v.SetDefault("admin.password_hash", "")
	v.SetDefault("admin.jwt_secret", "")
	v.SetDefault("admin.token_ttl", DefaultAdminTokenTTL)

	v.SetDefault("render.timezone", DefaultRenderTimezone)
	v.SetDefault("render.board_title", DefaultRenderBoardTitle)

	v.SetDefault("scheduler.tasks."+SQLMaintenanceTask+".enabled", false)
	v.SetDefault("scheduler.tasks."+SQLMaintenanceTask+".schedule", DefaultSQLMaintenanceSchedule)
}
