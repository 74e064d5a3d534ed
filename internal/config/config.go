package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Study    StudyConfig    `mapstructure:"study"    validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	// Driver selects the storage backend.
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	// URL is a postgres connection string, or a file path / DSN for sqlite.
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// StudyConfig tunes the study session endpoints.
type StudyConfig struct {
	// DefaultQueueLimit is used when a queue request does not ask for a size.
	DefaultQueueLimit int `mapstructure:"default_queue_limit" validate:"required,gt=0,ltefield=MaxQueueLimit"`
	// MaxQueueLimit caps any requested queue size.
	MaxQueueLimit int `mapstructure:"max_queue_limit" validate:"required,gt=0"`
	// TrendSize is the number of recent quiz results in a progress summary.
	TrendSize int `mapstructure:"trend_size" validate:"required,gt=0"`
	// TimeZone defines where "end of today" falls for the due queue.
	TimeZone string `mapstructure:"time_zone" validate:"required,timezone"`
	// MaxConflictRetries bounds how often a review is re-attempted after
	// losing a race with a concurrent review of the same card.
	MaxConflictRetries int `mapstructure:"max_conflict_retries" validate:"gte=0,lte=10"`
}

// Location resolves TimeZone. It falls back to UTC if the zone cannot be
// loaded, which validation normally rules out.
func (c StudyConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
