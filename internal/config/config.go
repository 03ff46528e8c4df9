package config

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"kennelcore/internal/blob"
	"kennelcore/internal/core"
)

// Config is the application configuration.
type Config struct {
	App     AppConfig          `yaml:"app"`
	Storage core.StorageConfig `yaml:"storage"`
	Blob    blob.Config        `yaml:"blob"`
	Backups BackupsConfig      `yaml:"backups"`
	Metrics MetricsConfig      `yaml:"metrics"`
}

// Validate implements Validator.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.App),
		validation.Field(&c.Storage),
		validation.Field(&c.Blob),
		validation.Field(&c.Backups),
	)
}

// AppConfig holds process-level settings.
type AppConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate implements validation.Validatable.
func (c AppConfig) Validate() error {
	return validation.ValidateStruct(&c, validation.Field(&c.HTTP))
}

// HTTPConfig holds the API listener settings.
type HTTPConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Address returns the listen address.
func (c HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate implements validation.Validatable.
func (c HTTPConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.ShutdownTimeout, validation.Min(time.Duration(0))),
	)
}

// BackupsConfig schedules periodic backups. A zero interval disables them.
type BackupsConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// Validate implements validation.Validatable.
func (c BackupsConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Interval, validation.When(c.Interval != 0, validation.Min(time.Minute))),
	)
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// NewDefaultConfig returns the configuration used when no file is given.
// Storage and blob settings start from the environment.
func NewDefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			LogLevel: slog.LevelInfo,
			HTTP:     HTTPConfig{Port: 8080, ShutdownTimeout: 10 * time.Second},
		},
		Storage: core.StorageConfigFromEnv(),
		Blob:    blob.ConfigFromEnv(),
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}
