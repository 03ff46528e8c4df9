package core

import (
	"fmt"
	"log/slog"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"kennelcore/internal/infra/persistence/memory"
	"kennelcore/internal/infra/persistence/postgres"
	"kennelcore/internal/infra/persistence/sqlite"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// Storage environment variables.
const (
	EnvStorageDriver = "KENNELCORE_STORAGE_DRIVER"
	EnvSQLitePath    = "KENNELCORE_SQLITE_PATH"
	EnvPostgresDSN   = "KENNELCORE_POSTGRES_DSN"
)

// StorageConfig selects and parameterises a backend.
type StorageConfig struct {
	Driver      StorageDriver `yaml:"driver"`
	SQLitePath  string        `yaml:"sqlite_path"`
	PostgresDSN string        `yaml:"postgres_dsn"`
}

// Validate implements validation.Validatable.
func (c StorageConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Driver, validation.In(StorageMemory, StorageSQLite, StoragePostgres)),
		validation.Field(&c.PostgresDSN, validation.When(c.Driver == StoragePostgres, validation.Required)),
	)
}

// StorageConfigFromEnv reads the backend selection from the environment.
// The driver defaults to sqlite.
//
//	KENNELCORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	KENNELCORE_SQLITE_PATH: path to sqlite file (default ./kennelcore.db)
//	KENNELCORE_POSTGRES_DSN: postgres DSN when driver=postgres
func StorageConfigFromEnv() StorageConfig {
	cfg := StorageConfig{
		Driver:      StorageDriver(os.Getenv(EnvStorageDriver)),
		SQLitePath:  os.Getenv(EnvSQLitePath),
		PostgresDSN: os.Getenv(EnvPostgresDSN),
	}
	if cfg.Driver == "" {
		cfg.Driver = StorageSQLite
	}
	return cfg
}

// OpenPersistentStore selects a backend using environment variables.
func OpenPersistentStore(engine *RulesEngine) (PersistentStore, error) {
	return OpenStore(StorageConfigFromEnv(), engine, nil)
}

// OpenStore opens the backend described by cfg. logger receives load-time
// diagnostics from durable drivers and may be nil.
func OpenStore(cfg StorageConfig, engine *RulesEngine, logger *slog.Logger, memOpts ...memory.Option) (PersistentStore, error) {
	if cfg.Driver == "" {
		cfg.Driver = StorageSQLite
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("storage config: %w", err)
	}
	switch cfg.Driver {
	case StorageMemory:
		return memory.NewStore(engine, memOpts...), nil
	case StorageSQLite:
		opts := []sqlite.Option{sqlite.WithMemoryOptions(memOpts...)}
		if logger != nil {
			opts = append(opts, sqlite.WithLogger(logger))
		}
		return sqlite.NewStore(cfg.SQLitePath, engine, opts...)
	case StoragePostgres:
		opts := []postgres.Option{postgres.WithMemoryOptions(memOpts...)}
		if logger != nil {
			opts = append(opts, postgres.WithLogger(logger))
		}
		return postgres.NewStore(cfg.PostgresDSN, engine, opts...)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.Driver)
	}
}

// Open builds a Service over the backend described by cfg, using the default
// rules engine. Records are stamped with the service clock.
func Open(cfg StorageConfig, logger *slog.Logger, opts ...Option) (*Service, error) {
	svc := newService(opts)
	store, err := OpenStore(cfg, NewDefaultRulesEngine(), logger, memory.WithClock(svc.clock.Now))
	if err != nil {
		return nil, err
	}
	svc.store = store
	return svc, nil
}
