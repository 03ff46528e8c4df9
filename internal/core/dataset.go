package core

import (
	"context"
	"encoding/json"
	"fmt"

	"kennelcore/internal/infra/persistence/memory"
	"kennelcore/pkg/domain"
)

// ExportDatabase serializes the whole dataset as indented JSON at the current
// schema version.
func (s *Service) ExportDatabase(ctx context.Context) ([]byte, error) {
	var out []byte
	_, err := s.run(ctx, "export_database", func(ctx context.Context) (string, domain.Result, error) {
		snapshot, err := s.store.ExportState(ctx)
		if err != nil {
			return "", domain.Result{}, fmt.Errorf("export state: %w", err)
		}
		out, err = json.MarshalIndent(snapshot, "", "  ")
		if err != nil {
			return "", domain.Result{}, fmt.Errorf("encode snapshot: %w", err)
		}
		return "", domain.Result{}, nil
	})
	return out, err
}

// ImportDatabase replaces the dataset with an exported payload, migrating
// older schema versions first. It reports whether migration changed the
// payload. A payload that does not decode leaves the dataset untouched.
func (s *Service) ImportDatabase(ctx context.Context, data []byte) (bool, error) {
	var migrated bool
	_, err := s.run(ctx, "import_database", func(ctx context.Context) (string, domain.Result, error) {
		var snapshot domain.Snapshot
		if err := json.Unmarshal(data, &snapshot); err != nil {
			return "", domain.Result{}, fmt.Errorf("decode snapshot: %w", err)
		}
		var err error
		if migrated, err = memory.MigrateSnapshot(&snapshot, s.now()); err != nil {
			return "", domain.Result{}, err
		}
		return "", domain.Result{}, s.store.ImportState(ctx, snapshot)
	})
	if err != nil {
		return false, err
	}
	if migrated {
		s.logger.Info("imported snapshot migrated", "schema_version", domain.CurrentSchemaVersion)
	}
	return migrated, nil
}

// ClearDatabase removes every record.
func (s *Service) ClearDatabase(ctx context.Context) error {
	_, err := s.run(ctx, "clear_database", func(ctx context.Context) (string, domain.Result, error) {
		return "", domain.Result{}, s.store.ClearState(ctx)
	})
	return err
}

// DatasetCounts returns the number of records per entity type.
func (s *Service) DatasetCounts(ctx context.Context) (map[domain.EntityType]int, error) {
	snapshot, err := s.store.ExportState(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot.Counts(), nil
}
