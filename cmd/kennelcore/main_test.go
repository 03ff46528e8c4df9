package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kennelcore/internal/core"
	"kennelcore/pkg/domain"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	body := "app:\n  log_level: error\n" +
		"storage:\n  driver: sqlite\n  sqlite_path: " + filepath.Join(dir, "kennel.db") + "\n" +
		"blob:\n  driver: fs\n  fs_root: " + filepath.Join(dir, "blobs") + "\n"
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newCommand()
	cmd.Writer = &out
	cmd.ErrWriter = io.Discard
	err := cmd.Run(context.Background(), append([]string{"kennelcore"}, args...))
	return out.String(), err
}

func snapshotFile(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine())
	for _, name := range []string{"Atlas", "Comet"} {
		if _, _, err := svc.CreateDog(ctx, domain.Dog{Name: name, Sex: domain.SexMale}); err != nil {
			t.Fatalf("create dog: %v", err)
		}
	}
	data, err := svc.ExportDatabase(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
	return path
}

func TestImportStatsBackupClear(t *testing.T) {
	cfg := writeConfig(t)

	out, err := runCLI(t, "--config", cfg, "import", "--in", snapshotFile(t))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "dog: 2\n") {
		t.Fatalf("import should print counts, got:\n%s", out)
	}

	out, err = runCLI(t, "--config", cfg, "stats")
	if err != nil || !strings.Contains(out, "dog: 2\n") {
		t.Fatalf("stats after reopen: %v\n%s", err, out)
	}

	out, err = runCLI(t, "--config", cfg, "backup", "--reason", "test")
	if err != nil {
		t.Fatalf("backup: %v", err)
	}
	if !strings.Contains(out, "dogs.csv") || !strings.Contains(out, "manifest.yaml") {
		t.Fatalf("backup should list artifacts, got:\n%s", out)
	}

	if _, err := runCLI(t, "--config", cfg, "clear"); err == nil {
		t.Fatalf("clear without --yes should fail")
	}
	if _, err := runCLI(t, "--config", cfg, "clear", "--yes"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	out, err = runCLI(t, "--config", cfg, "stats")
	if err != nil || strings.Contains(out, "dog: 2\n") {
		t.Fatalf("stats after clear: %v\n%s", err, out)
	}
}

func TestExportWritesFile(t *testing.T) {
	cfg := writeConfig(t)
	if _, err := runCLI(t, "--config", cfg, "import", "--in", snapshotFile(t)); err != nil {
		t.Fatalf("import: %v", err)
	}
	target := filepath.Join(t.TempDir(), "out.json")
	if _, err := runCLI(t, "--config", cfg, "export", "--out", target); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !bytes.Contains(data, []byte(`"Comet"`)) {
		t.Fatalf("export missing dog: %s", data)
	}

	out, err := runCLI(t, "--config", cfg, "migrate")
	if err != nil || !strings.Contains(out, "dog: 2\n") {
		t.Fatalf("migrate: %v\n%s", err, out)
	}
}
