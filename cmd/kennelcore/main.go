package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"kennelcore/internal/app"
	"kennelcore/internal/backups"
	"kennelcore/internal/config"
	"kennelcore/internal/core"
)

func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg := config.NewDefaultConfig()
	if err := config.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// withService opens the configured store for a one-shot command.
func withService(ctx context.Context, cmd *cli.Command, fn func(*core.Service, *slog.Logger) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := app.NewLogger(cmd.Root().ErrWriter, cfg.App.LogLevel)
	svc, err := app.OpenService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Error("close storage", slog.String("error", err.Error()))
		}
	}()
	return fn(svc, logger)
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := app.Run(ctx, app.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func export(ctx context.Context, cmd *cli.Command) error {
	return withService(ctx, cmd, func(svc *core.Service, _ *slog.Logger) error {
		data, err := svc.ExportDatabase(ctx)
		if err != nil {
			return err
		}
		out := cmd.String("out")
		if out == "" || out == "-" {
			_, err = cmd.Root().Writer.Write(data)
			return err
		}
		return os.WriteFile(out, data, 0o600)
	})
}

func importData(ctx context.Context, cmd *cli.Command) error {
	var (
		data []byte
		err  error
	)
	if in := cmd.String("in"); in == "-" {
		data, err = io.ReadAll(cmd.Root().Reader)
	} else {
		data, err = os.ReadFile(in)
	}
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	return withService(ctx, cmd, func(svc *core.Service, logger *slog.Logger) error {
		migrated, err := svc.ImportDatabase(ctx, data)
		if err != nil {
			return err
		}
		logger.Info("snapshot imported", slog.Bool("migrated", migrated))
		return printStats(ctx, cmd.Root().Writer, svc)
	})
}

func clearData(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("yes") {
		return fmt.Errorf("refusing to clear the database without --yes")
	}
	return withService(ctx, cmd, func(svc *core.Service, logger *slog.Logger) error {
		if err := svc.ClearDatabase(ctx); err != nil {
			return err
		}
		logger.Info("database cleared")
		return nil
	})
}

func stats(ctx context.Context, cmd *cli.Command) error {
	return withService(ctx, cmd, func(svc *core.Service, _ *slog.Logger) error {
		return printStats(ctx, cmd.Root().Writer, svc)
	})
}

func printStats(ctx context.Context, w io.Writer, svc *core.Service) error {
	counts, err := svc.DatasetCounts(ctx)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(counts))
	byName := make(map[string]int, len(counts))
	for entity, n := range counts {
		names = append(names, string(entity))
		byName[string(entity)] = n
	}
	sort.Strings(names)
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range names {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: name},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprint(byName[name])},
		)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(node)
}

func backup(ctx context.Context, cmd *cli.Command) error {
	return withService(ctx, cmd, func(svc *core.Service, logger *slog.Logger) error {
		worker := backups.NewWorker(svc, svc.Blobs(),
			backups.WithLogger(logger),
			backups.WithAuditLogger(backups.LogAudit{Logger: logger}),
		)
		job, err := worker.Run(ctx, backups.Request{RequestedBy: "cli", Reason: cmd.String("reason")})
		if err != nil {
			return err
		}
		if job.Status != backups.StatusSucceeded {
			return fmt.Errorf("backup %s failed: %s", job.ID, job.Error)
		}
		enc := yaml.NewEncoder(cmd.Root().Writer)
		defer enc.Close()
		return enc.Encode(job.Artifacts)
	})
}

// migrate rewrites the stored dataset at the current schema version.
func migrate(ctx context.Context, cmd *cli.Command) error {
	return withService(ctx, cmd, func(svc *core.Service, logger *slog.Logger) error {
		data, err := svc.ExportDatabase(ctx)
		if err != nil {
			return err
		}
		if _, err := svc.ImportDatabase(ctx, data); err != nil {
			return err
		}
		logger.Info("dataset rewritten")
		return printStats(ctx, cmd.Root().Writer, svc)
	})
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:   "kennelcore",
		Usage:  "Kennel and breeding records: dogs, litters, health, clients and sales",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("KENNELCORE_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			{Name: "serve", Usage: "Run the HTTP API", Action: serve},
			{
				Name:   "export",
				Usage:  "Write the dataset as JSON",
				Action: export,
				Flags:  []cli.Flag{&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file, - for stdout", Value: "-"}},
			},
			{
				Name:   "import",
				Usage:  "Replace the dataset with an exported JSON snapshot",
				Action: importData,
				Flags:  []cli.Flag{&cli.StringFlag{Name: "in", Aliases: []string{"i"}, Usage: "Snapshot file, - for stdin", Required: true}},
			},
			{
				Name:   "clear",
				Usage:  "Delete every record",
				Action: clearData,
				Flags:  []cli.Flag{&cli.BoolFlag{Name: "yes", Usage: "Confirm the deletion"}},
			},
			{Name: "stats", Usage: "Print record counts per entity", Action: stats},
			{
				Name:   "backup",
				Usage:  "Write a backup to the blob store",
				Action: backup,
				Flags:  []cli.Flag{&cli.StringFlag{Name: "reason", Usage: "Reason recorded in the manifest", Value: "manual"}},
			},
			{Name: "migrate", Usage: "Rewrite stored data at the current schema version", Action: migrate},
		},
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
