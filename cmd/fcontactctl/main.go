package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	cli "github.com/urfave/cli/v2"

	"Driftwood/internal/config"
	"Driftwood/internal/core/fcontacts"
	"Driftwood/internal/core/gserver"
	"Driftwood/internal/core/interactions"
	"Driftwood/internal/core/itemuri"
	"Driftwood/internal/core/jobs"
	"Driftwood/internal/core/nodeinfo"
	postgresRepo "Driftwood/internal/db/postgres"
	"Driftwood/internal/federation/diaspora"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("fcontactctl failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	app := cli.App{
		Name:    "fcontactctl",
		Usage:   "inspect and refresh the Diaspora contact cache",
		Version: versioninfo.Short(),
	}

	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:  "migrate",
			Usage: "apply database migrations before running the command",
		},
	}

	app.Before = func(cctx *cli.Context) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
		cctx.App.Metadata = map[string]any{"config": cfg}
		return nil
	}

	app.Commands = []*cli.Command{
		resolveCmd,
		guidCmd,
		probeCmd,
		nodeinfoCmd,
		reportCmd,
	}

	return app.Run(args)
}

func loadConfig(cctx *cli.Context) *config.Config {
	return cctx.App.Metadata["config"].(*config.Config)
}

func openDB(cctx *cli.Context) (*sql.DB, error) {
	cfg := loadConfig(cctx)

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.PingContext(cctx.Context); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cctx.Bool("migrate") {
		if err := goose.SetDialect("postgres"); err != nil {
			_ = db.Close()
			return nil, err
		}
		if err := goose.Up(db, cfg.MigrationsDir); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	return db, nil
}

func newResolver(cfg *config.Config) *diaspora.Resolver {
	return diaspora.NewResolver(diaspora.Config{
		UserAgent:        cfg.UserAgent,
		Timeout:          cfg.ProbeTimeout,
		MaxRetries:       cfg.ProbeMaxRetries,
		HostRate:         cfg.ProbeHostRate,
		HostBurst:        cfg.ProbeHostBurst,
		FailureThreshold: cfg.FailureThreshold,
		OpenDuration:     cfg.OpenDuration,
	})
}

// newFContactService builds the cache service on an unstarted queue; the
// caller drains it with RunPending before exiting
func newFContactService(cfg *config.Config, db *sql.DB) (fcontacts.Service, *jobs.Queue, error) {
	uriCache, err := itemuri.NewCache(postgresRepo.NewItemURIRepository(db), cfg.URICacheSize)
	if err != nil {
		return nil, nil, err
	}

	queue := jobs.NewQueue(jobs.Config{Workers: 1, JobTimeout: cfg.JobTimeout})
	svc := fcontacts.NewService(
		postgresRepo.NewFContactRepository(db),
		newResolver(cfg),
		uriCache,
		interactions.NewSource(postgresRepo.NewAPContactRepository(db), postgresRepo.NewContactRepository(db)),
		queue,
		gserver.NewPolicy(),
	)
	fcontacts.RegisterJobs(queue, svc)
	return svc, queue, nil
}

func newNodeinfoService(cfg *config.Config, db *sql.DB) *nodeinfo.Service {
	return nodeinfo.NewService(
		postgresRepo.NewConfigRepository(db),
		nodeinfo.NewStaticAddons(cfg.Addons),
		postgresRepo.NewNodeinfoRepository(db),
		nodeinfo.Config{
			BaseURL:           cfg.BaseURL,
			NodeName:          cfg.NodeName,
			SoftwareVersion:   versioninfo.Short(),
			OpenRegistrations: cfg.OpenRegistrations,
		},
	)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func drain(ctx context.Context, queue *jobs.Queue) {
	if n := queue.RunPending(ctx); n > 0 {
		slog.Info("ran background refreshes", "count", n)
	}
}
