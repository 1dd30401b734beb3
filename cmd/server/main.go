package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"Driftwood/internal/api/middleware"
	"Driftwood/internal/api/routes"
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
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Connected to database")

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatal("Failed to set goose dialect:", err)
	}

	if err := goose.Up(db, cfg.MigrationsDir); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	log.Println("Migrations completed successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Background job queue
	queue := jobs.NewQueue(jobs.Config{
		Workers:    cfg.Workers,
		JobTimeout: cfg.JobTimeout,
	})

	// Initialize repositories and services
	uriCache, err := itemuri.NewCache(postgresRepo.NewItemURIRepository(db), cfg.URICacheSize)
	if err != nil {
		log.Fatal("Failed to create URI cache:", err)
	}

	stats := interactions.NewSource(
		postgresRepo.NewAPContactRepository(db),
		postgresRepo.NewContactRepository(db),
	)

	resolver := diaspora.NewResolver(diaspora.Config{
		UserAgent:        cfg.UserAgent,
		Timeout:          cfg.ProbeTimeout,
		MaxRetries:       cfg.ProbeMaxRetries,
		HostRate:         cfg.ProbeHostRate,
		HostBurst:        cfg.ProbeHostBurst,
		FailureThreshold: cfg.FailureThreshold,
		OpenDuration:     cfg.OpenDuration,
	})

	fcontactService := fcontacts.NewService(
		postgresRepo.NewFContactRepository(db),
		resolver,
		uriCache,
		stats,
		queue,
		gserver.NewPolicy(),
	)

	nodeinfoService := nodeinfo.NewService(
		postgresRepo.NewConfigRepository(db),
		nodeinfo.NewStaticAddons(cfg.Addons),
		postgresRepo.NewNodeinfoRepository(db),
		nodeinfo.Config{
			BaseURL:           cfg.BaseURL,
			NodeName:          cfg.NodeName,
			SoftwareVersion:   version,
			OpenRegistrations: cfg.OpenRegistrations,
		},
	)

	fcontacts.RegisterJobs(queue, fcontactService)
	nodeinfo.RegisterJobs(queue, nodeinfoService)
	queue.Start(ctx)

	go scheduleNodeinfo(ctx, queue, cfg.NodeinfoInterval)

	r := chi.NewRouter()

	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)

	// Discovery and metrics are not rate limited
	routes.RegisterWellKnownRoutes(r, nodeinfoService)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Rate limiting: per IP, for the API only
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	r.Group(func(r chi.Router) {
		r.Use(rateLimiter.Middleware)
		routes.RegisterFContactRoutes(r, fcontactService)
	})

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Driftwood %s listening on %s", version, cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed:", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown failed: %v", err)
	}
	queue.Stop()
}

// scheduleNodeinfo enqueues the statistics refresh once at startup and then
// on every tick
func scheduleNodeinfo(ctx context.Context, queue *jobs.Queue, interval time.Duration) {
	enqueue := func() {
		opts := jobs.Options{Priority: jobs.PriorityLow, DontFork: true}
		if _, err := queue.Enqueue(opts, nodeinfo.JobNodeinfoUpdate); err != nil {
			slog.Warn("failed to schedule nodeinfo update", "error", err)
		}
	}

	enqueue()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			enqueue()
		}
	}
}
