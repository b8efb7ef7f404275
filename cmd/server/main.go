package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/sheetscan/internal/catalog"
	"github.com/JonMunkholm/sheetscan/internal/config"
	"github.com/JonMunkholm/sheetscan/internal/core"
	"github.com/JonMunkholm/sheetscan/internal/logging"
	"github.com/JonMunkholm/sheetscan/internal/web"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env file", "error", err)
		os.Exit(1)
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"sheets_base_url", cfg.Sheets.BaseURL,
		"scan_max_concurrent", cfg.Scan.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"database_enabled", cfg.Database.Enabled(),
	)

	reg, err := loadCatalog(cfg.Catalog.File)
	if err != nil {
		slog.Error("failed to load table catalog", "file", cfg.Catalog.File, "error", err)
		os.Exit(1)
	}
	slog.Info("tables registered", "count", reg.Count(), "refreshing", len(reg.Refreshing()))

	ctx := context.Background()
	opts := []core.ServiceOption{core.WithLogger(logger)}

	if cfg.Database.Enabled() {
		pool, err := connect(ctx, &cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		opts = append(opts, core.WithDB(pool))
	} else {
		slog.Info("no database configured, table loads disabled")
	}

	service := core.NewService(core.ServiceConfig{
		BaseURL:            cfg.Sheets.BaseURL,
		UserAgent:          cfg.Sheets.UserAgent,
		HTTPTimeout:        cfg.Sheets.HTTPTimeout,
		MaxResponseBytes:   cfg.Sheets.MaxResponseBytes,
		MaxConcurrent:      cfg.Scan.MaxConcurrent,
		MaxWaitTime:        cfg.Scan.MaxWaitTime,
		SessionIdleTimeout: cfg.Scan.SessionIdleTimeout,
		DefaultLimit:       cfg.Scan.DefaultLimit,
	}, reg, opts...)

	server := web.NewServer(service, cfg)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(ctx)

	go service.StartReaper(jobCtx)

	if cfg.Scan.RefreshEnabled {
		go core.NewRefresher(service, core.DefaultRefreshTick).Run(jobCtx)
	}

	if cfg.Catalog.File != "" {
		go watchReload(jobCtx, reg, cfg.Catalog.File)
	}

	// Graceful shutdown
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		status := service.Limiter().Status()
		if status.Active > 0 {
			slog.Info("waiting for spreadsheet fetches to complete", "active", status.Active)
		}
		if err := service.Shutdown(shutdownCtx); err != nil {
			slog.Warn("fetches did not complete in time", "error", err)
		}
	}()

	if err := serve(server.Start, shutdownDone); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// serve runs start. After a graceful close it waits for done, so the
// shutdown goroutine can finish draining before main returns.
func serve(start func() error, done <-chan struct{}) error {
	if err := start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}

// watchReload re-reads the catalog file on SIGHUP until ctx is cancelled.
func watchReload(ctx context.Context, reg *catalog.Registry, path string) {
	hupCh := make(chan os.Signal, 1)
	signal.Notify(hupCh, syscall.SIGHUP)
	defer signal.Stop(hupCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hupCh:
			if err := reloadCatalog(reg, path); err != nil {
				slog.Error("catalog reload failed, keeping previous tables", "file", path, "error", err)
				continue
			}
			slog.Info("catalog reloaded", "file", path, "count", reg.Count())
		}
	}
}

// reloadCatalog swaps the registry contents for the tables in path. On error
// the registry is left unchanged.
func reloadCatalog(reg *catalog.Registry, path string) error {
	tables, err := catalog.LoadFile(path)
	if err != nil {
		return err
	}
	return reg.Replace(tables)
}

// loadCatalog reads TABLES_FILE. No file means an empty catalog; ad-hoc
// scans still work.
func loadCatalog(path string) (*catalog.Registry, error) {
	if path == "" {
		return catalog.NewRegistry()
	}
	tables, err := catalog.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return catalog.NewRegistry(tables...)
}

func connect(ctx context.Context, cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}
