package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lifetrack/internal/config"
	"lifetrack/internal/server"
	"lifetrack/internal/storage"
	"lifetrack/internal/storage/postgres"
	"lifetrack/internal/storage/sqlite"
	"lifetrack/internal/timer"
	"lifetrack/internal/util"
)

func main() {
	configFlag := flag.String("config", util.EnvOrDefault("LIFETRACK_CONFIG", ""), "Path to YAML config file")
	addrFlag := flag.String("addr", util.EnvOrDefault("LIFETRACK_ADDR", ""), "HTTP listen address")
	driverFlag := flag.String("db-driver", util.EnvOrDefault("LIFETRACK_DB_DRIVER", ""), "Database driver: sqlite3 or postgres")
	dbFlag := flag.String("db", util.EnvOrDefault("LIFETRACK_DB_PATH", ""), "Path to sqlite database file")
	dsnFlag := flag.String("dsn", util.EnvOrDefault("LIFETRACK_DB_DSN", ""), "Postgres connection string")
	staticFlag := flag.String("static", util.EnvOrDefault("LIFETRACK_STATIC_DIR", ""), "Directory with built frontend")
	clearFlag := flag.Bool("clear-on-complete", util.EnvBoolOrDefault("LIFETRACK_CLEAR_ON_COMPLETE", false), "Reset timer fields as soon as a countdown completes")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(*configFlag)
	if err != nil {
		logger.Error("unable to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if *addrFlag != "" {
		cfg.Server.Addr = *addrFlag
	}
	if *driverFlag != "" {
		cfg.Database.Driver = *driverFlag
	}
	if *dbFlag != "" {
		cfg.Database.Path = *dbFlag
	}
	if *dsnFlag != "" {
		cfg.Database.DSN = *dsnFlag
	}
	if *staticFlag != "" {
		cfg.Server.StaticDir = *staticFlag
	}
	if *clearFlag {
		cfg.Timer.ClearOnComplete = true
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("unable to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	pauses := timer.NewFileStore(cfg.Timer.PauseDir, logger)
	timers := timer.NewManager(pauses, server.TimerMutator{Store: store}, logger,
		time.Duration(cfg.Timer.TickInterval), time.Duration(cfg.Timer.SessionTTL))

	srv := server.New(store, timers, logger, cfg.Server.StaticDir, cfg.Timer.ClearOnComplete)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Engine(),
	}

	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr), slog.String("driver", cfg.Database.Driver))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}

func openStore(cfg *config.Config, logger *slog.Logger) (storage.Repository, error) {
	switch cfg.Database.Driver {
	case "postgres":
		return postgres.Open(cfg.Database.DSN, logger)
	default:
		return sqlite.Open(cfg.Database.Path, logger)
	}
}
