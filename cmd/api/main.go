package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/safeline/safeline/internal/config"
	"github.com/safeline/safeline/internal/infra"
	"github.com/safeline/safeline/internal/logging"
	"github.com/safeline/safeline/internal/server"
)

func main() {
	envErr := loadLocalEnv()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	if envErr != nil {
		logger.Warn("read .env", "error", envErr)
	}

	ctx := context.Background()

	stores, closeStores, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer closeStores()

	srv, err := server.New(cfg, stores, logger)
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Address(), "driver", cfg.StoreDriver, "env", cfg.AppEnv)
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			closeStores()
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		return
	}

	logger.Info("server exited cleanly")
}

// loadLocalEnv reads .env when present; the process environment wins.
func loadLocalEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func openStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (server.Stores, func(), error) {
	var (
		st      server.Stores
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		closers = nil
	}

	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return st, nil, fmt.Errorf("connect postgres: %w", err)
		}
		st.Postgres = db
		closers = append(closers, db.Close)
	case config.DriverSQLite:
		db, err := infra.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return st, nil, fmt.Errorf("open sqlite: %w", err)
		}
		st.SQLite = db
		closers = append(closers, func() {
			if err := db.Close(); err != nil {
				logger.Warn("close sqlite", "error", err)
			}
		})
	case config.DriverMemory:
		logger.Warn("using in-memory store; data is lost on restart")
	}

	cache, err := infra.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		closeAll()
		return st, nil, fmt.Errorf("connect redis: %w", err)
	}
	if cache != nil {
		st.Cache = cache
		closers = append(closers, func() {
			if err := cache.Close(); err != nil {
				logger.Warn("close redis", "error", err)
			}
		})
	}

	return st, closeAll, nil
}
