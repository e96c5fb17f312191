package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/mortgage-calculator/internal/cache"
	"github.com/iwvelando/mortgage-calculator/internal/mortgage"
	"github.com/iwvelando/mortgage-calculator/internal/server"
	"github.com/iwvelando/mortgage-calculator/internal/store"
	"github.com/iwvelando/mortgage-calculator/pkg/ratetables"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the calculation API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	logger := a.logger

	srvConf, err := server.NewConfig(a.conf.Server)
	if err != nil {
		return fmt.Errorf("invalid server configuration: %w", err)
	}

	var db *store.DB
	if a.conf.Storage.Path != "" {
		db, err = store.Open(a.conf.Storage.Path, logger)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
	}

	tables := ratetables.NewStore(logger)
	if err := a.publishTables(ctx, tables, db); err != nil {
		return err
	}
	if db != nil {
		db.Follow(tables)
	}
	if a.conf.Tables.Watch {
		tables.Watch(a.conf.Tables.Path)
	}

	resultCache, err := cache.New(a.conf.Cache, logger)
	if err != nil {
		return err
	}
	defer func() { _ = resultCache.Close() }()

	opts := server.Options{
		Calculator: mortgage.NewCalculator(tables, logger),
		Tables:     tables,
		Cache:      resultCache,
		Config:     srvConf,
		Version:    version,
	}
	if db != nil {
		opts.History = db
	}

	srv := server.NewHTTPServer(srvConf, server.NewHandler(logger, opts))
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			zap.String("op", "main.serve"),
			zap.String("address", srvConf.Address),
			zap.Int64("maxRequestSizeBytes", srvConf.RequestSizeBytes()),
			zap.String("version", version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server", zap.String("op", "main.serve"))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// publishTables loads the first snapshot. A configured tables file wins,
// then the last version recorded in storage, then the built-in tables.
// Everything except a restore from storage is recorded.
func (a *app) publishTables(ctx context.Context, tables *ratetables.Store, db *store.DB) error {
	var (
		snap *ratetables.Snapshot
		err  error
	)
	switch {
	case a.conf.Tables.Path != "":
		snap, err = tables.LoadFile(a.conf.Tables.Path)
	case db != nil:
		restored, v, latestErr := db.Latest(ctx)
		switch {
		case latestErr == nil:
			_, err = tables.Replace(restored, "storage:"+v.ID)
			return err
		case errors.Is(latestErr, store.ErrNotFound):
			snap, err = tables.Replace(ratetables.Default(), "builtin")
		default:
			return latestErr
		}
	default:
		snap, err = tables.Replace(ratetables.Default(), "builtin")
	}
	if err != nil {
		return err
	}

	if db != nil {
		if err := db.Record(ctx, snap); err != nil {
			return err
		}
	}
	return nil
}
