package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hazyhaar/kanaseek/pkg/api"
	"github.com/hazyhaar/kanaseek/pkg/collection"
	"github.com/hazyhaar/kanaseek/pkg/importer"
	"github.com/hazyhaar/kanaseek/pkg/metrics"
	"github.com/mark3labs/mcp-go/server"
	"github.com/panjf2000/ants/v2"
	"github.com/urfave/cli/v2"
)

func serveCommand(c *cli.Context) error {
	logger := slog.Default()

	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return err
	}
	if v := c.String("addr"); v != "" {
		cfg.Addr = v
	}
	if v := c.String("dataset"); v != "" {
		cfg.Dataset = v
	}

	metrics.Register()
	coll := collection.New(collection.Options{MinScore: cfg.Search.MinScore, MaxLimit: 1000})

	var history *importer.HistoryDB
	if cfg.HistoryDB != "" {
		history, err = importer.OpenHistoryDB(cfg.HistoryDB)
		if err != nil {
			return err
		}
		defer history.Close()
	}

	ld := &loader{path: cfg.Dataset, coll: coll, history: history, logger: logger}

	// SIGHUP: reload the dataset.
	// SIGINT/SIGTERM: graceful shutdown.
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Serve even if the first load fails: /v1/records can still populate
	// the collection and searches answer 503 until then.
	if err := ld.Reload(ctx); err != nil {
		logger.Error("initial load failed", "error", err)
	}

	pool, err := ants.NewPool(cfg.BatchWorkers)
	if err != nil {
		return err
	}
	defer pool.Release()

	eps := api.NewEndpoints(coll, pool, logger, api.Defaults{Mode: cfg.Search.Mode, Limit: cfg.Search.Limit})

	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	defer signal.Stop(sighup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-sighup:
				logger.Info("SIGHUP received, reloading dataset")
				if err := ld.Reload(ctx); err != nil {
					logger.Error("reload failed", "error", err)
				}
			}
		}
	}()

	if cfg.Watch {
		if targets, err := ld.Targets(); err != nil {
			logger.Warn("watch disabled", "error", err)
		} else {
			w := importer.NewWatcher(logger, time.Second, cfg.WatchInterval, ld.Reload)
			go func() {
				if err := w.Start(ctx, targets...); err != nil {
					logger.Warn("watch disabled", "error", err)
				}
			}()
		}
	}

	if c.Bool("mcp") {
		mcpSrv := server.NewMCPServer("kanaseek", version, server.WithToolCapabilities(false))
		api.RegisterMCPTools(mcpSrv, eps)
		stdio := server.NewStdioServer(mcpSrv)
		go func() {
			if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("mcp stdio stopped", "error", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewRouter(eps, coll),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("kanaseek listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
