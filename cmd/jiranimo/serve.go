package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IdanRossman/jiranimo/internal/client"
	"github.com/IdanRossman/jiranimo/internal/config"
	"github.com/IdanRossman/jiranimo/internal/dashboard"
	"github.com/IdanRossman/jiranimo/internal/events"
	"github.com/IdanRossman/jiranimo/internal/kanban"
	"github.com/IdanRossman/jiranimo/internal/server"
	"github.com/IdanRossman/jiranimo/internal/store"
	"github.com/IdanRossman/jiranimo/internal/store/postgres"
	"github.com/IdanRossman/jiranimo/internal/store/sqlite"
	jsync "github.com/IdanRossman/jiranimo/internal/sync"
)

func defaultActor() string {
	out, err := exec.Command("git", "config", "user.name").Output()
	if err == nil {
		if name := strings.TrimSpace(string(out)); name != "" {
			return name
		}
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "unknown"
}

// openJournal picks the transition journal: postgres when a database URL is
// configured, sqlite when a journal path is, and no journal otherwise.
func openJournal(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	switch {
	case cfg.DatabaseURL != "":
		s, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("journal enabled", "backend", "postgres")
		return s, nil
	case cfg.JournalPath != "":
		s, err := sqlite.Open(ctx, cfg.JournalPath)
		if err != nil {
			return nil, err
		}
		logger.Info("journal enabled", "backend", "sqlite", "path", cfg.JournalPath)
		return s, nil
	}
	logger.Info("journal disabled (JIRANIMO_DATABASE_URL and JIRANIMO_JOURNAL_PATH not set)")
	return store.Nop{}, nil
}

// syncDestinations builds the snapshot destinations named by cfg.
func syncDestinations(ctx context.Context, cfg *config.Config, logger *slog.Logger) []jsync.Destination {
	var dests []jsync.Destination
	if cfg.SyncS3Bucket != "" {
		d, err := jsync.NewS3Destination(ctx, cfg.SyncS3Bucket, cfg.SyncS3Key, cfg.SyncS3Region, cfg.SyncS3Endpoint)
		if err != nil {
			logger.Error("failed to create S3 sync destination", "err", err)
		} else {
			dests = append(dests, d)
			logger.Info("sync S3 destination enabled", "bucket", cfg.SyncS3Bucket, "key", cfg.SyncS3Key)
		}
	}
	if cfg.SyncGitRepo != "" {
		dests = append(dests, jsync.NewGitDestination(cfg.SyncGitRepo, cfg.SyncGitFile, cfg.SyncGitBranch))
		logger.Info("sync git destination enabled", "repo", cfg.SyncGitRepo, "file", cfg.SyncGitFile)
	}
	return dests
}

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Run the dashboard server",
	GroupID: "system",
	// The server does not talk to another dashboard.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		ctx := context.Background()

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if path, _ := cmd.Flags().GetString("columns"); path != "" {
			cfg.ColumnsFile = path
		}
		columns, err := kanban.LoadColumns(cfg.ColumnsFile)
		if err != nil {
			return err
		}
		actor, _ := cmd.Flags().GetString("actor")

		journal, err := openJournal(ctx, cfg, logger)
		if err != nil {
			return err
		}

		var forward events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				journal.Close()
				return err
			}
			forward = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			logger.Info("events disabled (JIRANIMO_NATS_URL not set)")
		}
		bus := events.NewBus(forward, logger)

		tracker := client.NewHTTPClient(cfg.APIURL, cfg.APIToken)
		d, err := dashboard.New(dashboard.Options{
			Columns: columns,
			Updater: tracker,
			Source:  tracker,
			Bus:     bus,
			Journal: journal,
			Logger:  logger,
			Timeout: cfg.UpdateTimeout,
			Actor:   actor,
		})
		if err != nil {
			bus.Close()
			journal.Close()
			return err
		}
		srv := server.New(d, logger)

		// A tracker that is down at startup leaves an empty board; reload
		// fills it later.
		if err := d.Reload(ctx); err != nil {
			logger.Error("initial load failed", "api_url", cfg.APIURL, "err", err)
		}

		httpServer := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: srv.NewHTTPHandler(cfg.AuthToken),
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		bgCtx, bgCancel := context.WithCancel(ctx)
		defer bgCancel()
		if cfg.ReloadInterval > 0 {
			go d.RunReloader(bgCtx, cfg.ReloadInterval)
			logger.Info("periodic reload enabled", "interval", cfg.ReloadInterval)
		}

		var scheduler *jsync.Scheduler
		if cfg.SyncEnabled() {
			if dests := syncDestinations(ctx, cfg, logger); len(dests) > 0 {
				scheduler = jsync.NewScheduler(d, journal, dests, cfg.SyncInterval, logger)
				scheduler.Start()
				logger.Info("sync scheduler started", "interval", cfg.SyncInterval)
			}
		}

		logger.Info("jiranimo server started", "http_addr", cfg.HTTPAddr, "api_url", cfg.APIURL, "actor", actor)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		bgCancel()
		if scheduler != nil {
			scheduler.Stop()
			logger.Info("sync scheduler stopped")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		srv.Close()
		if err := d.Close(); err != nil {
			logger.Error("error closing dashboard", "err", err)
		}
		if err := bus.Close(); err != nil {
			logger.Error("error closing event bus", "err", err)
		}
		if err := journal.Close(); err != nil {
			logger.Error("error closing journal", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("columns", "", "TOML or YAML column definitions (overrides JIRANIMO_COLUMNS_FILE)")
	serveCmd.Flags().String("actor", defaultActor(), "actor recorded in the transition journal")
}
