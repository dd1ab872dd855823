package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/linepulse/linepulse/internal/broadcast"
	"github.com/linepulse/linepulse/internal/config"
	"github.com/linepulse/linepulse/internal/domain"
	"github.com/linepulse/linepulse/internal/logging"
	"github.com/linepulse/linepulse/internal/metrics"
	"github.com/linepulse/linepulse/internal/normalize"
	"github.com/linepulse/linepulse/internal/poller"
	"github.com/linepulse/linepulse/internal/server"
	"github.com/linepulse/linepulse/internal/sheets"
	"github.com/linepulse/linepulse/internal/snapshot"
)

// Set via -ldflags at build time.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupReader(ctx context.Context, cfg *config.Config) domain.RangeReader {
	if cfg.SheetsAPIKey == "" {
		slog.Error("SHEETS_API_KEY is not set, starting in null-reader mode: all reads return empty data")
		return sheets.NullReader{}
	}

	reader, err := sheets.NewAPIReader(ctx, cfg.SheetsAPIKey, cfg.SpreadsheetID)
	if err != nil {
		slog.Error("Failed to create sheets reader", "error", err)
		os.Exit(1)
	}
	return reader
}

func setupNormalizer(cfg *config.Config) *normalize.Normalizer {
	teamCounts, err := normalize.ParseTeamCounts(cfg.TeamCounts)
	if err != nil {
		slog.Error("Failed to parse TEAM_COUNTS", "error", err)
		os.Exit(1)
	}
	rules, err := normalize.ParseGroupingRules(cfg.GroupingRules)
	if err != nil {
		slog.Error("Failed to parse GROUPING_RULES", "error", err)
		os.Exit(1)
	}
	return normalize.New(cfg.Factory, teamCounts, rules, cfg.TrailerMarker)
}

func familySources(cfg *config.Config) []poller.FamilySource {
	return []poller.FamilySource{
		{Family: domain.FamilyProduction, MainRange: cfg.ProductionRange, DetailRange: cfg.ProductionDetailRange},
		{Family: domain.FamilyTeams, MainRange: cfg.TeamsRange},
		{Family: domain.FamilyProducts, MainRange: cfg.ProductsRange},
	}
}

func runGracefulShutdown(srv *server.Server, node interface{ Shutdown(context.Context) error }, cancelPolling context.CancelFunc, stopEviction func()) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		cancelPolling()
		stopEviction()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := node.Shutdown(shutdownCtx); err != nil {
			slog.Error("Broadcast node shutdown error", "error", err)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "factory", cfg.Factory)
	metrics.BuildInfo.WithLabelValues(version, commit, buildTime, runtime.Version()).Set(1)

	ctx, cancelPolling := context.WithCancel(context.Background())
	defer cancelPolling()

	reader := setupReader(ctx, cfg)

	client := sheets.NewClient(reader, clock, sheets.Options{
		MinRequestSpacing: cfg.MinRequestSpacing,
		MaxAttempts:       cfg.RetryMaxAttempts,
		BaseDelay:         cfg.RetryBaseDelay,
		MaxJitter:         cfg.RetryMaxJitter,
		ReadTimeout:       cfg.ReadTimeout,
	})

	cache := sheets.NewCache(client, cfg.RangeCacheTTL, clock)
	stopEviction := cache.StartEvictionTimer(time.Minute)

	normalizer := setupNormalizer(cfg)

	store := snapshot.NewStore()
	differ := snapshot.NewDiffer(store, clock)

	node, err := broadcast.NewNode(cfg.LogLevel)
	if err != nil {
		slog.Error("Failed to create broadcast node", "error", err)
		os.Exit(1)
	}
	if cfg.RedisURL != "" {
		if err := broadcast.SetupRedis(node, cfg.RedisURL); err != nil {
			slog.Error("Failed to set up redis broker", "error", err)
			os.Exit(1)
		}
	}
	if err := node.Run(); err != nil {
		slog.Error("Failed to start broadcast node", "error", err)
		os.Exit(1)
	}
	publisher := broadcast.NewPublisher(node)

	windows, err := poller.ParseWindows(cfg.ActiveHours)
	if err != nil {
		slog.Error("Failed to parse ACTIVE_HOURS", "error", err)
		os.Exit(1)
	}

	scheduler := poller.NewScheduler(cache, normalizer, differ, publisher, clock, familySources(cfg), poller.Options{
		Factory:          cfg.Factory,
		Windows:          windows,
		MinCycleInterval: cfg.MinCycleInterval,
		StaggerPeriod:    cfg.StaggerPeriodMinutes,
		StaggerOffset:    cfg.StaggerOffsetMinutes,
		InterUnitDelay:   cfg.InterEntityDelay,
		BypassCache:      true,
	})
	go scheduler.Run(ctx)

	srv := server.NewServer(cfg.Port, cfg.Factory, store, scheduler, scheduler, node)

	done := runGracefulShutdown(srv, node, cancelPolling, stopEviction)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
