package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/itxrex07/insta-sub000/internal/config"
	"github.com/itxrex07/insta-sub000/internal/constants"
	"github.com/itxrex07/insta-sub000/internal/database"
	"github.com/itxrex07/insta-sub000/internal/retry"
	"github.com/itxrex07/insta-sub000/internal/service"
	"github.com/itxrex07/insta-sub000/internal/tracing"
	"github.com/itxrex07/insta-sub000/pkg/instagram"
	"github.com/itxrex07/insta-sub000/pkg/media"
	"github.com/itxrex07/insta-sub000/pkg/telegram"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	// CLI flags
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	configPath = flag.String("config", "config.json", "Path to configuration file")
	version    = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("InstaBridge %s\nBuild Time: %s\nGit Commit: %s\n", Version, BuildTime, GitCommit)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logrus.Fatalf("Application error: %v", err)
	}
}

func run(ctx context.Context) error {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	logger.WithFields(logrus.Fields{
		"version": Version,
		"build":   BuildTime,
		"commit":  GitCommit,
	}).Info("Starting InstaBridge")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else if cfg.LogLevel != "" {
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			logger.Warnf("Invalid log level %q, defaulting to info", cfg.LogLevel)
			logger.SetLevel(logrus.InfoLevel)
		} else {
			logger.SetLevel(level)
		}
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	tracingManager := tracing.NewManager(cfg.Tracing, Version, logger)
	if err := tracingManager.Initialize(ctx); err != nil {
		logger.Warnf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		if err := tracingManager.Shutdown(context.Background()); err != nil {
			logger.Warnf("Failed to shutdown tracing: %v", err)
		}
	}()

	// Database startup retries with exponential backoff; SQLite may be on
	// slow or still-mounting storage. Configuration errors fail fast.
	backoffCfg := retry.DefaultBackoffConfig()
	backoffCfg.InitialDelay = time.Duration(cfg.Retry.InitialBackoffMs) * time.Millisecond
	backoffCfg.MaxDelay = time.Duration(cfg.Retry.MaxBackoffMs) * time.Millisecond
	backoffCfg.MaxAttempts = constants.DefaultDatabaseRetryAttempts
	store, err := database.NewWithRetry(ctx, cfg.Database.Path, backoffCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database after retries: %w", err)
	}
	defer store.Close()

	igAPIKey := os.Getenv("INSTAGRAM_API_KEY")
	if igAPIKey == "" {
		return fmt.Errorf("INSTAGRAM_API_KEY environment variable is required")
	}
	tgToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	if tgToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is required")
	}

	mediaHandler, err := media.NewHandler(cfg.Media.StagingDir, cfg.Media, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize media handler: %w", err)
	}

	igClient := instagram.NewClient(cfg.Instagram.APIBaseURL, igAPIKey)
	tgClient := telegram.NewClient(cfg.Telegram.APIBaseURL, tgToken, cfg.Telegram.ChatID, logger)

	cache := service.NewMappingCache()
	metrics := service.NewMetrics()
	provisioner := service.NewTopicProvisioner(store, cache, tgClient, igClient, logger, true)

	bridge := service.NewBridge(service.BridgeDeps{
		Instagram:  igClient,
		Telegram:   tgClient,
		Store:      store,
		Cache:      cache,
		Translator: service.NewTranslator(service.TranslatorOptions{PrefixSender: cfg.Translator.PrefixSenderOnReplies}),
		Filter:     service.NewFilterRuleSet(cfg.Filters),
		Recovery:   service.NewRecoverySupervisor(provisioner, metrics, logger),
		Media:      mediaHandler,
		Profiles:   service.NewProfileService(store, igClient, logger),
		Metrics:    metrics,
		Logger:     logger,
	})

	if err := bridge.WarmCache(ctx); err != nil {
		// A cold cache is safe: every lookup falls through to the store.
		logger.WithError(err).Warn("Failed to warm mapping cache, starting cold")
	}

	go stagingJanitor(ctx, mediaHandler, logger)

	server := NewServer(cfg, bridge, metrics, logger)
	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			serverErrCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-serverErrCh:
		logger.Error(err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server gracefully: %w", err)
	}

	logger.Info("Server shutdown completed")
	return nil
}

// stagingJanitor periodically sweeps staged media that a crash or missed
// defer left behind.
func stagingJanitor(ctx context.Context, handler media.Handler, logger *logrus.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := handler.CleanupStaging(24 * time.Hour); err != nil {
				logger.WithError(err).Warn("Staging cleanup failed")
			}
		}
	}
}
