// cmd/stock-bot/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stock-bot/internal/catalog"
	"stock-bot/internal/common/config"
	"stock-bot/internal/common/database"
	"stock-bot/internal/common/logger"
	"stock-bot/internal/common/observability"
	"stock-bot/internal/dedupe"
	stocklookup "stock-bot/internal/handlers/stock-lookup"
	"stock-bot/internal/server"
	"stock-bot/internal/session"
	"stock-bot/internal/transport/whatsapp"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "stock-bot",
	Short: "WhatsApp stock lookup bot",
	Long:  "Answers \"@stok <item>\" chat messages from the product catalog and keeps the WhatsApp session alive.",
	Args:  cobra.NoArgs,
	RunE:  runBot,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (default configs/config.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

func runBot(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting stock bot...", zap.String("version", cfg.App.Version))

	obs := observability.New(cfg.App.Name, nil, log)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Catalog ---
	var (
		src      catalog.Source
		closeSrc func() error
	)
	err = retryWithBackoff(func() error {
		var err error
		src, closeSrc, err = catalog.NewSource(ctx, cfg)
		return err
	}, 5, 2*time.Second, zapLog, "Catalog source initialization")
	if err != nil {
		return err
	}
	defer closeSrc()

	store := catalog.NewStore()
	if err := store.Refresh(ctx, src); err != nil {
		// degraded mode: every lookup answers "not found" until a reload succeeds
		zapLog.Error("catalog load failed, continuing with empty catalog",
			zap.String("source", src.Name()), zap.Error(err))
	} else {
		zapLog.Info("Catalog loaded", zap.String("source", src.Name()), zap.Int("records", store.Len()))
	}

	if cfg.Catalog.Watch && cfg.Catalog.Source == config.CatalogSourceCSV {
		watcher, err := catalog.NewWatcher(cfg.Catalog.Path, 0)
		if err != nil {
			return fmt.Errorf("catalog watcher: %w", err)
		}
		defer watcher.Stop()
		if err := catalog.ReloadOnChange(watcher, store, src, 30*time.Second, log); err != nil {
			zapLog.Warn("catalog watch disabled", zap.Error(err))
		}
	}

	// --- Session ---
	opts := []session.Option{
		session.WithRenderer(whatsapp.NewQRRenderer(os.Stdout)),
		session.WithObservability(obs),
	}

	if cfg.Dedupe.Enabled {
		redis := database.NewRedis(cfg.Database.Redis)
		defer redis.Close()
		if err := redis.Ping(ctx); err != nil {
			// dedupe fails open, keep going
			zapLog.Warn("redis unreachable, duplicates may be answered", zap.Error(err))
		}
		opts = append(opts, session.WithDedupe(
			dedupe.NewRedisStore(redis, config.GetDuration(cfg.Dedupe.TTL), cfg.Dedupe.Prefix),
		))
	}

	transport, err := whatsapp.New(ctx, cfg.Session, log)
	if err != nil {
		return fmt.Errorf("whatsapp transport: %w", err)
	}
	defer transport.Close()

	handler := stocklookup.NewHandler(&stocklookup.Config{Trigger: cfg.Session.Trigger}, store, log)
	controller := session.NewController(session.Config{
		ReconnectDelay: config.GetDuration(cfg.Session.ReconnectDelay),
		SendTimeout:    config.GetDuration(cfg.Session.SendTimeout),
	}, transport, handler, log, opts...)
	transport.OnEvent(controller.Dispatch)

	controller.Start()

	// --- HTTP: keep-alive, health, metrics ---
	srv := server.New(cfg.HTTP.Addr(), controller, log)
	go func() {
		if err := srv.Start(); err != nil {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping bot...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping HTTP server", zap.Error(err))
	}
	controller.Stop()

	zapLog.Info("Stock bot stopped gracefully")
	return nil
}
