package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/vladimiradmaev/health-dialogue/internal/api"
	"github.com/vladimiradmaev/health-dialogue/internal/app"
	"github.com/vladimiradmaev/health-dialogue/internal/bot"
	"github.com/vladimiradmaev/health-dialogue/internal/config"
	"github.com/vladimiradmaev/health-dialogue/internal/logger"
	"github.com/vladimiradmaev/health-dialogue/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "Warning: .env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.InitWithConfig(logger.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	logger.Info("Starting Health Dialogue...", "storage", cfg.Storage, "ai_provider", cfg.AI.Provider)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("Application stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Application stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	stores, closeStores, err := app.OpenStores(cfg)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer closeStores()

	client, err := services.NewCompletionClient(ctx, cfg.AI)
	if err != nil {
		return fmt.Errorf("failed to create completion client: %w", err)
	}
	if closer, ok := client.(io.Closer); ok {
		defer closer.Close()
	}

	svc := app.NewServices(stores, client, cfg.AI, logger.GetLogger())
	logger.Info("Services initialized successfully")

	g, ctx := errgroup.WithContext(ctx)

	if cfg.HTTP.Enabled {
		server := api.NewServer(cfg.HTTP, svc.API(), logger.GetLogger())
		g.Go(func() error {
			return server.Start(ctx)
		})
	}

	if cfg.TelegramToken != "" {
		stateManager, closeState, err := app.NewStateManager(cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to create state manager: %w", err)
		}
		defer closeState()

		telegramBot, err := bot.NewBot(cfg.TelegramToken, svc.BotDependencies(), stateManager)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return telegramBot.Start(ctx)
		})
	} else {
		logger.Warn("TELEGRAM_BOT_TOKEN is not set, the Telegram bot is disabled")
	}

	logger.Info("Health Dialogue is running. Press Ctrl+C to stop.")
	return g.Wait()
}
