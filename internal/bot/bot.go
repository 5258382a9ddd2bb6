// Package bot implements lifecycle management and component orchestration
// for the Vaani assistant: the HTTP API, the optional Telegram surface,
// and the task scheduler run under one errgroup.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	tgbot "github.com/go-telegram/bot"
	"golang.org/x/sync/errgroup"

	"github.com/vaanihq/vaani/internal/config"
)

const shutdownTimeout = 10 * time.Second

// Bot represents the main application and manages its components' lifecycle.
type Bot struct {
	logger    *slog.Logger
	cfg       *config.Config
	app       *fiber.App
	tgBot     *tgbot.Bot
	scheduler *Scheduler
}

// NewBot creates the orchestrator. tgBot may be nil when the Telegram
// surface is disabled; the HTTP API and scheduler always run.
func NewBot(
	logger *slog.Logger,
	cfg *config.Config,
	app *fiber.App,
	tgBot *tgbot.Bot,
	scheduler *Scheduler,
) *Bot {
	return &Bot{
		logger:    logger.With("component", "bot_orchestrator"),
		cfg:       cfg,
		app:       app,
		tgBot:     tgBot,
		scheduler: scheduler,
	}
}

// Run starts all components, handling graceful shutdown on context
// cancellation. It returns an error if any component fails during startup
// or execution.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		addr := fmt.Sprintf(":%d", b.cfg.Server.Port)
		b.logger.Info("Starting HTTP API listener...", "addr", addr)

		if err := b.app.Listen(addr); err != nil {
			b.logger.Error("HTTP API listener failed", "error", err)
			return fmt.Errorf("http listener failed: %w", err)
		}

		b.logger.Info("HTTP API listener stopped.")
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping HTTP API...")

		if err := b.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			b.logger.Error("Error stopping HTTP API", "error", err)
		}

		return nil
	})

	if b.tgBot != nil {
		g.Go(func() error {
			b.logger.Info("Starting Telegram bot listener...")

			b.tgBot.Start(gCtx)
			b.logger.Info("Telegram bot listener stopped.")

			if gCtx.Err() == nil {
				b.logger.Warn("Telegram bot listener stopped unexpectedly without context cancellation.")

				return fmt.Errorf("telegram listener stopped unexpectedly")
			}
			return nil
		})
	}

	g.Go(func() error {
		b.logger.Info("Starting scheduler...")
		if err := b.scheduler.Start(); err != nil {
			b.logger.Error("Failed to start scheduler", "error", err)
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping scheduler...")

		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}

		return nil
	})

	b.logger.Info("Bot orchestrator running. Waiting for shutdown signal or error...")
	err := g.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}
