// Package main contains the entrypoint for the Vaani assistant service.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"

	"github.com/vaanihq/vaani/internal/api"
	"github.com/vaanihq/vaani/internal/assistant"
	"github.com/vaanihq/vaani/internal/banking"
	"github.com/vaanihq/vaani/internal/bot"
	"github.com/vaanihq/vaani/internal/bot/tasks"
	"github.com/vaanihq/vaani/internal/cache"
	"github.com/vaanihq/vaani/internal/config"
	"github.com/vaanihq/vaani/internal/gemini"
	"github.com/vaanihq/vaani/internal/guard"
	"github.com/vaanihq/vaani/internal/logger"
	"github.com/vaanihq/vaani/internal/retrieval"
	"github.com/vaanihq/vaani/internal/specialist"
	"github.com/vaanihq/vaani/internal/telegram"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components (config, logger,
// database, collaborators, pipeline, surfaces, scheduler), handles graceful
// shutdown, and returns an exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.New(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := banking.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer banking.CloseDB(db)
	store := banking.NewStore(db, log)

	gemClient, err := gemini.NewClient(ctx, cfg.Gemini, log)
	if err != nil {
		log.Error("Failed to initialize Gemini client", "error", err)
		return 1
	}

	retriever, err := retrieval.New(cfg.Retrieval, gemClient, log)
	if err != nil {
		log.Error("Failed to initialize retriever", "error", err)
		return 1
	}
	if err := retriever.EnsureCollection(ctx, uint64(cfg.Retrieval.VectorSize)); err != nil {
		log.Error("Failed to ensure knowledge collection", "error", err)
		return 1
	}

	limiter := guard.NewRateLimiter(cfg.Guard.RequestsPerMinute, cfg.Guard.RequestsPerHour)
	gate := guard.NewGate(limiter, cfg.Guard)

	registry := specialist.RegisterAll(specialist.Deps{
		Logger:    log,
		Config:    cfg,
		Store:     store,
		Gemini:    gemClient,
		Retriever: retriever,
		DocCache:  cache.New[[]retrieval.Document](cfg.Cache.Capacity, cfg.Cache.TTL),
	})

	router := assistant.NewRouter(gemClient, cfg.Router, cfg.Pipeline.ClassifierTimeout, log)
	dispatcher := assistant.NewDispatcher(registry, cfg.Pipeline.SpecialistTimeout, log)
	assembler := assistant.NewAssembler(cfg.Messages)
	pipeline := assistant.NewPipeline(gate, router, dispatcher, assembler, log)

	app := fiber.New(fiber.Config{
		AppName:     "Vaani",
		ReadTimeout: cfg.Server.ReadTimeout,
	})
	api.SetupRouter(app, api.NewChatHandler(pipeline, log))

	var tg *tgbot.Bot
	var notifier tasks.ReminderNotifier
	if cfg.Telegram.Enabled {
		tDeps := telegram.Deps{
			Logger:   log,
			Config:   cfg,
			Store:    store,
			Pipeline: pipeline,
		}
		botOpts := []tgbot.Option{
			tgbot.WithMiddlewares(logger.Middleware(log)),
			tgbot.WithDefaultHandler(telegram.NewMessageHandler(tDeps)),
		}
		tg, err = telegram.New(cfg.Telegram.Token, log, botOpts...)
		if err != nil {
			log.Error("Failed to create Telegram bot", "error", err)
			return 1
		}
		if err := telegram.RegisterHandlers(tg, log, telegram.RegisterAllCommands(tDeps)); err != nil {
			log.Error("Failed to register Telegram handlers", "error", err)
			return 1
		}
		notifier = telegram.NewNotifier(tg, log)
	}

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tasks.TaskDeps{
		Logger:   log,
		Store:    store,
		Limiter:  limiter,
		Config:   cfg,
		Notifier: notifier,
	}))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	orchestrator := bot.NewBot(log, cfg, app, tg, sched)

	log.Info("Starting Vaani...")
	runErr := orchestrator.Run(ctx)
	log.Info("Run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Service stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Service stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
