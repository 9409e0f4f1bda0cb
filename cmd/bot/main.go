// Package main contains the entrypoint for the file-renaming Telegram bot.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/edgard/renamerbot/internal/bot"
	"github.com/edgard/renamerbot/internal/bot/tasks"
	"github.com/edgard/renamerbot/internal/broadcast"
	"github.com/edgard/renamerbot/internal/config"
	"github.com/edgard/renamerbot/internal/conversation"
	"github.com/edgard/renamerbot/internal/database"
	"github.com/edgard/renamerbot/internal/engine"
	"github.com/edgard/renamerbot/internal/guardian"
	"github.com/edgard/renamerbot/internal/logger"
	"github.com/edgard/renamerbot/internal/ops"
	"github.com/edgard/renamerbot/internal/registry"
	"github.com/edgard/renamerbot/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires every component, blocks until shutdown and returns the exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	store, err := database.Open(cfg.Database.Driver, cfg.Database.Path, log)
	if err != nil {
		log.Error("Failed to open store", "driver", cfg.Database.Driver, "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Failed to close store", "error", err)
		}
	}()
	reg := registry.New(store, log)

	adapter, err := telegram.NewAdapter(cfg.Telegram.Token, log,
		[]telegram.Option{
			telegram.WithMaxDownload(cfg.Telegram.MaxFileSize),
			telegram.WithSendRate(cfg.Telegram.SendRate, int(cfg.Telegram.SendRate)),
		},
		tgbot.WithHTTPClient(cfg.Telegram.PollTimeout, &http.Client{Timeout: cfg.Telegram.PollTimeout + 10*time.Second}),
	)
	if err != nil {
		log.Error("Failed to create Telegram adapter", "error", err)
		return 1
	}

	if cfg.Telegram.BotUsername == "" {
		if cfg.Telegram.BotUsername, err = adapter.Username(ctx); err != nil {
			log.Error("Failed to get bot info", "error", err)
			return 1
		}
	}
	log.Info("Retrieved bot info", "bot_username", cfg.Telegram.BotUsername)

	guard := guardian.New(guardian.Config{
		Window:        cfg.Guardian.FloodWindow,
		Threshold:     cfg.Guardian.FloodThreshold,
		Shards:        cfg.Guardian.Shards,
		AdminID:       cfg.Telegram.AdminID,
		AlertTemplate: cfg.Messages.FloodAlert,
	}, reg, adapter, log)

	machine := conversation.New(conversation.Config{
		Messages:    cfg.Messages,
		AdminID:     cfg.Telegram.AdminID,
		MaxFileSize: cfg.Telegram.MaxFileSize,
		BotUsername: cfg.Telegram.BotUsername,
	}, adapter, adapter, log)

	dispatcher := broadcast.New(broadcast.Config{
		MinInterval:     cfg.Broadcast.MinInterval,
		AdminID:         cfg.Telegram.AdminID,
		SummaryTemplate: cfg.Messages.BroadcastSummary,
	}, reg, adapter, adapter, log)

	eng := engine.New(engine.Config{
		AdminID:            cfg.Telegram.AdminID,
		Messages:           cfg.Messages,
		MaxConcurrentUsers: cfg.Engine.MaxConcurrentUsers,
		OpTimeout:          cfg.Engine.OpTimeout,
	}, engine.Deps{
		Registry:   reg,
		Guardian:   guard,
		Machine:    machine,
		Dispatcher: dispatcher,
		Sender:     adapter,
		Logger:     log,
	})

	sched, err := bot.NewScheduler(log, cfg.Scheduler, tasks.RegisterAllTasks(tasks.TaskDeps{
		Logger:   log,
		Registry: reg,
		Notifier: adapter,
		Config:   cfg,
	}))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	var opsServer bot.OpsServer
	if cfg.Ops.ListenAddr != "" {
		opsServer = ops.NewServer(cfg.Ops.ListenAddr, reg, dispatcher, log)
	}

	app := bot.NewBot(log, adapter, eng, sched, opsServer)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	return 0
}
