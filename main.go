package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"NucleusBot/bot"
	"NucleusBot/command"
	"NucleusBot/command/router"
	"NucleusBot/configuration"
	"NucleusBot/database"
	"NucleusBot/logger"
	"NucleusBot/notify"
	"NucleusBot/nucleus"
	"NucleusBot/poller"
	"NucleusBot/webserver"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Errorf("Recovered from panic: %v\n%s", r, debug.Stack())
		}
	}()

	logger.Log.Info("Bot starting...")
	if err := run(); err != nil {
		logger.Log.WithError(err).Error("Bot encountered an error and is shutting down")
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		logger.Log.WithError(err).Warn("No .env file loaded, using the process environment")
	}

	cfg, err := configuration.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := logger.Init(cfg.Log.Dir, cfg.Log.Level); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	cfg.LogValues()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Log.Info("Database connection established successfully")
	go database.MonitorHealth(ctx, db, 5*time.Minute)
	store := database.NewStore(db)

	portal := nucleus.NewClient(cfg.Portal.BaseURL, cfg.Portal.Timeout, nil)

	discord, err := bot.New(cfg.Discord.Token)
	if err != nil {
		return fmt.Errorf("failed to create Discord bot: %w", err)
	}

	fanout := notify.NewFanout(store, discord.Session(), rate.NewLimiter(rate.Limit(cfg.Notify.Rate), cfg.Notify.Burst))
	alerts := notify.NewAdminAlerter(discord.Session(), cfg.Discord.AdminChannelID, cfg.Discord.OwnerID, cfg.Poll.AlertCooldown)

	scheduler := poller.New(poller.Config{
		Interval:      cfg.Poll.Interval,
		Workers:       cfg.Poll.Workers,
		RetryAttempts: cfg.Poll.RetryAttempts,
		RetryDelay:    cfg.Poll.RetryDelay,
	}, store, portal, fanout, alerts)

	r := router.New(cfg.Discord.Prefix, &router.Deps{
		Store:        store,
		Portal:       portal,
		Poller:       scheduler,
		Pending:      router.NewPending(),
		OwnerID:      cfg.Discord.OwnerID,
		ReplyTimeout: cfg.Commands.ReplyTimeout,
	})
	command.RegisterCommands(r)

	if err := discord.Start(ctx, r, scheduler, cfg.Commands.ReplyTimeout+time.Minute); err != nil {
		return fmt.Errorf("failed to start Discord bot: %w", err)
	}
	logger.Log.Info("Discord bot started successfully")

	status := webserver.StartStatusServer(cfg.StatusAddr, scheduler, store)

	logger.Log.Info("Bot is running")
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	logger.Log.Info("Shutting down...")
	cancel()

	if status != nil {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		if err := status.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			logger.Log.WithError(err).Error("Error stopping status server")
		}
	}

	if err := discord.Close(); err != nil {
		logger.Log.WithError(err).Error("Error closing Discord session")
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}
