// Package main contains the entrypoint for the Telegram bot application.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/edgard/blinkobot/internal/blinko"
	"github.com/edgard/blinkobot/internal/bot"
	"github.com/edgard/blinkobot/internal/bot/handlers"
	"github.com/edgard/blinkobot/internal/bot/tasks"
	"github.com/edgard/blinkobot/internal/config"
	"github.com/edgard/blinkobot/internal/crypto"
	"github.com/edgard/blinkobot/internal/database"
	"github.com/edgard/blinkobot/internal/logger"
	"github.com/edgard/blinkobot/internal/notes"
	"github.com/edgard/blinkobot/internal/telegram"

	_ "modernc.org/sqlite"
)

func main() {
	genKey := flag.Bool("generate-key", false, "Print a fresh encryption key and exit")
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	if *genKey {
		key, err := crypto.GenerateKey()
		if err != nil {
			slog.Error("Failed to generate key", "error", err)
			os.Exit(1)
		}
		fmt.Println(key)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx, *configPath)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components (config, logger,
// cipher, db, note client, bot, scheduler), handles graceful shutdown, and
// returns an exit code (0 for success, 1 for failure).
func run(ctx context.Context, configPath string) int {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	var cipher *crypto.Cipher
	if cfg.Crypto.Key != "" {
		cipher, err = crypto.NewCipher(cfg.Crypto.Key)
	} else {
		cipher, err = crypto.NewEphemeralCipher(log)
	}
	if err != nil {
		log.Error("Failed to initialize credential cipher", "error", err)
		return 1
	}

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, cipher, log)

	noteClient := blinko.NewClient(blinko.Config{
		BaseURL:            cfg.Blinko.BaseURL,
		WriteTimeout:       cfg.Blinko.WriteTimeout,
		ValidateTimeout:    cfg.Blinko.ValidateTimeout,
		InsecureSkipVerify: cfg.Blinko.InsecureSkipVerify,
	}, log)

	notesService := notes.NewService(store, noteClient, log)

	hDeps := handlers.HandlerDeps{
		Logger: log,
		Config: cfg,
		Notes:  notesService,
	}
	tDeps := tasks.TaskDeps{
		Logger: log,
		Store:  store,
		Config: cfg,
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(handlers.NewReplyHandler(hDeps)),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	// Retrieve bot info and store it in the config for runtime use. The
	// reply-to-update handler needs it to recognize the bot's own messages.
	cfg.Telegram.BotInfo, err = telegram.GetMe(ctx, tg)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

	cmdHandlers := handlers.RegisterAllCommands(hDeps)
	if err := telegram.RegisterHandlers(ctx, tg, log, cmdHandlers); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}
	app := bot.NewBot(log, cfg, store, notesService, tg, sched)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
