package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"quranbot/internal/audio"
	"quranbot/internal/config"
	"quranbot/internal/discord"
	"quranbot/internal/library"
	"quranbot/internal/logger"
	"quranbot/internal/panel"
	"quranbot/internal/shutdown"
	"quranbot/internal/state"
)

func main() {
	configPath := flag.String("config", "config.json", "Path to config file")
	logLevel := flag.Int("log", logger.LevelInfo, "Log level")
	flag.Parse()

	logger.Setup(*logLevel)
	logger.Info().Msg("starting Quran recitation bot")

	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg("no .env file found, relying on the environment")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lib, err := library.Scan(cfg.AudioDir)
	if err != nil {
		log.Fatalf("Failed to scan recitation library: %v", err)
	}

	shutdownManager := shutdown.NewManager()

	bus := state.NewBus()
	scheduler := state.NewTaskScheduler()
	scheduler.Start()
	shutdownManager.Register(scheduler)

	store := state.NewStore(cfg.StatePath, bus, scheduler)
	store.IncrementBotStartCount()

	panelManager := panel.NewManager(bus)
	shutdownManager.Register(panelManager)

	player := audio.NewPlayer(store, lib)
	shutdownManager.Register(player)

	client, err := discord.NewClient(cfg, store, lib, player, panelManager)
	if err != nil {
		log.Fatalf("Failed to create Discord client: %v", err)
	}

	if err := client.Connect(); err != nil {
		log.Fatalf("Failed to connect to Discord: %v", err)
	}
	shutdownManager.Register(client)

	if err := client.UpdateCommands(); err != nil {
		logger.Error().Err(err).Msg("failed to update slash commands")
	}

	if cfg.VersesPath != "" && cfg.VerseChannelID != "" {
		poster, err := discord.NewVersePoster(
			client.Session(),
			cfg.VersesPath,
			cfg.VerseChannelID,
			time.Duration(cfg.VerseIntervalHours)*time.Hour,
		)
		if err != nil {
			logger.Error().Err(err).Msg("daily verse poster disabled")
		} else {
			poster.Start()
			shutdownManager.Register(poster)
		}
	}

	logger.Info().Msg("bot is running, press Ctrl+C to exit")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("shutdown signal received")

	if err := shutdownManager.Shutdown(30 * time.Second); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		os.Exit(1)
	}

	logger.Info().Msg("shutdown complete")
}
