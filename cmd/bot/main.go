package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordscramble/internal/backend"
	"github.com/robalobadob/wordscramble/internal/config"
	"github.com/robalobadob/wordscramble/internal/telegram"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, using system variables")
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	config.SetupLogging(cfg)
	if err := cfg.ValidateBot(); err != nil {
		log.Fatal().Err(err).Msg("bot config")
	}

	backendURL := cfg.Game.BackendURL
	if backendURL == "" {
		backendURL = "http://localhost" + cfg.HTTP.Addr + "/api/game"
	}
	svc := backend.New(backendURL)

	bot, err := telegram.NewBot(cfg.Telegram.Token, cfg.Telegram.GameURL, svc, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create bot")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("backend", backendURL).Msg("starting bot")
	if err := bot.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("bot exited")
	}
}
