package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/wordscramble/internal/auth"
	"github.com/robalobadob/wordscramble/internal/backend"
	"github.com/robalobadob/wordscramble/internal/config"
	"github.com/robalobadob/wordscramble/internal/game"
	"github.com/robalobadob/wordscramble/internal/httpserver"
	"github.com/robalobadob/wordscramble/internal/words"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	config.SetupLogging(cfg)

	if err := words.Init(cfg.Game.WordsDir); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.Game.WordsDir).Msg("failed to load word lists")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}
	defer closeStore()

	deps := httpserver.Deps{
		Store: st,
		Bank:  words.Default(),
		Resolver: &auth.Resolver{
			Secret:         []byte(cfg.Auth.Secret),
			BotToken:       cfg.Telegram.Token,
			InitDataMaxAge: cfg.Auth.InitDataMaxAge,
		},
		TokenTTL:     cfg.Auth.TokenTTL,
		ClientOrigin: cfg.HTTP.ClientOrigin,
		Game: game.Config{
			RoundSeconds:    cfg.Game.RoundSeconds,
			TxDivisor:       cfg.Game.TxDivisor,
			SubmitTxDivisor: cfg.Game.SubmitTxDivisor,
			WrongEndDelay:   cfg.Game.WrongEndDelay,
			SkipDelay:       cfg.Game.SkipDelay,
		},
		SubmitTimeout: cfg.Game.SubmitTimeout,
	}
	if cfg.Game.BackendURL != "" {
		deps.Backend = backend.New(cfg.Game.BackendURL)
		log.Info().Str("url", cfg.Game.BackendURL).Msg("play sessions report to remote backend")
	}
	srv := httpserver.New(deps)

	hs := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTP.Addr).Str("env", cfg.Env).Msg("starting wordscramble server")
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()

		log.Info().Msg("shutting down")
		// Play sessions are hijacked connections; http.Server.Shutdown does
		// not wait for them.
		if err := srv.Shutdown(shutCtx); err != nil {
			log.Warn().Err(err).Msg("play sessions did not drain")
		}
		return hs.Shutdown(shutCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server exited")
		closeStore()
		os.Exit(1)
	}
	log.Info().Msg("bye")
}
