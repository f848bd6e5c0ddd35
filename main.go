package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/stonify5/duelserver/api"
	"github.com/stonify5/duelserver/arena"
	"github.com/stonify5/duelserver/config"
	"github.com/stonify5/duelserver/figure"
	"github.com/stonify5/duelserver/leaderboard"
	"github.com/stonify5/duelserver/server"
)

const inboxSize = 1024

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	var log zerolog.Logger
	if cfg.LogPretty {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	} else {
		log = zerolog.New(os.Stderr)
	}
	return log.Level(level).With().Timestamp().Logger()
}

func main() {
	dotenvErr := config.LoadDotenv()
	cfg, err := config.FromEnv()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}
	log := newLogger(cfg)
	if dotenvErr != nil {
		log.Warn().Msg("no .env file found, reading environment variables directly")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coordinator := arena.NewCoordinator(log.With().Str("component", "arena").Logger())
	loop := arena.NewLoop(coordinator, log.With().Str("component", "loop").Logger(), inboxSize)
	go loop.Run(ctx)

	figures := figure.New(cfg.FigureMirrors, cfg.FigureCacheTTL, log.With().Str("component", "figure").Logger())

	var scores leaderboard.Store
	if cfg.DatabaseURL != "" {
		store, err := leaderboard.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open leaderboard database")
		}
		scores = store
	} else {
		log.Warn().Msg("DATABASE_URL not set, leaderboard routes disabled")
	}

	sched, err := startJobs(ctx, figures, loop, log.With().Str("component", "jobs").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer sched.Shutdown()

	app := api.New(api.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		Figures:        figures,
		Scores:         scores,
		Stats:          loop.Stats,
	}, log.With().Str("component", "api").Logger())

	srv := server.New(ctx, loop, server.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		SendBuffer:     cfg.SendBuffer,
	}, log.With().Str("component", "server").Logger())

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(cfg.WSPath, api.Handler(app)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Str("ws", cfg.WSPath).Msg("duel server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("shutdown incomplete")
	}
}
