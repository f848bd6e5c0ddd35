// Package api is the REST surface next to the duel websocket: figure
// lookup, leaderboard and live match counters.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog"

	"github.com/stonify5/duelserver/arena"
	"github.com/stonify5/duelserver/figure"
	"github.com/stonify5/duelserver/leaderboard"
)

// StatsFunc reports the coordinator's counters.
type StatsFunc func(ctx context.Context) (arena.Stats, error)

type Options struct {
	AllowedOrigins []string
	Figures        *figure.Service
	// Scores is optional; without it the leaderboard routes are not mounted.
	Scores leaderboard.Store
	Stats  StatsFunc
}

// New builds the fiber app. Routes live under /api.
func New(opts Options, log zerolog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(opts.AllowedOrigins, ","),
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	r := app.Group("/api")
	if opts.Figures != nil {
		figure.Register(r, opts.Figures)
	}
	if opts.Scores != nil {
		leaderboard.NewHandler(opts.Scores, log).Register(r)
	}
	if opts.Stats != nil {
		r.Get("/matches/stats", statsHandler(opts.Stats, log))
	}
	return app
}

// Handler adapts the fiber app for mounting on a net/http mux.
func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}

func statsHandler(stats StatsFunc, log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := stats(c.UserContext())
		if err != nil {
			log.Warn().Err(err).Msg("match stats unavailable")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"message": "Match coordinator unavailable"})
		}
		return c.JSON(s)
	}
}
