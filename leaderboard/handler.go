package leaderboard

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

type scoreRequest struct {
	Username     *string `json:"username"`
	Score        *int64  `json:"score"`
	FigureString *string `json:"figureString"`
}

// Handler serves the leaderboard over HTTP.
type Handler struct {
	store Store
	log   zerolog.Logger
}

// NewHandler serves scores from store.
func NewHandler(store Store, log zerolog.Logger) *Handler {
	return &Handler{store: store, log: log}
}

// Register mounts POST /scores and GET /scores on r.
func (h *Handler) Register(r fiber.Router) {
	r.Post("/scores", h.submit)
	r.Get("/scores", h.list)
}

func validationError(c *fiber.Ctx, field, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": msg, "field": field})
}

func (h *Handler) submit(c *fiber.Ctx) error {
	var req scoreRequest
	if err := c.BodyParser(&req); err != nil {
		return validationError(c, "", "Invalid request body")
	}
	if req.Username == nil || strings.TrimSpace(*req.Username) == "" {
		return validationError(c, "username", "Username is required")
	}
	if req.Score == nil {
		return validationError(c, "score", "Score is required")
	}
	figure := ""
	if req.FigureString != nil {
		figure = *req.FigureString
	}

	u, err := h.store.Submit(c.UserContext(), *req.Username, *req.Score, figure)
	if err != nil {
		h.log.Error().Err(err).Str("username", *req.Username).Msg("score submission failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to save score"})
	}
	return c.Status(fiber.StatusCreated).JSON(u)
}

func (h *Handler) list(c *fiber.Ctx) error {
	users, err := h.store.Top(c.UserContext(), TopN)
	if err != nil {
		h.log.Error().Err(err).Msg("leaderboard query failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to load leaderboard"})
	}
	if users == nil {
		users = []User{}
	}
	return c.JSON(users)
}
