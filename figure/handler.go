package figure

import (
	"errors"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// Register mounts GET /users/:username/figure on r.
func Register(r fiber.Router, s *Service) {
	r.Get("/users/:username/figure", s.handleGet)
}

func (s *Service) handleGet(c *fiber.Ctx) error {
	// Params aliases fiber's request buffer; the name may end up as a cache key.
	name := utils.CopyString(c.Params("username"))
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Username is required"})
	}

	fig, err := s.Lookup(c.UserContext(), name)
	switch {
	case err == nil:
		return c.JSON(fig)
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found on any Habbo server"})
	case errors.Is(err, ErrInvalidResponse):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Invalid response from Habbo API"})
	}
	s.log.Error().Err(err).Str("name", name).Msg("figure lookup failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to fetch user data"})
}
