package handlers

import (
	"github.com/gofiber/fiber/v2"

	"chessfam/middleware"
)

func setupPlayerRoutes(app *fiber.App, h *Handlers) {
	app.Get("/players/search", middleware.RequireUser(), h.searchPlayers)
}

func (h *Handlers) searchPlayers(c *fiber.Ctx) error {
	players, err := h.Players.Search(c.UserContext(), c.Query("q"), c.QueryInt("limit", 0))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"players": players})
}
