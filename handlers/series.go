package handlers

import "github.com/gofiber/fiber/v2"

func setupSeriesRoutes(app *fiber.App, h *Handlers) {
	app.Get("/tournaments/:id/series", h.seriesStats)
	app.Get("/tournaments/:id/series/images", h.seriesImages)
	app.Get("/tournaments/:id/series/reviews", h.seriesReviews)
}

func (h *Handlers) seriesStats(c *fiber.Ctx) error {
	stats, err := h.Series.Stats(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(stats)
}

func (h *Handlers) seriesImages(c *fiber.Ctx) error {
	images, err := h.Series.Images(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"images": images})
}

func (h *Handlers) seriesReviews(c *fiber.Ctx) error {
	reviews, err := h.Series.Reviews(c.UserContext(), c.Params("id"), c.QueryInt("page", 1), c.QueryInt("limit", 0))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(reviews)
}
