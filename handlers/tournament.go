package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"chessfam/media"
	"chessfam/middleware"
	"chessfam/models"
	"chessfam/services"
)

func setupTournamentRoutes(app *fiber.App, h *Handlers) {
	app.Get("/tournaments", h.listTournaments)
	app.Get("/tournaments/:id", h.getTournament)
	app.Get("/tournaments/:id/early-bird", h.earlyBird)

	secured := middleware.RequireUser()
	app.Post("/tournaments", secured, h.createTournament)
	app.Put("/tournaments/:id", secured, h.updateTournament)
	app.Delete("/tournaments/:id", secured, h.deleteTournament)
	app.Post("/tournaments/:id/cover", secured, h.uploadCover)
	app.Post("/tournaments/:id/gallery", secured, h.uploadGalleryImage)

	admin := app.Group("/admin", middleware.RequireRole(middleware.RoleAdmin))
	admin.Patch("/tournaments/:id/approval", h.setApproval)
}

func (h *Handlers) listTournaments(c *fiber.Ctx) error {
	page, err := h.Tournaments.ListPublic(c.UserContext(), c.QueryInt("page", 1), c.QueryInt("limit", 0))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(page)
}

func (h *Handlers) getTournament(c *fiber.Ctx) error {
	t, err := h.Tournaments.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(t)
}

func (h *Handlers) earlyBird(c *fiber.Ctx) error {
	quote, err := h.Tournaments.EarlyBird(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(quote)
}

func (h *Handlers) createTournament(c *fiber.Ctx) error {
	var in services.TournamentInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	t, err := h.Tournaments.Create(c.UserContext(), middleware.UserID(c), in)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

func (h *Handlers) updateTournament(c *fiber.Ctx) error {
	var in services.TournamentInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	t, err := h.Tournaments.Update(c.UserContext(), actor(c), c.Params("id"), in)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(t)
}

func (h *Handlers) deleteTournament(c *fiber.Ctx) error {
	if err := h.Tournaments.Delete(c.UserContext(), actor(c), c.Params("id")); err != nil {
		return h.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handlers) setApproval(c *fiber.Ctx) error {
	var body struct {
		Approved *bool `json:"approved"`
	}
	if err := c.BodyParser(&body); err != nil || body.Approved == nil {
		return badRequest(c, "approved is required")
	}
	if err := h.Tournaments.SetApproval(c.UserContext(), c.Params("id"), *body.Approved); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"id": c.Params("id"), "approved": *body.Approved})
}

func (h *Handlers) uploadCover(c *fiber.Ctx) error {
	return h.withUpload(c, h.Tournaments.SetCover)
}

func (h *Handlers) uploadGalleryImage(c *fiber.Ctx) error {
	return h.withUpload(c, h.Tournaments.AddGalleryImage)
}

type uploadFunc func(ctx context.Context, actor services.Actor, id string, upload media.Upload) (*models.Tournament, error)

// withUpload reads the multipart "image" field and hands it to store.
func (h *Handlers) withUpload(c *fiber.Ctx, store uploadFunc) error {
	file, err := c.FormFile("image")
	if err != nil {
		return badRequest(c, "image file is required")
	}
	src, err := file.Open()
	if err != nil {
		return h.respondError(c, err)
	}
	defer src.Close()

	t, err := store(c.UserContext(), actor(c), c.Params("id"), media.Upload{
		Filename:    file.Filename,
		ContentType: file.Header.Get(fiber.HeaderContentType),
		Size:        file.Size,
		Body:        src,
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(t)
}
