package handlers

import (
	"github.com/gofiber/fiber/v2"

	"chessfam/middleware"
)

func setupRegistrationRoutes(app *fiber.App, h *Handlers) {
	secured := middleware.RequireUser()
	app.Post("/tournaments/:id/register", secured, h.register)
	app.Delete("/tournaments/:id/register", secured, h.withdraw)

	// Called by the payment service, which only holds the gateway token.
	app.Post("/registrations/:id/payment", h.markPaid)
}

func (h *Handlers) register(c *fiber.Ctx) error {
	reg, err := h.Registrations.Register(c.UserContext(), c.Params("id"), middleware.UserID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(reg)
}

func (h *Handlers) withdraw(c *fiber.Ctx) error {
	if err := h.Withdrawals.Withdraw(c.UserContext(), c.Params("id"), middleware.UserID(c)); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "withdrawn"})
}

func (h *Handlers) markPaid(c *fiber.Ctx) error {
	var body struct {
		PaymentReference string `json:"payment_reference"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	reg, err := h.Registrations.MarkPaid(c.UserContext(), c.Params("id"), body.PaymentReference)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(reg)
}
