package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chessfam/apperrors"
	"chessfam/logger"
	"chessfam/metrics"
	"chessfam/middleware"
	"chessfam/services"
)

// Handlers holds the services behind the HTTP routes.
type Handlers struct {
	Tournaments   *services.TournamentService
	Registrations *services.RegistrationCoordinator
	Withdrawals   *services.WithdrawalCoordinator
	Series        *services.SeriesAggregator
	Players       *services.PlayerSearch
	Metrics       *metrics.Metrics
	Log           *logger.Logger
}

// SetupRoutes registers every route behind the gateway token check.
func SetupRoutes(app *fiber.App, h *Handlers, gatewayToken string) {
	if h.Log == nil {
		h.Log = logger.Nop()
	}

	app.Use(middleware.GatewayAuth(gatewayToken, h.Log), middleware.UserContext())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if h.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(h.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	setupTournamentRoutes(app, h)
	setupRegistrationRoutes(app, h)
	setupSeriesRoutes(app, h)
	setupPlayerRoutes(app, h)
}

// respondError renders err as {"error": message}. Errors that are not
// AppErrors are logged and hidden behind a generic 500.
func (h *Handlers) respondError(c *fiber.Ctx, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Code != apperrors.CodeInternal {
		return c.Status(appErr.HTTPStatus()).JSON(fiber.Map{"error": appErr.Message})
	}

	h.Log.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func actor(c *fiber.Ctx) services.Actor {
	return services.Actor{
		UserID:  middleware.UserID(c),
		IsAdmin: middleware.HasRole(c, middleware.RoleAdmin),
	}
}
