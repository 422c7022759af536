package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/clientcare/support-portal/internal/api/http/handlers"
	"github.com/clientcare/support-portal/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Manager        *handlers.ManagerHandler
	Inbound        *handlers.InboundHandler
	Analytics      *handlers.AnalyticsHandler
	AuthMiddleware *auth.AuthMiddleware
	ManagerKey     string
	InboundKey     string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/request-code", cfg.Auth.RequestCode)
	authGroup.Post("/login", cfg.Auth.Login)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Post("/:id/rating", cfg.Tickets.RateTicket)

	manager := app.Group("/manager", auth.RequireSharedKey("X-Manager-Key", cfg.ManagerKey))
	manager.Post("/tickets/:id/comment", cfg.Manager.AddComment)
	manager.Post("/tickets/:id/status", cfg.Manager.UpdateStatus)

	app.Post("/integrations/crm/inbound",
		auth.RequireSharedKey("X-CRM-Key", cfg.InboundKey),
		cfg.Inbound.Handle)

	app.Get("/analytics", cfg.Analytics.Report)
}
