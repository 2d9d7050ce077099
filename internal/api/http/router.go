package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/SaschaHYR/G-Copro-sub000/internal/api/http/handlers"
	"github.com/SaschaHYR/G-Copro-sub000/internal/auth"
	"github.com/SaschaHYR/G-Copro-sub000/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Notifications  *handlers.NotificationsHandler
	Admin          *handlers.AdminHandler
	Uploads        *handlers.UploadsHandler
	AuthMiddleware *auth.AuthMiddleware
	UploadDir      string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Auth.Logout)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireNonPending())
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/code/:code", cfg.Tickets.GetTicketByCode)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/comments", cfg.Tickets.Reply)
	tickets.Post("/:id/transfer", cfg.Tickets.Transfer)
	tickets.Post("/:id/close", cfg.Tickets.CloseTicket)
	tickets.Post("/:id/reopen", cfg.Tickets.ReopenTicket)

	// active categories and buildings are readable by any signed-in account,
	// the ticket form needs them
	app.Get("/categories", cfg.AuthMiddleware.Handle, cfg.Admin.ListCategories)
	app.Get("/buildings", cfg.AuthMiddleware.Handle, cfg.Admin.ListBuildings)

	notifications := app.Group("/notifications", cfg.AuthMiddleware.Handle, auth.RequireNonPending())
	notifications.Get("/count", cfg.Notifications.Count)
	notifications.Post("/read/:ticketID", cfg.Notifications.MarkRead)
	notifications.Post("/reset", cfg.Notifications.Reset)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(
		domain.RoleSyndic, domain.RoleASL, domain.RoleSuperadmin,
	))
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Patch("/users/:id", cfg.Admin.UpdateUser)
	admin.Post("/categories", cfg.Admin.CreateCategory)
	admin.Get("/categories", cfg.Admin.ListCategories)
	admin.Patch("/categories/:id", cfg.Admin.UpdateCategory)
	admin.Post("/buildings", cfg.Admin.CreateBuilding)
	admin.Get("/buildings", cfg.Admin.ListBuildings)
	admin.Patch("/buildings/:id", cfg.Admin.UpdateBuilding)

	app.Post("/uploads", cfg.AuthMiddleware.Handle, auth.RequireNonPending(), cfg.Uploads.Upload)
	if cfg.UploadDir != "" {
		app.Static("/files", cfg.UploadDir)
	}
}
