package admin

import (
	"github.com/gofiber/fiber/v2"

	"github.com/opslens/runboard/internal/app"
)

// Register wires up the /api dashboard routes.
func Register(app *fiber.App, container *app.Container) {
	api := app.Group("/api")
	registerReportRoutes(api, container)
	registerUserRoutes(api, container)
	registerInsightRoutes(api, container)
	registerExportRoutes(api, container)
}
