package admin

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/opslens/runboard/internal/app"
	"github.com/opslens/runboard/internal/httpserver/httputil"
	"github.com/opslens/runboard/internal/store"
)

type userHandler struct {
	store *store.MongoStore
}

func registerUserRoutes(router fiber.Router, container *app.Container) {
	handler := &userHandler{store: container.Store}

	router.Get("/users", handler.list)
	router.Get("/users/:id/index", handler.index)
}

func (h *userHandler) list(c *fiber.Ctx) error {
	if h.store == nil {
		return httputil.WriteError(c, fiber.StatusInternalServerError, "user store unavailable")
	}
	users, err := h.store.ListUsers(c.UserContext())
	if err != nil {
		return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"users": users})
}

func (h *userHandler) index(c *fiber.Ctx) error {
	if h.store == nil {
		return httputil.WriteError(c, fiber.StatusInternalServerError, "user store unavailable")
	}
	userID := strings.TrimSpace(c.Params("id"))
	if userID == "" {
		return httputil.WriteError(c, fiber.StatusBadRequest, "user id is required")
	}

	entries, err := h.store.ListUserIndex(c.UserContext(), userID)
	if err != nil {
		return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"entries": entries})
}
