package admin

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/opslens/runboard/internal/app"
	"github.com/opslens/runboard/internal/httpserver/httputil"
	insightsvc "github.com/opslens/runboard/internal/services/insight"
)

type insightHandler struct {
	service *insightsvc.Service
}

func registerInsightRoutes(router fiber.Router, container *app.Container) {
	handler := &insightHandler{service: container.Insights}

	group := router.Group("/users/:id/insights")
	group.Get("/", handler.list)
	group.Post("/", handler.create)
	group.Put("/:postID", handler.update)
	group.Delete("/:postID", handler.remove)
}

func (h *insightHandler) list(c *fiber.Ctx) error {
	if h.service == nil {
		return httputil.WriteError(c, fiber.StatusInternalServerError, "insight service unavailable")
	}
	userID := strings.TrimSpace(c.Params("id"))
	if userID == "" {
		return httputil.WriteError(c, fiber.StatusBadRequest, "user id is required")
	}

	insights, err := h.service.ListByUser(c.UserContext(), userID)
	if err != nil {
		return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"insights": insights})
}

func (h *insightHandler) create(c *fiber.Ctx) error {
	if h.service == nil {
		return httputil.WriteError(c, fiber.StatusInternalServerError, "insight service unavailable")
	}
	userID := strings.TrimSpace(c.Params("id"))
	if userID == "" {
		return httputil.WriteError(c, fiber.StatusBadRequest, "user id is required")
	}

	var entry insightsvc.Insight
	if err := c.BodyParser(&entry); err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid request body")
	}
	entry.UserID = userID

	created, err := h.service.Create(c.UserContext(), entry)
	if err != nil {
		if errors.Is(err, insightsvc.ErrMissingField) {
			return httputil.WriteError(c, fiber.StatusBadRequest, err.Error())
		}
		return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *insightHandler) update(c *fiber.Ctx) error {
	if h.service == nil {
		return httputil.WriteError(c, fiber.StatusInternalServerError, "insight service unavailable")
	}
	userID := strings.TrimSpace(c.Params("id"))
	postID := strings.TrimSpace(c.Params("postID"))
	if userID == "" || postID == "" {
		return httputil.WriteError(c, fiber.StatusBadRequest, "user id and post id are required")
	}

	var entry insightsvc.Insight
	if err := c.BodyParser(&entry); err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid request body")
	}
	entry.UserID = userID
	entry.PostID = postID

	updated, err := h.service.Update(c.UserContext(), entry)
	if err != nil {
		switch {
		case errors.Is(err, insightsvc.ErrMissingField):
			return httputil.WriteError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, insightsvc.ErrNotFound):
			return httputil.WriteError(c, fiber.StatusNotFound, "insight not found")
		}
		return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(updated)
}

func (h *insightHandler) remove(c *fiber.Ctx) error {
	if h.service == nil {
		return httputil.WriteError(c, fiber.StatusInternalServerError, "insight service unavailable")
	}
	userID := strings.TrimSpace(c.Params("id"))
	postID := strings.TrimSpace(c.Params("postID"))
	if userID == "" || postID == "" {
		return httputil.WriteError(c, fiber.StatusBadRequest, "user id and post id are required")
	}

	if err := h.service.Delete(c.UserContext(), userID, postID); err != nil {
		if errors.Is(err, insightsvc.ErrNotFound) {
			return httputil.WriteError(c, fiber.StatusNotFound, "insight not found")
		}
		return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(fiber.StatusNoContent)
}
