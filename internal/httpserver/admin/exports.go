package admin

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/opslens/runboard/internal/app"
	"github.com/opslens/runboard/internal/httpserver/httputil"
	"github.com/opslens/runboard/internal/storage/blob"
)

type exportHandler struct {
	store blob.Store
}

func registerExportRoutes(router fiber.Router, container *app.Container) {
	handler := &exportHandler{store: container.Exports}

	group := router.Group("/exports")
	group.Get("/*", handler.download)
	group.Delete("/*", handler.remove)
}

func (h *exportHandler) download(c *fiber.Ctx) error {
	if h.store == nil {
		return httputil.WriteError(c, fiber.StatusInternalServerError, "export store unavailable")
	}
	key := strings.TrimSpace(c.Params("*"))
	if key == "" {
		return httputil.WriteError(c, fiber.StatusBadRequest, "export key is required")
	}

	body, info, err := h.store.Get(c.UserContext(), key)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return httputil.WriteError(c, fiber.StatusNotFound, "export not found")
		}
		return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
	}

	if info.ContentType != "" {
		c.Set(fiber.HeaderContentType, info.ContentType)
	}
	if info.Size > 0 {
		return c.SendStream(body, int(info.Size))
	}
	return c.SendStream(body)
}

func (h *exportHandler) remove(c *fiber.Ctx) error {
	if h.store == nil {
		return httputil.WriteError(c, fiber.StatusInternalServerError, "export store unavailable")
	}
	key := strings.TrimSpace(c.Params("*"))
	if key == "" {
		return httputil.WriteError(c, fiber.StatusBadRequest, "export key is required")
	}

	if err := h.store.Delete(c.UserContext(), key); err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return httputil.WriteError(c, fiber.StatusNotFound, "export not found")
		}
		return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(fiber.StatusNoContent)
}
