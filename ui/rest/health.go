package rest

import (
	"github.com/gofiber/fiber/v2"
	"github.com/playmallpark/winston/pkg/utils"
)

type Health struct {
	deps Deps
}

func InitRestHealth(app fiber.Router, deps Deps) Health {
	handler := Health{deps: deps}

	group := app.Group("/health")
	group.Get("/status", handler.GetStatus)

	return handler
}

func (h *Health) GetStatus(c *fiber.Ctx) error {
	snap := h.deps.Monitor.Snapshot()
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Estado del bot",
		Results: fiber.Map{
			"server_id":      h.deps.ServerID,
			"connection":     h.deps.State(),
			"logged_in":      h.deps.LoggedIn(),
			"uptime":         snap.Uptime,
			"last_heartbeat": snap.LastHeartbeat,
		},
	})
}
